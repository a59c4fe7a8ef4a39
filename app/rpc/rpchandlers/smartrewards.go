package rpchandlers

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/app/appmessage"
	"github.com/smartcash/smartrewardsd/app/rpc/rpccontext"
	"github.com/smartcash/smartrewardsd/domain/rewards"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
)

// SmartRewards sub commands.
const (
	SmartRewardsCurrent  = "current"
	SmartRewardsHistory  = "history"
	SmartRewardsPayouts  = "payouts"
	SmartRewardsSnapshot = "snapshot"
	SmartRewardsCheck    = "check"
	SmartRewardsPayees   = "payees"
)

const smartRewardsUsage = "smartrewards \"command\"...\n" +
	"Set of commands to execute smartrewards related actions\n" +
	"\nAvailable commands:\n" +
	"  current           - Print information about the current SmartReward cycle.\n" +
	"  history           - Print the results of all past SmartReward cycles.\n" +
	"  payouts  :round   - Print a list of all paid rewards in the past cycle :round\n" +
	"  snapshot :round   - Print a list of all addresses with their balances from the end of the past cycle :round.\n" +
	"  check :address    - Check the given :address for eligibility in the current rewards cycle.\n" +
	"  payees :height    - Print the rewards paid by the block at :height.\n"

const errBusyMessage = "Rewards database is busy..Try it again!"

type smartRewardsHandler func(context *rpccontext.Context,
	request *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error)

var smartRewardsHandlers = map[string]smartRewardsHandler{
	SmartRewardsCurrent:  handleCurrent,
	SmartRewardsHistory:  handleHistory,
	SmartRewardsPayouts:  handlePayouts,
	SmartRewardsSnapshot: handleSnapshot,
	SmartRewardsCheck:    handleCheck,
	SmartRewardsPayees:   handlePayees,
}

// HandleSmartRewards handles the respectively named RPC command
func HandleSmartRewards(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	smartRewardsRequest := request.(*appmessage.SmartRewardsRequestMessage)

	handler, ok := smartRewardsHandlers[smartRewardsRequest.SubCommand]
	if !ok {
		return errorResponse(appmessage.RPCErrorInvalidArgument, smartRewardsUsage), nil
	}

	if !smartRewardsRequest.IgnoreSync && !context.Rewards.IsSynced() {
		return errorResponse(appmessage.RPCErrorNotReady,
			"Rewards database is not up to date. Current progress %d%%", int(context.Rewards.Progress()*100)), nil
	}

	response, err := handler(context, smartRewardsRequest)
	if err != nil {
		if errors.Is(err, rewards.ErrBusy) {
			return errorResponse(appmessage.RPCErrorBusy, errBusyMessage), nil
		}
		log.Errorf("smartrewards %s failed: %+v", smartRewardsRequest.SubCommand, err)
		return errorResponse(appmessage.RPCErrorDatabase, "Couldn't fetch the list from the database."), nil
	}
	return response, nil
}

func errorResponse(kind appmessage.RPCErrorKind, format string, args ...interface{}) *appmessage.SmartRewardsResponseMessage {
	return &appmessage.SmartRewardsResponseMessage{Error: appmessage.RPCErrorf(kind, format, args...)}
}

func handleCurrent(context *rpccontext.Context,
	_ *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error) {

	round, found, err := context.Rewards.CurrentRound()
	if err != nil {
		return nil, err
	}
	if !found {
		return errorResponse(appmessage.RPCErrorNotFound, "No active reward round available yet."), nil
	}
	return &appmessage.SmartRewardsResponseMessage{Current: context.BuildCurrentRound(round)}, nil
}

func handleHistory(context *rpccontext.Context,
	_ *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error) {

	rounds, err := context.Rewards.RewardRounds()
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return errorResponse(appmessage.RPCErrorNotFound, "No finished reward round available yet."), nil
	}

	history := make([]*appmessage.RewardsClosedRound, len(rounds))
	for i, round := range rounds {
		history[i] = context.BuildClosedRound(round)
	}
	return &appmessage.SmartRewardsResponseMessage{History: history}, nil
}

// pastRound parses the round argument of payouts and snapshot. It returns a
// response when the argument does not name a closed round.
func pastRound(context *rpccontext.Context,
	request *appmessage.SmartRewardsRequestMessage) (uint32, *appmessage.SmartRewardsResponseMessage, error) {

	current, found, err := context.Rewards.CurrentRound()
	if err != nil {
		return 0, nil, err
	}
	if !found {
		return 0, errorResponse(appmessage.RPCErrorNotFound, "No active reward round available yet."), nil
	}

	invalid := errorResponse(appmessage.RPCErrorInvalidArgument,
		"Past SmartReward round required: 1 - %d ", current.Number-1)
	if len(request.Arguments) != 1 {
		return 0, invalid, nil
	}
	number, err := strconv.ParseUint(request.Arguments[0], 10, 32)
	if err != nil || number < 1 || number >= uint64(current.Number) {
		return 0, invalid, nil
	}
	return uint32(number), nil, nil
}

func handlePayouts(context *rpccontext.Context,
	request *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error) {

	number, response, err := pastRound(context, request)
	if err != nil || response != nil {
		return response, err
	}
	paid, _, found, err := context.Rewards.RoundPayouts(number)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("round %d has no payout schedule", number)
	}
	return &appmessage.SmartRewardsResponseMessage{Payouts: context.BuildPayouts(paid)}, nil
}

func handleSnapshot(context *rpccontext.Context,
	request *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error) {

	number, response, err := pastRound(context, request)
	if err != nil || response != nil {
		return response, err
	}
	results, found, err := context.Rewards.RoundResults(number)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("round %d has no results", number)
	}
	return &appmessage.SmartRewardsResponseMessage{Snapshot: context.BuildSnapshot(results)}, nil
}

func handleCheck(context *rpccontext.Context,
	request *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error) {

	if len(request.Arguments) != 1 {
		return errorResponse(appmessage.RPCErrorInvalidArgument, "SmartCash address required."), nil
	}
	addressString := request.Arguments[0]
	address, err := model.DecodeAddress(addressString, context.Rewards.Params())
	if err != nil {
		return errorResponse(appmessage.RPCErrorInvalidArgument,
			"Invalid SmartCash address provided: %s", addressString), nil
	}

	status, found, err := context.Rewards.RewardEntry(address)
	if err != nil {
		return nil, err
	}
	if !found {
		return errorResponse(appmessage.RPCErrorNotFound,
			"Couldn't find this SmartCash address in the database."), nil
	}
	return &appmessage.SmartRewardsResponseMessage{Check: context.BuildCheck(status)}, nil
}

func handlePayees(context *rpccontext.Context,
	request *appmessage.SmartRewardsRequestMessage) (*appmessage.SmartRewardsResponseMessage, error) {

	if len(request.Arguments) != 1 {
		return errorResponse(appmessage.RPCErrorInvalidArgument, "Block height required."), nil
	}
	height, err := strconv.ParseUint(request.Arguments[0], 10, 64)
	if err != nil {
		return errorResponse(appmessage.RPCErrorInvalidArgument,
			"Invalid block height provided: %s", request.Arguments[0]), nil
	}

	payees, err := context.Rewards.BlockPayees(height)
	if err != nil {
		return nil, err
	}
	return &appmessage.SmartRewardsResponseMessage{Payees: context.BuildPayouts(payees)}, nil
}
