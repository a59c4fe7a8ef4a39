package rpccontext

import (
	"github.com/smartcash/smartrewardsd/app/appmessage"
	"github.com/smartcash/smartrewardsd/domain/rewards"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// BuildCurrentRound converts the open round to its query representation.
func (ctx *Context) BuildCurrentRound(round *model.Round) *appmessage.RewardsCurrentRound {
	return &appmessage.RewardsCurrentRound{
		RewardsCycle:          round.Number,
		StartBlockHeight:      round.StartHeight,
		StartBlockTime:        round.StartTime,
		EndBlockHeight:        round.EndHeight,
		EndBlockTime:          round.EndTime,
		EligibleAddresses:     round.EligibleEntries,
		EligibleSmart:         round.EligibleAmount.ToBTC(),
		DisqualifiedAddresses: round.DisqualifiedEntries,
		DisqualifiedSmart:     round.DisqualifiedAmount.ToBTC(),
		EstimatedRewards:      round.RewardPool.ToBTC(),
		EstimatedPercent:      round.Percent,
	}
}

// BuildClosedRound converts a closed round and its payout window to their
// query representation.
func (ctx *Context) BuildClosedRound(round *model.Round) *appmessage.RewardsClosedRound {
	closedRound := &appmessage.RewardsClosedRound{
		RewardsCycle:          round.Number,
		StartBlockHeight:      round.StartHeight,
		StartBlockTime:        round.StartTime,
		EndBlockHeight:        round.EndHeight,
		EndBlockTime:          round.EndTime,
		EligibleAddresses:     round.EligibleEntries,
		EligibleSmart:         round.EligibleAmount.ToBTC(),
		DisqualifiedAddresses: round.DisqualifiedEntries,
		DisqualifiedSmart:     round.DisqualifiedAmount.ToBTC(),
		Rewards:               round.RewardPool.ToBTC(),
		Percent:               round.Percent,
		Payouts:               &appmessage.RewardsPayoutSummary{},
	}
	if round.ResultsCommitment != hashes.ZeroHash {
		closedRound.ResultsCommitment = round.ResultsCommitment.String()
	}

	// Every eligible entry of a closed round is a payee.
	schedule := payouts.NewSchedule(round, ctx.Rewards.Params().PayoutStartDelay, uint32(round.EligibleEntries))
	if schedule.TotalPayees == 0 {
		closedRound.Payouts.Error = "No payees were eligible for this round"
		return closedRound
	}
	closedRound.Payouts.FirstBlock = schedule.FirstBlock
	closedRound.Payouts.TotalBlocks = schedule.RewardBlocks()
	closedRound.Payouts.LastBlock = schedule.LastBlock()
	closedRound.Payouts.TotalPayees = schedule.TotalPayees
	closedRound.Payouts.BlockPayees = schedule.PayeesPerBlock
	closedRound.Payouts.LastBlockPayees = schedule.LastBlockPayees()
	closedRound.Payouts.BlockInterval = schedule.BlockInterval
	return closedRound
}

// BuildPayouts converts paid results to their query representation.
func (ctx *Context) BuildPayouts(paid []*model.RoundResult) []*appmessage.RewardsPayout {
	rewardsPayouts := make([]*appmessage.RewardsPayout, len(paid))
	for i, result := range paid {
		rewardsPayouts[i] = &appmessage.RewardsPayout{
			Address: result.Entry.Address.String(),
			Reward:  result.Reward.ToBTC(),
		}
	}
	return rewardsPayouts
}

// BuildSnapshot converts the results of a closed round to the balances
// their entries held when it ended.
func (ctx *Context) BuildSnapshot(results []*model.RoundResult) []*appmessage.RewardsBalance {
	balances := make([]*appmessage.RewardsBalance, len(results))
	for i, result := range results {
		balances[i] = &appmessage.RewardsBalance{
			Address: result.Entry.Address.String(),
			Balance: result.Entry.Balance.ToBTC(),
		}
	}
	return balances
}

// BuildCheck converts the status of an entry to its query representation.
func (ctx *Context) BuildCheck(status *rewards.EntryStatus) *appmessage.RewardsCheck {
	entry := status.Entry
	return &appmessage.RewardsCheck{
		Address:         entry.Address.String(),
		Balance:         entry.Balance.ToBTC(),
		BalanceEligible: entry.BalanceEligible.ToBTC(),
		IsSmartnode:     entry.IsSmartnode(),
		Voted:           entry.HasVoteProof(),
		Eligible:        status.IsEligible,
	}
}
