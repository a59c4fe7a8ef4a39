package appmessage

// SmartRewardsRequestMessage is an appmessage corresponding to
// its respective RPC message
type SmartRewardsRequestMessage struct {
	SubCommand string   `json:"command"`
	Arguments  []string `json:"arguments,omitempty"`

	// IgnoreSync asks for an answer even if the ledger is behind the
	// chain tip.
	IgnoreSync bool `json:"ignoreSync,omitempty"`
}

// Command returns the protocol command string for the message
func (msg *SmartRewardsRequestMessage) Command() MessageCommand {
	return CmdSmartRewardsRequestMessage
}

// NewSmartRewardsRequestMessage returns a instance of the message
func NewSmartRewardsRequestMessage(subCommand string, arguments ...string) *SmartRewardsRequestMessage {
	return &SmartRewardsRequestMessage{
		SubCommand: subCommand,
		Arguments:  arguments,
	}
}

// SmartRewardsResponseMessage is an appmessage corresponding to
// its respective RPC message. Exactly one of the result fields is set
// unless Error is.
type SmartRewardsResponseMessage struct {
	Current  *RewardsCurrentRound  `json:"current,omitempty"`
	History  []*RewardsClosedRound `json:"history,omitempty"`
	Payouts  []*RewardsPayout      `json:"payouts,omitempty"`
	Snapshot []*RewardsBalance     `json:"snapshot,omitempty"`
	Check    *RewardsCheck         `json:"check,omitempty"`
	Payees   []*RewardsPayout      `json:"payees,omitempty"`

	Error *RPCError `json:"error,omitempty"`
}

// Command returns the protocol command string for the message
func (msg *SmartRewardsResponseMessage) Command() MessageCommand {
	return CmdSmartRewardsResponseMessage
}

// Result returns the result carried by the response, or the error.
func (msg *SmartRewardsResponseMessage) Result() interface{} {
	switch {
	case msg.Error != nil:
		return msg.Error
	case msg.Current != nil:
		return msg.Current
	case msg.History != nil:
		return msg.History
	case msg.Payouts != nil:
		return msg.Payouts
	case msg.Snapshot != nil:
		return msg.Snapshot
	case msg.Payees != nil:
		return msg.Payees
	default:
		return msg.Check
	}
}

// RewardsCurrentRound describes the open round
type RewardsCurrentRound struct {
	RewardsCycle          uint32  `json:"rewards_cycle"`
	StartBlockHeight      uint64  `json:"start_blockheight"`
	StartBlockTime        int64   `json:"start_blocktime"`
	EndBlockHeight        uint64  `json:"end_blockheight"`
	EndBlockTime          int64   `json:"end_blocktime"`
	EligibleAddresses     uint64  `json:"eligible_addresses"`
	EligibleSmart         float64 `json:"eligible_smart"`
	DisqualifiedAddresses uint64  `json:"disqualified_addresses"`
	DisqualifiedSmart     float64 `json:"disqualified_smart"`
	EstimatedRewards      float64 `json:"estimated_rewards"`
	EstimatedPercent      float64 `json:"estimated_percent"`
}

// RewardsClosedRound describes a closed round
type RewardsClosedRound struct {
	RewardsCycle          uint32                `json:"rewards_cycle"`
	StartBlockHeight      uint64                `json:"start_blockheight"`
	StartBlockTime        int64                 `json:"start_blocktime"`
	EndBlockHeight        uint64                `json:"end_blockheight"`
	EndBlockTime          int64                 `json:"end_blocktime"`
	EligibleAddresses     uint64                `json:"eligible_addresses"`
	EligibleSmart         float64               `json:"eligible_smart"`
	DisqualifiedAddresses uint64                `json:"disqualified_addresses"`
	DisqualifiedSmart     float64               `json:"disqualified_smart"`
	Rewards               float64               `json:"rewards"`
	Percent               float64               `json:"percent"`
	ResultsCommitment     string                `json:"results_commitment"`
	Payouts               *RewardsPayoutSummary `json:"payouts"`
}

// RewardsPayoutSummary describes the payout window of a closed round
type RewardsPayoutSummary struct {
	FirstBlock      uint64 `json:"firstBlock,omitempty"`
	TotalBlocks     uint64 `json:"totalBlocks,omitempty"`
	LastBlock       uint64 `json:"lastBlock,omitempty"`
	TotalPayees     uint32 `json:"totalPayees,omitempty"`
	BlockPayees     uint32 `json:"blockPayees,omitempty"`
	LastBlockPayees uint32 `json:"lastBlockPayees,omitempty"`
	BlockInterval   uint64 `json:"blockInterval,omitempty"`
	Error           string `json:"error,omitempty"`
}

// RewardsPayout is a reward paid to an address
type RewardsPayout struct {
	Address string  `json:"address"`
	Reward  float64 `json:"reward"`
}

// RewardsBalance is the balance an address ended a closed round with
type RewardsBalance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// RewardsCheck describes the eligibility of an address in the open round
type RewardsCheck struct {
	Address         string  `json:"address"`
	Balance         float64 `json:"balance"`
	BalanceEligible float64 `json:"balance_eligible"`
	IsSmartnode     bool    `json:"is_smartnode"`
	Voted           bool    `json:"voted"`
	Eligible        bool    `json:"eligible"`
}
