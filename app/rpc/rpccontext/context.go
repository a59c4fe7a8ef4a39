package rpccontext

import (
	"github.com/smartcash/smartrewardsd/domain/rewards"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/infrastructure/config"
)

// RewardsLedger is the read side of the reward ledger. Its methods return
// rewards.ErrBusy instead of waiting for the writer.
type RewardsLedger interface {
	Params() *rewardsconfig.Params
	IsSynced() bool
	Progress() float64
	CurrentRound() (round *model.Round, found bool, err error)
	RewardRounds() ([]*model.Round, error)
	RewardEntry(address model.Address) (status *rewards.EntryStatus, found bool, err error)
	RoundResults(number uint32) (results []*model.RoundResult, found bool, err error)
	RoundPayouts(number uint32) (paid []*model.RoundResult, schedule *payouts.Schedule, found bool, err error)
	BlockPayees(height uint64) ([]*model.RoundResult, error)
}

// Context represents the RPC context
type Context struct {
	Config  *config.Config
	Rewards RewardsLedger
}

// NewContext creates a new RPC context
func NewContext(cfg *config.Config, ledger RewardsLedger) *Context {
	return &Context{
		Config:  cfg,
		Rewards: ledger,
	}
}
