package model

import (
	"fmt"

	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// Round is a span of block heights over which balances accrue towards a
// single reward distribution.
//
// EligibleEntries/EligibleAmount and DisqualifiedEntries/DisqualifiedAmount
// partition the entries tracked by the round: entries that held at least
// the minimum balance when the round started.
type Round struct {
	Number      uint32
	StartHeight uint64
	StartTime   int64
	EndHeight   uint64
	EndTime     int64

	EligibleEntries     uint64
	EligibleAmount      btcutil.Amount
	DisqualifiedEntries uint64
	DisqualifiedAmount  btcutil.Amount

	RewardPool btcutil.Amount
	Percent    float64

	PayeesPerBlock uint32
	BlockInterval  uint64

	// ResultsCommitment is a multiset hash over the round's results. It is
	// zero while the round is open.
	ResultsCommitment hashes.Hash
}

// Clone returns a copy of the round.
func (r *Round) Clone() *Round {
	clone := *r
	return &clone
}

// Contains returns whether height belongs to the round.
func (r *Round) Contains(height uint64) bool {
	return height >= r.StartHeight && height <= r.EndHeight
}

// TrackedEntries returns the number of entries tracked by the round.
func (r *Round) TrackedEntries() uint64 {
	return r.EligibleEntries + r.DisqualifiedEntries
}

func (r *Round) String() string {
	return fmt.Sprintf("round %d [%d, %d]", r.Number, r.StartHeight, r.EndHeight)
}
