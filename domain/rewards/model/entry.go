package model

import (
	"fmt"

	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// Entry is the live reward eligibility record of an address. References are
// transaction hashes; the zero hash means the reference is unset.
type Entry struct {
	Address         Address
	Balance         btcutil.Amount
	BalanceAtStart  btcutil.Amount
	BalanceEligible btcutil.Amount

	DisqualifyingTx    hashes.Hash
	VoteProof          hashes.Hash
	SmartnodePaymentTx hashes.Hash

	// Reward is only set on result snapshots of closed rounds.
	Reward btcutil.Amount
}

// NewEntry returns an empty entry for address.
func NewEntry(address Address) *Entry {
	return &Entry{Address: address}
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	return &clone
}

// IsEmpty returns whether the entry carries no state worth persisting.
func (e *Entry) IsEmpty() bool {
	return e.Balance == 0 && e.BalanceAtStart == 0 && e.BalanceEligible == 0 &&
		e.DisqualifyingTx == hashes.ZeroHash && e.VoteProof == hashes.ZeroHash &&
		e.SmartnodePaymentTx == hashes.ZeroHash
}

// HasDisqualifyingTx returns whether a disqualifying spend was recorded.
func (e *Entry) HasDisqualifyingTx() bool {
	return e.DisqualifyingTx != hashes.ZeroHash
}

// HasVoteProof returns whether a vote proof was recorded.
func (e *Entry) HasVoteProof() bool {
	return e.VoteProof != hashes.ZeroHash
}

// IsSmartnode returns whether a smartnode payment to the address was recorded.
func (e *Entry) IsSmartnode() bool {
	return e.SmartnodePaymentTx != hashes.ZeroHash
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s balance: %s eligible: %s", e.Address, e.Balance, e.BalanceEligible)
}
