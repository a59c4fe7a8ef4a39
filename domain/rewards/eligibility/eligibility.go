// Package eligibility implements the versioned rules that decide whether an
// entry takes part in a round's reward distribution.
package eligibility

import (
	"fmt"

	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
)

// Version identifies an eligibility rule set.
type Version uint8

// Eligibility rule versions, in activation order.
const (
	// V1 only looks at the eligible balance.
	V1 Version = iota + 1

	// V2 disqualifies addresses that spent or received a smartnode payment.
	V2

	// V3 additionally requires a vote proof.
	V3
)

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// Policy decides the eligibility of entries within one round.
type Policy interface {
	Version() Version

	// IsDisqualified returns whether the entry lost its eligibility
	// during the round.
	IsDisqualified(entry *model.Entry) bool

	// IsEligible returns whether the entry is entitled to a reward.
	IsEligible(entry *model.Entry) bool
}

// ForRound returns the policy that applies to the given round number.
func ForRound(round uint32, params *rewardsconfig.Params) Policy {
	switch {
	case params.FirstVoteProofRound != 0 && round >= params.FirstVoteProofRound:
		return voteProofPolicy{}
	case round >= params.FirstDisqualificationRound:
		return disqualificationPolicy{}
	default:
		return balancePolicy{}
	}
}

type balancePolicy struct{}

func (balancePolicy) Version() Version { return V1 }

func (balancePolicy) IsDisqualified(entry *model.Entry) bool {
	return entry.HasDisqualifyingTx()
}

func (balancePolicy) IsEligible(entry *model.Entry) bool {
	return entry.BalanceEligible > 0
}

type disqualificationPolicy struct{}

func (disqualificationPolicy) Version() Version { return V2 }

func (disqualificationPolicy) IsDisqualified(entry *model.Entry) bool {
	return entry.HasDisqualifyingTx() || entry.IsSmartnode()
}

func (p disqualificationPolicy) IsEligible(entry *model.Entry) bool {
	return !p.IsDisqualified(entry) && entry.BalanceEligible > 0
}

type voteProofPolicy struct {
	disqualificationPolicy
}

func (voteProofPolicy) Version() Version { return V3 }

func (p voteProofPolicy) IsEligible(entry *model.Entry) bool {
	return p.disqualificationPolicy.IsEligible(entry) && entry.HasVoteProof()
}
