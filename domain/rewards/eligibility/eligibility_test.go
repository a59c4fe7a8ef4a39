package eligibility

import (
	"testing"

	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/util/hashes"
	"github.com/stretchr/testify/require"
)

func TestForRound(t *testing.T) {
	params := rewardsconfig.TestnetParams
	require.Equal(t, V1, ForRound(params.FirstDisqualificationRound-1, &params).Version())
	require.Equal(t, V2, ForRound(params.FirstDisqualificationRound, &params).Version())
	require.Equal(t, V3, ForRound(params.FirstVoteProofRound, &params).Version())

	params.FirstVoteProofRound = 0
	require.Equal(t, V2, ForRound(1000, &params).Version())
}

func TestCheckAtActivation(t *testing.T) {
	params := &rewardsconfig.MainnetParams
	policy := ForRound(params.FirstDisqualificationRound, params)

	entry := &model.Entry{Balance: 1000, BalanceEligible: 1000}
	require.True(t, policy.IsEligible(entry))

	entry.DisqualifyingTx = hashes.Hash{0xaa}
	require.False(t, policy.IsEligible(entry))
}

func TestPolicies(t *testing.T) {
	tx := hashes.Hash{0x01}
	tests := []struct {
		name     string
		entry    model.Entry
		eligible map[Version]bool
	}{
		{
			name:     "no eligible balance",
			entry:    model.Entry{Balance: 5000},
			eligible: map[Version]bool{V1: false, V2: false, V3: false},
		},
		{
			name:     "funded without vote",
			entry:    model.Entry{Balance: 5000, BalanceEligible: 5000},
			eligible: map[Version]bool{V1: true, V2: true, V3: false},
		},
		{
			name:     "funded with vote",
			entry:    model.Entry{Balance: 5000, BalanceEligible: 5000, VoteProof: tx},
			eligible: map[Version]bool{V1: true, V2: true, V3: true},
		},
		{
			name:     "smartnode",
			entry:    model.Entry{Balance: 5000, BalanceEligible: 5000, VoteProof: tx, SmartnodePaymentTx: tx},
			eligible: map[Version]bool{V1: true, V2: false, V3: false},
		},
	}

	policies := []Policy{balancePolicy{}, disqualificationPolicy{}, voteProofPolicy{}}
	for _, test := range tests {
		for _, policy := range policies {
			require.Equal(t, test.eligible[policy.Version()], policy.IsEligible(&test.entry),
				"%s under %s", test.name, policy.Version())
		}
	}
}
