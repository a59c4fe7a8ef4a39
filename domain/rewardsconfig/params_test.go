package rewardsconfig

import (
	"testing"

	"github.com/btcsuite/btcutil"
)

func TestEligibleBalance(t *testing.T) {
	params := &MainnetParams
	tests := []struct {
		balance  btcutil.Amount
		expected btcutil.Amount
	}{
		{balance: 0, expected: 0},
		{balance: params.MinBalance - 1, expected: 0},
		{balance: params.MinBalance, expected: params.MinBalance},
		{balance: params.MinBalance * 3, expected: params.MinBalance * 3},
	}
	for _, test := range tests {
		if got := params.EligibleBalance(test.balance); got != test.expected {
			t.Errorf("EligibleBalance(%d): got %d, want %d", test.balance, got, test.expected)
		}
	}
}

func TestRoundBounds(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &RegtestParams} {
		if params.FirstRoundEndHeight < params.FirstRoundStartHeight {
			t.Errorf("%s: first round ends before it starts", params.Name)
		}
		if got := params.RoundEndHeight(1, params.FirstRoundStartHeight); got != params.FirstRoundEndHeight {
			t.Errorf("%s: first round ends at %d, want %d", params.Name, got, params.FirstRoundEndHeight)
		}
		start := params.FirstRoundEndHeight + 1
		if got := params.RoundEndHeight(2, start); got != start+params.BlocksPerRound-1 {
			t.Errorf("%s: second round ends at %d", params.Name, got)
		}
		if params.PayeesPerBlock == 0 || params.PayoutBlockInterval == 0 {
			t.Errorf("%s: payout schedule must be non-zero", params.Name)
		}
	}
}

func TestRewardPool(t *testing.T) {
	params := &RegtestParams
	if got := params.RewardPool(10, 19); got != 10*params.RewardsPerBlock {
		t.Fatalf("RewardPool(10, 19): got %d, want %d", got, 10*params.RewardsPerBlock)
	}
	if got := params.RewardPool(20, 19); got != 0 {
		t.Fatalf("RewardPool of an empty range: got %d, want 0", got)
	}
}
