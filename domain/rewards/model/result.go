package model

import (
	"sort"

	"github.com/btcsuite/btcutil"
)

// RoundResult is the entitlement of one entry in a closed round.
type RoundResult struct {
	Entry  *Entry
	Reward btcutil.Amount
}

// Less orders results by address and then by reward.
func (r *RoundResult) Less(other *RoundResult) bool {
	cmp := r.Entry.Address.Compare(other.Entry.Address)
	return cmp < 0 || (cmp == 0 && r.Reward < other.Reward)
}

// SortRoundResults sorts results in place by address and then by reward.
func SortRoundResults(results []*RoundResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Less(results[j])
	})
}

// TotalReward sums the rewards of results.
func TotalReward(results []*RoundResult) btcutil.Amount {
	var total btcutil.Amount
	for _, result := range results {
		total += result.Reward
	}
	return total
}
