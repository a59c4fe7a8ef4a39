package payouts

import (
	"math/big"
	"sort"

	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// Score returns the payout ordinal of address for the given block hash:
// double-SHA256(blockHash || address) read as a big-endian number.
func Score(address model.Address, blockHash *hashes.Hash) *big.Int {
	writer := hashes.NewDoubleHashWriter()
	writer.Write(blockHash[:])
	writer.Write(address.Bytes())
	score := writer.Finalize()
	return score.ToBig()
}

type scoredResult struct {
	result *model.RoundResult
	score  *big.Int
}

// Order returns the payout order of results: descending score for the given
// block hash, ties broken by address. results is left untouched.
func Order(results []*model.RoundResult, blockHash *hashes.Hash) []*model.RoundResult {
	scored := make([]scoredResult, len(results))
	for i, result := range results {
		scored[i] = scoredResult{result: result, score: Score(result.Entry.Address, blockHash)}
	}
	sort.Slice(scored, func(i, j int) bool {
		if cmp := scored[i].score.Cmp(scored[j].score); cmp != 0 {
			return cmp > 0
		}
		return scored[i].result.Less(scored[j].result)
	})

	order := make([]*model.RoundResult, len(scored))
	for i, s := range scored {
		order[i] = s.result
	}
	return order
}
