package payouts

import (
	"encoding/binary"

	"github.com/kaspanet/go-muhash"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// Commitment returns a multiset hash over (address, reward) of every result.
// It does not depend on the order of results, so it can be recomputed from
// either the address ordered results or the payout order.
func Commitment(results []*model.RoundResult) hashes.Hash {
	multiset := muhash.NewMuHash()
	for _, result := range results {
		multiset.Add(serializeCommitted(result))
	}
	return hashes.Hash(multiset.Finalize())
}

func serializeCommitted(result *model.RoundResult) []byte {
	serialized := make([]byte, model.AddressSize+8)
	copy(serialized, result.Entry.Address.Bytes())
	binary.LittleEndian.PutUint64(serialized[model.AddressSize:], uint64(result.Reward))
	return serialized
}
