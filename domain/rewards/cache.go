package rewards

import (
	"time"

	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// CacheEntries is the number of cached entries that forces a flush while the
// ledger is catching up with the chain.
const CacheEntries = 8000

// entryCache collects the changes of the blocks applied since the last
// flush.
type entryCache struct {
	entries        map[model.Address]*model.Entry
	transactions   []*model.TransactionRecord
	transactionSet map[hashes.Hash]struct{}
	blocks         []*model.BlockMarker
}

func newEntryCache() *entryCache {
	cache := &entryCache{}
	cache.reset()
	return cache
}

func (c *entryCache) reset() {
	c.entries = make(map[model.Address]*model.Entry)
	c.transactions = nil
	c.transactionSet = make(map[hashes.Hash]struct{})
	c.blocks = nil
}

func (c *entryCache) isEmpty() bool {
	return len(c.entries) == 0 && len(c.transactions) == 0 && len(c.blocks) == 0
}

func (c *entryCache) addTransaction(record *model.TransactionRecord) {
	c.transactions = append(c.transactions, record)
	c.transactionSet[record.Hash] = struct{}{}
}

func (c *entryCache) hasTransaction(hash *hashes.Hash) bool {
	_, ok := c.transactionSet[*hash]
	return ok
}

// cachedEntry returns the entry of address for modification, loading it
// into the cache if needed.
func (rw *Rewards) cachedEntry(address model.Address) (*model.Entry, error) {
	if entry, ok := rw.cache.entries[address]; ok {
		return entry, nil
	}
	entry, found, err := rw.store.ReadRewardEntry(address)
	if err != nil {
		return nil, err
	}
	if !found {
		entry = model.NewEntry(address)
	}
	rw.cache.entries[address] = entry
	return entry, nil
}

func (rw *Rewards) isTransactionApplied(hash *hashes.Hash) (bool, error) {
	if rw.cache.hasTransaction(hash) {
		return true, nil
	}
	_, found, err := rw.store.ReadTransaction(hash)
	return found, err
}

// flush writes the cached changes to the store in one atomic batch.
func (rw *Rewards) flush() error {
	if rw.cache.isEmpty() {
		return nil
	}
	onEnd := logger.LogAndMeasureExecutionTime(log, "Rewards.flush")
	defer onEnd()
	start := time.Now()

	var round *model.Round
	if rw.currentRound != nil {
		rw.currentRound.Percent = estimatedPercent(rw.currentRound)
		round = rw.currentRound
	}
	err := rw.store.SyncCached(rw.cache.blocks, round, rw.cache.entries, rw.cache.transactions, false)
	if err != nil {
		return err
	}
	log.Debugf("Flushed %d entries and %d transactions of %d blocks",
		len(rw.cache.entries), len(rw.cache.transactions), len(rw.cache.blocks))
	rw.cache.reset()

	rw.metrics.ObserveFlush(time.Since(start))
	rw.metrics.SetCachedEntries(0)
	rw.reportRound()
	return nil
}

func (rw *Rewards) shouldFlush() bool {
	return rw.isSynced() || len(rw.cache.entries) >= CacheEntries
}
