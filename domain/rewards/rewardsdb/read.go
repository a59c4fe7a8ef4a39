package rewardsdb

import (
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// ReadBlock returns the marker of the block applied at height.
func (rdb *RewardsDB) ReadBlock(height uint64) (*model.BlockMarker, bool, error) {
	return readBlockMarker(rdb.db, blockKey(height))
}

// ReadLastBlock returns the marker of the last applied block.
func (rdb *RewardsDB) ReadLastBlock() (*model.BlockMarker, bool, error) {
	return readBlockMarker(rdb.db, lastBlockKey)
}

func readBlockMarker(accessor database.DataAccessor, key *database.Key) (*model.BlockMarker, bool, error) {
	serialized, found, err := get(accessor, key)
	if err != nil || !found {
		return nil, false, err
	}
	block, err := deserializeBlockMarker(serialized)
	if err != nil {
		return nil, false, err
	}
	return block, true, nil
}

// ReadTransaction returns the record of an applied transaction.
func (rdb *RewardsDB) ReadTransaction(hash *hashes.Hash) (*model.TransactionRecord, bool, error) {
	serialized, found, err := get(rdb.db, transactionKey(hash))
	if err != nil || !found {
		return nil, false, err
	}
	transaction, err := deserializeTransactionRecord(serialized)
	if err != nil {
		return nil, false, err
	}
	return transaction, true, nil
}

// ReadRound returns the closed round with the given number.
func (rdb *RewardsDB) ReadRound(number uint32) (*model.Round, bool, error) {
	return readRound(rdb.db, roundKey(number))
}

// ReadCurrentRound returns the open round.
func (rdb *RewardsDB) ReadCurrentRound() (*model.Round, bool, error) {
	return readRound(rdb.db, currentRoundKey)
}

func readRound(accessor database.DataAccessor, key *database.Key) (*model.Round, bool, error) {
	serialized, found, err := get(accessor, key)
	if err != nil || !found {
		return nil, false, err
	}
	round, err := deserializeRound(serialized)
	if err != nil {
		return nil, false, err
	}
	return round, true, nil
}

// ReadRounds returns every closed round ordered by number.
func (rdb *RewardsDB) ReadRounds() ([]*model.Round, error) {
	var rounds []*model.Round
	err := forEach(rdb.db, roundsBucket, func(_ *database.Key, value []byte) (bool, error) {
		round, err := deserializeRound(value)
		if err != nil {
			return false, err
		}
		rounds = append(rounds, round)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

// ReadRewardEntry returns the live entry of address.
func (rdb *RewardsDB) ReadRewardEntry(address model.Address) (*model.Entry, bool, error) {
	serialized, found, err := get(rdb.db, entryKey(address))
	if err != nil || !found {
		return nil, false, err
	}
	entry, err := deserializeEntry(serialized)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// ReadRewardEntries returns every live entry ordered by address.
func (rdb *RewardsDB) ReadRewardEntries() ([]*model.Entry, error) {
	return readEntries(rdb.db, entriesBucket)
}

func readEntries(accessor database.DataAccessor, bucket *database.Bucket) ([]*model.Entry, error) {
	var entries []*model.Entry
	err := forEach(accessor, bucket, func(_ *database.Key, value []byte) (bool, error) {
		entry, err := deserializeEntry(value)
		if err != nil {
			return false, err
		}
		entries = append(entries, entry)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadRewardRoundResults returns the results of a closed round ordered by
// address.
func (rdb *RewardsDB) ReadRewardRoundResults(number uint32) ([]*model.RoundResult, error) {
	var results []*model.RoundResult
	err := forEach(rdb.db, roundResultsBucket(number), func(_ *database.Key, value []byte) (bool, error) {
		result, err := deserializeRoundResult(value)
		if err != nil {
			return false, err
		}
		results = append(results, result)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ReadPayoutSchedule returns the payout schedule of a closed round.
func (rdb *RewardsDB) ReadPayoutSchedule(number uint32) (*payouts.Schedule, bool, error) {
	serialized, found, err := get(rdb.db, payoutScheduleKey(number))
	if err != nil || !found {
		return nil, false, err
	}
	schedule, err := deserializeSchedule(serialized)
	if err != nil {
		return nil, false, err
	}
	return schedule, true, nil
}

// ReadPayoutOrder returns up to limit addresses of a closed round's payout
// order. A negative limit returns the whole order.
func (rdb *RewardsDB) ReadPayoutOrder(number uint32, limit int) ([]model.Address, error) {
	var order []model.Address
	if limit == 0 {
		return order, nil
	}
	err := forEach(rdb.db, roundPayoutOrderBucket(number), func(_ *database.Key, value []byte) (bool, error) {
		address, err := model.AddressFromBytes(value)
		if err != nil {
			return false, err
		}
		order = append(order, address)
		return limit < 0 || len(order) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReadRewardPayouts returns the results of a closed round that were paid by
// the blocks applied so far, in payout order.
func (rdb *RewardsDB) ReadRewardPayouts(number uint32) ([]*model.RoundResult, error) {
	schedule, found, err := rdb.ReadPayoutSchedule(number)
	if err != nil || !found {
		return nil, err
	}
	lastBlock, found, err := rdb.ReadLastBlock()
	if err != nil || !found {
		return nil, err
	}

	return rdb.ReadPayoutResults(number, int(schedule.PaidCount(lastBlock.Height)))
}

// ReadPayoutResults returns the results of up to limit payees of a closed
// round's payout order, in that order. A negative limit returns them all.
func (rdb *RewardsDB) ReadPayoutResults(number uint32, limit int) ([]*model.RoundResult, error) {
	order, err := rdb.ReadPayoutOrder(number, limit)
	if err != nil {
		return nil, err
	}

	bucket := roundResultsBucket(number)
	paidResults := make([]*model.RoundResult, 0, len(order))
	for _, address := range order {
		serialized, found, err := get(rdb.db, bucket.Key(address.Bytes()))
		if err != nil {
			return nil, err
		}
		if !found {
			log.Warnf("Payout order of round %d references %s which has no result", number, address)
			continue
		}
		result, err := deserializeRoundResult(serialized)
		if err != nil {
			return nil, err
		}
		paidResults = append(paidResults, result)
	}
	return paidResults, nil
}

// ReadRoundSnapshot returns the open round and the live entries as they were
// right before the given round was finalized. Only the latest closed round
// has a snapshot.
func (rdb *RewardsDB) ReadRoundSnapshot(number uint32) (*model.Round, []*model.Entry, bool, error) {
	return readRoundSnapshot(rdb.db, number)
}

func readRoundSnapshot(accessor database.DataAccessor, number uint32) (*model.Round, []*model.Entry, bool, error) {
	round, found, err := readRound(accessor, snapshotRoundKey(number))
	if err != nil || !found {
		return nil, nil, false, err
	}
	entries, err := readEntries(accessor, roundSnapshotBucket(number))
	if err != nil {
		return nil, nil, false, err
	}
	return round, entries, true, nil
}
