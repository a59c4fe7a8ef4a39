package rewardsdb

import (
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database"
	"github.com/smartcash/smartrewardsd/util/binaryserializer"
)

// SyncCached atomically applies a batch of per-block changes.
//
// blocks are the markers of the blocks in the batch in height order. When
// applying, each is stored and the last one becomes the last-block marker.
// When undoing, each is deleted and the last-block marker is re-pointed to
// the parent of the lowest one. A nil round leaves the open round untouched.
// Entries are written as given and empty ones are deleted. Transaction
// records are stored when applying and deleted when undoing.
func (rdb *RewardsDB) SyncCached(blocks []*model.BlockMarker, round *model.Round,
	entries map[model.Address]*model.Entry, transactions []*model.TransactionRecord, undo bool) error {

	operation := "sync"
	if undo {
		operation = "undo sync"
	}
	return rdb.update(operation, func(dbTx database.Transaction) error {
		err := putEntries(dbTx, entries)
		if err != nil {
			return err
		}

		for _, transaction := range transactions {
			key := transactionKey(&transaction.Hash)
			if undo {
				err = dbTx.Delete(key)
			} else {
				err = putRecord(dbTx, key, transaction, serializeTransactionRecord)
			}
			if err != nil {
				return err
			}
		}

		if round != nil {
			err = putRecord(dbTx, currentRoundKey, round, serializeRound)
			if err != nil {
				return err
			}
		}

		if len(blocks) == 0 {
			return nil
		}
		if undo {
			return undoBlockMarkers(dbTx, blocks)
		}
		return putBlockMarkers(dbTx, blocks)
	})
}

func putBlockMarkers(dbTx database.Transaction, blocks []*model.BlockMarker) error {
	for _, block := range blocks {
		err := putRecord(dbTx, blockKey(block.Height), block, serializeBlockMarker)
		if err != nil {
			return err
		}
	}
	return putRecord(dbTx, lastBlockKey, blocks[len(blocks)-1], serializeBlockMarker)
}

func undoBlockMarkers(dbTx database.Transaction, blocks []*model.BlockMarker) error {
	lowest := blocks[0].Height
	for _, block := range blocks {
		err := dbTx.Delete(blockKey(block.Height))
		if err != nil {
			return err
		}
		if block.Height < lowest {
			lowest = block.Height
		}
	}

	if lowest == 0 {
		return dbTx.Delete(lastBlockKey)
	}
	parent, found, err := readBlockMarker(dbTx, blockKey(lowest-1))
	if err != nil {
		return err
	}
	if !found {
		return dbTx.Delete(lastBlockKey)
	}
	return putRecord(dbTx, lastBlockKey, parent, serializeBlockMarker)
}

// StartFirstRound atomically opens the first round and writes the entry
// snapshot it starts from.
func (rdb *RewardsDB) StartFirstRound(round *model.Round, entries []*model.Entry) error {
	return rdb.update("start first round", func(dbTx database.Transaction) error {
		_, found, err := readRound(dbTx, currentRoundKey)
		if err != nil {
			return err
		}
		if found {
			return errors.New("a round is already open")
		}
		err = putRecord(dbTx, currentRoundKey, round, serializeRound)
		if err != nil {
			return err
		}
		return putEntries(dbTx, entriesMap(entries))
	})
}

// FinalizeRound atomically closes current and opens next.
//
// The live entry table and the stored open round are snapshotted under
// current.Number so that the closure can be undone, and the snapshot of the
// previous round is dropped. current is archived with its results, payout
// order and payout schedule. entries replaces the live entry table.
func (rdb *RewardsDB) FinalizeRound(current *model.Round, next *model.Round, entries []*model.Entry,
	results []*model.RoundResult, payoutOrder []*model.RoundResult, schedule *payouts.Schedule) error {

	return rdb.update("finalize round", func(dbTx database.Transaction) error {
		openRound, found, err := readRound(dbTx, currentRoundKey)
		if err != nil {
			return err
		}
		if !found || openRound.Number != current.Number {
			return errors.Errorf("round %d is not the open round", current.Number)
		}

		err = snapshotRound(dbTx, openRound)
		if err != nil {
			return err
		}
		if current.Number > 1 {
			err = deleteRoundSnapshot(dbTx, current.Number-1)
			if err != nil {
				return err
			}
		}

		err = putRecord(dbTx, roundKey(current.Number), current, serializeRound)
		if err != nil {
			return err
		}
		resultsBucket := roundResultsBucket(current.Number)
		for _, result := range results {
			err := putRecord(dbTx, resultsBucket.Key(result.Entry.Address.Bytes()), result, serializeRoundResult)
			if err != nil {
				return err
			}
		}
		orderBucket := roundPayoutOrderBucket(current.Number)
		for i, result := range payoutOrder {
			err := dbTx.Put(orderBucket.Key(binaryserializer.Uint32Key(uint32(i))), result.Entry.Address.Bytes())
			if err != nil {
				return err
			}
		}
		err = putRecord(dbTx, payoutScheduleKey(current.Number), schedule, serializeSchedule)
		if err != nil {
			return err
		}

		err = putRecord(dbTx, currentRoundKey, next, serializeRound)
		if err != nil {
			return err
		}
		return replaceEntries(dbTx, entriesMap(entries))
	})
}

// UndoFinalizeRound atomically reverts the finalization of current, which
// must be the latest closed round. The live entry table and the open round
// are restored from the round's snapshot and everything archived for the
// round is removed.
func (rdb *RewardsDB) UndoFinalizeRound(current *model.Round, results []*model.RoundResult) error {
	return rdb.update("undo finalize round", func(dbTx database.Transaction) error {
		openRound, entries, found, err := readRoundSnapshot(dbTx, current.Number)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(ErrSnapshotMissing, "round %d", current.Number)
		}

		err = replaceEntries(dbTx, entriesMap(entries))
		if err != nil {
			return err
		}
		err = putRecord(dbTx, currentRoundKey, openRound, serializeRound)
		if err != nil {
			return err
		}

		err = dbTx.Delete(roundKey(current.Number))
		if err != nil {
			return err
		}
		resultsBucket := roundResultsBucket(current.Number)
		for _, result := range results {
			err := dbTx.Delete(resultsBucket.Key(result.Entry.Address.Bytes()))
			if err != nil {
				return err
			}
		}
		// Results the caller did not pass must not survive either
		err = deleteBucket(dbTx, resultsBucket)
		if err != nil {
			return err
		}
		err = deleteBucket(dbTx, roundPayoutOrderBucket(current.Number))
		if err != nil {
			return err
		}
		err = dbTx.Delete(payoutScheduleKey(current.Number))
		if err != nil {
			return err
		}
		return deleteRoundSnapshot(dbTx, current.Number)
	})
}

func snapshotRound(dbTx database.Transaction, openRound *model.Round) error {
	err := putRecord(dbTx, snapshotRoundKey(openRound.Number), openRound, serializeRound)
	if err != nil {
		return err
	}
	liveEntries, err := readEntries(dbTx, entriesBucket)
	if err != nil {
		return err
	}
	snapshotBucket := roundSnapshotBucket(openRound.Number)
	for _, entry := range liveEntries {
		err := putRecord(dbTx, snapshotBucket.Key(entry.Address.Bytes()), entry, serializeEntry)
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteRoundSnapshot(dbTx database.Transaction, number uint32) error {
	err := dbTx.Delete(snapshotRoundKey(number))
	if err != nil {
		return err
	}
	return deleteBucket(dbTx, roundSnapshotBucket(number))
}

// replaceEntries makes entries the whole live entry table.
func replaceEntries(dbTx database.Transaction, entries map[model.Address]*model.Entry) error {
	liveKeys, err := bucketKeys(dbTx, entriesBucket)
	if err != nil {
		return err
	}
	for _, key := range liveKeys {
		address, err := model.AddressFromBytes(key.Suffix())
		if err != nil {
			return errors.Wrapf(ErrCorrupted, "entry key %s: %s", key, err)
		}
		if _, ok := entries[address]; ok {
			continue
		}
		err = dbTx.Delete(key)
		if err != nil {
			return err
		}
	}
	return putEntries(dbTx, entries)
}

func putEntries(dbTx database.Transaction, entries map[model.Address]*model.Entry) error {
	for address, entry := range entries {
		key := entryKey(address)
		if entry.IsEmpty() {
			err := dbTx.Delete(key)
			if err != nil {
				return err
			}
			continue
		}
		err := putRecord(dbTx, key, entry, serializeEntry)
		if err != nil {
			return err
		}
	}
	return nil
}

func entriesMap(entries []*model.Entry) map[model.Address]*model.Entry {
	entryMap := make(map[model.Address]*model.Entry, len(entries))
	for _, entry := range entries {
		entryMap[entry.Address] = entry
	}
	return entryMap
}

func putRecord[T any](dbTx database.Transaction, key *database.Key, record T,
	serialize func(T) ([]byte, error)) error {

	serialized, err := serialize(record)
	if err != nil {
		return err
	}
	return dbTx.Put(key, serialized)
}
