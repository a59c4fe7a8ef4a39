// Package rewardsdb is the persistent ledger store of the rewards subsystem.
//
// Every operation touching more than one record is a single database
// transaction: either all of it is visible after a crash or none of it is.
package rewardsdb

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database/badgerdb"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database/ldb"
)

// Supported storage engines.
const (
	EngineLevelDB = "leveldb"
	EngineBadger  = "badger"
)

const lockFileName = "rewards.lock"

// RewardsDB owns the key layout of the ledger and its atomic operations on
// top of a generic ordered key-value database.
type RewardsDB struct {
	db database.Database

	lockPath string
	lockLock sync.Mutex
	fileLock *flock.Flock
	isLocked bool
}

// New wraps db. lockPath is the lock file guarding the store against other
// processes; an empty lockPath makes the guard process local.
func New(db database.Database, lockPath string) *RewardsDB {
	return &RewardsDB{
		db:       db,
		lockPath: lockPath,
	}
}

// Open takes the lock on the store under dataDir and opens it with the
// given engine, creating it if needed. It returns ErrLocked if another
// process holds the store.
func Open(dataDir string, engine string, cacheSizeMiB int) (*RewardsDB, error) {
	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	rdb := New(nil, filepath.Join(dataDir, lockFileName))
	err = rdb.Lock()
	if err != nil {
		return nil, err
	}

	enginePath := filepath.Join(dataDir, engine)
	switch engine {
	case EngineLevelDB:
		rdb.db, err = ldb.NewLevelDB(enginePath, cacheSizeMiB)
	case EngineBadger:
		rdb.db, err = badgerdb.NewBadgerDB(enginePath, cacheSizeMiB)
	default:
		err = errors.Errorf("unknown database engine %q", engine)
	}
	if err != nil {
		unlockErr := rdb.Unlock()
		if unlockErr != nil {
			log.Warnf("Failed to release the rewards database lock: %s", unlockErr)
		}
		return nil, err
	}

	log.Infof("Opened the rewards database (%s) at %s", engine, enginePath)
	return rdb, nil
}

// Exists returns whether a store with the given engine was created under
// dataDir.
func Exists(dataDir string, engine string) bool {
	_, err := os.Stat(filepath.Join(dataDir, engine))
	return err == nil
}

// Remove deletes the store under dataDir. The store must not be open.
func Remove(dataDir string, engine string) error {
	log.Warnf("Removing the rewards database at %s", dataDir)
	err := os.RemoveAll(filepath.Join(dataDir, engine))
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.Remove(filepath.Join(dataDir, lockFileName))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

// Close closes the underlying database and releases the lock, if held.
func (rdb *RewardsDB) Close() error {
	closeErr := rdb.db.Close()
	err := rdb.Unlock()
	if err != nil {
		log.Warnf("Failed to release the rewards database lock: %s", err)
	}
	return closeErr
}

// Compact compacts the underlying database.
func (rdb *RewardsDB) Compact() error {
	return rdb.db.Compact()
}

// Verify checks the schema version of the store and returns the height of the
// last processed block. A fresh store gets the current version written.
func (rdb *RewardsDB) Verify() (lastHeight uint64, err error) {
	lastHeight, err = rdb.CheckVersion()
	if !errors.Is(err, errVersionMissing) {
		return lastHeight, err
	}

	err = rdb.db.Put(versionKey, []byte{Version})
	if err != nil {
		return 0, errors.Wrapf(ErrWriteFailure, "failed writing the version: %s", err)
	}
	log.Infof("Initialized a new rewards database with version %d", Version)
	return 0, nil
}

// errVersionMissing is returned by CheckVersion for a fresh store.
var errVersionMissing = errors.Wrapf(ErrVersionMismatch, "the store has no version")

// CheckVersion is Verify without writes: a fresh store fails with
// ErrVersionMismatch.
func (rdb *RewardsDB) CheckVersion() (lastHeight uint64, err error) {
	versionBytes, found, err := get(rdb.db, versionKey)
	if err != nil {
		return 0, err
	}

	lastBlock, hasLastBlock, err := rdb.ReadLastBlock()
	if err != nil {
		return 0, err
	}

	if !found {
		if hasLastBlock {
			return 0, errors.Wrapf(ErrVersionMismatch, "the store has data but no version")
		}
		return 0, errVersionMissing
	}

	if len(versionBytes) != 1 || versionBytes[0] != Version {
		return 0, errors.Wrapf(ErrVersionMismatch, "found version %x, want %x", versionBytes, Version)
	}
	if !hasLastBlock {
		return 0, nil
	}
	return lastBlock.Height, nil
}

// get reads key and reports absence as found=false.
func get(accessor database.DataAccessor, key *database.Key) (value []byte, found bool, err error) {
	value, err = accessor.Get(key)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// forEach calls fn for every key/value pair in bucket, in key order, until
// fn returns false or an error.
func forEach(accessor database.DataAccessor, bucket *database.Bucket,
	fn func(key *database.Key, value []byte) (bool, error)) error {

	cursor, err := accessor.Cursor(bucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return err
		}
		value, err := cursor.Value()
		if err != nil {
			return err
		}
		more, err := fn(key, value)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// bucketKeys collects every key in bucket. The cursor is closed before the
// keys are returned so that they can be deleted within the same transaction.
func bucketKeys(accessor database.DataAccessor, bucket *database.Bucket) ([]*database.Key, error) {
	var keys []*database.Key
	err := forEach(accessor, bucket, func(key *database.Key, _ []byte) (bool, error) {
		keys = append(keys, key)
		return true, nil
	})
	return keys, err
}

func deleteBucket(accessor database.DataAccessor, bucket *database.Bucket) error {
	keys, err := bucketKeys(accessor, bucket)
	if err != nil {
		return err
	}
	for _, key := range keys {
		err := accessor.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

// update runs fn within a single transaction and commits it. Commit failures
// are reported as ErrWriteFailure.
func (rdb *RewardsDB) update(operation string, fn func(dbTx database.Transaction) error) error {
	dbTx, err := rdb.db.Begin()
	if err != nil {
		return errors.Wrapf(ErrWriteFailure, "%s: failed to begin: %s", operation, err)
	}
	defer dbTx.RollbackUnlessClosed()

	err = fn(dbTx)
	if err != nil {
		return errors.Wrapf(err, "%s", operation)
	}

	err = dbTx.Commit()
	if err != nil {
		return errors.Wrapf(ErrWriteFailure, "%s: failed to commit: %s", operation, err)
	}
	return nil
}
