package badgerdb

import (
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database"
)

// valueLogGCDiscardRatio is the share of a value log file that has to be
// stale before Compact rewrites it.
const valueLogGCDiscardRatio = 0.5

// BadgerDB defines a thin wrapper around badger.
type BadgerDB struct {
	db *badger.DB
}

// NewBadgerDB opens a badger instance at the given path. An empty path
// opens a purely in-memory instance.
func NewBadgerDB(path string, cacheSizeMiB int) (*BadgerDB, error) {
	options := badger.DefaultOptions(path).
		WithLogger(badgerLogger{}).
		WithBlockCacheSize(int64(cacheSizeMiB) << 20)
	if path == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening badger at %q", path)
	}
	return &BadgerDB{db: db}, nil
}

// Compact flattens the LSM tree and garbage collects the value log.
func (db *BadgerDB) Compact() error {
	err := db.db.Flatten(1)
	if err != nil {
		return errors.WithStack(err)
	}
	for {
		err := db.db.RunValueLogGC(valueLogGCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return errors.WithStack(err)
		}
	}
}

// Close closes the badger instance.
func (db *BadgerDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *BadgerDB) Put(key *database.Key, value []byte) error {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key.Bytes(), value)
	})
	return errors.WithStack(err)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *BadgerDB) Get(key *database.Key) ([]byte, error) {
	var data []byte
	err := db.db.View(func(txn *badger.Txn) error {
		var err error
		data, err = get(txn, key)
		return err
	})
	return data, err
}

// Has returns true if the database does contains the
// given key.
func (db *BadgerDB) Has(key *database.Key) (bool, error) {
	var exists bool
	err := db.db.View(func(txn *badger.Txn) error {
		var err error
		exists, err = has(txn, key)
		return err
	})
	return exists, err
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *BadgerDB) Delete(key *database.Key) error {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key.Bytes())
	})
	return errors.WithStack(err)
}

// Cursor begins a new cursor over the given bucket. The cursor
// holds a read-only badger transaction until it is closed.
func (db *BadgerDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	txn := db.db.NewTransaction(false)
	return newCursor(txn, bucket, true), nil
}

func get(txn *badger.Txn, key *database.Key) ([]byte, error) {
	item, err := txn.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func has(txn *badger.Txn, key *database.Key) (bool, error) {
	_, err := txn.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return true, nil
}
