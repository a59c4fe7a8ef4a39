package database_test

import (
	"bytes"
	"testing"

	"github.com/smartcash/smartrewardsd/infrastructure/db/database"
)

func TestDatabasePutGetDelete(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabasePutGetDelete", testDatabasePutGetDelete)
}

func testDatabasePutGetDelete(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("entries")).Key([]byte("address"))

	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: Has unexpectedly found a key in an empty database", testName)
	}
	_, err = db.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Get of a missing key returned unexpected error: %v", testName, err)
	}

	err = db.Put(key, []byte("entry"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	value, err := db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(value, []byte("entry")) {
		t.Fatalf("%s: Get returned %s, want entry", testName, value)
	}

	err = db.Delete(key)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}
	exists, err = db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: key unexpectedly survived Delete", testName)
	}

	// Deleting a missing key is not an error
	err = db.Delete(key)
	if err != nil {
		t.Fatalf("%s: Delete of a missing key unexpectedly failed: %s", testName, err)
	}
}

func TestDatabaseCursorBoundaries(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseCursorBoundaries", testDatabaseCursorBoundaries)
}

func testDatabaseCursorBoundaries(t *testing.T, db database.Database, testName string) {
	snapshots := database.MakeBucket([]byte("snapshots"))
	inside := populateDatabaseForTest(t, db, snapshots.Bucket([]byte{0, 0, 0, 7}), testName)
	populateDatabaseForTest(t, db, snapshots.Bucket([]byte{0, 0, 0, 8}), testName)

	cursor, err := db.Cursor(snapshots.Bucket([]byte{0, 0, 0, 7}))
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	i := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
		}
		if !bytes.Equal(key.Bytes(), inside[i].key.Bytes()) {
			t.Fatalf("%s: cursor key %d is %s, want %s", testName, i, key, inside[i].key)
		}
		if !bytes.Equal(key.Suffix(), inside[i].key.Suffix()) {
			t.Fatalf("%s: cursor key %d has suffix %s, want %s", testName, i,
				key.Suffix(), inside[i].key.Suffix())
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
		}
		if !bytes.Equal(value, inside[i].value) {
			t.Fatalf("%s: cursor value %d is %s, want %s", testName, i, value, inside[i].value)
		}
		i++
	}
	if i != len(inside) {
		t.Fatalf("%s: cursor visited %d keys, want %d", testName, i, len(inside))
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionCommitAndRollback", testTransactionCommitAndRollback)
}

func testTransactionCommitAndRollback(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("rounds"))
	committed := bucket.Key([]byte{0, 0, 0, 1})
	rolledBack := bucket.Key([]byte{0, 0, 0, 2})

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Put(committed, []byte("round 1"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}

	dbTx, err = db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Put(rolledBack, []byte("round 2"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Delete(committed)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Rollback()
	if err != nil {
		t.Fatalf("%s: Rollback unexpectedly failed: %s", testName, err)
	}

	exists, err := db.Has(committed)
	if err != nil || !exists {
		t.Fatalf("%s: committed key is missing after an unrelated rollback (err: %v)", testName, err)
	}
	exists, err = db.Has(rolledBack)
	if err != nil || exists {
		t.Fatalf("%s: rolled back key unexpectedly exists (err: %v)", testName, err)
	}

	err = dbTx.Put(rolledBack, []byte("round 2"))
	if err == nil {
		t.Fatalf("%s: Put into a closed transaction unexpectedly succeeded", testName)
	}
	err = dbTx.RollbackUnlessClosed()
	if err != nil {
		t.Fatalf("%s: RollbackUnlessClosed unexpectedly failed: %s", testName, err)
	}
}
