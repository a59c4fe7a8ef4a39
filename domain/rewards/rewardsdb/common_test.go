package rewardsdb

import (
	"bytes"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database/badgerdb"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

type storePrepareFunc func(t *testing.T) (rdb *RewardsDB, name string)

var storePrepareFuncs = []storePrepareFunc{
	func(t *testing.T) (*RewardsDB, string) {
		rdb, err := Open(t.TempDir(), EngineLevelDB, 8)
		if err != nil {
			t.Fatalf("Open unexpectedly failed: %s", err)
		}
		return rdb, EngineLevelDB
	},
	func(t *testing.T) (*RewardsDB, string) {
		db, err := badgerdb.NewBadgerDB("", 8)
		if err != nil {
			t.Fatalf("NewBadgerDB unexpectedly failed: %s", err)
		}
		return New(db, filepath.Join(t.TempDir(), lockFileName)), EngineBadger
	},
}

// testForAllEngines runs testFunc against a fresh, verified store of every
// engine.
func testForAllEngines(t *testing.T, testName string, testFunc func(t *testing.T, rdb *RewardsDB, testName string)) {
	for _, prepareStore := range storePrepareFuncs {
		func() {
			rdb, engine := prepareStore(t)
			defer func() {
				err := rdb.Close()
				if err != nil {
					t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
				}
			}()

			testName := fmt.Sprintf("%s: %s", engine, testName)
			_, err := rdb.Verify()
			if err != nil {
				t.Fatalf("%s: Verify unexpectedly failed: %s", testName, err)
			}
			testFunc(t, rdb, testName)
		}()
	}
}

func testAddress(t *testing.T, seed byte) model.Address {
	address, err := model.NewAddress(0x3f, bytes.Repeat([]byte{seed}, model.AddressHashSize))
	if err != nil {
		t.Fatalf("NewAddress unexpectedly failed: %s", err)
	}
	return address
}

func testEntry(t *testing.T, seed byte, balance int64) *model.Entry {
	return &model.Entry{
		Address:         testAddress(t, seed),
		Balance:         balanceOf(balance),
		BalanceAtStart:  balanceOf(balance),
		BalanceEligible: balanceOf(balance),
	}
}

func testMarker(height uint64) *model.BlockMarker {
	return &model.BlockMarker{
		Height: height,
		Hash:   hashes.DoubleHashH([]byte(fmt.Sprintf("block %d", height))),
		Time:   int64(1600000000 + height*55),
	}
}

func testRound(number uint32, start, end uint64) *model.Round {
	return &model.Round{
		Number:         number,
		StartHeight:    start,
		StartTime:      int64(1600000000 + start*55),
		EndHeight:      end,
		EndTime:        int64(1600000000 + end*55),
		PayeesPerBlock: 5,
		BlockInterval:  2,
	}
}

func requireDeepEqual(t *testing.T, testName string, what string, expected, actual interface{}) {
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("%s: unexpected %s.\nWant: %s\nGot: %s", testName, what,
			spew.Sdump(expected), spew.Sdump(actual))
	}
}
