package rewardsdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database/ldb"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

func balanceOf(coins int64) btcutil.Amount {
	return btcutil.Amount(coins * btcutil.SatoshiPerBitcoin)
}

func TestVerify(t *testing.T) {
	dataDir := t.TempDir()
	rdb, err := Open(dataDir, EngineLevelDB, 8)
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}

	lastHeight, err := rdb.Verify()
	if err != nil {
		t.Fatalf("Verify of a fresh store unexpectedly failed: %s", err)
	}
	if lastHeight != 0 {
		t.Fatalf("Verify of a fresh store returned height %d", lastHeight)
	}

	err = rdb.SyncCached([]*model.BlockMarker{testMarker(41), testMarker(42)}, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("SyncCached unexpectedly failed: %s", err)
	}
	lastHeight, err = rdb.Verify()
	if err != nil {
		t.Fatalf("Verify unexpectedly failed: %s", err)
	}
	if lastHeight != 42 {
		t.Fatalf("Verify returned height %d, want 42", lastHeight)
	}

	err = rdb.db.Put(versionKey, []byte{Version - 1})
	if err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}
	_, err = rdb.Verify()
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("Verify of an old store returned %v, want ErrVersionMismatch", err)
	}

	err = rdb.db.Delete(versionKey)
	if err != nil {
		t.Fatalf("Delete unexpectedly failed: %s", err)
	}
	_, err = rdb.Verify()
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("Verify of a store without version returned %v, want ErrVersionMismatch", err)
	}

	err = rdb.Close()
	if err != nil {
		t.Fatalf("Close unexpectedly failed: %s", err)
	}
	err = Remove(dataDir, EngineLevelDB)
	if err != nil {
		t.Fatalf("Remove unexpectedly failed: %s", err)
	}

	db, err := ldb.NewLevelDB(filepath.Join(dataDir, EngineLevelDB), 8)
	if err != nil {
		t.Fatalf("NewLevelDB unexpectedly failed: %s", err)
	}
	rdb = New(db, "")
	defer rdb.Close()
	_, err = rdb.CheckVersion()
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("CheckVersion of a fresh store returned %v, want ErrVersionMismatch", err)
	}
	lastHeight, err = rdb.Verify()
	if err != nil || lastHeight != 0 {
		t.Fatalf("Verify after Remove returned %d, %v", lastHeight, err)
	}
}

func TestSyncCachedUndoRestoresState(t *testing.T) {
	testForAllEngines(t, "TestSyncCachedUndoRestoresState", testSyncCachedUndoRestoresState)
}

func testSyncCachedUndoRestoresState(t *testing.T, rdb *RewardsDB, testName string) {
	round := testRound(1, 10, 19)
	round.EligibleEntries = 2
	round.EligibleAmount = balanceOf(3000)
	initialEntries := []*model.Entry{testEntry(t, 1, 1000), testEntry(t, 2, 2000)}
	err := rdb.StartFirstRound(round, initialEntries)
	if err != nil {
		t.Fatalf("%s: StartFirstRound unexpectedly failed: %s", testName, err)
	}
	err = rdb.SyncCached([]*model.BlockMarker{testMarker(10)}, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("%s: SyncCached unexpectedly failed: %s", testName, err)
	}

	// Block 11 moves 500 coins from entry 1 to a new entry 3
	spend := &model.TransactionRecord{Height: 11, Hash: hashes.DoubleHashH([]byte("spend"))}
	spent := initialEntries[0].Clone()
	spent.Balance -= balanceOf(500)
	spent.BalanceEligible = 0
	spent.DisqualifyingTx = spend.Hash
	received := &model.Entry{Address: testAddress(t, 3), Balance: balanceOf(500)}
	roundAfter := round.Clone()
	roundAfter.EligibleEntries = 1
	roundAfter.EligibleAmount = balanceOf(2000)
	roundAfter.DisqualifiedEntries = 1
	roundAfter.DisqualifiedAmount = balanceOf(1000)

	err = rdb.SyncCached([]*model.BlockMarker{testMarker(11)}, roundAfter,
		map[model.Address]*model.Entry{spent.Address: spent, received.Address: received},
		[]*model.TransactionRecord{spend}, false)
	if err != nil {
		t.Fatalf("%s: SyncCached unexpectedly failed: %s", testName, err)
	}

	_, found, err := rdb.ReadTransaction(&spend.Hash)
	if err != nil || !found {
		t.Fatalf("%s: applied transaction is not recorded (err: %v)", testName, err)
	}
	lastBlock, _, err := rdb.ReadLastBlock()
	if err != nil || lastBlock.Height != 11 {
		t.Fatalf("%s: last block is %v (err: %v), want 11", testName, lastBlock, err)
	}

	// Undo writes the prior entry values
	emptied := &model.Entry{Address: received.Address}
	err = rdb.SyncCached([]*model.BlockMarker{testMarker(11)}, round,
		map[model.Address]*model.Entry{spent.Address: initialEntries[0], received.Address: emptied},
		[]*model.TransactionRecord{spend}, true)
	if err != nil {
		t.Fatalf("%s: undo SyncCached unexpectedly failed: %s", testName, err)
	}

	entries, err := rdb.ReadRewardEntries()
	if err != nil {
		t.Fatalf("%s: ReadRewardEntries unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "entries", initialEntries, entries)

	currentRound, _, err := rdb.ReadCurrentRound()
	if err != nil {
		t.Fatalf("%s: ReadCurrentRound unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "round", round, currentRound)

	_, found, err = rdb.ReadTransaction(&spend.Hash)
	if err != nil || found {
		t.Fatalf("%s: undone transaction is still recorded (err: %v)", testName, err)
	}
	_, found, err = rdb.ReadBlock(11)
	if err != nil || found {
		t.Fatalf("%s: undone block marker still exists (err: %v)", testName, err)
	}
	lastBlock, _, err = rdb.ReadLastBlock()
	if err != nil {
		t.Fatalf("%s: ReadLastBlock unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "last block", testMarker(10), lastBlock)
}

func TestFinalizeRoundUndo(t *testing.T) {
	testForAllEngines(t, "TestFinalizeRoundUndo", testFinalizeRoundUndo)
}

func testFinalizeRoundUndo(t *testing.T, rdb *RewardsDB, testName string) {
	openRound := testRound(1, 10, 19)
	openRound.EligibleEntries = 2
	openRound.EligibleAmount = balanceOf(4000)
	liveEntries := []*model.Entry{testEntry(t, 1, 1000), testEntry(t, 2, 3000), {
		Address: testAddress(t, 3), Balance: balanceOf(10),
	}}
	err := rdb.StartFirstRound(openRound, liveEntries)
	if err != nil {
		t.Fatalf("%s: StartFirstRound unexpectedly failed: %s", testName, err)
	}

	closed := openRound.Clone()
	closed.RewardPool = balanceOf(100)
	closed.Percent = 2.5
	results := []*model.RoundResult{
		{Entry: liveEntries[0].Clone(), Reward: balanceOf(25)},
		{Entry: liveEntries[1].Clone(), Reward: balanceOf(75)},
	}
	closed.ResultsCommitment = payouts.Commitment(results)
	next := testRound(2, 20, 29)
	closingHash := hashes.DoubleHashH([]byte("closing"))
	order := payouts.Order(results, &closingHash)
	schedule := payouts.NewSchedule(closed, 2, uint32(len(results)))

	// The next round starts from the reset table, the empty entry is gone
	resetEntries := []*model.Entry{testEntry(t, 1, 1000), testEntry(t, 2, 3000)}
	err = rdb.FinalizeRound(closed, next, resetEntries, results, order, schedule)
	if err != nil {
		t.Fatalf("%s: FinalizeRound unexpectedly failed: %s", testName, err)
	}

	rounds, err := rdb.ReadRounds()
	if err != nil {
		t.Fatalf("%s: ReadRounds unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "history", []*model.Round{closed}, rounds)
	storedRound, found, err := rdb.ReadRound(1)
	if err != nil || !found {
		t.Fatalf("%s: ReadRound(1) returned found=%t err=%v", testName, found, err)
	}
	requireDeepEqual(t, testName, "closed round", closed, storedRound)
	_, found, err = rdb.ReadRound(2)
	if err != nil || found {
		t.Fatalf("%s: ReadRound(2) of the open round returned found=%t err=%v", testName, found, err)
	}
	orderedResults, err := rdb.ReadPayoutResults(1, -1)
	if err != nil {
		t.Fatalf("%s: ReadPayoutResults unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "payout results", order, orderedResults)
	storedResults, err := rdb.ReadRewardRoundResults(1)
	if err != nil {
		t.Fatalf("%s: ReadRewardRoundResults unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "results", results, storedResults)
	currentRound, _, err := rdb.ReadCurrentRound()
	if err != nil {
		t.Fatalf("%s: ReadCurrentRound unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "next round", next, currentRound)
	snapshotRound, snapshotEntries, found, err := rdb.ReadRoundSnapshot(1)
	if err != nil || !found {
		t.Fatalf("%s: ReadRoundSnapshot returned found=%t err=%v", testName, found, err)
	}
	requireDeepEqual(t, testName, "snapshot round", openRound, snapshotRound)
	requireDeepEqual(t, testName, "snapshot entries", liveEntries, snapshotEntries)

	err = rdb.UndoFinalizeRound(closed, results)
	if err != nil {
		t.Fatalf("%s: UndoFinalizeRound unexpectedly failed: %s", testName, err)
	}

	currentRound, _, err = rdb.ReadCurrentRound()
	if err != nil {
		t.Fatalf("%s: ReadCurrentRound unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "restored round", openRound, currentRound)
	entries, err := rdb.ReadRewardEntries()
	if err != nil {
		t.Fatalf("%s: ReadRewardEntries unexpectedly failed: %s", testName, err)
	}
	requireDeepEqual(t, testName, "restored entries", liveEntries, entries)

	rounds, err = rdb.ReadRounds()
	if err != nil || len(rounds) != 0 {
		t.Fatalf("%s: history still has %d rounds (err: %v)", testName, len(rounds), err)
	}
	storedResults, err = rdb.ReadRewardRoundResults(1)
	if err != nil || len(storedResults) != 0 {
		t.Fatalf("%s: %d results survived the undo (err: %v)", testName, len(storedResults), err)
	}
	storedOrder, err := rdb.ReadPayoutOrder(1, -1)
	if err != nil || len(storedOrder) != 0 {
		t.Fatalf("%s: payout order survived the undo (err: %v)", testName, err)
	}
	_, found, err = rdb.ReadPayoutSchedule(1)
	if err != nil || found {
		t.Fatalf("%s: payout schedule survived the undo (err: %v)", testName, err)
	}
	_, found, err = rdb.ReadRound(1)
	if err != nil || found {
		t.Fatalf("%s: round 1 survived in the history (err: %v)", testName, err)
	}
	_, _, found, err = rdb.ReadRoundSnapshot(1)
	if err != nil || found {
		t.Fatalf("%s: snapshot survived the undo (err: %v)", testName, err)
	}

	err = rdb.UndoFinalizeRound(closed, results)
	if !errors.Is(err, ErrSnapshotMissing) {
		t.Fatalf("%s: second UndoFinalizeRound returned %v, want ErrSnapshotMissing", testName, err)
	}
}

func TestReadRewardPayouts(t *testing.T) {
	testForAllEngines(t, "TestReadRewardPayouts", testReadRewardPayouts)
}

func testReadRewardPayouts(t *testing.T, rdb *RewardsDB, testName string) {
	openRound := testRound(1, 10, 19)
	entries := make([]*model.Entry, 13)
	results := make([]*model.RoundResult, 13)
	for i := range entries {
		entries[i] = testEntry(t, byte(i+1), 1000)
		results[i] = &model.RoundResult{Entry: entries[i].Clone(), Reward: balanceOf(1)}
	}
	err := rdb.StartFirstRound(openRound, entries)
	if err != nil {
		t.Fatalf("%s: StartFirstRound unexpectedly failed: %s", testName, err)
	}
	closingHash := hashes.DoubleHashH([]byte("closing"))
	order := payouts.Order(results, &closingHash)
	schedule := payouts.NewSchedule(openRound, 2, 13)
	err = rdb.FinalizeRound(openRound, testRound(2, 20, 29), entries, results, order, schedule)
	if err != nil {
		t.Fatalf("%s: FinalizeRound unexpectedly failed: %s", testName, err)
	}

	tests := []struct {
		height uint64
		paid   int
	}{
		{height: 19, paid: 0},
		{height: 21, paid: 5},
		{height: 23, paid: 10},
		{height: 25, paid: 13},
	}
	for _, test := range tests {
		err := rdb.SyncCached([]*model.BlockMarker{testMarker(test.height)}, nil, nil, nil, false)
		if err != nil {
			t.Fatalf("%s: SyncCached unexpectedly failed: %s", testName, err)
		}
		paid, err := rdb.ReadRewardPayouts(1)
		if err != nil {
			t.Fatalf("%s: ReadRewardPayouts unexpectedly failed: %s", testName, err)
		}
		if len(paid) != test.paid {
			t.Fatalf("%s: %d payouts at height %d, want %d", testName, len(paid), test.height, test.paid)
		}
		for i, result := range paid {
			if result.Entry.Address != order[i].Entry.Address {
				t.Fatalf("%s: payout %d at height %d is %s, want %s", testName, i, test.height,
					result.Entry.Address, order[i].Entry.Address)
			}
		}
	}
}

func TestLock(t *testing.T) {
	dataDir := t.TempDir()
	rdb, err := Open(dataDir, EngineBadger, 8)
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}
	defer rdb.Close()

	if !rdb.IsLocked() {
		t.Fatalf("an open store is unexpectedly unlocked")
	}
	_, err = Open(dataDir, EngineBadger, 8)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("second Open returned %v, want ErrLocked", err)
	}

	other := New(nil, rdb.lockPath)
	err = other.Lock()
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("Lock of a held store returned %v, want ErrLocked", err)
	}

	err = rdb.Unlock()
	if err != nil {
		t.Fatalf("Unlock unexpectedly failed: %s", err)
	}
	if rdb.IsLocked() {
		t.Fatalf("IsLocked is true after Unlock")
	}
	err = other.Lock()
	if err != nil {
		t.Fatalf("Lock after Unlock unexpectedly failed: %s", err)
	}
	err = other.Unlock()
	if err != nil {
		t.Fatalf("Unlock unexpectedly failed: %s", err)
	}
}
