package rewards

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/rewardsdb"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/util/hashes"
	"github.com/stretchr/testify/require"
)

func coins(amount int64) btcutil.Amount {
	return btcutil.Amount(amount * btcutil.SatoshiPerBitcoin)
}

func testAddress(t *testing.T, seed byte) model.Address {
	address, err := model.NewAddress(rewardsconfig.RegtestParams.PubKeyHashAddrID,
		bytes.Repeat([]byte{seed}, model.AddressHashSize))
	require.NoError(t, err)
	return address
}

// testChain feeds generated blocks to a ledger backed by an in-memory store.
type testChain struct {
	t      *testing.T
	params *rewardsconfig.Params
	store  *rewardsdb.RewardsDB
	rw     *Rewards
	blocks []*model.Block
	txSeq  int
}

func newTestChain(t *testing.T) *testChain {
	return newTestChainWithParams(t, func(*rewardsconfig.Params) {})
}

// newTestChainWithParams builds a test chain on regtest params adjusted by
// adjust.
func newTestChainWithParams(t *testing.T, adjust func(params *rewardsconfig.Params)) *testChain {
	params := rewardsconfig.RegtestParams
	adjust(&params)
	db, err := rewardsdb.Open(t.TempDir(), rewardsdb.EngineBadger, 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	rw, err := New(&params, db, &params, nil)
	require.NoError(t, err)
	return &testChain{t: t, params: &params, store: db, rw: rw}
}

// reload builds a new ledger on the same store, as a restart would.
func (tc *testChain) reload() {
	rw, err := New(tc.params, tc.store, tc.params, nil)
	require.NoError(tc.t, err)
	tc.rw = rw
}

func (tc *testChain) nextBlock(transactions ...*model.Transaction) *model.Block {
	height := uint64(len(tc.blocks))
	return &model.Block{
		Height:       height,
		Hash:         hashes.DoubleHashH([]byte(fmt.Sprintf("block %d", height))),
		Time:         int64(1600000000 + height*60),
		Transactions: transactions,
	}
}

func (tc *testChain) connect(transactions ...*model.Transaction) *model.Block {
	block := tc.nextBlock(transactions...)
	require.NoError(tc.t, tc.rw.ConnectBlock(block))
	tc.blocks = append(tc.blocks, block)
	return block
}

// connectUntil connects empty blocks until the last applied height is
// height.
func (tc *testChain) connectUntil(height uint64) {
	for uint64(len(tc.blocks)) <= height {
		tc.connect()
	}
}

func (tc *testChain) disconnect() error {
	block := tc.blocks[len(tc.blocks)-1]
	err := tc.rw.DisconnectBlock(block)
	if err == nil {
		tc.blocks = tc.blocks[:len(tc.blocks)-1]
	}
	return err
}

func (tc *testChain) newTransaction() *model.Transaction {
	tc.txSeq++
	return &model.Transaction{Hash: hashes.DoubleHashH([]byte(fmt.Sprintf("transaction %d", tc.txSeq)))}
}

func (tc *testChain) payment(to model.Address, amount btcutil.Amount) *model.Transaction {
	transaction := tc.newTransaction()
	transaction.IsCoinbase = true
	transaction.Outputs = []*model.TxOut{{Address: &to, Amount: amount}}
	return transaction
}

func (tc *testChain) smartnodePayment(to model.Address, amount btcutil.Amount) *model.Transaction {
	transaction := tc.payment(to, amount)
	transaction.Outputs[0].IsSmartnodePayment = true
	return transaction
}

func (tc *testChain) transfer(from, to model.Address, amount btcutil.Amount) *model.Transaction {
	transaction := tc.newTransaction()
	transaction.Inputs = []*model.TxIn{{Address: &from, Amount: amount}}
	transaction.Outputs = []*model.TxOut{{Address: &to, Amount: amount}}
	return transaction
}

func (tc *testChain) voteProof(address model.Address) *model.Transaction {
	transaction := tc.newTransaction()
	transaction.VoteProof = &address
	return transaction
}

func (tc *testChain) entry(address model.Address) *model.Entry {
	status, found, err := tc.rw.RewardEntry(address)
	require.NoError(tc.t, err)
	if !found {
		return model.NewEntry(address)
	}
	return status.Entry
}

func (tc *testChain) currentRound() *model.Round {
	round, found, err := tc.rw.CurrentRound()
	require.NoError(tc.t, err)
	require.True(tc.t, found, "no open round")
	return round
}

// requireConsistent checks the invariants that hold between blocks: the
// eligible balance of an entry never exceeds its balance and the counters of
// the open round match the stored entries.
func (tc *testChain) requireConsistent() {
	require.NoError(tc.t, tc.rw.Flush())
	entries, err := tc.store.ReadRewardEntries()
	require.NoError(tc.t, err)

	round, found, err := tc.rw.CurrentRound()
	require.NoError(tc.t, err)

	var eligibleEntries, disqualifiedEntries uint64
	var eligibleAmount btcutil.Amount
	for _, entry := range entries {
		require.LessOrEqual(tc.t, entry.BalanceEligible, entry.Balance, "entry %s", entry)
		if !found || tc.params.EligibleBalance(entry.BalanceAtStart) == 0 {
			continue
		}
		if tc.rw.policy.IsDisqualified(entry) {
			disqualifiedEntries++
			continue
		}
		eligibleEntries++
		eligibleAmount += entry.BalanceEligible
	}
	if found {
		require.Equal(tc.t, eligibleEntries, round.EligibleEntries)
		require.Equal(tc.t, eligibleAmount, round.EligibleAmount)
		require.Equal(tc.t, disqualifiedEntries, round.DisqualifiedEntries)
	}
}
