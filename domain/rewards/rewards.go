// Package rewards maintains the reward ledger: the per-address balances
// and eligibility state of the open round, the closing of rounds into
// reward results and the undo of both when the chain reorganizes.
//
// A single writer applies blocks through ConnectBlock and DisconnectBlock.
// Readers never wait for the writer; they get ErrBusy instead.
package rewards

import (
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/eligibility"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/domain/rewards/rewardsdb"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/infrastructure/metrics"
)

// RewardPoolCalculator computes the reward pool accumulated by a span of
// blocks.
type RewardPoolCalculator interface {
	RewardPool(startHeight, endHeight uint64) btcutil.Amount
}

// Rewards is the reward ledger of one chain.
type Rewards struct {
	params         *rewardsconfig.Params
	store          *rewardsdb.RewardsDB
	poolCalculator RewardPoolCalculator
	metrics        *metrics.Metrics

	mutex sync.Mutex

	lastBlock    *model.BlockMarker
	currentRound *model.Round
	policy       eligibility.Policy
	rounds       []*model.Round
	cache        *entryCache

	lastHeight  atomic.Uint64
	chainHeight atomic.Uint64

	isReadOnly bool
}

// New loads the ledger from store. A round whose closing block was applied
// but which was not finalized because of a shutdown is finalized here.
//
// m may be nil.
func New(params *rewardsconfig.Params, store *rewardsdb.RewardsDB,
	poolCalculator RewardPoolCalculator, m *metrics.Metrics) (*Rewards, error) {

	rw := &Rewards{
		params:         params,
		store:          store,
		poolCalculator: poolCalculator,
		metrics:        m,
		cache:          newEntryCache(),
	}
	err := rw.load()
	if err != nil {
		return nil, err
	}

	if rw.isFinalizationPending() {
		closing, found, err := store.ReadBlock(rw.currentRound.EndHeight)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.Wrapf(rewardsdb.ErrCorrupted,
				"closing block %d of %s is missing", rw.currentRound.EndHeight, rw.currentRound)
		}
		log.Infof("Finishing the finalization of %s", rw.currentRound)
		err = rw.finalizeRound(closing)
		if err != nil {
			return nil, err
		}
	}
	return rw, nil
}

// NewReadOnly loads the ledger from store for reading. It never writes to
// the store: a pending finalization is left to the next New, and
// ConnectBlock and DisconnectBlock fail with ErrReadOnly.
func NewReadOnly(params *rewardsconfig.Params, store *rewardsdb.RewardsDB, m *metrics.Metrics) (*Rewards, error) {
	rw := &Rewards{
		params:     params,
		store:      store,
		metrics:    m,
		cache:      newEntryCache(),
		isReadOnly: true,
	}
	err := rw.load()
	if err != nil {
		return nil, err
	}
	if rw.isFinalizationPending() {
		log.Warnf("%s is closed but not finalized yet, it is reported as open until the ledger syncs",
			rw.currentRound)
	}
	return rw, nil
}

func (rw *Rewards) isFinalizationPending() bool {
	return rw.currentRound != nil && rw.lastBlock != nil && rw.lastBlock.Height >= rw.currentRound.EndHeight
}

func (rw *Rewards) load() error {
	var err error
	if rw.isReadOnly {
		_, err = rw.store.CheckVersion()
	} else {
		_, err = rw.store.Verify()
	}
	if err != nil {
		return err
	}

	lastBlock, found, err := rw.store.ReadLastBlock()
	if err != nil {
		return err
	}
	if found {
		rw.setLastBlock(lastBlock)
	}

	round, found, err := rw.store.ReadCurrentRound()
	if err != nil {
		return err
	}
	if found {
		rw.setCurrentRound(round)
	}

	rw.rounds, err = rw.store.ReadRounds()
	if err != nil {
		return err
	}

	if rw.lastBlock == nil {
		log.Infof("Starting a new rewards ledger")
	} else {
		log.Infof("Loaded the rewards ledger at %s with %d closed rounds", rw.lastBlock, len(rw.rounds))
	}
	return nil
}

func (rw *Rewards) setLastBlock(block *model.BlockMarker) {
	rw.lastBlock = block
	if block == nil {
		rw.lastHeight.Store(0)
		return
	}
	rw.lastHeight.Store(block.Height)
}

func (rw *Rewards) setCurrentRound(round *model.Round) {
	rw.currentRound = round
	rw.policy = eligibility.ForRound(round.Number, rw.params)
	rw.reportRound()
}

func (rw *Rewards) reportRound() {
	if rw.currentRound == nil {
		return
	}
	rw.metrics.SetRound(rw.currentRound.Number, rw.currentRound.EligibleEntries,
		rw.currentRound.EligibleAmount.ToBTC(), rw.currentRound.DisqualifiedEntries)
}

// Flush writes the changes cached by ConnectBlock to the store.
func (rw *Rewards) Flush() error {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	return rw.flush()
}

// SetChainHeight records the height of the chain tip. It decides whether
// the ledger is synced.
func (rw *Rewards) SetChainHeight(height uint64) {
	rw.chainHeight.Store(height)
	rw.metrics.SetChainHeight(height)
}

// LastBlock returns the last applied block. found is false for an empty
// ledger.
func (rw *Rewards) LastBlock() (block *model.BlockMarker, found bool) {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	if rw.lastBlock == nil {
		return nil, false
	}
	lastBlock := *rw.lastBlock
	return &lastBlock, true
}

// LastHeight returns the height of the last applied block.
func (rw *Rewards) LastHeight() uint64 {
	return rw.lastHeight.Load()
}

// IsSynced returns whether the last applied block is within the sync
// distance of the chain tip.
func (rw *Rewards) IsSynced() bool {
	return rw.isSynced()
}

func (rw *Rewards) isSynced() bool {
	return rw.chainHeight.Load() <= rw.lastHeight.Load()+rw.params.SyncDistance
}

// Progress returns the share of the chain that was applied, in [0, 1].
func (rw *Rewards) Progress() float64 {
	chainHeight := rw.chainHeight.Load()
	lastHeight := rw.lastHeight.Load()
	if chainHeight == 0 || lastHeight >= chainHeight {
		return 1
	}
	return float64(lastHeight) / float64(chainHeight)
}

// Params returns the network parameters of the ledger.
func (rw *Rewards) Params() *rewardsconfig.Params {
	return rw.params
}

func (rw *Rewards) tryLock() error {
	if !rw.mutex.TryLock() {
		return ErrBusy
	}
	return nil
}

// CurrentRound returns a copy of the open round. found is false until the
// first round starts.
func (rw *Rewards) CurrentRound() (round *model.Round, found bool, err error) {
	err = rw.tryLock()
	if err != nil {
		return nil, false, err
	}
	defer rw.mutex.Unlock()

	if rw.currentRound == nil {
		return nil, false, nil
	}
	round = rw.currentRound.Clone()
	round.Percent = estimatedPercent(round)
	return round, true, nil
}

// RewardRounds returns copies of the closed rounds ordered by number.
func (rw *Rewards) RewardRounds() ([]*model.Round, error) {
	err := rw.tryLock()
	if err != nil {
		return nil, err
	}
	defer rw.mutex.Unlock()

	rounds := make([]*model.Round, len(rw.rounds))
	for i, round := range rw.rounds {
		rounds[i] = round.Clone()
	}
	return rounds, nil
}

// EntryStatus is an entry together with its eligibility in the open round.
type EntryStatus struct {
	Entry      *model.Entry
	IsEligible bool
	Policy     eligibility.Version
}

// RewardEntry returns the live entry of address.
func (rw *Rewards) RewardEntry(address model.Address) (status *EntryStatus, found bool, err error) {
	err = rw.tryLock()
	if err != nil {
		return nil, false, err
	}
	defer rw.mutex.Unlock()

	entry, ok := rw.cache.entries[address]
	if !ok {
		entry, ok, err = rw.store.ReadRewardEntry(address)
		if err != nil {
			return nil, false, err
		}
	}
	if !ok || entry.IsEmpty() {
		return nil, false, nil
	}

	status = &EntryStatus{Entry: entry.Clone()}
	if rw.policy != nil {
		status.IsEligible = rw.policy.IsEligible(entry)
		status.Policy = rw.policy.Version()
	}
	return status, true, nil
}

func (rw *Rewards) closedRound(number uint32) (*model.Round, bool) {
	for _, round := range rw.rounds {
		if round.Number == number {
			return round, true
		}
	}
	return nil, false
}

// RoundResults returns the results of a closed round ordered by address.
func (rw *Rewards) RoundResults(number uint32) (results []*model.RoundResult, found bool, err error) {
	err = rw.tryLock()
	if err != nil {
		return nil, false, err
	}
	defer rw.mutex.Unlock()

	if _, ok := rw.closedRound(number); !ok {
		return nil, false, nil
	}
	results, err = rw.store.ReadRewardRoundResults(number)
	if err != nil {
		return nil, false, err
	}
	return results, true, nil
}

// RoundPayouts returns the payout schedule of a closed round and the
// results paid by the blocks flushed so far, in payout order.
func (rw *Rewards) RoundPayouts(number uint32) (
	paid []*model.RoundResult, schedule *payouts.Schedule, found bool, err error) {

	err = rw.tryLock()
	if err != nil {
		return nil, nil, false, err
	}
	defer rw.mutex.Unlock()

	if _, ok := rw.closedRound(number); !ok {
		return nil, nil, false, nil
	}
	schedule, found, err = rw.store.ReadPayoutSchedule(number)
	if err != nil || !found {
		return nil, nil, false, err
	}
	paid, err = rw.store.ReadRewardPayouts(number)
	if err != nil {
		return nil, nil, false, err
	}
	return paid, schedule, true, nil
}

// BlockPayees returns the results of the closed rounds that the block at
// height pays out, in payout order.
func (rw *Rewards) BlockPayees(height uint64) ([]*model.RoundResult, error) {
	err := rw.tryLock()
	if err != nil {
		return nil, err
	}
	defer rw.mutex.Unlock()

	payees := []*model.RoundResult{}
	for _, round := range rw.rounds {
		if round.EndHeight >= height {
			break
		}
		schedule, found, err := rw.store.ReadPayoutSchedule(round.Number)
		if err != nil {
			return nil, err
		}
		if !found || !schedule.IsPayoutBlock(height) {
			continue
		}
		order, err := rw.store.ReadPayoutResults(round.Number, -1)
		if err != nil {
			return nil, err
		}
		window := schedule.Window(order, height)
		if window == nil {
			return nil, errors.Wrapf(rewardsdb.ErrCorrupted, "the payout order of %s has %d of %d payees",
				round, len(order), schedule.TotalPayees)
		}
		payees = append(payees, window...)
	}
	return payees, nil
}
