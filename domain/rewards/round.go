package rewards

import (
	"math/big"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/eligibility"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/domain/rewards/rewardsdb"
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
)

// startFirstRound opens the first round at block, taking the balances
// accumulated so far as the round's starting balances.
func (rw *Rewards) startFirstRound(block *model.Block) error {
	err := rw.flush()
	if err != nil {
		return err
	}
	entries, err := rw.store.ReadRewardEntries()
	if err != nil {
		return err
	}

	round := rw.newRound(1, block.Height, block.Time)
	startEntries := rw.startEntries(round, entries)
	err = rw.store.StartFirstRound(round, startEntries)
	if err != nil {
		return err
	}
	rw.setCurrentRound(round)
	log.Infof("Started %s tracking %d entries, %d of them eligible",
		round, round.TrackedEntries(), round.EligibleEntries)
	return nil
}

// newRound returns an open round starting at startHeight with its end time
// and reward pool estimated.
func (rw *Rewards) newRound(number uint32, startHeight uint64, startTime int64) *model.Round {
	endHeight := rw.params.RoundEndHeight(number, startHeight)
	spacing := int64(rw.params.TargetBlockSpacing / time.Second)
	endTime := startTime + int64(endHeight-startHeight+1)*spacing
	if number == 1 {
		if rw.params.FirstRoundStartTime != 0 {
			startTime = rw.params.FirstRoundStartTime
		}
		if rw.params.FirstRoundEndTime != 0 {
			endTime = rw.params.FirstRoundEndTime
		}
	}

	return &model.Round{
		Number:         number,
		StartHeight:    startHeight,
		StartTime:      startTime,
		EndHeight:      endHeight,
		EndTime:        endTime,
		RewardPool:     rw.poolCalculator.RewardPool(startHeight, endHeight),
		PayeesPerBlock: rw.params.PayeesPerBlock,
		BlockInterval:  rw.params.PayoutBlockInterval,
	}
}

// startEntries resets entries to the state they start round in and counts
// them into round. Entries that end up empty are returned too so that the
// store drops them.
func (rw *Rewards) startEntries(round *model.Round, entries []*model.Entry) []*model.Entry {
	policy := eligibility.ForRound(round.Number, rw.params)
	reset := make([]*model.Entry, len(entries))
	for i, entry := range entries {
		reset[i] = &model.Entry{
			Address:         entry.Address,
			Balance:         entry.Balance,
			BalanceAtStart:  entry.Balance,
			BalanceEligible: rw.params.EligibleBalance(entry.Balance),
		}
		rw.countEntry(round, policy, reset[i], 1)
	}
	return reset
}

// countEntry adds (sign 1) or removes (sign -1) the contribution of entry to
// the counters of round. Only entries that held at least the minimum
// balance at the start of the round contribute.
func (rw *Rewards) countEntry(round *model.Round, policy eligibility.Policy, entry *model.Entry, sign int) {
	tracked := rw.params.EligibleBalance(entry.BalanceAtStart)
	if tracked == 0 {
		return
	}
	if policy.IsDisqualified(entry) {
		round.DisqualifiedEntries = addCount(round.DisqualifiedEntries, sign)
		round.DisqualifiedAmount += btcutil.Amount(sign) * tracked
		return
	}
	round.EligibleEntries = addCount(round.EligibleEntries, sign)
	round.EligibleAmount += btcutil.Amount(sign) * entry.BalanceEligible
}

func addCount(count uint64, sign int) uint64 {
	if sign < 0 {
		return count - 1
	}
	return count + 1
}

// finalizeRound closes the open round at its closing block and opens the
// next one. The write cache must be flushed.
func (rw *Rewards) finalizeRound(closing *model.BlockMarker) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Rewards.finalizeRound")
	defer onEnd()
	start := time.Now()

	current := rw.currentRound
	entries, err := rw.store.ReadRewardEntries()
	if err != nil {
		return err
	}

	closed, results := rw.evaluateRound(current, entries, closing)
	payoutOrder := payouts.Order(results, &closing.Hash)
	schedule := payouts.NewSchedule(closed, rw.params.PayoutStartDelay, uint32(len(results)))

	next := rw.newRound(current.Number+1, current.EndHeight+1, closing.Time)
	startEntries := rw.startEntries(next, entries)

	err = rw.store.FinalizeRound(closed, next, startEntries, results, payoutOrder, schedule)
	if err != nil {
		return err
	}
	rw.rounds = append(rw.rounds, closed)
	rw.setCurrentRound(next)
	rw.metrics.ObserveFinalize(time.Since(start))

	log.Infof("Finalized %s: %d payees share %s (%.2f%%), payouts start at block %d",
		closed, len(results), model.TotalReward(results), closed.Percent, schedule.FirstBlock)
	return nil
}

// evaluateRound returns current as closed at closing together with the
// rewards of its eligible entries. Each reward is the entry's share of the
// pool rounded down, so the rewards never exceed the pool.
func (rw *Rewards) evaluateRound(current *model.Round, entries []*model.Entry,
	closing *model.BlockMarker) (*model.Round, []*model.RoundResult) {

	policy := eligibility.ForRound(current.Number, rw.params)
	closed := current.Clone()
	closed.EndTime = closing.Time
	closed.EligibleEntries, closed.EligibleAmount = 0, 0
	closed.DisqualifiedEntries, closed.DisqualifiedAmount = 0, 0

	var eligibleEntries []*model.Entry
	for _, entry := range entries {
		tracked := rw.params.EligibleBalance(entry.BalanceAtStart)
		if tracked == 0 {
			continue
		}
		if policy.IsEligible(entry) {
			eligibleEntries = append(eligibleEntries, entry)
			closed.EligibleEntries++
			closed.EligibleAmount += entry.BalanceEligible
			continue
		}
		closed.DisqualifiedEntries++
		closed.DisqualifiedAmount += tracked
	}

	var results []*model.RoundResult
	if closed.EligibleAmount == 0 {
		closed.RewardPool = 0
		closed.Percent = 0
	} else {
		pool := rw.poolCalculator.RewardPool(current.StartHeight, current.EndHeight)
		results = distribute(pool, eligibleEntries, closed.EligibleAmount)
		closed.RewardPool = pool
		closed.Percent = percent(pool, closed.EligibleAmount)
	}
	model.SortRoundResults(results)
	closed.ResultsCommitment = payouts.Commitment(results)
	return closed, results
}

func distribute(pool btcutil.Amount, entries []*model.Entry, total btcutil.Amount) []*model.RoundResult {
	bigPool := big.NewInt(int64(pool))
	bigTotal := big.NewInt(int64(total))
	results := make([]*model.RoundResult, 0, len(entries))
	for _, entry := range entries {
		reward := new(big.Int).Mul(bigPool, big.NewInt(int64(entry.BalanceEligible)))
		reward.Quo(reward, bigTotal)

		snapshot := entry.Clone()
		snapshot.Reward = btcutil.Amount(reward.Int64())
		results = append(results, &model.RoundResult{Entry: snapshot, Reward: snapshot.Reward})
	}
	return results
}

func percent(pool, eligibleAmount btcutil.Amount) float64 {
	if eligibleAmount <= 0 {
		return 0
	}
	return 100 * float64(pool) / float64(eligibleAmount)
}

func estimatedPercent(round *model.Round) float64 {
	return percent(round.RewardPool, round.EligibleAmount)
}

// undoFinalizeRound reopens the latest closed round. The write cache must be
// flushed.
func (rw *Rewards) undoFinalizeRound() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Rewards.undoFinalizeRound")
	defer onEnd()

	if len(rw.rounds) == 0 {
		return errors.Wrapf(rewardsdb.ErrCorrupted, "%s has no closed round before it", rw.currentRound)
	}
	closed := rw.rounds[len(rw.rounds)-1]
	if closed.Number+1 != rw.currentRound.Number {
		return errors.Wrapf(rewardsdb.ErrCorrupted, "latest closed round %d does not precede %s",
			closed.Number, rw.currentRound)
	}

	results, err := rw.store.ReadRewardRoundResults(closed.Number)
	if err != nil {
		return err
	}
	err = rw.store.UndoFinalizeRound(closed, results)
	if err != nil {
		return err
	}
	reopened, found, err := rw.store.ReadCurrentRound()
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(rewardsdb.ErrCorrupted, "no open round after reopening round %d", closed.Number)
	}

	rw.rounds = rw.rounds[:len(rw.rounds)-1]
	rw.setCurrentRound(reopened)
	log.Infof("Reopened %s", reopened)
	return nil
}
