package rewards

import (
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// ConnectBlock applies block, which must extend the last applied block.
// The first block at or above the first round's start height opens the
// first round, and the closing block of the open round finalizes it.
func (rw *Rewards) ConnectBlock(block *model.Block) error {
	if rw.isReadOnly {
		return errors.WithStack(ErrReadOnly)
	}
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	if rw.lastBlock != nil && block.Height != rw.lastBlock.Height+1 {
		return errors.Wrapf(ErrUnexpectedBlock, "got block %d while the last applied block is %d",
			block.Height, rw.lastBlock.Height)
	}
	log.Tracef("Connecting block %d (%s)", block.Height, block.Hash)

	if rw.currentRound == nil && block.Height >= rw.params.FirstRoundStartHeight {
		firstRound := rw.newRound(1, block.Height, block.Time)
		if !firstRound.Contains(block.Height) {
			return errors.Wrapf(ErrUnexpectedBlock, "block %d is past the end of the first round at %d, "+
				"the ledger has to be synced from a height at or below %d",
				block.Height, firstRound.EndHeight, firstRound.EndHeight)
		}
		err := rw.startFirstRound(block)
		if err != nil {
			return err
		}
	}

	for _, transaction := range block.Transactions {
		err := rw.connectTransaction(block.Height, transaction)
		if err != nil {
			return err
		}
	}

	marker := block.Marker()
	rw.cache.blocks = append(rw.cache.blocks, marker)
	rw.setLastBlock(marker)
	rw.metrics.BlockConnected(block.Height)
	rw.metrics.SetCachedEntries(len(rw.cache.entries))

	isClosingBlock := rw.currentRound != nil && block.Height == rw.currentRound.EndHeight
	if isClosingBlock || rw.shouldFlush() {
		err := rw.flush()
		if err != nil {
			return err
		}
	}
	if isClosingBlock {
		return rw.finalizeRound(marker)
	}
	return nil
}

func (rw *Rewards) connectTransaction(height uint64, transaction *model.Transaction) error {
	isApplied, err := rw.isTransactionApplied(&transaction.Hash)
	if err != nil {
		return err
	}
	if isApplied {
		log.Debugf("Skipping transaction %s which was already applied", transaction.Hash)
		return nil
	}

	hasRound := rw.currentRound != nil
	for _, input := range transaction.Inputs {
		if input.Address == nil {
			continue
		}
		err := rw.updateEntry(*input.Address, func(entry *model.Entry) {
			entry.Balance -= input.Amount
			if entry.Balance < 0 {
				log.Warnf("Balance of %s went negative in transaction %s", entry.Address, transaction.Hash)
			}
			if hasRound && !entry.HasDisqualifyingTx() {
				entry.DisqualifyingTx = transaction.Hash
			}
		})
		if err != nil {
			return err
		}
	}

	for _, output := range transaction.Outputs {
		if output.Address == nil {
			continue
		}
		err := rw.updateEntry(*output.Address, func(entry *model.Entry) {
			entry.Balance += output.Amount
			if hasRound && output.IsSmartnodePayment && !entry.IsSmartnode() {
				entry.SmartnodePaymentTx = transaction.Hash
			}
		})
		if err != nil {
			return err
		}
	}

	if hasRound && transaction.VoteProof != nil {
		err := rw.updateEntry(*transaction.VoteProof, func(entry *model.Entry) {
			if !entry.HasVoteProof() {
				entry.VoteProof = transaction.Hash
			}
		})
		if err != nil {
			return err
		}
	}

	rw.cache.addTransaction(&model.TransactionRecord{Height: height, Hash: transaction.Hash})
	return nil
}

// DisconnectBlock reverts block, which must be the last applied block.
// Disconnecting the closing block of the latest closed round reopens it.
func (rw *Rewards) DisconnectBlock(block *model.Block) error {
	if rw.isReadOnly {
		return errors.WithStack(ErrReadOnly)
	}
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	if rw.lastBlock == nil || block.Height != rw.lastBlock.Height || block.Hash != rw.lastBlock.Hash {
		return errors.Wrapf(ErrUnexpectedBlock, "block %d (%s) is not the last applied block",
			block.Height, block.Hash)
	}
	if rw.currentRound != nil && rw.currentRound.Number == 1 && block.Height == rw.currentRound.StartHeight {
		return errors.Wrapf(ErrUndoBootstrap, "block %d", block.Height)
	}
	log.Tracef("Disconnecting block %d (%s)", block.Height, block.Hash)

	err := rw.flush()
	if err != nil {
		return err
	}
	if rw.currentRound != nil && block.Height+1 == rw.currentRound.StartHeight {
		err := rw.undoFinalizeRound()
		if err != nil {
			return err
		}
	}

	for i := len(block.Transactions) - 1; i >= 0; i-- {
		err := rw.disconnectTransaction(block.Height, block.Transactions[i])
		if err != nil {
			return err
		}
	}

	err = rw.store.SyncCached([]*model.BlockMarker{block.Marker()}, rw.currentRound,
		rw.cache.entries, rw.cache.transactions, true)
	if err != nil {
		return err
	}
	rw.cache.reset()

	parent, found, err := rw.store.ReadLastBlock()
	if err != nil {
		return err
	}
	if !found {
		parent = nil
	}
	rw.setLastBlock(parent)
	rw.metrics.BlockDisconnected(block.Height)
	rw.reportRound()
	return nil
}

// disconnectTransaction undoes the effects of transaction in the reverse
// order of connectTransaction. Transactions that were applied by another
// block are left alone. It expects an empty write cache to start from.
func (rw *Rewards) disconnectTransaction(height uint64, transaction *model.Transaction) error {
	record, found, err := rw.store.ReadTransaction(&transaction.Hash)
	if err != nil {
		return err
	}
	if !found || record.Height != height || rw.cache.hasTransaction(&transaction.Hash) {
		log.Debugf("Skipping transaction %s which was not applied", transaction.Hash)
		return nil
	}

	clearIfSet := func(reference *hashes.Hash) {
		if *reference == transaction.Hash {
			*reference = hashes.ZeroHash
		}
	}

	if transaction.VoteProof != nil {
		err := rw.updateEntry(*transaction.VoteProof, func(entry *model.Entry) {
			clearIfSet(&entry.VoteProof)
		})
		if err != nil {
			return err
		}
	}

	for i := len(transaction.Outputs) - 1; i >= 0; i-- {
		output := transaction.Outputs[i]
		if output.Address == nil {
			continue
		}
		err := rw.updateEntry(*output.Address, func(entry *model.Entry) {
			entry.Balance -= output.Amount
			clearIfSet(&entry.SmartnodePaymentTx)
		})
		if err != nil {
			return err
		}
	}

	for i := len(transaction.Inputs) - 1; i >= 0; i-- {
		input := transaction.Inputs[i]
		if input.Address == nil {
			continue
		}
		err := rw.updateEntry(*input.Address, func(entry *model.Entry) {
			entry.Balance += input.Amount
			clearIfSet(&entry.DisqualifyingTx)
		})
		if err != nil {
			return err
		}
	}

	rw.cache.addTransaction(record)
	return nil
}

// updateEntry applies update to the entry of address and keeps its
// eligible balance and the counters of the open round consistent.
func (rw *Rewards) updateEntry(address model.Address, update func(entry *model.Entry)) error {
	entry, err := rw.cachedEntry(address)
	if err != nil {
		return err
	}
	if rw.currentRound == nil {
		update(entry)
		return nil
	}

	rw.countEntry(rw.currentRound, rw.policy, entry, -1)
	update(entry)
	if rw.policy.IsDisqualified(entry) {
		entry.BalanceEligible = 0
	} else {
		entry.BalanceEligible = rw.params.EligibleBalance(entry.BalanceAtStart)
	}
	rw.countEntry(rw.currentRound, rw.policy, entry, 1)
	return nil
}
