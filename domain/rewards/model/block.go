package model

import (
	"fmt"

	"github.com/smartcash/smartrewardsd/util/hashes"
)

// BlockMarker identifies a block whose effects were applied to the ledger.
type BlockMarker struct {
	Height uint64
	Hash   hashes.Hash
	Time   int64
}

func (b *BlockMarker) String() string {
	return fmt.Sprintf("block %d (%s)", b.Height, b.Hash)
}

// TransactionRecord marks a transaction whose balance effects were applied.
type TransactionRecord struct {
	Height uint64
	Hash   hashes.Hash
}
