package model

import (
	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// Block is a validated block as delivered by the chain feed. Only the parts
// that affect balances are carried.
type Block struct {
	Height       uint64
	Hash         hashes.Hash
	Time         int64
	Transactions []*Transaction
}

// Marker returns the BlockMarker of the block.
func (b *Block) Marker() *BlockMarker {
	return &BlockMarker{Height: b.Height, Hash: b.Hash, Time: b.Time}
}

// Transaction is a validated transaction with its inputs resolved to the
// addresses and amounts they spend.
type Transaction struct {
	Hash       hashes.Hash
	IsCoinbase bool
	Inputs     []*TxIn
	Outputs    []*TxOut

	// VoteProof is the address this transaction proves a vote for, if any.
	VoteProof *Address
}

// TxIn is a resolved transaction input. Address is nil for inputs spending
// non-standard scripts.
type TxIn struct {
	Address *Address
	Amount  btcutil.Amount
}

// TxOut is a transaction output. Address is nil for non-standard scripts.
type TxOut struct {
	Address            *Address
	Amount             btcutil.Amount
	IsSmartnodePayment bool
}
