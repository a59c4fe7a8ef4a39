// Package chainfeed decodes the chain notifications that drive the rewards
// ledger. A feed is a stream of JSON objects, one per line:
//
//	{"type":"tip","height":1200}
//	{"type":"connect","block":{"height":1101,"hash":"...","time":1600000000,"transactions":[...]}}
//	{"type":"disconnect","block":{...}}
//
// Amounts are in the smallest unit. An input or output without an address
// does not move any ledger balance.
package chainfeed

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// NotificationType identifies the kind of a chain notification.
type NotificationType string

// The notification types of a feed.
const (
	NotificationTip        NotificationType = "tip"
	NotificationConnect    NotificationType = "connect"
	NotificationDisconnect NotificationType = "disconnect"
)

// maxLineSize bounds a single notification. Blocks are limited to a few MB
// on chain, so this leaves room for their JSON encoding.
const maxLineSize = 64 * 1024 * 1024

// ErrMalformedNotification is returned for notifications that can not be
// decoded into a block or a tip.
var ErrMalformedNotification = errors.New("malformed chain notification")

// Notification is a decoded chain notification. Block is set for connect and
// disconnect notifications, Height for tip notifications.
type Notification struct {
	Type   NotificationType
	Height uint64
	Block  *model.Block
}

type notificationJSON struct {
	Type   NotificationType `json:"type"`
	Height uint64           `json:"height"`
	Block  *blockJSON       `json:"block"`
}

type blockJSON struct {
	Height       uint64             `json:"height"`
	Hash         string             `json:"hash"`
	Time         int64              `json:"time"`
	Transactions []*transactionJSON `json:"transactions"`
}

type transactionJSON struct {
	Hash      string       `json:"hash"`
	Coinbase  bool         `json:"coinbase"`
	Inputs    []*txInJSON  `json:"inputs"`
	Outputs   []*txOutJSON `json:"outputs"`
	VoteProof string       `json:"voteProof"`
}

type txInJSON struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type txOutJSON struct {
	Address   string `json:"address"`
	Amount    int64  `json:"amount"`
	Smartnode bool   `json:"smartnode"`
}

// Reader reads notifications from a feed.
type Reader struct {
	scanner *bufio.Scanner
	params  *rewardsconfig.Params
	line    uint64
}

// NewReader returns a Reader decoding the feed in r. Addresses are decoded
// for the network described by params.
func NewReader(r io.Reader, params *rewardsconfig.Params) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner, params: params}
}

// Next returns the next notification of the feed. It returns io.EOF once the
// feed is exhausted. Blank lines are skipped.
func (r *Reader) Next() (*Notification, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		notification, err := r.decode([]byte(line))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", r.line)
		}
		return notification, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return nil, io.EOF
}

func (r *Reader) decode(line []byte) (*Notification, error) {
	raw := &notificationJSON{}
	err := json.Unmarshal(line, raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedNotification, "%s", err)
	}

	switch raw.Type {
	case NotificationTip:
		log.Tracef("Chain tip at height %d", raw.Height)
		return &Notification{Type: raw.Type, Height: raw.Height}, nil
	case NotificationConnect, NotificationDisconnect:
		if raw.Block == nil {
			return nil, errors.Wrapf(ErrMalformedNotification, "%s notification without a block", raw.Type)
		}
		block, err := r.decodeBlock(raw.Block)
		if err != nil {
			return nil, err
		}
		log.Tracef("%s %s with %d transactions", raw.Type, block.Marker(), len(block.Transactions))
		return &Notification{Type: raw.Type, Height: block.Height, Block: block}, nil
	default:
		return nil, errors.Wrapf(ErrMalformedNotification, "unknown notification type %q", raw.Type)
	}
}

func (r *Reader) decodeBlock(raw *blockJSON) (*model.Block, error) {
	hash, err := decodeHash(raw.Hash)
	if err != nil {
		return nil, errors.Wrapf(err, "block %d", raw.Height)
	}
	block := &model.Block{
		Height:       raw.Height,
		Hash:         *hash,
		Time:         raw.Time,
		Transactions: make([]*model.Transaction, len(raw.Transactions)),
	}
	for i, rawTransaction := range raw.Transactions {
		transaction, err := r.decodeTransaction(rawTransaction)
		if err != nil {
			return nil, errors.Wrapf(err, "block %d transaction %d", raw.Height, i)
		}
		block.Transactions[i] = transaction
	}
	return block, nil
}

func (r *Reader) decodeTransaction(raw *transactionJSON) (*model.Transaction, error) {
	if raw == nil {
		return nil, errors.Wrapf(ErrMalformedNotification, "null transaction")
	}
	hash, err := decodeHash(raw.Hash)
	if err != nil {
		return nil, err
	}
	transaction := &model.Transaction{
		Hash:       *hash,
		IsCoinbase: raw.Coinbase,
		Inputs:     make([]*model.TxIn, len(raw.Inputs)),
		Outputs:    make([]*model.TxOut, len(raw.Outputs)),
	}
	for i, rawInput := range raw.Inputs {
		if rawInput == nil || rawInput.Amount < 0 {
			return nil, errors.Wrapf(ErrMalformedNotification, "input %d is invalid", i)
		}
		address, err := r.decodeAddress(rawInput.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		transaction.Inputs[i] = &model.TxIn{Address: address, Amount: btcutil.Amount(rawInput.Amount)}
	}
	for i, rawOutput := range raw.Outputs {
		if rawOutput == nil || rawOutput.Amount < 0 {
			return nil, errors.Wrapf(ErrMalformedNotification, "output %d is invalid", i)
		}
		address, err := r.decodeAddress(rawOutput.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		transaction.Outputs[i] = &model.TxOut{
			Address:            address,
			Amount:             btcutil.Amount(rawOutput.Amount),
			IsSmartnodePayment: rawOutput.Smartnode,
		}
	}
	transaction.VoteProof, err = r.decodeAddress(raw.VoteProof)
	if err != nil {
		return nil, errors.Wrapf(err, "vote proof")
	}
	return transaction, nil
}

func (r *Reader) decodeAddress(addressString string) (*model.Address, error) {
	if addressString == "" {
		return nil, nil
	}
	address, err := model.DecodeAddress(addressString, r.params)
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func decodeHash(hashString string) (*hashes.Hash, error) {
	if hashString == "" {
		return nil, errors.Wrapf(ErrMalformedNotification, "missing hash")
	}
	hash, err := hashes.NewHashFromStr(hashString)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedNotification, "invalid hash %q: %s", hashString, err)
	}
	return hash, nil
}
