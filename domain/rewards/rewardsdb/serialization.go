package rewardsdb

import (
	"bytes"
	"io"
	"math"

	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewards/payouts"
	"github.com/smartcash/smartrewardsd/util/binaryserializer"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// recordWriter keeps the first error that occurred while writing a record so
// that serializers can write all fields before checking it once.
type recordWriter struct {
	buf bytes.Buffer
	err error
}

func (w *recordWriter) uint32(val uint32) {
	if w.err == nil {
		w.err = binaryserializer.PutUint32(&w.buf, val)
	}
}

func (w *recordWriter) uint64(val uint64) {
	if w.err == nil {
		w.err = binaryserializer.PutUint64(&w.buf, val)
	}
}

func (w *recordWriter) amount(val btcutil.Amount) {
	w.uint64(uint64(val))
}

func (w *recordWriter) hash(hash *hashes.Hash) {
	if w.err == nil {
		_, w.err = w.buf.Write(hash[:])
	}
}

func (w *recordWriter) address(address model.Address) {
	if w.err == nil {
		_, w.err = w.buf.Write(address.Bytes())
	}
}

func (w *recordWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// recordReader is the reading counterpart of recordWriter.
type recordReader struct {
	r   io.Reader
	err error
}

func newRecordReader(serialized []byte) *recordReader {
	return &recordReader{r: bytes.NewReader(serialized)}
}

func (r *recordReader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	var val uint32
	val, r.err = binaryserializer.Uint32(r.r)
	return val
}

func (r *recordReader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	var val uint64
	val, r.err = binaryserializer.Uint64(r.r)
	return val
}

func (r *recordReader) amount() btcutil.Amount {
	return btcutil.Amount(r.uint64())
}

func (r *recordReader) hash() hashes.Hash {
	var hash hashes.Hash
	if r.err == nil {
		r.err = binaryserializer.Bytes(r.r, hash[:])
	}
	return hash
}

func (r *recordReader) address() model.Address {
	if r.err != nil {
		return model.Address{}
	}
	addressBytes := make([]byte, model.AddressSize)
	r.err = binaryserializer.Bytes(r.r, addressBytes)
	if r.err != nil {
		return model.Address{}
	}
	var address model.Address
	address, r.err = model.AddressFromBytes(addressBytes)
	return address
}

func (r *recordReader) done(record string) error {
	if r.err != nil {
		return errors.Wrapf(ErrCorrupted, "failed to deserialize %s: %s", record, r.err)
	}
	return nil
}

func serializeBlockMarker(block *model.BlockMarker) ([]byte, error) {
	w := &recordWriter{}
	w.uint64(block.Height)
	w.hash(&block.Hash)
	w.uint64(uint64(block.Time))
	return w.bytes()
}

func deserializeBlockMarker(serialized []byte) (*model.BlockMarker, error) {
	r := newRecordReader(serialized)
	block := &model.BlockMarker{
		Height: r.uint64(),
		Hash:   r.hash(),
		Time:   int64(r.uint64()),
	}
	return block, r.done("block marker")
}

func serializeTransactionRecord(transaction *model.TransactionRecord) ([]byte, error) {
	w := &recordWriter{}
	w.uint64(transaction.Height)
	w.hash(&transaction.Hash)
	return w.bytes()
}

func deserializeTransactionRecord(serialized []byte) (*model.TransactionRecord, error) {
	r := newRecordReader(serialized)
	transaction := &model.TransactionRecord{
		Height: r.uint64(),
		Hash:   r.hash(),
	}
	return transaction, r.done("transaction record")
}

func serializeRound(round *model.Round) ([]byte, error) {
	w := &recordWriter{}
	w.uint32(round.Number)
	w.uint64(round.StartHeight)
	w.uint64(uint64(round.StartTime))
	w.uint64(round.EndHeight)
	w.uint64(uint64(round.EndTime))
	w.uint64(round.EligibleEntries)
	w.amount(round.EligibleAmount)
	w.uint64(round.DisqualifiedEntries)
	w.amount(round.DisqualifiedAmount)
	w.amount(round.RewardPool)
	w.uint64(math.Float64bits(round.Percent))
	w.uint32(round.PayeesPerBlock)
	w.uint64(round.BlockInterval)
	w.hash(&round.ResultsCommitment)
	return w.bytes()
}

func deserializeRound(serialized []byte) (*model.Round, error) {
	r := newRecordReader(serialized)
	round := &model.Round{
		Number:              r.uint32(),
		StartHeight:         r.uint64(),
		StartTime:           int64(r.uint64()),
		EndHeight:           r.uint64(),
		EndTime:             int64(r.uint64()),
		EligibleEntries:     r.uint64(),
		EligibleAmount:      r.amount(),
		DisqualifiedEntries: r.uint64(),
		DisqualifiedAmount:  r.amount(),
		RewardPool:          r.amount(),
		Percent:             math.Float64frombits(r.uint64()),
		PayeesPerBlock:      r.uint32(),
		BlockInterval:       r.uint64(),
		ResultsCommitment:   r.hash(),
	}
	return round, r.done("round")
}

func writeEntry(w *recordWriter, entry *model.Entry) {
	w.address(entry.Address)
	w.amount(entry.Balance)
	w.amount(entry.BalanceAtStart)
	w.amount(entry.BalanceEligible)
	w.hash(&entry.DisqualifyingTx)
	w.hash(&entry.VoteProof)
	w.hash(&entry.SmartnodePaymentTx)
	w.amount(entry.Reward)
}

func readEntry(r *recordReader) *model.Entry {
	return &model.Entry{
		Address:            r.address(),
		Balance:            r.amount(),
		BalanceAtStart:     r.amount(),
		BalanceEligible:    r.amount(),
		DisqualifyingTx:    r.hash(),
		VoteProof:          r.hash(),
		SmartnodePaymentTx: r.hash(),
		Reward:             r.amount(),
	}
}

func serializeEntry(entry *model.Entry) ([]byte, error) {
	w := &recordWriter{}
	writeEntry(w, entry)
	return w.bytes()
}

func deserializeEntry(serialized []byte) (*model.Entry, error) {
	r := newRecordReader(serialized)
	entry := readEntry(r)
	return entry, r.done("entry")
}

func serializeRoundResult(result *model.RoundResult) ([]byte, error) {
	w := &recordWriter{}
	writeEntry(w, result.Entry)
	w.amount(result.Reward)
	return w.bytes()
}

func deserializeRoundResult(serialized []byte) (*model.RoundResult, error) {
	r := newRecordReader(serialized)
	result := &model.RoundResult{
		Entry:  readEntry(r),
		Reward: r.amount(),
	}
	return result, r.done("round result")
}

func serializeSchedule(schedule *payouts.Schedule) ([]byte, error) {
	w := &recordWriter{}
	w.uint64(schedule.FirstBlock)
	w.uint64(schedule.BlockInterval)
	w.uint32(schedule.PayeesPerBlock)
	w.uint32(schedule.TotalPayees)
	return w.bytes()
}

func deserializeSchedule(serialized []byte) (*payouts.Schedule, error) {
	r := newRecordReader(serialized)
	schedule := &payouts.Schedule{
		FirstBlock:     r.uint64(),
		BlockInterval:  r.uint64(),
		PayeesPerBlock: r.uint32(),
		TotalPayees:    r.uint32(),
	}
	return schedule, r.done("payout schedule")
}
