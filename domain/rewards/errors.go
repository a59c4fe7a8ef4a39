package rewards

import "github.com/pkg/errors"

var (
	// ErrBusy indicates that the ledger is being written to and a read
	// could not be served without waiting.
	ErrBusy = errors.New("rewards ledger is busy")

	// ErrUndoBootstrap indicates an attempt to disconnect the block that
	// started the first round. The ledger has to be rebuilt instead.
	ErrUndoBootstrap = errors.New("cannot disconnect the block that started the first round")

	// ErrUnexpectedBlock indicates that a block does not extend, or is not
	// the tip of, the chain the ledger was built from.
	ErrUnexpectedBlock = errors.New("unexpected block")

	// ErrReadOnly indicates a write to a ledger opened for reading only.
	ErrReadOnly = errors.New("rewards ledger is read only")
)
