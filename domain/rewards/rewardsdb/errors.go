package rewardsdb

import "github.com/pkg/errors"

var (
	// ErrVersionMismatch indicates that the store was written by an
	// incompatible version and has to be rebuilt from genesis.
	ErrVersionMismatch = errors.New("rewards database version mismatch")

	// ErrLocked indicates that another instance holds the store.
	ErrLocked = errors.New("rewards database is locked by another instance")

	// ErrWriteFailure indicates that an atomic batch failed to commit. None
	// of the batch was applied.
	ErrWriteFailure = errors.New("rewards database write failure")

	// ErrSnapshotMissing indicates that a closed round can not be undone
	// because its entry snapshot is not retained.
	ErrSnapshotMissing = errors.New("round snapshot missing")

	// ErrCorrupted indicates that a stored record could not be decoded.
	ErrCorrupted = errors.New("rewards database record corrupted")
)
