package rewardsdb

import (
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// Lock takes the exclusive lock on the store. It returns ErrLocked if
// another instance, in this process or another one, holds it. The lock is
// released by the operating system when its holder exits.
func (rdb *RewardsDB) Lock() error {
	rdb.lockLock.Lock()
	defer rdb.lockLock.Unlock()

	if rdb.isLocked {
		return errors.Wrapf(ErrLocked, "the lock is already held by this instance")
	}
	if rdb.lockPath == "" {
		rdb.isLocked = true
		return nil
	}

	fileLock := flock.New(rdb.lockPath)
	isLocked, err := fileLock.TryLock()
	if err != nil {
		return errors.Wrapf(err, "failed to lock %s", rdb.lockPath)
	}
	if !isLocked {
		return errors.Wrapf(ErrLocked, "%s is held", rdb.lockPath)
	}

	rdb.fileLock = fileLock
	rdb.isLocked = true
	return nil
}

// Unlock releases the lock. Releasing a lock that is not held is a no-op.
func (rdb *RewardsDB) Unlock() error {
	rdb.lockLock.Lock()
	defer rdb.lockLock.Unlock()

	if !rdb.isLocked {
		return nil
	}
	rdb.isLocked = false
	if rdb.fileLock == nil {
		return nil
	}
	fileLock := rdb.fileLock
	rdb.fileLock = nil
	return errors.WithStack(fileLock.Unlock())
}

// IsLocked returns whether this instance holds the lock.
func (rdb *RewardsDB) IsLocked() bool {
	rdb.lockLock.Lock()
	defer rdb.lockLock.Unlock()

	return rdb.isLocked
}
