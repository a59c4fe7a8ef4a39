package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

var (
	// Ledger records are small fixed-width values.
	defaultOptions = opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     256 * opt.MiB,
		WriteBuffer:            128 * opt.MiB,
		DisableSeeksCompaction: true,
	}

	// Options returns the leveldb options the ledger store is
	// opened with. NewLevelDB overrides the cache sizes.
	// It's defined as a variable for the sake of testing.
	Options = func() *opt.Options {
		options := defaultOptions
		return &options
	}
)
