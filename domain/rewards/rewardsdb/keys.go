package rewardsdb

import (
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/infrastructure/db/database"
	"github.com/smartcash/smartrewardsd/util/binaryserializer"
	"github.com/smartcash/smartrewardsd/util/hashes"
)

// Version is the schema version of the store. A store written with any other
// version has to be rebuilt.
const Version byte = 0x09

var (
	versionKey      = database.MakeBucket().Key([]byte("version"))
	lastBlockKey    = database.MakeBucket().Key([]byte("last-block"))
	currentRoundKey = database.MakeBucket().Key([]byte("current-round"))

	blocksBucket         = database.MakeBucket([]byte("blocks"))
	transactionsBucket   = database.MakeBucket([]byte("transactions"))
	roundsBucket         = database.MakeBucket([]byte("rounds"))
	entriesBucket        = database.MakeBucket([]byte("entries"))
	resultsBucket        = database.MakeBucket([]byte("results"))
	payoutOrderBucket    = database.MakeBucket([]byte("payout-order"))
	payoutScheduleBucket = database.MakeBucket([]byte("payout-schedule"))
	snapshotsBucket      = database.MakeBucket([]byte("snapshots"))
	snapshotRoundBucket  = database.MakeBucket([]byte("snapshot-round"))
)

func blockKey(height uint64) *database.Key {
	return blocksBucket.Key(binaryserializer.Uint64Key(height))
}

func transactionKey(hash *hashes.Hash) *database.Key {
	return transactionsBucket.Key(hash.CloneBytes())
}

func roundKey(number uint32) *database.Key {
	return roundsBucket.Key(binaryserializer.Uint32Key(number))
}

func entryKey(address model.Address) *database.Key {
	return entriesBucket.Key(address.Bytes())
}

func roundResultsBucket(number uint32) *database.Bucket {
	return resultsBucket.Bucket(binaryserializer.Uint32Key(number))
}

func roundPayoutOrderBucket(number uint32) *database.Bucket {
	return payoutOrderBucket.Bucket(binaryserializer.Uint32Key(number))
}

func payoutScheduleKey(number uint32) *database.Key {
	return payoutScheduleBucket.Key(binaryserializer.Uint32Key(number))
}

func roundSnapshotBucket(number uint32) *database.Bucket {
	return snapshotsBucket.Bucket(binaryserializer.Uint32Key(number))
}

func snapshotRoundKey(number uint32) *database.Key {
	return snapshotRoundBucket.Key(binaryserializer.Uint32Key(number))
}
