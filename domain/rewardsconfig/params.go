package rewardsconfig

import (
	"time"

	"github.com/btcsuite/btcutil"
)

// Params defines the reward ledger parameters of a network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// PubKeyHashAddrID and ScriptHashAddrID are the base58 version bytes
	// accepted by the address codec.
	PubKeyHashAddrID byte
	ScriptHashAddrID byte

	// TargetBlockSpacing is used to estimate the end time of a round
	// before its closing block is known.
	TargetBlockSpacing time.Duration

	// The first round is special cased: it was set up by hand before
	// rounds were automated, so its bounds are fixed per network.
	FirstRoundStartHeight uint64
	FirstRoundEndHeight   uint64
	FirstRoundStartTime   int64
	FirstRoundEndTime     int64

	// BlocksPerRound is the length of every round after the first one.
	BlocksPerRound uint64

	// MinBalance is the lowest balance an address must hold at the start
	// of a round to be tracked by it.
	MinBalance btcutil.Amount

	// RewardsPerBlock is the share of each block's emission that goes into
	// the reward pool of the round the block belongs to.
	RewardsPerBlock btcutil.Amount

	// FirstDisqualificationRound is the first round in which smartnode
	// payments disqualify an address.
	FirstDisqualificationRound uint32

	// FirstVoteProofRound is the first round that requires a vote proof
	// for eligibility. Zero disables the requirement.
	FirstVoteProofRound uint32

	// Payout schedule of a closed round.
	PayoutStartDelay    uint64
	PayeesPerBlock      uint32
	PayoutBlockInterval uint64

	// SyncDistance is the maximum distance between the last processed
	// block and the chain tip for the ledger to be considered synced.
	SyncDistance uint64

	// RPCPort is the default port the sync daemon serves queries on.
	RPCPort string
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                       "mainnet",
	PubKeyHashAddrID:           0x3f, // starts with S
	ScriptHashAddrID:           0x12, // starts with 8
	TargetBlockSpacing:         55 * time.Second,
	FirstRoundStartHeight:      1,
	FirstRoundEndHeight:        60001,
	FirstRoundStartTime:        1500966000,
	FirstRoundEndTime:          1503644400,
	BlocksPerRound:             47500,
	MinBalance:                 1000 * btcutil.SatoshiPerBitcoin,
	RewardsPerBlock:            1250 * btcutil.SatoshiPerBitcoin,
	FirstDisqualificationRound: 34,
	FirstVoteProofRound:        0,
	PayoutStartDelay:           500,
	PayeesPerBlock:             500,
	PayoutBlockInterval:        2,
	SyncDistance:               150,
	RPCPort:                    "9680",
}

const testnetFirstRoundStartHeight = 2100

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:                       "testnet",
	PubKeyHashAddrID:           0x41, // starts with T
	ScriptHashAddrID:           0x15,
	TargetBlockSpacing:         55 * time.Second,
	FirstRoundStartHeight:      testnetFirstRoundStartHeight,
	FirstRoundEndHeight:        testnetFirstRoundStartHeight + 1000,
	FirstRoundStartTime:        1527192589,
	FirstRoundEndTime:          1527192589 + 2*60*60,
	BlocksPerRound:             1000,
	MinBalance:                 1000 * btcutil.SatoshiPerBitcoin,
	RewardsPerBlock:            1250 * btcutil.SatoshiPerBitcoin,
	FirstDisqualificationRound: 3,
	FirstVoteProofRound:        6,
	PayoutStartDelay:           25,
	PayeesPerBlock:             100,
	PayoutBlockInterval:        2,
	SyncDistance:               60,
	RPCPort:                    "19680",
}

// RegtestParams defines the network parameters for the regression test
// network. Rounds are short so that tests can cross several of them.
var RegtestParams = Params{
	Name:                       "regtest",
	PubKeyHashAddrID:           0x41,
	ScriptHashAddrID:           0x15,
	TargetBlockSpacing:         time.Second,
	FirstRoundStartHeight:      10,
	FirstRoundEndHeight:        19,
	FirstRoundStartTime:        0,
	FirstRoundEndTime:          10,
	BlocksPerRound:             10,
	MinBalance:                 1000 * btcutil.SatoshiPerBitcoin,
	RewardsPerBlock:            100 * btcutil.SatoshiPerBitcoin,
	FirstDisqualificationRound: 2,
	FirstVoteProofRound:        0,
	PayoutStartDelay:           2,
	PayeesPerBlock:             5,
	PayoutBlockInterval:        1,
	SyncDistance:               10,
	RPCPort:                    "29680",
}

// EligibleBalance returns the part of balance that counts towards a round
// when balance is held at the round's start.
func (p *Params) EligibleBalance(balance btcutil.Amount) btcutil.Amount {
	if balance < p.MinBalance {
		return 0
	}
	return balance
}

// RoundEndHeight returns the end height of a round starting at startHeight.
func (p *Params) RoundEndHeight(number uint32, startHeight uint64) uint64 {
	if number == 1 {
		return p.FirstRoundEndHeight
	}
	return startHeight + p.BlocksPerRound - 1
}

// RewardPool returns the reward pool accumulated by the blocks in
// [startHeight, endHeight].
func (p *Params) RewardPool(startHeight, endHeight uint64) btcutil.Amount {
	if endHeight < startHeight {
		return 0
	}
	return p.RewardsPerBlock * btcutil.Amount(endHeight-startHeight+1)
}
