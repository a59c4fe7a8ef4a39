package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                   bool   `long:"testnet" description:"Use the test network"`
	Regtest                   bool   `long:"regtest" description:"Use the regression test network"`
	OverrideRewardsParamsFile string `long:"override-rewards-params-file" description:"Overrides reward params (allowed only on regtest)"`

	ActiveNetParams *rewardsconfig.Params
}

type overrideRewardsParamsConfig struct {
	FirstRoundStartHeight      *uint64 `json:"firstRoundStartHeight"`
	FirstRoundEndHeight        *uint64 `json:"firstRoundEndHeight"`
	BlocksPerRound             *uint64 `json:"blocksPerRound"`
	MinBalance                 *int64  `json:"minBalance"`
	RewardsPerBlock            *int64  `json:"rewardsPerBlock"`
	FirstDisqualificationRound *uint32 `json:"firstDisqualificationRound"`
	FirstVoteProofRound        *uint32 `json:"firstVoteProofRound"`
	PayoutStartDelay           *uint64 `json:"payoutStartDelay"`
	PayeesPerBlock             *uint32 `json:"payeesPerBlock"`
	PayoutBlockInterval        *uint64 `json:"payoutBlockInterval"`
	SyncDistance               *uint64 `json:"syncDistance"`
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// The selected params are copied so that overrides never leak into the
	// package level values.
	params := rewardsconfig.MainnetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = rewardsconfig.TestnetParams
	}
	if networkFlags.Regtest {
		numNets++
		params = rewardsconfig.RegtestParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	networkFlags.ActiveNetParams = &params

	return networkFlags.overrideRewardsParams()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *rewardsconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideRewardsParams() error {
	if networkFlags.OverrideRewardsParamsFile == "" {
		return nil
	}

	if !networkFlags.Regtest {
		return errors.Errorf("override-rewards-params-file is allowed only when using regtest")
	}

	overrideFile, err := os.Open(networkFlags.OverrideRewardsParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideFile.Close()

	decoder := json.NewDecoder(overrideFile)
	decoder.DisallowUnknownFields()
	config := &overrideRewardsParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed decoding %s", networkFlags.OverrideRewardsParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.FirstRoundStartHeight != nil {
		params.FirstRoundStartHeight = *config.FirstRoundStartHeight
	}
	if config.FirstRoundEndHeight != nil {
		params.FirstRoundEndHeight = *config.FirstRoundEndHeight
	}
	if params.FirstRoundEndHeight < params.FirstRoundStartHeight {
		return errors.Errorf("the first round ends (%d) before it starts (%d)",
			params.FirstRoundEndHeight, params.FirstRoundStartHeight)
	}
	if config.BlocksPerRound != nil {
		if *config.BlocksPerRound == 0 {
			return errors.Errorf("blocksPerRound must be positive")
		}
		params.BlocksPerRound = *config.BlocksPerRound
	}
	if config.MinBalance != nil {
		params.MinBalance = btcutil.Amount(*config.MinBalance)
	}
	if config.RewardsPerBlock != nil {
		params.RewardsPerBlock = btcutil.Amount(*config.RewardsPerBlock)
	}
	if config.FirstDisqualificationRound != nil {
		params.FirstDisqualificationRound = *config.FirstDisqualificationRound
	}
	if config.FirstVoteProofRound != nil {
		params.FirstVoteProofRound = *config.FirstVoteProofRound
	}
	if config.PayoutStartDelay != nil {
		params.PayoutStartDelay = *config.PayoutStartDelay
	}
	if config.PayeesPerBlock != nil {
		if *config.PayeesPerBlock == 0 {
			return errors.Errorf("payeesPerBlock must be positive")
		}
		params.PayeesPerBlock = *config.PayeesPerBlock
	}
	if config.PayoutBlockInterval != nil {
		params.PayoutBlockInterval = *config.PayoutBlockInterval
	}
	if config.SyncDistance != nil {
		params.SyncDistance = *config.SyncDistance
	}

	return nil
}
