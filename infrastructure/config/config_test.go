package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigSync(t *testing.T) {
	appDir := t.TempDir()
	cfg, err := loadConfig([]string{"--appdir", appDir, "--testnet", "--dbengine", "badger",
		"sync", "--feed", "blocks.jsonl", "--rewardsresync"})
	require.NoError(t, err)

	require.Equal(t, CommandSync, cfg.Command)
	require.Equal(t, "blocks.jsonl", cfg.Sync.Feed)
	require.True(t, cfg.Sync.RewardsResync)
	require.Equal(t, "badger", cfg.DBEngine)
	require.Equal(t, defaultRewardsDBCacheMiB, cfg.RewardsDBCache)
	require.Equal(t, rewardsconfig.TestnetParams.Name, cfg.NetParams().Name)
	require.Equal(t, filepath.Join(appDir, "data", "testnet"), cfg.DataDir)
	require.Equal(t, filepath.Join(appDir, "logs", "testnet"), cfg.LogDir)
	require.Equal(t, logger.DefaultRotation, cfg.LogRotation())
	require.Equal(t, "127.0.0.1:19680", cfg.Sync.RPCListen)
	require.False(t, cfg.Sync.DisableRPC)
}

func TestLoadConfigQuery(t *testing.T) {
	cfg, err := loadConfig([]string{"--appdir", t.TempDir(), "query", "--ignoresync", "payouts", "3"})
	require.NoError(t, err)

	require.Equal(t, CommandQuery, cfg.Command)
	require.True(t, cfg.Query.IgnoreSync)
	require.Equal(t, "payouts", cfg.Query.Args.Command)
	require.Equal(t, []string{"3"}, cfg.Query.Args.Arguments)
	require.Equal(t, rewardsconfig.MainnetParams.Name, cfg.NetParams().Name)
	require.Equal(t, "-", cfg.Sync.Feed)
	require.Equal(t, "127.0.0.1:9680", cfg.Query.RPCServer)
	require.False(t, cfg.Query.Offline)
}

func TestLoadConfigRPCAddresses(t *testing.T) {
	cfg, err := loadConfig([]string{"--appdir", t.TempDir(), "--regtest", "query",
		"--rpcserver", "10.0.0.1", "--offline", "current"})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:29680", cfg.Query.RPCServer)
	require.True(t, cfg.Query.Offline)

	cfg, err = loadConfig([]string{"--appdir", t.TempDir(), "sync", "--rpclisten", "0.0.0.0:7000", "--compactdb"})
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:7000", cfg.Sync.RPCListen)
	require.True(t, cfg.Sync.CompactDB)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: []string{}},
		{name: "multiple networks", args: []string{"--testnet", "--regtest", "sync"}},
		{name: "unknown engine", args: []string{"--dbengine", "bolt", "sync"}},
		{name: "profile port out of range", args: []string{"--profile", "80", "sync"}},
		{name: "negative log rolls", args: []string{"--logmaxrolls", "-1", "sync"}},
		{name: "zero cache", args: []string{"--rewardsdbcache", "0", "sync"}},
		{name: "query without command", args: []string{"query"}},
		{name: "rpclisten port out of range", args: []string{"sync", "--rpclisten", "127.0.0.1:99999"}},
		{name: "override outside regtest", args: []string{"--override-rewards-params-file", "params.json", "sync"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			args := append([]string{"--appdir", t.TempDir()}, test.args...)
			_, err := loadConfig(args)
			require.Error(t, err)
		})
	}
}

func TestOverrideRewardsParams(t *testing.T) {
	overrideFile := filepath.Join(t.TempDir(), "params.json")
	err := os.WriteFile(overrideFile, []byte(`{"blocksPerRound": 20, "minBalance": 5, "payeesPerBlock": 3}`), 0600)
	require.NoError(t, err)

	cfg, err := loadConfig([]string{"--appdir", t.TempDir(), "--regtest",
		"--override-rewards-params-file", overrideFile, "sync"})
	require.NoError(t, err)

	params := cfg.NetParams()
	require.Equal(t, uint64(20), params.BlocksPerRound)
	require.Equal(t, btcutil.Amount(5), params.MinBalance)
	require.Equal(t, uint32(3), params.PayeesPerBlock)
	require.Equal(t, uint64(10), rewardsconfig.RegtestParams.BlocksPerRound,
		"the override leaked into the package level params")
}
