package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFetchDefaults(t *testing.T) {
	cfg, err := LoadFetch("", pflag.NewFlagSet("fetch", pflag.ContinueOnError))
	require.NoError(t, err)

	assert.Equal(t, uint64(500), cfg.Chain.BatchSize)
	assert.Equal(t, uint64(8842400), cfg.Chain.GenesisBlock)
	assert.Equal(t, uint64(0), cfg.Chain.MaxBlock)
	assert.Equal(t, 4, cfg.Chain.Concurrency)
	assert.Equal(t, 5, cfg.Chain.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Chain.RetryBackoff)
	assert.Equal(t, "./data/logs.jsonl", cfg.Out)
	assert.True(t, cfg.CheckpointEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, usdcMainnet, cfg.Chain.Contracts.USDC)
}

func TestEnvAndFlagsOverride(t *testing.T) {
	t.Setenv("TRACKER_BATCH_SIZE", "100")
	t.Setenv("TRACKER_ADDRESS_POOL", "0x6dd655f10d4b9e242ae186d9050b68f725c76d76")
	t.Setenv("TRACKER_CONCURRENCY", "2")

	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	flags.Int("concurrency", 4, "")
	flags.Uint64("max-block", 0, "")
	require.NoError(t, flags.Parse([]string{"--concurrency=8", "--max-block=9000000"}))

	cfg, err := LoadFetch("", flags)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cfg.Chain.BatchSize)
	assert.Equal(t, "0x6dd655f10d4b9e242ae186d9050b68f725c76d76", cfg.Chain.Contracts.Pool)
	assert.Equal(t, 8, cfg.Chain.Concurrency, "flag wins over env")
	assert.Equal(t, uint64(9000000), cfg.Chain.MaxBlock)
	assert.Equal(t, []string{"0x6dd655f10d4b9e242ae186d9050b68f725c76d76"}, cfg.Chain.Watched())
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc: http://localhost:8545
cache-dir: ./cache
address-voting-primary: "0xdb6c812e439ce5c6a64c0d1b8ec23b9cb3f13c76"
treasuries: "Primary Treasury=0x01,Broken,Secondary Treasury=0x02"
tokens: "USDC=0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
fees: true
`), 0o644))

	cfg, err := LoadReplay(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
	assert.Equal(t, "./cache", cfg.Chain.CacheDir)
	assert.True(t, cfg.Fees)
	assert.Equal(t, map[string]string{"Primary Treasury": "0x01", "Secondary Treasury": "0x02"}, cfg.Chain.TreasuryWallets())
	assert.Equal(t, map[string]string{"USDC": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"}, cfg.Chain.TreasuryTokens())
	assert.Equal(t, "https://pro-api.coingecko.com/api/v3", cfg.CoinGeckoURL)

	_, err = LoadReplay(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestTreasuryDefaults(t *testing.T) {
	c := ChainConfig{Contracts: Contracts{
		Token:          "0x0b38210ea11411557c13457d4da7dc6ea731b88a",
		USDC:           usdcMainnet,
		AgentPrimary:   "0xd9f80bdb37e6bad114d747e60ce6d2aaf26704ae",
		AgentSecondary: "0x556ecbb0311d350491ba0ec7e019c354d7723ce0",
	}}
	assert.Equal(t, map[string]string{
		"Primary Treasury":   "0xd9f80bdb37e6bad114d747e60ce6d2aaf26704ae",
		"Secondary Treasury": "0x556ecbb0311d350491ba0ec7e019c354d7723ce0",
	}, c.TreasuryWallets())
	assert.Equal(t, map[string]string{
		"USDC": usdcMainnet,
		"API3": "0x0b38210ea11411557c13457d4da7dc6ea731b88a",
	}, c.TreasuryTokens())
}

func TestLoadDecode(t *testing.T) {
	cfg, err := LoadDecode("", nil)
	require.NoError(t, err)
	assert.Equal(t, "events", cfg.Dump)
	assert.Equal(t, "./data/decode_errors.jsonl", cfg.Errors)

	t.Setenv("TRACKER_DUMP", "everything")
	_, err = LoadDecode("", nil)
	assert.Error(t, err)
}

func TestLoadServe(t *testing.T) {
	t.Setenv("TRACKER_WATCH", "true")
	cfg, err := LoadServe("", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8000", cfg.Listen)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 15*time.Second, cfg.WatchInterval)
	assert.Equal(t, 10*time.Minute, cfg.TreasuryInterval)
	assert.Equal(t, uint64(500), cfg.Replay.Chain.BatchSize)
}

func TestParseStringMap(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, parseStringMap(" a = 1 , b=2,=3,c="))
	assert.Empty(t, parseStringMap("  "))
}
