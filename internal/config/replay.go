package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Chain           ChainConfig
	In              string
	DumpSnapshot    bool
	SnapshotFile    string
	PGDSN           string
	Fees            bool
	CoinGeckoAPIKey string
	CoinGeckoURL    string
	LogLevel        string
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Replay           ReplayConfig
	Listen           string
	Watch            bool
	WatchInterval    time.Duration
	TreasuryInterval time.Duration
}

var replayDefaults = map[string]interface{}{
	"snapshot-file": "",
	"fees":          false,
	"coingecko-url": "https://pro-api.coingecko.com/api/v3",
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := load(cfgFile, flags, replayDefaults)
	if err != nil {
		return ReplayConfig{}, err
	}
	return replayConfig(v), nil
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	defaults := map[string]interface{}{
		"listen":            "0.0.0.0:8000",
		"watch":             false,
		"watch-interval":    15 * time.Second,
		"treasury-interval": 10 * time.Minute,
	}
	for k, val := range replayDefaults {
		defaults[k] = val
	}
	v, err := load(cfgFile, flags, defaults)
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Replay:           replayConfig(v),
		Listen:           v.GetString("listen"),
		Watch:            v.GetBool("watch"),
		WatchInterval:    v.GetDuration("watch-interval"),
		TreasuryInterval: v.GetDuration("treasury-interval"),
	}
	return cfg, nil
}

func replayConfig(v *viper.Viper) ReplayConfig {
	return ReplayConfig{
		Chain:           chainConfig(v),
		In:              v.GetString("in"),
		DumpSnapshot:    v.GetBool("dump-snapshot"),
		SnapshotFile:    v.GetString("snapshot-file"),
		PGDSN:           v.GetString("pg-dsn"),
		Fees:            v.GetBool("fees"),
		CoinGeckoAPIKey: v.GetString("coingecko-api-key"),
		CoinGeckoURL:    v.GetString("coingecko-url"),
		LogLevel:        v.GetString("log-level"),
	}
}
