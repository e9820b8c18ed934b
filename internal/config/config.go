package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Contracts holds the addresses of the DAO contracts, as hex strings.
type Contracts struct {
	Pool            string
	Supply          string
	Token           string
	USDC            string
	Convenience     string
	VotingPrimary   string
	VotingSecondary string
	AgentPrimary    string
	AgentSecondary  string
}

// ChainConfig holds the settings shared by every command that reads the chain.
type ChainConfig struct {
	RPCURL       string
	CacheDir     string
	BatchSize    uint64
	GenesisBlock uint64
	MaxBlock     uint64
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	Contracts    Contracts
	Treasuries   map[string]string
	Tokens       map[string]string
}

// FetchConfig holds configuration for the fetch command.
type FetchConfig struct {
	Chain             ChainConfig
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	LogLevel          string
}

const usdcMainnet = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

// LoadFetch merges config file, environment variables, and flags into FetchConfig.
func LoadFetch(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":                "./data/logs.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
	})
	if err != nil {
		return FetchConfig{}, err
	}

	cfg := FetchConfig{
		Chain:             chainConfig(v),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		LogLevel:          v.GetString("log-level"),
	}
	return cfg, nil
}

// load builds a viper instance with the shared defaults plus extra, then
// binds flags and reads the config file. A missing ./config.* is ignored.
func load(cfgFile string, flags *pflag.FlagSet, extra map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(500))
	v.SetDefault("genesis-block", uint64(8842400))
	v.SetDefault("max-block", uint64(0))
	v.SetDefault("concurrency", 4)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("address-usdc", usdcMainnet)
	for key, value := range extra {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func chainConfig(v *viper.Viper) ChainConfig {
	return ChainConfig{
		RPCURL:       v.GetString("rpc"),
		CacheDir:     v.GetString("cache-dir"),
		BatchSize:    v.GetUint64("batch-size"),
		GenesisBlock: v.GetUint64("genesis-block"),
		MaxBlock:     v.GetUint64("max-block"),
		Concurrency:  v.GetInt("concurrency"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Contracts: Contracts{
			Pool:            v.GetString("address-pool"),
			Supply:          v.GetString("address-supply"),
			Token:           v.GetString("address-token"),
			USDC:            v.GetString("address-usdc"),
			Convenience:     v.GetString("address-convenience"),
			VotingPrimary:   v.GetString("address-voting-primary"),
			VotingSecondary: v.GetString("address-voting-secondary"),
			AgentPrimary:    v.GetString("address-agent-primary"),
			AgentSecondary:  v.GetString("address-agent-secondary"),
		},
		Treasuries: getStringMap(v, "treasuries"),
		Tokens:     getStringMap(v, "tokens"),
	}
}

// Watched lists the contracts whose logs are scanned.
func (c ChainConfig) Watched() []string {
	return cleanStrings([]string{c.Contracts.Pool, c.Contracts.VotingPrimary, c.Contracts.VotingSecondary})
}

// TreasuryWallets defaults to the two voting agents when no treasuries are configured.
func (c ChainConfig) TreasuryWallets() map[string]string {
	if len(c.Treasuries) > 0 {
		return c.Treasuries
	}
	out := make(map[string]string, 2)
	if c.Contracts.AgentPrimary != "" {
		out["Primary Treasury"] = c.Contracts.AgentPrimary
	}
	if c.Contracts.AgentSecondary != "" {
		out["Secondary Treasury"] = c.Contracts.AgentSecondary
	}
	return out
}

// TreasuryTokens defaults to USDC and the DAO token when no tokens are configured.
func (c ChainConfig) TreasuryTokens() map[string]string {
	if len(c.Tokens) > 0 {
		return c.Tokens
	}
	out := make(map[string]string, 2)
	if c.Contracts.USDC != "" {
		out["USDC"] = c.Contracts.USDC
	}
	if c.Contracts.Token != "" {
		out["API3"] = c.Contracts.Token
	}
	return out
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	case []string:
		return parseStringMap(strings.Join(typed, ","))
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
