package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In              string
	Out             string
	Errors          string
	Dump            string
	Topic0          []string
	VotingPrimary   string
	VotingSecondary string
	LogLevel        string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"in":     "./data/logs.jsonl",
		"out":    "./data/events.jsonl",
		"errors": "./data/decode_errors.jsonl",
		"dump":   "events",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		In:              v.GetString("in"),
		Out:             v.GetString("out"),
		Errors:          v.GetString("errors"),
		Dump:            v.GetString("dump"),
		Topic0:          getStringSlice(v, "topic0"),
		VotingPrimary:   v.GetString("address-voting-primary"),
		VotingSecondary: v.GetString("address-voting-secondary"),
		LogLevel:        v.GetString("log-level"),
	}
	if cfg.Dump != "events" && cfg.Dump != "unknown" {
		return DecodeConfig{}, fmt.Errorf("invalid dump mode %q: want events or unknown", cfg.Dump)
	}
	return cfg, nil
}
