package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "tracker",
		Short:        "DAO staking and governance tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch raw logs of the DAO contracts into JSONL",
		RunE:  runFetch,
	}
	addChainFlags(fetchCmd.Flags())
	fetchCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	fetchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	fetchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	root.AddCommand(fetchCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into DAO events",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("in", "./data/logs.jsonl", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("dump", "events", "what to write: events or unknown")
	decodeCmd.Flags().StringSlice("topic0", nil, "only decode these topic0 hashes or event names (comma-separated)")
	decodeCmd.Flags().String("address-voting-primary", "", "primary voting app address")
	decodeCmd.Flags().String("address-voting-secondary", "", "secondary voting app address")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(decodeCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the DAO history into a ledger snapshot",
		RunE:  runReplay,
	}
	addChainFlags(replayCmd.Flags())
	addReplayFlags(replayCmd.Flags())
	replayCmd.Flags().String("in", "", "replay raw logs JSONL instead of the RPC")
	replayCmd.Flags().Bool("dump-snapshot", false, "print the final snapshot as JSON")
	root.AddCommand(replayCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the ledger in sync and serve it over HTTP",
		RunE:  runServe,
	}
	addChainFlags(serveCmd.Flags())
	addReplayFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", "0.0.0.0:8000", "HTTP listen address")
	serveCmd.Flags().Bool("watch", false, "follow new blocks after the initial sync")
	serveCmd.Flags().Duration("watch-interval", 15*time.Second, "head polling interval")
	serveCmd.Flags().Duration("treasury-interval", 10*time.Minute, "pool and treasury refresh interval")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Ethereum RPC URL")
	flags.String("cache-dir", "", "cache directory for logs, block times and fees")
	flags.Uint64("batch-size", 500, "blocks per batch")
	flags.Uint64("genesis-block", 8842400, "first block of the DAO")
	flags.Uint64("max-block", 0, "last block to read, 0 means latest")
	flags.Int("concurrency", 4, "block ranges fetched in parallel")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("address-pool", "", "pool contract address")
	flags.String("address-supply", "", "token supply contract address, read with the pool")
	flags.String("address-token", "", "DAO token address")
	flags.String("address-usdc", "", "USDC token address")
	flags.String("address-convenience", "", "convenience contract address")
	flags.String("address-voting-primary", "", "primary voting app address")
	flags.String("address-voting-secondary", "", "secondary voting app address")
	flags.String("address-agent-primary", "", "primary agent address")
	flags.String("address-agent-secondary", "", "secondary agent address")
	flags.String("treasuries", "", "treasury wallets (comma-separated name=address)")
	flags.String("tokens", "", "treasury tokens (comma-separated symbol=address)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addReplayFlags(flags *pflag.FlagSet) {
	flags.String("snapshot-file", "", "snapshot file to resume from and save to")
	flags.String("pg-dsn", "", "Postgres DSN to resume from and save to")
	flags.Bool("fees", false, "annotate events with transaction fees")
	flags.String("coingecko-api-key", "", "CoinGecko API key for USD fee prices")
	flags.String("coingecko-url", "https://pro-api.coingecko.com/api/v3", "CoinGecko API base URL")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
