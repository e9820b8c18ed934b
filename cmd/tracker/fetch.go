package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"daoTracker/internal/chain"
	"daoTracker/internal/config"
	"daoTracker/internal/indexer"
	"daoTracker/internal/storage"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Chain.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	addresses, err := indexer.ParseAddresses(cfg.Chain.Watched())
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.Chain.GenesisBlock,
		ToBlock:           cfg.Chain.MaxBlock,
		Addresses:         addresses,
		BatchSize:         cfg.Chain.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.Chain.MaxRetries,
		RetryBackoff:      cfg.Chain.RetryBackoff,
	}, chainClient, storage.NewJsonlStorage(cfg.Out), logger)

	logger.Info("fetch start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Uint64("from", cfg.Chain.GenesisBlock),
		zap.Uint64("to", cfg.Chain.MaxBlock),
		zap.Int("addresses", len(addresses)),
		zap.Uint64("batch_size", cfg.Chain.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}
