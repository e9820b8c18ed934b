package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"daoTracker/internal/api"
	"daoTracker/internal/config"
	"daoTracker/internal/ledger"
	"daoTracker/internal/metrics"
	"daoTracker/internal/metrics/prometheus"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Replay.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sink, err := prometheus.NewSink(metrics.DefaultTypes, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	p, err := newPipeline(ctx, cfg.Replay, sink, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	server := api.NewServer(p.replayer, sink.Handler(), logger, cfg.Listen)

	logger.Info("serve start",
		zap.String("rpc", cfg.Replay.Chain.RPCURL),
		zap.String("listen", cfg.Listen),
		zap.Bool("watch", cfg.Watch),
		zap.Duration("watch_interval", cfg.WatchInterval),
		zap.Duration("treasury_interval", cfg.TreasuryInterval),
	)

	// Every producer writes to msgs; the replayer is its only reader.
	msgs := make(chan ledger.Message, 2*cfg.Replay.Chain.Concurrency+1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.replayer.Run(gctx, msgs)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return p.refresher.Run(gctx, cfg.TreasuryInterval, msgs)
	})
	g.Go(func() error {
		return syncLedger(gctx, p, cfg, msgs, logger)
	})

	err = g.Wait()
	if persistErr := persist(context.Background(), p.stores, p.replayer.Latest(), logger); persistErr != nil && err == nil {
		err = persistErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// syncLedger brings the ledger up to the head and then, when watching, follows new
// blocks until ctx is done.
func syncLedger(ctx context.Context, p *pipeline, cfg config.ServeConfig, msgs chan<- ledger.Message, logger *zap.Logger) error {
	from, to, ok, err := p.syncRange(ctx)
	if err != nil {
		return err
	}
	last := p.replayer.Latest().LastBlock
	if ok {
		logger.Info("initial sync", zap.Uint64("from", from), zap.Uint64("to", to))
		if last, err = p.scanner.Scan(ctx, from, to, msgs); err != nil {
			return err
		}
		logger.Info("initial sync complete", zap.Uint64("last_block", last))
	}
	if !cfg.Watch {
		return nil
	}
	return p.scanner.Watch(ctx, last, cfg.WatchInterval, msgs)
}
