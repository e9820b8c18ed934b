package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"daoTracker/internal/config"
	"daoTracker/internal/indexer"
	"daoTracker/internal/ledger"
	"daoTracker/internal/metrics"
	"daoTracker/internal/model"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	var snap *ledger.Snapshot
	if cfg.In != "" {
		snap, err = replayFile(ctx, cfg, logger)
	} else {
		snap, err = replayChain(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}

	logger.Info("replay complete",
		zap.Uint64("last_block", snap.LastBlock),
		zap.Int("wallets", len(snap.Wallets)),
		zap.Int("votings", len(snap.Votings)),
		zap.Int("epochs", len(snap.Epochs)),
	)

	if cfg.DumpSnapshot {
		return dumpSnapshot(os.Stdout, snap)
	}
	return nil
}

// replayFile folds a raw log file fetched earlier. Contract reads are not
// available offline, so the snapshot carries no pool, treasury or voting
// details data.
func replayFile(ctx context.Context, cfg config.ReplayConfig, logger *zap.Logger) (*ledger.Snapshot, error) {
	f, err := os.Open(cfg.In)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	decoder := indexer.NewLogDecoder(
		hexAddress(cfg.Chain.Contracts.VotingPrimary),
		hexAddress(cfg.Chain.Contracts.VotingSecondary),
		logger,
	)
	chainID, list, last, err := readEvents(f, decoder, logger)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	replayer := ledger.NewReplayer(ledger.New(chainID, scriptDecoder(cfg.Chain.Contracts), logger), metrics.Nop{}, logger)
	replayer.Apply(ledger.Batch{Events: list, LastBlock: last})
	replayer.Publish()
	snap := replayer.Latest()

	stores, pg, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if pg != nil {
		defer pg.Close()
	}
	if err := persist(ctx, stores, snap, logger); err != nil {
		return nil, err
	}
	return snap, nil
}

// replayChain scans the missing blocks through the RPC, resuming from a
// stored snapshot when one exists.
func replayChain(ctx context.Context, cfg config.ReplayConfig, logger *zap.Logger) (*ledger.Snapshot, error) {
	p, err := newPipeline(ctx, cfg, metrics.Nop{}, logger)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	from, to, ok, err := p.syncRange(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Info("ledger up to date", zap.Uint64("last_block", p.replayer.Latest().LastBlock))
		return p.replayer.Latest(), nil
	}

	logger.Info("replay start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Bool("fees", cfg.Fees),
	)

	msgs := make(chan ledger.Message, 2*cfg.Chain.Concurrency+1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.replayer.Run(gctx, msgs)
	})
	g.Go(func() error {
		defer close(msgs)
		if err := p.refresher.Refresh(gctx, msgs); err != nil {
			return err
		}
		_, err := p.scanner.Scan(gctx, from, to, msgs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := p.replayer.Latest()
	if err := persist(ctx, p.stores, snap, logger); err != nil {
		return nil, err
	}
	return snap, nil
}

// snapshotDump is the printed form of a snapshot: the lists in their API
// order plus the summary.
type snapshotDump struct {
	ChainID    uint64                    `json:"chain_id"`
	LastBlock  uint64                    `json:"last_block"`
	Summary    ledger.Summary            `json:"summary"`
	Wallets    []model.Wallet            `json:"wallets"`
	Votings    []model.Voting            `json:"votings"`
	Epochs     []model.Epoch             `json:"epochs"`
	Treasuries map[string]model.Treasury `json:"treasuries"`
	Grants     map[common.Address]uint64 `json:"grants"`
}

func dumpSnapshot(w io.Writer, snap *ledger.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshotDump{
		ChainID:    snap.ChainID,
		LastBlock:  snap.LastBlock,
		Summary:    snap.Summary,
		Wallets:    snap.WalletList(),
		Votings:    snap.VotingList(),
		Epochs:     snap.EpochList(),
		Treasuries: snap.Treasuries,
		Grants:     snap.Grants,
	})
}
