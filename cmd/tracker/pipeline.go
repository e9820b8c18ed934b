package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"daoTracker/internal/action"
	"daoTracker/internal/cache"
	"daoTracker/internal/chain"
	"daoTracker/internal/config"
	"daoTracker/internal/fees"
	"daoTracker/internal/indexer"
	"daoTracker/internal/ledger"
	"daoTracker/internal/metrics"
	"daoTracker/internal/prices"
	"daoTracker/internal/storage"
	"daoTracker/internal/storage/postgres"
)

// pipeline wires the chain client, scanner, refresher and ledger shared by
// the replay and serve commands.
type pipeline struct {
	cfg       config.ReplayConfig
	client    *chain.Client
	cache     *cache.Dir
	scanner   *indexer.Scanner
	refresher *indexer.Refresher
	replayer  *ledger.Replayer
	stores    []storage.SnapshotStore
	pg        *postgres.Store
	logger    *zap.Logger
}

func scriptDecoder(c config.Contracts) action.ScriptDecoder {
	if c.USDC == "" || !common.IsHexAddress(c.USDC) {
		return action.NewHeuristicDecoder()
	}
	return action.NewHeuristicDecoder(action.Token{Symbol: "USDC", Decimals: 6, Address: common.HexToAddress(c.USDC)})
}

// openStores returns the configured snapshot stores, file first.
func openStores(ctx context.Context, cfg config.ReplayConfig) ([]storage.SnapshotStore, *postgres.Store, error) {
	var stores []storage.SnapshotStore
	if cfg.SnapshotFile != "" {
		stores = append(stores, storage.NewFileSnapshotStore(cfg.SnapshotFile))
	}
	if cfg.PGDSN == "" {
		return stores, nil, nil
	}
	pg, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return append(stores, pg), pg, nil
}

// restore returns the first stored snapshot of chainID, or nil.
func restore(ctx context.Context, stores []storage.SnapshotStore, chainID uint64) (*ledger.Snapshot, error) {
	for _, store := range stores {
		snap, ok, err := store.LoadSnapshot(ctx, chainID)
		if err != nil {
			return nil, err
		}
		if ok {
			return snap, nil
		}
	}
	return nil, nil
}

func persist(ctx context.Context, stores []storage.SnapshotStore, snap *ledger.Snapshot, logger *zap.Logger) error {
	if snap == nil {
		return nil
	}
	var firstErr error
	for _, store := range stores {
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			logger.Error("save snapshot failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(stores) > 0 && firstErr == nil {
		logger.Info("snapshot saved", zap.Uint64("last_block", snap.LastBlock), zap.Int("wallets", len(snap.Wallets)))
	}
	return firstErr
}

func newPipeline(ctx context.Context, cfg config.ReplayConfig, sink metrics.Sink, logger *zap.Logger) (*pipeline, error) {
	if cfg.Chain.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	addresses, err := indexer.ParseAddresses(cfg.Chain.Watched())
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("address list is required")
	}
	refreshCfg, err := refreshConfig(cfg.Chain)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}

	stores, pg, err := openStores(ctx, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	p := &pipeline{
		cfg:    cfg,
		client: client,
		cache:  cache.New(cfg.Chain.CacheDir, chainID, logger),
		stores: stores,
		pg:     pg,
		logger: logger,
	}
	client.LoadBlockTimes(p.cache.LoadBlockTimes())

	scripts := scriptDecoder(cfg.Chain.Contracts)
	snap, err := restore(ctx, stores, chainID)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var l *ledger.Ledger
	if snap != nil {
		logger.Info("resuming from snapshot", zap.Uint64("last_block", snap.LastBlock))
		l = ledger.FromSnapshot(snap, scripts, logger)
	} else {
		l = ledger.New(chainID, scripts, logger)
	}
	p.replayer = ledger.NewReplayer(l, sink, logger)
	p.refresher = indexer.NewRefresher(refreshCfg, client, logger)

	opts := []indexer.ScannerOption{indexer.WithCache(p.cache), indexer.WithMetrics(sink)}
	if refreshCfg.Convenience != (common.Address{}) {
		opts = append(opts, indexer.WithDetails(p.refresher))
	}
	if cfg.Fees {
		var lookup fees.PriceLookup
		if cfg.CoinGeckoAPIKey != "" {
			lookup = prices.NewClient(cfg.CoinGeckoAPIKey, cfg.CoinGeckoURL, logger)
		}
		annotator := fees.NewAnnotator(client, lookup, logger)
		annotator.Load(p.cache.LoadFees())
		opts = append(opts, indexer.WithFees(annotator))
	}

	p.scanner = indexer.NewScanner(indexer.ScanConfig{
		Addresses:       addresses,
		VotingPrimary:   hexAddress(cfg.Chain.Contracts.VotingPrimary),
		VotingSecondary: hexAddress(cfg.Chain.Contracts.VotingSecondary),
		BatchSize:       cfg.Chain.BatchSize,
		Concurrency:     cfg.Chain.Concurrency,
		MaxRetries:      cfg.Chain.MaxRetries,
		RetryBackoff:    cfg.Chain.RetryBackoff,
	}, client, logger, opts...)

	return p, nil
}

// syncRange is the block range still missing from the ledger. ok is false
// when the ledger is already at the target.
func (p *pipeline) syncRange(ctx context.Context) (from, to uint64, ok bool, err error) {
	from = p.cfg.Chain.GenesisBlock
	if last := p.replayer.Latest().LastBlock; last >= from {
		from = last + 1
	}
	to = p.cfg.Chain.MaxBlock
	if to == 0 {
		to, err = p.client.LatestBlockNumber(ctx)
		if err != nil {
			return 0, 0, false, fmt.Errorf("latest block: %w", err)
		}
	}
	return from, to, from <= to, nil
}

func (p *pipeline) Close() {
	if p.pg != nil {
		p.pg.Close()
	}
	p.client.Close()
}

func refreshConfig(c config.ChainConfig) (indexer.RefreshConfig, error) {
	out := indexer.RefreshConfig{
		Pool:        hexAddress(c.Contracts.Pool),
		Supply:      hexAddress(c.Contracts.Supply),
		Convenience: hexAddress(c.Contracts.Convenience),
		Treasuries:  make(map[string]common.Address),
	}
	for name, addr := range c.TreasuryWallets() {
		if !common.IsHexAddress(addr) {
			return out, fmt.Errorf("invalid treasury address %s=%s", name, addr)
		}
		out.Treasuries[name] = common.HexToAddress(addr)
	}
	for symbol, addr := range c.TreasuryTokens() {
		if !common.IsHexAddress(addr) {
			return out, fmt.Errorf("invalid token address %s=%s", symbol, addr)
		}
		out.Tokens = append(out.Tokens, common.HexToAddress(addr))
	}
	sort.Slice(out.Tokens, func(i, j int) bool { return bytes.Compare(out.Tokens[i][:], out.Tokens[j][:]) < 0 })
	return out, nil
}

func hexAddress(s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
