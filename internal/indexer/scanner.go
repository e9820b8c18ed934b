package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"daoTracker/internal/cache"
	"daoTracker/internal/events"
	"daoTracker/internal/fees"
	"daoTracker/internal/ledger"
	"daoTracker/internal/metrics"
	"daoTracker/internal/model"
)

// LogSource is the chain access the scanner needs.
type LogSource interface {
	ChainID(ctx context.Context) (uint64, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTime(ctx context.Context, hash common.Hash) (uint64, error)
	BlockTimes() map[common.Hash]uint64
}

// DetailsReader reads the static data of a vote after its StartVote is seen.
type DetailsReader interface {
	VotingDetails(ctx context.Context, agent model.VotingAgent, voteID uint64) (model.VotingDetails, error)
}

// ScanConfig holds runtime settings for the scanner.
type ScanConfig struct {
	Addresses       []common.Address
	VotingPrimary   common.Address
	VotingSecondary common.Address
	BatchSize       uint64
	Concurrency     int
	MaxRetries      int
	RetryBackoff    time.Duration
}

// Scanner fetches block ranges in parallel and feeds their decoded events to
// the ledger in chain order.
type Scanner struct {
	cfg     ScanConfig
	src     LogSource
	decoder *LogDecoder
	retry   retryPolicy
	logger  *zap.Logger

	cache   *cache.Dir
	fees    *fees.Annotator
	details DetailsReader
	sink    metrics.Sink

	checksum uint32
}

type ScannerOption func(*Scanner)

func WithCache(c *cache.Dir) ScannerOption {
	return func(s *Scanner) { s.cache = c }
}

func WithFees(a *fees.Annotator) ScannerOption {
	return func(s *Scanner) { s.fees = a }
}

func WithDetails(d DetailsReader) ScannerOption {
	return func(s *Scanner) { s.details = d }
}

func WithMetrics(sink metrics.Sink) ScannerOption {
	return func(s *Scanner) { s.sink = sink }
}

func NewScanner(cfg ScanConfig, src LogSource, logger *zap.Logger, opts ...ScannerOption) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	s := &Scanner{
		cfg:      cfg,
		src:      src,
		decoder:  NewLogDecoder(cfg.VotingPrimary, cfg.VotingSecondary, logger),
		retry:    newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff),
		logger:   logger,
		sink:     metrics.Nop{},
		checksum: cache.Checksum(cfg.Addresses),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan feeds blocks from..to into out, one Batch per block range, and returns
// the last block sent.
func (s *Scanner) Scan(ctx context.Context, from, to uint64, out chan<- ledger.Message) (uint64, error) {
	if s.src == nil {
		return 0, fmt.Errorf("log source is nil")
	}
	if len(s.cfg.Addresses) == 0 {
		return 0, fmt.Errorf("at least one address is required")
	}
	ranges, err := SplitRange(from, to, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	_ = s.sink.Gauge(metrics.GaugeBlockStart, float64(from), nil)

	last := uint64(0)
	if from > 0 {
		last = from - 1
	}
	for _, window := range Windows(ranges, s.cfg.Concurrency) {
		fetched, err := s.fetchWindow(ctx, window)
		if err != nil {
			return last, err
		}

		for i, blockRange := range window {
			batch, err := s.buildBatch(ctx, fetched[i], blockRange)
			if err != nil {
				return last, err
			}
			if err := send(ctx, out, batch); err != nil {
				return last, err
			}
			if err := s.sendDetails(ctx, batch.Events, out); err != nil {
				return last, err
			}
			last = blockRange.To
			_ = s.sink.Gauge(metrics.GaugeBlockEnd, float64(last), nil)
			s.saveCaches()

			s.logger.Info("batch complete",
				zap.Int("events", len(batch.Events)),
				zap.Uint64("from", blockRange.From),
				zap.Uint64("to", blockRange.To),
			)
		}
	}
	return last, nil
}

// fetchWindow downloads the logs of every range concurrently. Results keep
// the order of the window.
func (s *Scanner) fetchWindow(ctx context.Context, window []BlockRange) ([][]types.Log, error) {
	results := make([][]types.Log, len(window))
	g, gctx := errgroup.WithContext(ctx)
	for i, blockRange := range window {
		i, blockRange := i, blockRange
		g.Go(func() error {
			logs, err := s.fetchRange(gctx, blockRange)
			if err != nil {
				return fmt.Errorf("filter logs %d-%d: %w", blockRange.From, blockRange.To, err)
			}
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scanner) fetchRange(ctx context.Context, blockRange BlockRange) ([]types.Log, error) {
	logs, ok, err := s.cache.LoadLogs(s.checksum, blockRange.From, blockRange.To)
	if err != nil {
		s.logger.Warn("logs cache unreadable", zap.Uint64("from", blockRange.From), zap.Error(err))
	}
	if ok {
		return logs, nil
	}

	start := time.Now()
	err = s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = s.src.FilterLogs(ctx, blockRange.From, blockRange.To, s.cfg.Addresses, nil)
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.sink.Timing(metrics.TimingBatchFetch, time.Since(start), nil)

	if err := s.cache.SaveLogs(s.checksum, blockRange.From, blockRange.To, logs); err != nil {
		s.logger.Warn("logs cache write failed", zap.Error(err))
	}
	return logs, nil
}

func (s *Scanner) buildBatch(ctx context.Context, logs []types.Log, blockRange BlockRange) (ledger.Batch, error) {
	sorted := make([]types.Log, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		sorted = append(sorted, log)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].Index < sorted[j].Index
	})

	list := make([]events.OnChainEvent, 0, len(sorted))
	for _, log := range sorted {
		ts, err := s.blockTime(ctx, log)
		if err != nil {
			return ledger.Batch{}, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		list = append(list, s.decoder.Event(log, ts))
	}

	if err := s.annotate(ctx, list); err != nil {
		return ledger.Batch{}, err
	}
	return ledger.Batch{Events: list, LastBlock: blockRange.To}, nil
}

func (s *Scanner) blockTime(ctx context.Context, log types.Log) (uint64, error) {
	var ts uint64
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		ts, err = s.src.BlockTime(ctx, log.BlockHash)
		if err != nil {
			s.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", log.BlockNumber))
		}
		return err
	})
	return ts, err
}

// annotate attaches fees in place. A fee that still fails after the retries
// is logged and left nil; only cancellation stops the batch.
func (s *Scanner) annotate(ctx context.Context, list []events.OnChainEvent) error {
	if s.fees == nil {
		return nil
	}
	for i := range list {
		var fee model.TxFee
		err := s.retry.do(ctx, func(ctx context.Context) error {
			var err error
			fee, err = s.fees.Fee(ctx, list[i].TxHash, list[i].Timestamp)
			return err
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Warn("transaction fee unavailable",
				zap.String("tx", list[i].TxHash.Hex()),
				zap.Uint64("block_number", list[i].BlockNumber),
				zap.Error(err),
			)
			continue
		}
		list[i].Fee = &fee
	}
	return nil
}

// sendDetails follows every StartVote with the static data of the vote.
// Read failures are logged and the vote keeps its event data only.
func (s *Scanner) sendDetails(ctx context.Context, list []events.OnChainEvent, out chan<- ledger.Message) error {
	if s.details == nil {
		return nil
	}
	for _, e := range list {
		start, ok := e.Entry.(events.StartVote)
		if !ok {
			continue
		}
		details, err := s.details.VotingDetails(ctx, start.Agent, start.VoteID)
		if err != nil {
			s.logger.Warn("voting details failed",
				zap.String("voting", model.FormatVotingKey(model.VotingKey(start.Agent, start.VoteID))),
				zap.Error(err),
			)
			continue
		}
		msg := ledger.VotingDetailsUpdate{Key: model.VotingKey(start.Agent, start.VoteID), Details: details}
		if err := send(ctx, out, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) saveCaches() {
	if err := s.cache.SaveBlockTimes(s.src.BlockTimes()); err != nil {
		s.logger.Warn("block time cache write failed", zap.Error(err))
	}
	if s.fees != nil {
		if err := s.cache.SaveFees(s.fees.Known()); err != nil {
			s.logger.Warn("fee cache write failed", zap.Error(err))
		}
	}
}

func send(ctx context.Context, out chan<- ledger.Message, msg ledger.Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- msg:
		return nil
	}
}
