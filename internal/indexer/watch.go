package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"daoTracker/internal/ledger"
)

// Watch polls the chain head every interval and scans new blocks after
// lastBlock. RPC failures are logged and retried on the next tick; only ctx
// ends the loop.
func (s *Scanner) Watch(ctx context.Context, lastBlock uint64, interval time.Duration, out chan<- ledger.Message) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := s.src.LatestBlockNumber(ctx)
		if err != nil {
			s.logger.Warn("get latest block failed", zap.Error(err))
			continue
		}
		if head <= lastBlock {
			continue
		}

		last, err := s.Scan(ctx, lastBlock+1, head, out)
		if last > lastBlock {
			lastBlock = last
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("watch scan failed", zap.Uint64("last_block", lastBlock), zap.Error(err))
		}
	}
}
