package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"daoTracker/internal/contracts"
	"daoTracker/internal/ledger"
	"daoTracker/internal/model"
)

// RefreshConfig names the contracts read outside of the event stream.
type RefreshConfig struct {
	Pool        common.Address
	Supply      common.Address
	Convenience common.Address
	Treasuries  map[string]common.Address
	Tokens      []common.Address
}

// Refresher reads contract state and hands it to the ledger as messages.
type Refresher struct {
	cfg    RefreshConfig
	caller contracts.Caller
	tokens *contracts.TokenCache
	logger *zap.Logger
}

func NewRefresher(cfg RefreshConfig, caller contracts.Caller, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		cfg:    cfg,
		caller: caller,
		tokens: contracts.NewTokenCache(),
		logger: logger,
	}
}

// VotingDetails implements DetailsReader through the convenience contract.
func (r *Refresher) VotingDetails(ctx context.Context, agent model.VotingAgent, voteID uint64) (model.VotingDetails, error) {
	if r.cfg.Convenience == (common.Address{}) {
		return model.VotingDetails{}, fmt.Errorf("convenience address not configured")
	}
	return contracts.StaticVoteData(ctx, r.caller, r.cfg.Convenience, agent, voteID, common.Address{})
}

// Treasuries reads every configured treasury. Token metadata is fetched once.
func (r *Refresher) Treasuries(ctx context.Context) ledger.TreasuryUpdate {
	metas := make([]contracts.TokenMeta, 0, len(r.cfg.Tokens))
	for _, token := range r.cfg.Tokens {
		meta, ok := r.tokens.Get(token)
		if !ok {
			var err error
			meta, err = contracts.FetchTokenMeta(ctx, r.caller, token, r.logger)
			if err != nil {
				r.logger.Warn("token meta failed", zap.String("token", token.Hex()), zap.Error(err))
				continue
			}
			r.tokens.Set(token, meta)
		}
		metas = append(metas, meta)
	}
	return ledger.TreasuryUpdate{Treasuries: contracts.ReadTreasuries(ctx, r.caller, r.cfg.Treasuries, metas, r.logger)}
}

func (r *Refresher) Pool(ctx context.Context) (ledger.PoolInfoUpdate, error) {
	info, err := contracts.ReadPool(ctx, r.caller, r.cfg.Pool)
	if err != nil {
		return ledger.PoolInfoUpdate{}, fmt.Errorf("read pool: %w", err)
	}
	return ledger.PoolInfoUpdate{Info: info}, nil
}

// Circulation reads the token supply breakdown, stamped with the read time.
func (r *Refresher) Circulation(ctx context.Context) (ledger.CirculationUpdate, error) {
	c, err := contracts.ReadSupply(ctx, r.caller, r.cfg.Supply)
	if err != nil {
		return ledger.CirculationUpdate{}, fmt.Errorf("read supply: %w", err)
	}
	c.UpdatedAt = uint64(time.Now().Unix())
	return ledger.CirculationUpdate{Circulation: c}, nil
}

// Refresh sends one round of pool, circulation and treasury messages. A failed
// read is logged and its message skipped.
func (r *Refresher) Refresh(ctx context.Context, out chan<- ledger.Message) error {
	if r.cfg.Pool != (common.Address{}) {
		msg, err := r.Pool(ctx)
		if err != nil {
			r.logger.Warn("pool refresh failed", zap.Error(err))
		} else if err := send(ctx, out, msg); err != nil {
			return err
		}
	}
	if r.cfg.Supply != (common.Address{}) {
		msg, err := r.Circulation(ctx)
		if err != nil {
			r.logger.Warn("circulation refresh failed", zap.Error(err))
		} else if err := send(ctx, out, msg); err != nil {
			return err
		}
	}
	if len(r.cfg.Treasuries) > 0 && len(r.cfg.Tokens) > 0 {
		if err := send(ctx, out, r.Treasuries(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration, out chan<- ledger.Message) error {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if err := r.Refresh(ctx, out); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Refresh(ctx, out); err != nil {
				return err
			}
		}
	}
}
