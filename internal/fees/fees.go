// Package fees attaches gas costs to decoded events.
package fees

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"daoTracker/internal/events"
	"daoTracker/internal/model"
)

// TxSource returns the gas price, gas limit and (when known) gas used of a transaction.
type TxSource interface {
	TransactionFee(ctx context.Context, hash common.Hash) (model.TxFee, error)
}

// PriceLookup returns the USD price of a coin at a point in time.
type PriceLookup interface {
	PriceAt(ctx context.Context, coin string, at time.Time) (decimal.Decimal, error)
}

const nativeCoin = "ethereum"

// Annotator computes transaction fees, memoized by transaction hash. It is
// safe for concurrent use.
type Annotator struct {
	txs    TxSource
	prices PriceLookup
	logger *zap.Logger

	mu   sync.Mutex
	memo map[common.Hash]model.TxFee
}

// NewAnnotator builds an annotator. prices may be nil, in which case fees
// carry no USD value.
func NewAnnotator(txs TxSource, prices PriceLookup, logger *zap.Logger) *Annotator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{
		txs:    txs,
		prices: prices,
		logger: logger,
		memo:   make(map[common.Hash]model.TxFee),
	}
}

// Load seeds the memo, typically from the fee cache.
func (a *Annotator) Load(known map[common.Hash]model.TxFee) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for hash, fee := range known {
		a.memo[hash] = fee
	}
}

// Known returns a copy of the memo for persisting.
func (a *Annotator) Known() map[common.Hash]model.TxFee {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[common.Hash]model.TxFee, len(a.memo))
	for hash, fee := range a.memo {
		out[hash] = fee
	}
	return out
}

// Fee returns the fee of a transaction mined at ts (unix seconds). A memoized
// fee without a USD value is priced again; a failed price lookup only leaves
// USD empty.
func (a *Annotator) Fee(ctx context.Context, hash common.Hash, ts uint64) (model.TxFee, error) {
	a.mu.Lock()
	fee, ok := a.memo[hash]
	a.mu.Unlock()

	if !ok {
		var err error
		fee, err = a.txs.TransactionFee(ctx, hash)
		if err != nil {
			return model.TxFee{}, fmt.Errorf("tx %s: %w", hash.Hex(), err)
		}
	} else if fee.USD != nil || a.prices == nil {
		return fee, nil
	}

	if a.prices != nil {
		fee.USD = a.usd(ctx, hash, fee, ts)
	}

	a.mu.Lock()
	a.memo[hash] = fee
	a.mu.Unlock()
	return fee, nil
}

func (a *Annotator) usd(ctx context.Context, hash common.Hash, fee model.TxFee, ts uint64) *decimal.Decimal {
	price, err := a.prices.PriceAt(ctx, nativeCoin, time.Unix(int64(ts), 0))
	if err != nil {
		a.logger.Warn("price lookup failed", zap.String("tx", hash.Hex()), zap.Error(err))
		return nil
	}
	usd := fee.Wei().Decimal(18).Mul(price)
	return &usd
}

// Total sums the fees of the given events, counting each transaction once.
// USD is present when at least one counted fee had it.
func Total(list []events.OnChainEvent) model.TxFeeTotal {
	var total model.TxFeeTotal
	seen := make(map[common.Hash]struct{}, len(list))
	for _, e := range list {
		if e.Fee == nil {
			continue
		}
		if _, dup := seen[e.TxHash]; dup {
			continue
		}
		seen[e.TxHash] = struct{}{}
		total.Wei = total.Wei.Add(e.Fee.Wei())
		if e.Fee.USD != nil {
			sum := *e.Fee.USD
			if total.USD != nil {
				sum = total.USD.Add(sum)
			}
			total.USD = &sum
		}
	}
	return total
}
