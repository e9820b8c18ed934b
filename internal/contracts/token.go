package contracts

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"daoTracker/internal/model"
)

// TokenMeta is the ERC20 metadata needed to present balances.
type TokenMeta struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
}

// TokenCache caches token metadata by address.
type TokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]TokenMeta
}

func NewTokenCache() *TokenCache {
	return &TokenCache{data: make(map[common.Address]TokenMeta)}
}

func (c *TokenCache) Get(address common.Address) (TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenCache) Set(address common.Address, meta TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// FetchTokenMeta loads token metadata via ERC20 calls. Decimals are required;
// symbol and name fall back to the bytes32 ABI and are otherwise left empty.
func FetchTokenMeta(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (TokenMeta, error) {
	meta := TokenMeta{Address: token}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := call(ctx, caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call(ctx, caller, token, stringABI, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call(ctx, caller, token, bytes32ABI, "symbol", nil); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call(ctx, caller, token, stringABI, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call(ctx, caller, token, bytes32ABI, "name", nil); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// BalanceOf reads an ERC20 balance at a block, or at the head when blockNumber is nil.
func BalanceOf(ctx context.Context, caller Caller, token, owner common.Address, blockNumber *big.Int) (model.Amount, error) {
	parsed, err := erc20ABIStringInstance()
	if err != nil {
		return model.Amount{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := call(ctx, caller, token, parsed, "balanceOf", blockNumber, owner)
	if err != nil {
		return model.Amount{}, err
	}
	return asAmount(values[0])
}

// ReadTreasuries reads the balance of every token for every named wallet.
// Tokens whose balance cannot be read are left out of that treasury.
func ReadTreasuries(ctx context.Context, caller Caller, wallets map[string]common.Address, tokens []TokenMeta, logger *zap.Logger) []model.Treasury {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now().UTC().Unix()
	out := make([]model.Treasury, 0, len(wallets))
	for name, wallet := range wallets {
		t := model.Treasury{
			Name:      name,
			Wallet:    wallet,
			Balances:  make(map[string]model.Amount, len(tokens)),
			Decimals:  make(map[string]uint8, len(tokens)),
			UpdatedAt: now,
		}
		for _, token := range tokens {
			balance, err := BalanceOf(ctx, caller, token.Address, wallet, nil)
			if err != nil {
				logger.Warn("treasury balance failed",
					zap.String("treasury", name),
					zap.String("token", token.Symbol),
					zap.Error(err),
				)
				continue
			}
			t.Balances[token.Symbol] = balance
			t.Decimals[token.Symbol] = token.Decimals
		}
		out = append(out, t)
	}
	return out
}
