package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"daoTracker/internal/model"
)

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[common.Hash]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[common.Hash]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("chain id does not fit in uint64: %s", id)
	}
	return id.Uint64(), nil
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockTime returns the timestamp of the block with the given hash, using an
// in-memory cache.
func (c *Client) BlockTime(ctx context.Context, hash common.Hash) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[hash]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByHash(ctx, hash)
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[hash] = ts
	c.mu.Unlock()

	return ts, nil
}

// LoadBlockTimes seeds the timestamp cache.
func (c *Client) LoadBlockTimes(known map[common.Hash]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for hash, ts := range known {
		c.tsCache[hash] = ts
	}
}

// BlockTimes returns a copy of the timestamp cache.
func (c *Client) BlockTimes() map[common.Hash]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[common.Hash]uint64, len(c.tsCache))
	for hash, ts := range c.tsCache {
		out[hash] = ts
	}
	return out
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	return c.ethClient.FilterLogs(ctx, query)
}

// TransactionFee reads a transaction and its receipt. The receipt's effective
// gas price wins over the transaction's when both are present.
func (c *Client) TransactionFee(ctx context.Context, hash common.Hash) (model.TxFee, error) {
	tx, _, err := c.ethClient.TransactionByHash(ctx, hash)
	if err != nil {
		return model.TxFee{}, fmt.Errorf("transaction: %w", err)
	}
	receipt, err := c.ethClient.TransactionReceipt(ctx, hash)
	if err != nil {
		return model.TxFee{}, fmt.Errorf("receipt: %w", err)
	}
	return feeOf(tx, receipt)
}

func feeOf(tx *types.Transaction, receipt *types.Receipt) (model.TxFee, error) {
	price := tx.GasPrice()
	if receipt != nil && receipt.EffectiveGasPrice != nil && receipt.EffectiveGasPrice.Sign() > 0 {
		price = receipt.EffectiveGasPrice
	}
	gasPrice, err := model.AmountFromBig(price)
	if err != nil {
		return model.TxFee{}, err
	}
	fee := model.TxFee{GasPrice: gasPrice, Gas: model.NewAmount(tx.Gas())}
	if receipt != nil {
		used := model.NewAmount(receipt.GasUsed)
		fee.GasUsed = &used
	}
	return fee, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
