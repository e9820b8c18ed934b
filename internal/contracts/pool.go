package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"daoTracker/internal/model"
)

var (
	aprDivisor = decimal.NewFromInt(10000)
	hourly     = uint64(3600)
)

// PoolParams are the raw staking pool getters.
type PoolParams struct {
	MinAPR              model.Amount
	MaxAPR              model.Amount
	EpochLength         uint64
	RewardVestingPeriod uint64
	UnstakeWaitPeriod   uint64
	StakeTarget         model.Amount
}

// ReadPool reads the staking pool parameters at the head block.
func ReadPool(ctx context.Context, caller Caller, pool common.Address) (model.PoolInfo, error) {
	parsed, err := PoolABI()
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("parse pool abi: %w", err)
	}

	amount := func(method string) (model.Amount, error) {
		values, err := call(ctx, caller, pool, parsed, method, nil)
		if err != nil {
			return model.Amount{}, err
		}
		v, err := asAmount(values[0])
		if err != nil {
			return model.Amount{}, fmt.Errorf("%s: %w", method, err)
		}
		return v, nil
	}
	number := func(method string) (uint64, error) {
		values, err := call(ctx, caller, pool, parsed, method, nil)
		if err != nil {
			return 0, err
		}
		v, err := asUint64(values[0])
		if err != nil {
			return 0, fmt.Errorf("%s: %w", method, err)
		}
		return v, nil
	}

	var p PoolParams
	if p.MinAPR, err = amount("minApr"); err != nil {
		return model.PoolInfo{}, err
	}
	if p.MaxAPR, err = amount("maxApr"); err != nil {
		return model.PoolInfo{}, err
	}
	if p.EpochLength, err = number("EPOCH_LENGTH"); err != nil {
		return model.PoolInfo{}, err
	}
	if p.RewardVestingPeriod, err = number("REWARD_VESTING_PERIOD"); err != nil {
		return model.PoolInfo{}, err
	}
	if p.UnstakeWaitPeriod, err = number("unstakeWaitPeriod"); err != nil {
		return model.PoolInfo{}, err
	}
	if p.StakeTarget, err = amount("stakeTarget"); err != nil {
		return model.PoolInfo{}, err
	}
	return p.Info(), nil
}

// Info converts raw getters into presentation units. APR values are 18-decimal
// fractions; the genesis APR is the midpoint of the bounds. Rewards are quoted
// per 52-epoch year unless epochs are hourly (test deployments).
func (p PoolParams) Info() model.PoolInfo {
	coeff := decimal.NewFromInt(1)
	if p.EpochLength != hourly {
		days := p.EpochLength / 3600 / 24
		coeff = decimal.NewFromInt(int64(52 * days)).Div(decimal.NewFromInt(365))
	}
	mid := p.MinAPR.Add(p.MaxAPR).MulDiv(model.NewAmount(1), model.NewAmount(2))
	return model.PoolInfo{
		GenesisAPR:          mid.Decimal(14).Div(aprDivisor),
		MinAPR:              p.MinAPR.Decimal(14).Div(aprDivisor),
		MaxAPR:              p.MaxAPR.Decimal(14).Div(aprDivisor),
		RewardsCoeff:        coeff,
		EpochLength:         p.EpochLength,
		RewardVestingPeriod: p.RewardVestingPeriod,
		UnstakeWaitPeriod:   p.UnstakeWaitPeriod,
		StakeTarget:         p.StakeTarget,
	}
}
