package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Epoch is the reward mint record for one staking epoch.
type Epoch struct {
	Index       uint64                    `json:"index"`
	APR         decimal.Decimal           `json:"apr"`
	Minted      Amount                    `json:"minted"`
	Total       Amount                    `json:"total"`
	Stakes      map[common.Address]Amount `json:"stakes"`
	Timestamp   uint64                    `json:"timestamp"`
	BlockNumber uint64                    `json:"block_number"`
}

// RewardOf is the share of the minted amount attributed to a wallet.
func (e Epoch) RewardOf(address common.Address) Amount {
	stake, ok := e.Stakes[address]
	if !ok {
		return Amount{}
	}
	return e.Minted.MulDiv(stake, e.Total)
}

// Clone returns a deep copy.
func (e Epoch) Clone() Epoch {
	out := e
	out.Stakes = make(map[common.Address]Amount, len(e.Stakes))
	for k, v := range e.Stakes {
		out.Stakes[k] = v
	}
	return out
}

// PoolInfo holds staking pool parameters read from the pool contract.
type PoolInfo struct {
	GenesisAPR          decimal.Decimal `json:"genesis_apr"`
	MinAPR              decimal.Decimal `json:"min_apr"`
	MaxAPR              decimal.Decimal `json:"max_apr"`
	RewardsCoeff        decimal.Decimal `json:"rewards_coeff"`
	EpochLength         uint64          `json:"epoch_length"`
	RewardVestingPeriod uint64          `json:"reward_vesting_period"`
	UnstakeWaitPeriod   uint64          `json:"unstake_wait_period"`
	StakeTarget         Amount          `json:"stake_target"`
}

// Circulation is the token supply breakdown reported by the supply contract,
// along with the DAO addresses it was configured with.
type Circulation struct {
	CirculatingSupply  Amount         `json:"circulating_supply"`
	LockedByGovernance Amount         `json:"locked_by_governance"`
	LockedRewards      Amount         `json:"locked_rewards"`
	LockedVestings     Amount         `json:"locked_vestings"`
	TimeLocked         Amount         `json:"time_locked"`
	TotalLocked        Amount         `json:"total_locked"`
	Pool               common.Address `json:"pool"`
	Token              common.Address `json:"token"`
	TimelockManager    common.Address `json:"timelock_manager"`
	PrimaryTreasury    common.Address `json:"primary_treasury"`
	SecondaryTreasury  common.Address `json:"secondary_treasury"`
	V1Treasury         common.Address `json:"v1_treasury"`
	UpdatedAt          uint64         `json:"updated_at"`
}
