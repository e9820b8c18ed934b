package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/model"
)

// ReadSupply reads the circulating supply breakdown at the head block. Any
// failed getter fails the whole read.
func ReadSupply(ctx context.Context, caller Caller, supply common.Address) (model.Circulation, error) {
	parsed, err := SupplyABI()
	if err != nil {
		return model.Circulation{}, fmt.Errorf("parse supply abi: %w", err)
	}

	var c model.Circulation
	amounts := []struct {
		method string
		dst    *model.Amount
	}{
		{"getCirculatingSupply", &c.CirculatingSupply},
		{"getLockedByGovernance", &c.LockedByGovernance},
		{"getLockedRewards", &c.LockedRewards},
		{"getLockedVestings", &c.LockedVestings},
		{"getTimelocked", &c.TimeLocked},
		{"getTotalLocked", &c.TotalLocked},
	}
	for _, a := range amounts {
		values, err := call(ctx, caller, supply, parsed, a.method, nil)
		if err != nil {
			return model.Circulation{}, err
		}
		if *a.dst, err = asAmount(values[0]); err != nil {
			return model.Circulation{}, fmt.Errorf("%s: %w", a.method, err)
		}
	}

	addresses := []struct {
		method string
		dst    *common.Address
	}{
		{"API3_POOL", &c.Pool},
		{"API3_TOKEN", &c.Token},
		{"TIMELOCK_MANAGER", &c.TimelockManager},
		{"PRIMARY_TREASURY", &c.PrimaryTreasury},
		{"SECONDARY_TREASURY", &c.SecondaryTreasury},
		{"V1_TREASURY", &c.V1Treasury},
	}
	for _, a := range addresses {
		values, err := call(ctx, caller, supply, parsed, a.method, nil)
		if err != nil {
			return model.Circulation{}, err
		}
		addr, ok := values[0].(common.Address)
		if !ok {
			return model.Circulation{}, fmt.Errorf("%s: unsupported address type %T", a.method, values[0])
		}
		*a.dst = addr
	}
	return c, nil
}
