package contracts

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/model"
)

// fakeCaller answers eth_call by method selector with pre-packed outputs.
type fakeCaller struct {
	parsed  abi.ABI
	outputs map[string][]interface{}
	calls   []ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	method, err := f.parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	out, ok := f.outputs[method.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return method.Outputs.Pack(out...)
}

func e18(x string) *big.Int {
	v, _ := new(big.Int).SetString(x, 10)
	return v
}

func TestPoolParamsInfo(t *testing.T) {
	p := PoolParams{
		MinAPR:      model.MustAmount("25000000000000000"),
		MaxAPR:      model.MustAmount("750000000000000000"),
		EpochLength: 7 * 24 * 3600,
		StakeTarget: model.MustAmount("500000000000000000"),
	}
	info := p.Info()
	assert.Equal(t, "0.025", info.MinAPR.String())
	assert.Equal(t, "0.75", info.MaxAPR.String())
	assert.Equal(t, "0.3875", info.GenesisAPR.String())
	assert.True(t, info.RewardsCoeff.Equal(decimal.NewFromInt(364).Div(decimal.NewFromInt(365))))

	p.EpochLength = 3600
	assert.True(t, p.Info().RewardsCoeff.Equal(decimal.NewFromInt(1)))
}

func TestReadPool(t *testing.T) {
	parsed, err := PoolABI()
	require.NoError(t, err)
	caller := &fakeCaller{parsed: parsed, outputs: map[string][]interface{}{
		"minApr":                {e18("25000000000000000")},
		"maxApr":                {e18("750000000000000000")},
		"EPOCH_LENGTH":          {big.NewInt(604800)},
		"REWARD_VESTING_PERIOD": {big.NewInt(52)},
		"unstakeWaitPeriod":     {big.NewInt(604800)},
		"stakeTarget":           {e18("500000000000000000")},
	}}

	info, err := ReadPool(context.Background(), caller, common.HexToAddress("0x6dd655f10d4b9e242ae186d9050b68f725c76d76"))
	require.NoError(t, err)
	assert.Equal(t, uint64(604800), info.EpochLength)
	assert.Equal(t, uint64(52), info.RewardVestingPeriod)
	assert.Equal(t, "500000000000000000", info.StakeTarget.String())
	assert.Len(t, caller.calls, 6)

	delete(caller.outputs, "stakeTarget")
	_, err = ReadPool(context.Background(), caller, common.Address{})
	assert.ErrorContains(t, err, "stakeTarget")
}

func TestReadSupply(t *testing.T) {
	parsed, err := SupplyABI()
	require.NoError(t, err)
	pool := common.HexToAddress("0x6dd655f10d4b9e242ae186d9050b68f725c76d76")
	token := common.HexToAddress("0x0b38210ea11411557c13457d4da7dc6ea731b88a")
	caller := &fakeCaller{parsed: parsed, outputs: map[string][]interface{}{
		"getCirculatingSupply":  {e18("30000000000000000000000000")},
		"getLockedByGovernance": {e18("40000000000000000000000000")},
		"getLockedRewards":      {e18("1000000000000000000000000")},
		"getLockedVestings":     {e18("2000000000000000000000000")},
		"getTimelocked":         {e18("3000000000000000000000000")},
		"getTotalLocked":        {e18("46000000000000000000000000")},
		"API3_POOL":             {pool},
		"API3_TOKEN":            {token},
		"TIMELOCK_MANAGER":      {common.HexToAddress("0x03")},
		"PRIMARY_TREASURY":      {common.HexToAddress("0x04")},
		"SECONDARY_TREASURY":    {common.HexToAddress("0x05")},
		"V1_TREASURY":           {common.HexToAddress("0x06")},
	}}

	c, err := ReadSupply(context.Background(), caller, common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, "30000000000000000000000000", c.CirculatingSupply.String())
	assert.Equal(t, "46000000000000000000000000", c.TotalLocked.String())
	assert.Equal(t, "3000000000000000000000000", c.TimeLocked.String())
	assert.Equal(t, pool, c.Pool)
	assert.Equal(t, token, c.Token)
	assert.Equal(t, common.HexToAddress("0x06"), c.V1Treasury)
	assert.Len(t, caller.calls, 12)

	delete(caller.outputs, "getTimelocked")
	_, err = ReadSupply(context.Background(), caller, common.HexToAddress("0x01"))
	assert.ErrorContains(t, err, "getTimelocked")
}

func TestStaticVoteData(t *testing.T) {
	parsed, err := ConvenienceABI()
	require.NoError(t, err)
	script := []byte{0x00, 0x00, 0x00, 0x01, 0xaa}
	caller := &fakeCaller{parsed: parsed, outputs: map[string][]interface{}{
		"getStaticVoteData": {
			[]uint64{1620000000},
			[]uint64{500000000000000000},
			[]uint64{150000000000000000},
			[]*big.Int{e18("41000000000000000000000000")},
			[][]byte{script},
			[]*big.Int{big.NewInt(0)},
			[]string{"https://forum.example/t/42"},
		},
	}}

	details, err := StaticVoteData(context.Background(), caller, common.HexToAddress("0x01"), model.AgentSecondary, 42, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1620000000), details.StartDate)
	assert.Equal(t, "0.5", details.SupportRequired.String())
	assert.Equal(t, "0.15", details.MinQuorum.String())
	assert.Equal(t, "41000000000000000000000000", details.VotingPower.String())
	assert.Equal(t, script, []byte(details.Script))
	assert.Equal(t, "https://forum.example/t/42", details.DiscussionURL)

	method, err := parsed.MethodById(caller.calls[0].Data[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(caller.calls[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, uint8(1), args[0])
}

func TestVotingDetailsRejectsEmptyArrays(t *testing.T) {
	_, err := votingDetails([]interface{}{[]uint64{}, []uint64{}, []uint64{}, []*big.Int{}, [][]byte{}, []*big.Int{}, []string{}})
	assert.Error(t, err)
	_, err = votingDetails(nil)
	assert.Error(t, err)
}

func TestTokenMetaAndTreasuries(t *testing.T) {
	parsed, err := erc20ABIStringInstance()
	require.NoError(t, err)
	caller := &fakeCaller{parsed: parsed, outputs: map[string][]interface{}{
		"decimals":  {uint8(6)},
		"symbol":    {"USDC"},
		"name":      {"USD Coin"},
		"balanceOf": {big.NewInt(1_500_000)},
	}}
	token := common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")

	meta, err := FetchTokenMeta(context.Background(), caller, token, nil)
	require.NoError(t, err)
	assert.Equal(t, TokenMeta{Address: token, Symbol: "USDC", Name: "USD Coin", Decimals: 6}, meta)

	cache := NewTokenCache()
	cache.Set(token, meta)
	cached, ok := cache.Get(token)
	assert.True(t, ok)
	assert.Equal(t, meta, cached)

	wallet := common.HexToAddress("0xd9f80bdb37e6bad114d747e60ce6d2aaf26704ae")
	treasuries := ReadTreasuries(context.Background(), caller, map[string]common.Address{"Primary Treasury": wallet}, []TokenMeta{meta}, nil)
	require.Len(t, treasuries, 1)
	assert.Equal(t, "1500000", treasuries[0].Balances["USDC"].String())
	assert.Equal(t, uint8(6), treasuries[0].Decimals["USDC"])
	assert.Equal(t, wallet, treasuries[0].Wallet)

	delete(caller.outputs, "balanceOf")
	treasuries = ReadTreasuries(context.Background(), caller, map[string]common.Address{"Primary Treasury": wallet}, []TokenMeta{meta}, nil)
	assert.Empty(t, treasuries[0].Balances)
}
