package cache

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/model"
)

var watched = []common.Address{
	common.HexToAddress("0x6dd655f10d4b9e242ae186d9050b68f725c76d76"),
	common.HexToAddress("0xdb6c812e439ce5c6a64c0d1b8ec23b9cb3f13c76"),
}

func TestChecksumDependsOnAddresses(t *testing.T) {
	assert.Equal(t, Checksum(watched), Checksum(append([]common.Address{}, watched...)))
	assert.NotEqual(t, Checksum(watched), Checksum(watched[:1]))
}

func TestLogsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1, nil)
	sum := Checksum(watched)

	_, ok, err := c.LoadLogs(sum, 100, 199)
	require.NoError(t, err)
	assert.False(t, ok)

	logs := []types.Log{{
		Address:     watched[0],
		Topics:      []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
		Data:        []byte{0xde, 0xad},
		BlockNumber: 150,
		TxHash:      common.HexToHash("0xaa"),
		TxIndex:     3,
		BlockHash:   common.HexToHash("0xbb"),
		Index:       7,
	}}
	require.NoError(t, c.SaveLogs(sum, 100, 199, logs))
	assert.FileExists(t, filepath.Join(dir, "chain1-100-199-"+strconv.FormatUint(uint64(sum), 10)+".json"))

	got, ok, err := c.LoadLogs(sum, 100, 199)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, logs[0].Topics, got[0].Topics)
	assert.Equal(t, logs[0].Data, got[0].Data)
	assert.Equal(t, uint(7), got[0].Index)

	// an empty range is cached too
	require.NoError(t, c.SaveLogs(sum, 200, 299, nil))
	got, ok, err = c.LoadLogs(sum, 200, 299)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCorruptLogsAreReported(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1, nil)
	require.NoError(t, os.WriteFile(c.logsPath(5, 1, 2), []byte("{"), 0o644))
	_, ok, err := c.LoadLogs(5, 1, 2)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBlockTimesAndFees(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 5, nil)
	assert.Empty(t, c.LoadBlockTimes())
	assert.Empty(t, c.LoadFees())

	times := map[common.Hash]uint64{common.HexToHash("0x01"): 1600000000}
	require.NoError(t, c.SaveBlockTimes(times))
	assert.Equal(t, times, c.LoadBlockTimes())
	assert.FileExists(t, filepath.Join(dir, "blockstime5.json"))

	usd := decimal.RequireFromString("1.25")
	used := model.NewAmount(21000)
	fees := map[common.Hash]model.TxFee{
		common.HexToHash("0x02"): {GasPrice: model.NewAmount(10), Gas: model.NewAmount(30000), GasUsed: &used, USD: &usd},
	}
	require.NoError(t, c.SaveFees(fees))
	loaded := c.LoadFees()
	require.Contains(t, loaded, common.HexToHash("0x02"))
	fee := loaded[common.HexToHash("0x02")]
	assert.Equal(t, "21000", fee.GasUsed.String())
	assert.Equal(t, "1.25", fee.USD.String())
	assert.FileExists(t, filepath.Join(dir, "prices5.json"))
	assert.NoFileExists(t, filepath.Join(dir, "prices5.json.tmp"))
}

func TestCorruptMapsAreIgnored(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, 1, nil)
	require.NoError(t, os.WriteFile(c.blockTimesPath(), []byte("not json"), 0o644))
	assert.Empty(t, c.LoadBlockTimes())
}

func TestDisabledCache(t *testing.T) {
	c := New("", 1, nil)
	assert.False(t, c.Enabled())
	require.NoError(t, c.SaveLogs(1, 1, 2, nil))
	require.NoError(t, c.SaveBlockTimes(map[common.Hash]uint64{{}: 1}))
	_, ok, err := c.LoadLogs(1, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, c.LoadFees())
}
