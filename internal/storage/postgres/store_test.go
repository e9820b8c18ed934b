package postgres

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/model"
	"daoTracker/internal/storage"
)

var _ storage.SnapshotStore = (*Store)(nil)

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}

func TestWalletRow(t *testing.T) {
	w := *model.NewWallet(common.HexToAddress("0xABCDEF0000000000000000000000000000000001"), 100)
	w.Shares = model.MustAmount("123456789012345678901234567890")
	w.Votes = 3
	w.UpdatedAt = 200

	row := walletRow(1, w)
	require.Len(t, row, 10)
	assert.Equal(t, int64(1), row[0])
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", row[1])
	assert.Equal(t, "123456789012345678901234567890", row[2])
	assert.Nil(t, row[6])
	assert.Equal(t, int64(3), row[7])
	assert.Equal(t, int64(200), row[9])

	w.Delegates = &model.Delegation{To: common.HexToAddress("0x00000000000000000000000000000000000000Aa")}
	row = walletRow(1, w)
	to, ok := row[6].(*string)
	require.True(t, ok)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", *to)
}
