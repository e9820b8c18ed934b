package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/ledger"
	"daoTracker/internal/model"
)

var (
	_ LogSink       = (*JsonlStorage)(nil)
	_ SnapshotStore = (*FileSnapshotStore)(nil)
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs.jsonl")
	s := NewJsonlStorage(path)

	require.NoError(t, s.PutLogBatch(nil))
	assert.NoFileExists(t, path)

	require.NoError(t, s.PutLogBatch([]model.LogRecord{{ChainID: 1, BlockNumber: 10, LogIndex: 0}}))
	require.NoError(t, s.PutLogBatch([]model.LogRecord{{ChainID: 1, BlockNumber: 11, LogIndex: 2}}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var blocks []uint64
	err = ScanJSONL(f, func(_ int, line []byte) error {
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		blocks = append(blocks, record.BlockNumber)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 11}, blocks)
}

func TestJSONLWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewJSONLWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(map[string]int{"a": 1}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))
}

func TestScanJSONL(t *testing.T) {
	input := "{\"a\":1}\n\n   \n{\"a\":2}\n"

	t.Run("skips blank lines", func(t *testing.T) {
		var lines []int
		err := ScanJSONL(strings.NewReader(input), func(lineNo int, _ []byte) error {
			lines = append(lines, lineNo)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 4}, lines)
	})

	t.Run("stops on callback error", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := ScanJSONL(strings.NewReader(input), func(int, []byte) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestFileSnapshotStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "snapshot.json")
	store := NewFileSnapshotStore(path)

	_, ok, err := store.LoadSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	l := ledger.New(1, nil, nil)
	l.AdvanceTo(1234)
	l.SetTreasuries([]model.Treasury{{
		Name:     "Primary Treasury",
		Wallet:   common.HexToAddress("0x01"),
		Balances: map[string]model.Amount{"USDC": model.NewAmount(5)},
		Decimals: map[string]uint8{"USDC": 6},
	}})
	require.NoError(t, store.SaveSnapshot(ctx, l.Snapshot()))
	assert.NoFileExists(t, path+".tmp")

	snap, ok, err := store.LoadSnapshot(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1234), snap.LastBlock)
	assert.Equal(t, "5", snap.Treasuries["Primary Treasury"].Balances["USDC"].String())

	_, ok, err = store.LoadSnapshot(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok, "snapshot of another chain")

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, _, err = store.LoadSnapshot(ctx, 1)
	assert.Error(t, err)
}
