package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}, got)

	got, err = SplitRange(5, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: 5, To: 5}}, got)
	assert.Equal(t, uint64(1), got[0].Len())
}

func TestSplitRangeNearMaxBlock(t *testing.T) {
	top := ^uint64(0)
	got, err := SplitRange(top-2, top, 2)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: top - 2, To: top - 1}, {From: top, To: top}}, got)
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	assert.Error(t, err, "invalid range")
	_, err = SplitRange(1, 10, 0)
	assert.Error(t, err, "zero batch size")
}

func TestWindows(t *testing.T) {
	ranges, err := SplitRange(0, 9, 2)
	require.NoError(t, err)

	windows := Windows(ranges, 2)
	require.Len(t, windows, 3)
	assert.Equal(t, []BlockRange{{From: 0, To: 1}, {From: 2, To: 3}}, windows[0])
	assert.Equal(t, []BlockRange{{From: 8, To: 9}}, windows[2])

	assert.Len(t, Windows(ranges, 0), 5)
	assert.Empty(t, Windows(nil, 3))
}
