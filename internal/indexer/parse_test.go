package indexer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/events"
)

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{pool.Hex(), " ", " " + votingPrimary.Hex(), pool.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []common.Address{pool, votingPrimary}, got)

	_, err = ParseAddresses([]string{"0x1234"})
	assert.Error(t, err)
}

func TestParseTopic0(t *testing.T) {
	start, ok := events.Signature(events.KindStartVote)
	require.True(t, ok)

	got, err := ParseTopic0([]string{"StartVote", start.Hex(), ""})
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{start, start}, got)

	_, err = ParseTopic0([]string{"NotAnEvent"})
	assert.Error(t, err)
	_, err = ParseTopic0([]string{"0x1234"})
	assert.Error(t, err)
	_, err = ParseTopic0([]string{"0xzz"})
	assert.Error(t, err)
}
