package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/events"
	"daoTracker/internal/metrics"
	"daoTracker/internal/model"
)

type recordingSink struct {
	mu     sync.Mutex
	counts map[string]float64
	gauges map[string]float64
	timed  map[string]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		counts: make(map[string]float64),
		gauges: make(map[string]float64),
		timed:  make(map[string]int),
	}
}

func labelKey(name string, labels []metrics.Label) string {
	for _, l := range labels {
		name += "|" + l.Name + "=" + l.Value
	}
	return name
}

func (s *recordingSink) Incr(name string, labels []metrics.Label, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[labelKey(name, labels)] += value
	return nil
}

func (s *recordingSink) Gauge(name string, value float64, labels []metrics.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges[labelKey(name, labels)] = value
	return nil
}

func (s *recordingSink) Timing(name string, _ time.Duration, labels []metrics.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timed[labelKey(name, labels)]++
	return nil
}

func (s *recordingSink) count(k string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[k]
}

func (s *recordingSink) gauge(k string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gauges[k]
}

func TestReplayerPublishesOnStart(t *testing.T) {
	r := NewReplayer(New(5, nil, nil), nil, nil)
	snap := r.Latest()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(5), snap.ChainID)
	assert.Empty(t, snap.Wallets)
}

func TestReplayerRun(t *testing.T) {
	sink := newRecordingSink()
	r := NewReplayer(New(1, nil, nil), sink, nil)

	in := make(chan Message, 4)
	in <- Batch{
		Events: []events.OnChainEvent{
			at(10, 0, events.Staked{User: walletA, Amount: amt(1000), MintedShares: amt(1000)}),
			at(10, 1, events.Unknown{Topic0: common.HexToHash("0x01")}),
			at(11, 0, events.Delegated{From: walletC, To: walletA}),
			at(12, 0, events.StartVote{Agent: model.AgentPrimary, VoteID: 1, Creator: walletA, Metadata: "m"}),
		},
		LastBlock: 20,
	}
	in <- TreasuryUpdate{Treasuries: []model.Treasury{{
		Name:     "Primary Treasury",
		Wallet:   walletB,
		Balances: map[string]model.Amount{"USDC": amt(2500000)},
		Decimals: map[string]uint8{"USDC": 6},
	}}}
	in <- VotingDetailsUpdate{Key: model.VotingKey(model.AgentPrimary, 1), Details: model.VotingDetails{VotingPower: amt(4000)}}
	in <- VotingDetailsUpdate{Key: model.VotingKey(model.AgentSecondary, 9)}
	close(in)

	require.NoError(t, r.Run(context.Background(), in))

	snap := r.Latest()
	assert.Equal(t, uint64(20), snap.LastBlock)
	assert.Len(t, snap.Wallets, 1)
	assert.Equal(t, "4000", snap.Votings[model.VotingKey(model.AgentPrimary, 1)].VotesTotal.String())
	assert.Contains(t, snap.Treasuries, "Primary Treasury")

	assert.Equal(t, float64(1), sink.count("events_decoded|kind=Staked"))
	assert.Equal(t, float64(1), sink.count("events_skipped|reason=unknown"))
	assert.Equal(t, float64(1), sink.count("events_skipped|reason=unknown_wallet"))
	assert.Equal(t, float64(20), sink.gauge("last_block"))
	assert.Equal(t, float64(1), sink.gauge("votings"))
	assert.Equal(t, 2.5, sink.gauge("treasury_balance|treasury=Primary Treasury|coin=USDC"))
	assert.Equal(t, 1, sink.timed["replay_message_duration|message=batch"])
	assert.Equal(t, 2, sink.timed["replay_message_duration|message=voting_details"])
}

func TestReplayerStopsOnCancel(t *testing.T) {
	r := NewReplayer(New(1, nil, nil), nil, nil)
	in := make(chan Message)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, in) }()

	in <- Batch{Events: []events.OnChainEvent{
		at(3, 0, events.Deposited{User: walletB, Amount: amt(1)}),
	}, LastBlock: 4}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("replayer did not stop")
	}
	assert.Equal(t, uint64(4), r.Latest().LastBlock)
	assert.Contains(t, r.Latest().Wallets, walletB)
}

func TestReplayerSnapshotsAreStable(t *testing.T) {
	r := NewReplayer(New(1, nil, nil), nil, nil)
	r.Apply(Batch{Events: []events.OnChainEvent{
		at(1, 0, events.Staked{User: walletA, Amount: amt(10), MintedShares: amt(10)}),
	}, LastBlock: 1})
	assert.Empty(t, r.Latest().Wallets, "Apply does not publish")

	r.Publish()
	first := r.Latest()
	r.Apply(Batch{Events: []events.OnChainEvent{
		at(2, 0, events.Staked{User: walletA, Amount: amt(5), MintedShares: amt(5)}),
	}, LastBlock: 2})
	r.Publish()

	assert.Equal(t, "10", first.Wallets[walletA].Shares.String())
	assert.Equal(t, "15", r.Latest().Wallets[walletA].Shares.String())
}

func TestReplayerThrottlesPublishing(t *testing.T) {
	r := NewReplayer(New(1, nil, nil), nil, nil)
	r.SetPublishInterval(time.Hour)

	in := make(chan Message)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), in) }()

	for block := uint64(1); block <= 5; block++ {
		in <- Batch{Events: []events.OnChainEvent{
			at(block, 0, events.Staked{User: walletA, Amount: amt(1), MintedShares: amt(1)}),
		}, LastBlock: block}
	}
	assert.Equal(t, uint64(0), r.Latest().LastBlock, "no snapshot inside the interval")

	close(in)
	require.NoError(t, <-done)
	assert.Equal(t, uint64(5), r.Latest().LastBlock)
	assert.Equal(t, "5", r.Latest().Wallets[walletA].Shares.String())
}

func TestReplayerPublishesDeferredSnapshot(t *testing.T) {
	r := NewReplayer(New(1, nil, nil), nil, nil)
	r.SetPublishInterval(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan Message)
	go func() { _ = r.Run(ctx, in) }()

	in <- Batch{LastBlock: 7}
	assert.Eventually(t, func() bool { return r.Latest().LastBlock == 7 }, 2*time.Second, 5*time.Millisecond)
}
