package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"daoTracker/internal/events"
	"daoTracker/internal/metrics"
	"daoTracker/internal/model"
)

// Message is one unit of work for the Replayer.
type Message interface {
	name() string
}

// Batch carries the ordered events of a block range. LastBlock is the end of
// the range, which may be past the last event.
type Batch struct {
	Events    []events.OnChainEvent
	LastBlock uint64
}

type TreasuryUpdate struct {
	Treasuries []model.Treasury
}

type PoolInfoUpdate struct {
	Info model.PoolInfo
}

type CirculationUpdate struct {
	Circulation model.Circulation
}

type VotingDetailsUpdate struct {
	Key     uint64
	Details model.VotingDetails
}

func (Batch) name() string               { return "batch" }
func (TreasuryUpdate) name() string      { return "treasury" }
func (PoolInfoUpdate) name() string      { return "pool_info" }
func (CirculationUpdate) name() string   { return "circulation" }
func (VotingDetailsUpdate) name() string { return "voting_details" }

// DefaultPublishInterval is the minimum spacing of snapshots while messages
// keep arriving.
const DefaultPublishInterval = time.Second

// Replayer is the single writer of a Ledger. Producers send messages on a
// channel; readers call Latest.
type Replayer struct {
	ledger   *Ledger
	sink     metrics.Sink
	logger   *zap.Logger
	interval time.Duration

	latest    atomic.Pointer[Snapshot]
	published time.Time
}

func NewReplayer(ledger *Ledger, sink metrics.Sink, logger *zap.Logger) *Replayer {
	if sink == nil {
		sink = metrics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Replayer{ledger: ledger, sink: sink, logger: logger, interval: DefaultPublishInterval}
	r.publish()
	return r
}

// SetPublishInterval changes the snapshot spacing used by Run. Zero publishes
// on every drained inbox. It must be called before Run.
func (r *Replayer) SetPublishInterval(d time.Duration) {
	r.interval = d
}

// Latest returns the most recently published snapshot. Callers must treat it as read-only.
func (r *Replayer) Latest() *Snapshot {
	return r.latest.Load()
}

// Run applies messages until the channel is closed or ctx is done. A snapshot
// is published when the inbox is drained, at most once per publish interval;
// a deferred snapshot is taken when the interval runs out, and always before
// returning.
func (r *Replayer) Run(ctx context.Context, in <-chan Message) error {
	defer r.publish()

	var (
		dirty bool
		timer *time.Timer
		due   <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-due:
			due = nil
			if dirty {
				r.publish()
				dirty = false
			}
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			r.apply(msg)
			dirty = true
			if len(in) > 0 {
				continue
			}
			if wait := r.interval - time.Since(r.published); wait > 0 {
				if due == nil {
					timer = time.NewTimer(wait)
					due = timer.C
				}
				continue
			}
			r.publish()
			dirty = false
		}
	}
}

// Apply handles one message synchronously without publishing. It is for
// offline replays and must not be called while Run is active.
func (r *Replayer) Apply(msg Message) {
	r.apply(msg)
}

// Publish takes a snapshot of the ledger and makes it the Latest.
func (r *Replayer) Publish() {
	r.publish()
}

func (r *Replayer) apply(msg Message) {
	start := time.Now()
	switch m := msg.(type) {
	case Batch:
		for _, e := range m.Events {
			r.fold(e)
		}
		r.ledger.AdvanceTo(m.LastBlock)
	case TreasuryUpdate:
		r.ledger.SetTreasuries(m.Treasuries)
	case PoolInfoUpdate:
		r.ledger.SetPoolInfo(m.Info)
	case CirculationUpdate:
		r.ledger.SetCirculation(m.Circulation)
	case VotingDetailsUpdate:
		if err := r.ledger.SetVotingDetails(m.Key, m.Details); err != nil {
			r.logger.Warn("voting details rejected", zap.String("voting", model.FormatVotingKey(m.Key)), zap.Error(err))
		}
	}
	_ = r.sink.Timing(metrics.TimingReplayMessage, time.Since(start), []metrics.Label{{Name: "message", Value: msg.name()}})
}

func (r *Replayer) fold(e events.OnChainEvent) {
	if e.Entry == nil {
		return
	}
	kind := e.Entry.Kind()
	_ = r.sink.Incr(metrics.IncrEventsDecoded, []metrics.Label{{Name: "kind", Value: string(kind)}}, 1)
	if events.IsNoise(e.Entry) {
		r.skipped(skipReason(kind))
		return
	}

	err := r.ledger.Fold(e)
	if err == nil {
		return
	}
	var v *ViolationError
	if !errors.As(err, &v) {
		r.logger.Error("fold failed", zap.Error(err))
		return
	}
	payload, _ := json.Marshal(e)
	r.logger.Warn("event skipped",
		zap.String("kind", string(v.Kind)),
		zap.Uint64("block", v.BlockNumber),
		zap.Uint64("log_index", v.LogIndex),
		zap.String("tx", e.TxHash.Hex()),
		zap.ByteString("event", payload),
		zap.Error(v.Err),
	)
	r.skipped(violationReason(err))
}

func (r *Replayer) skipped(reason string) {
	_ = r.sink.Incr(metrics.IncrEventsSkipped, []metrics.Label{{Name: "reason", Value: reason}}, 1)
}

func skipReason(kind events.Kind) string {
	if kind == events.KindIgnored {
		return "ignored"
	}
	return "unknown"
}

func violationReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownWallet):
		return "unknown_wallet"
	case errors.Is(err, ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ErrDelegationMismatch):
		return "delegation_mismatch"
	case errors.Is(err, ErrUnknownVoting):
		return "unknown_voting"
	case errors.Is(err, ErrDuplicateVoting):
		return "duplicate_voting"
	case errors.Is(err, ErrDuplicateEpoch):
		return "duplicate_epoch"
	default:
		return "violation"
	}
}

func (r *Replayer) publish() {
	snap := r.ledger.Snapshot()
	r.latest.Store(snap)
	r.published = time.Now()
	publishMetrics(r.sink, snap)
}

func publishMetrics(sink metrics.Sink, s *Snapshot) {
	gauge := func(name string, value float64, labels ...metrics.Label) {
		_ = sink.Gauge(name, value, labels)
	}
	gauge(metrics.GaugeChainID, float64(s.ChainID))
	gauge(metrics.GaugeAddresses, float64(len(s.Wallets)))
	gauge(metrics.GaugeVotings, float64(len(s.Votings)))
	gauge(metrics.GaugeEpochs, float64(len(s.Epochs)))
	gauge(metrics.GaugeEpochIndex, float64(s.EpochIndex))
	gauge(metrics.GaugeAPR, s.APR.InexactFloat64())
	gauge(metrics.GaugeLastBlock, float64(s.LastBlock))
	gauge(metrics.GaugeStakeTarget, s.StakeTarget.Decimal(18).InexactFloat64())
	if s.PoolInfo != nil {
		gauge(metrics.GaugeMinAPR, s.PoolInfo.MinAPR.InexactFloat64())
		gauge(metrics.GaugeMaxAPR, s.PoolInfo.MaxAPR.InexactFloat64())
		gauge(metrics.GaugeGenesisAPR, s.PoolInfo.GenesisAPR.InexactFloat64())
	}
	if s.Circulation != nil {
		gauge(metrics.GaugeCirculatingSupply, s.Circulation.CirculatingSupply.Decimal(18).InexactFloat64())
		gauge(metrics.GaugeTotalLocked, s.Circulation.TotalLocked.Decimal(18).InexactFloat64())
	}
	for name, t := range s.Treasuries {
		for coin, balance := range t.Balances {
			gauge(metrics.GaugeTreasuryBalance, balance.Decimal(int32(t.Decimals[coin])).InexactFloat64(),
				metrics.Label{Name: "treasury", Value: name},
				metrics.Label{Name: "coin", Value: coin},
			)
		}
	}
}
