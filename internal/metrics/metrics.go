// Package metrics defines the sink the scanner and the replayer report to.
// Implementations are passed in explicitly; nothing here is process-global.
package metrics

import "time"

// Sink receives counters, gauges and timings.
type Sink interface {
	Incr(name string, labels []Label, value float64) error
	Gauge(name string, value float64, labels []Label) error
	Timing(name string, value time.Duration, labels []Label) error
}

type Label struct {
	Name  string
	Value string
}

type Type string

const (
	TypeIncr   Type = "incr"
	TypeGauge  Type = "gauge"
	TypeTiming Type = "timing"
)

type TypeConfig struct {
	Name   string
	Labels []string
}

const (
	IncrEventsDecoded = "events_decoded"
	IncrEventsSkipped = "events_skipped"

	GaugeChainID           = "chain_id"
	GaugeBlockStart        = "block_start"
	GaugeBlockEnd          = "block_end"
	GaugeAddresses         = "addresses"
	GaugeVotings           = "votings"
	GaugeEpochs            = "epochs"
	GaugeEpochIndex        = "epoch_index"
	GaugeAPR               = "apr"
	GaugeLastBlock         = "last_block"
	GaugeMinAPR            = "min_apr"
	GaugeMaxAPR            = "max_apr"
	GaugeGenesisAPR        = "genesis_apr"
	GaugeStakeTarget       = "stake_target"
	GaugeTreasuryBalance   = "treasury_balance"
	GaugeCirculatingSupply = "circulating_supply"
	GaugeTotalLocked       = "total_locked"

	TimingBatchFetch    = "batch_fetch_duration"
	TimingReplayMessage = "replay_message_duration"
)

// DefaultTypes lists every metric this service reports, with its allowed labels.
var DefaultTypes = map[Type][]TypeConfig{
	TypeIncr: {
		{Name: IncrEventsDecoded, Labels: []string{"kind"}},
		{Name: IncrEventsSkipped, Labels: []string{"reason"}},
	},
	TypeGauge: {
		{Name: GaugeChainID},
		{Name: GaugeBlockStart},
		{Name: GaugeBlockEnd},
		{Name: GaugeAddresses},
		{Name: GaugeVotings},
		{Name: GaugeEpochs},
		{Name: GaugeEpochIndex},
		{Name: GaugeAPR},
		{Name: GaugeLastBlock},
		{Name: GaugeMinAPR},
		{Name: GaugeMaxAPR},
		{Name: GaugeGenesisAPR},
		{Name: GaugeStakeTarget},
		{Name: GaugeTreasuryBalance, Labels: []string{"treasury", "coin"}},
		{Name: GaugeCirculatingSupply},
		{Name: GaugeTotalLocked},
	},
	TypeTiming: {
		{Name: TimingBatchFetch},
		{Name: TimingReplayMessage, Labels: []string{"message"}},
	},
}

// Nop discards everything.
type Nop struct{}

func (Nop) Incr(string, []Label, float64) error         { return nil }
func (Nop) Gauge(string, float64, []Label) error        { return nil }
func (Nop) Timing(string, time.Duration, []Label) error { return nil }
