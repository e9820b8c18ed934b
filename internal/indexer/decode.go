package indexer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"daoTracker/internal/events"
	"daoTracker/internal/logreader"
	"daoTracker/internal/model"
)

// LogDecoder decodes logs of the watched contracts, supplying the agent hint
// from the voting app that emitted them.
type LogDecoder struct {
	decoder   *events.Decoder
	primary   common.Address
	secondary common.Address
	logger    *zap.Logger
}

func NewLogDecoder(votingPrimary, votingSecondary common.Address, logger *zap.Logger) *LogDecoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDecoder{
		decoder:   events.NewDecoder(logger),
		primary:   votingPrimary,
		secondary: votingSecondary,
		logger:    logger,
	}
}

// Decode never fails. A vote event from a contract other than the two voting
// apps is not trusted and decodes as Unknown.
func (d *LogDecoder) Decode(raw logreader.RawLog) events.Event {
	if !d.decoder.NeedsAgent(raw.Topic0()) {
		return d.decoder.Decode(nil, raw)
	}
	agent, ok := d.agentOf(raw.Address)
	if !ok {
		d.logger.Warn("vote event from unexpected contract", zap.String("address", raw.Address.Hex()))
		return events.Unknown{Topic0: raw.Topic0()}
	}
	return d.decoder.Decode(&agent, raw)
}

// TryDecode is Decode that also reports why a recognised log decoded as Unknown.
func (d *LogDecoder) TryDecode(raw logreader.RawLog) (events.Event, error) {
	if !d.decoder.NeedsAgent(raw.Topic0()) {
		return d.decoder.TryDecode(nil, raw)
	}
	agent, ok := d.agentOf(raw.Address)
	if !ok {
		return events.Unknown{Topic0: raw.Topic0()}, fmt.Errorf("vote event from unexpected contract %s", raw.Address.Hex())
	}
	return d.decoder.TryDecode(&agent, raw)
}

func (d *LogDecoder) agentOf(address common.Address) (model.VotingAgent, bool) {
	switch address {
	case d.primary:
		return model.AgentPrimary, true
	case d.secondary:
		return model.AgentSecondary, true
	default:
		return 0, false
	}
}

// Event positions a decoded log.
func (d *LogDecoder) Event(log types.Log, ts uint64) events.OnChainEvent {
	return events.OnChainEvent{
		Entry:       d.Decode(logreader.FromLog(log)),
		Timestamp:   ts,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    uint64(log.Index),
		Address:     log.Address,
	}
}

// Record decodes a stored log record. The error covers malformed records
// only; the event itself may still be Unknown.
func (d *LogDecoder) Record(record model.LogRecord) (events.OnChainEvent, error) {
	raw, err := logreader.FromRecord(record)
	if err != nil {
		return events.OnChainEvent{}, err
	}
	txHash, err := hexutil.Decode(record.TxHash)
	if err != nil || len(txHash) != common.HashLength {
		return events.OnChainEvent{}, fmt.Errorf("invalid tx hash: %s", record.TxHash)
	}
	return events.OnChainEvent{
		Entry:       d.Decode(raw),
		Timestamp:   record.Timestamp,
		BlockNumber: record.BlockNumber,
		TxHash:      common.BytesToHash(txHash),
		LogIndex:    record.LogIndex,
		Address:     raw.Address,
	}, nil
}
