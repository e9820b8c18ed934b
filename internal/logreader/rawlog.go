package logreader

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"daoTracker/internal/model"
)

// RawLog is the part of an event log the decoder needs: topics (topic0 first) and data.
type RawLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Topic0 returns the signature hash, or the zero hash when absent.
func (l RawLog) Topic0() common.Hash {
	if len(l.Topics) == 0 {
		return common.Hash{}
	}
	return l.Topics[0]
}

func FromLog(log types.Log) RawLog {
	return RawLog{Address: log.Address, Topics: log.Topics, Data: log.Data}
}

// FromRecord converts a stored log record.
func FromRecord(record model.LogRecord) (RawLog, error) {
	if !common.IsHexAddress(record.Address) {
		return RawLog{}, fmt.Errorf("invalid log address: %s", record.Address)
	}
	topics := make([]common.Hash, 0, len(record.Topics))
	for _, topic := range record.Topics {
		raw, err := hexutil.Decode(topic)
		if err != nil {
			return RawLog{}, fmt.Errorf("invalid topic %s: %w", topic, err)
		}
		if len(raw) != common.HashLength {
			return RawLog{}, fmt.Errorf("invalid topic length: %s", topic)
		}
		topics = append(topics, common.BytesToHash(raw))
	}
	var data []byte
	if record.Data != "" && record.Data != "0x" {
		var err error
		data, err = hexutil.Decode(record.Data)
		if err != nil {
			return RawLog{}, fmt.Errorf("invalid data: %w", err)
		}
	}
	return RawLog{
		Address: common.HexToAddress(record.Address),
		Topics:  topics,
		Data:    data,
	}, nil
}

// ToRecord is the inverse of FromRecord for a fetched log.
func ToRecord(chainID uint64, log types.Log, timestamp uint64, ingestedAt time.Time) model.LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}
	return model.LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}
