package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"daoTracker/internal/config"
	"daoTracker/internal/events"
	"daoTracker/internal/indexer"
	"daoTracker/internal/logreader"
	"daoTracker/internal/model"
	"daoTracker/internal/storage"
)

type jsonWriter interface {
	Write(value interface{}) error
}

type decodeStats struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
}

// unknownTopic is one line of the unknown dump.
type unknownTopic struct {
	Topic0  common.Hash `json:"topic0"`
	FirstTx string      `json:"first_tx"`
	Count   int         `json:"count"`
}

type decodeJob struct {
	decoder *indexer.LogDecoder
	topics  map[common.Hash]struct{}
	dump    string
	out     jsonWriter
	errs    jsonWriter
	logger  *zap.Logger
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	topic0, err := indexer.ParseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}
	voting, err := indexer.ParseAddresses([]string{cfg.VotingPrimary, cfg.VotingSecondary})
	if err != nil {
		return err
	}
	var primary, secondary common.Address
	if cfg.VotingPrimary != "" {
		primary = common.HexToAddress(cfg.VotingPrimary)
	}
	if cfg.VotingSecondary != "" {
		secondary = common.HexToAddress(cfg.VotingSecondary)
	}
	if len(voting) < 2 {
		logger.Warn("voting app addresses incomplete, vote events may decode as unknown")
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("dump", cfg.Dump),
		zap.Int("topic0", len(topic0)),
	)

	job := &decodeJob{
		decoder: indexer.NewLogDecoder(primary, secondary, logger),
		topics:  make(map[common.Hash]struct{}, len(topic0)),
		dump:    cfg.Dump,
		out:     outWriter,
		errs:    errWriter,
		logger:  logger,
	}
	for _, topic := range topic0 {
		job.topics[topic] = struct{}{}
	}

	stats, err := job.run(inputFile)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

// run decodes every record of r. Records of unrecognised topics are skipped;
// recognised logs that fail to decode go to the errors writer.
func (j *decodeJob) run(r io.Reader) (decodeStats, error) {
	var stats decodeStats
	unknown := make(map[common.Hash]*unknownTopic)
	var order []common.Hash

	err := storage.ScanJSONL(r, func(_ int, line []byte) error {
		stats.Total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			writeDecodeError(j.errs, model.DecodeError{Error: err.Error()})
			return nil
		}
		if len(record.Topics) == 0 {
			stats.Failed++
			writeDecodeError(j.errs, model.NewDecodeError(record, fmt.Errorf("missing topic0")))
			return nil
		}
		if record.Removed {
			stats.Skipped++
			return nil
		}

		raw, err := logreader.FromRecord(record)
		if err != nil {
			stats.Failed++
			writeDecodeError(j.errs, model.NewDecodeError(record, err))
			return nil
		}
		if len(j.topics) > 0 {
			if _, ok := j.topics[raw.Topic0()]; !ok {
				stats.Skipped++
				return nil
			}
		}

		event, err := j.decoder.Record(record)
		if err != nil {
			stats.Failed++
			writeDecodeError(j.errs, model.NewDecodeError(record, err))
			return nil
		}
		if _, ok := event.Entry.(events.Unknown); ok {
			if _, err := j.decoder.TryDecode(raw); err != nil {
				stats.Failed++
				writeDecodeError(j.errs, model.NewDecodeError(record, err))
				return nil
			}
			stats.Skipped++
			topic := raw.Topic0()
			if seen, ok := unknown[topic]; ok {
				seen.Count++
			} else {
				unknown[topic] = &unknownTopic{Topic0: topic, FirstTx: record.TxHash, Count: 1}
				order = append(order, topic)
			}
			return nil
		}

		if events.IsNoise(event.Entry) {
			stats.Skipped++
			return nil
		}

		stats.Decoded++
		if j.dump != "events" {
			return nil
		}
		return j.out.Write(event)
	})
	if err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}

	if j.dump == "unknown" {
		for _, topic := range order {
			entry := unknown[topic]
			j.logger.Info("unknown topic",
				zap.String("topic0", entry.Topic0.Hex()),
				zap.String("first_tx", entry.FirstTx),
				zap.Int("count", entry.Count),
			)
			if err := j.out.Write(entry); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// readEvents decodes a raw log file into chain order. It returns the chain id
// and the highest block seen.
func readEvents(r io.Reader, decoder *indexer.LogDecoder, logger *zap.Logger) (uint64, []events.OnChainEvent, uint64, error) {
	var chainID, last uint64
	var list []events.OnChainEvent
	err := storage.ScanJSONL(r, func(lineNo int, line []byte) error {
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if record.Removed {
			return nil
		}
		if chainID == 0 {
			chainID = record.ChainID
		} else if record.ChainID != chainID {
			return fmt.Errorf("line %d: chain id %d, want %d", lineNo, record.ChainID, chainID)
		}
		event, err := decoder.Record(record)
		if err != nil {
			logger.Warn("skip malformed record", zap.Int("line", lineNo), zap.Error(err))
			return nil
		}
		list = append(list, event)
		if record.BlockNumber > last {
			last = record.BlockNumber
		}
		return nil
	})
	if err != nil {
		return 0, nil, 0, err
	}
	sort.SliceStable(list, func(i, k int) bool { return list[i].Before(list[k]) })
	return chainID, list, last, nil
}

func writeDecodeError(writer jsonWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
