// Package cache keeps chain reads on disk so rescans of old ranges stay local.
// An empty directory disables every cache.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"daoTracker/internal/model"
)

type Dir struct {
	path    string
	chainID uint64
	logger  *zap.Logger
}

func New(path string, chainID uint64, logger *zap.Logger) *Dir {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dir{path: path, chainID: chainID, logger: logger}
}

func (d *Dir) Enabled() bool {
	return d != nil && d.path != ""
}

// Checksum identifies the set of watched contracts, so that batches fetched
// for a different set are never reused.
func Checksum(addresses []common.Address) uint32 {
	h := crc32.NewIEEE()
	for _, a := range addresses {
		h.Write([]byte(strings.ToLower(a.Hex())))
	}
	return h.Sum32()
}

func (d *Dir) logsPath(checksum uint32, from, to uint64) string {
	return filepath.Join(d.path, fmt.Sprintf("chain%d-%d-%d-%d.json", d.chainID, from, to, checksum))
}

// LoadLogs returns the cached logs of a block range. ok is false when the
// range was never saved.
func (d *Dir) LoadLogs(checksum uint32, from, to uint64) (logs []types.Log, ok bool, err error) {
	if !d.Enabled() {
		return nil, false, nil
	}
	data, err := os.ReadFile(d.logsPath(checksum, from, to))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read logs cache: %w", err)
	}
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, false, fmt.Errorf("parse logs cache %d-%d: %w", from, to, err)
	}
	return logs, true, nil
}

func (d *Dir) SaveLogs(checksum uint32, from, to uint64, logs []types.Log) error {
	if !d.Enabled() {
		return nil
	}
	if logs == nil {
		logs = []types.Log{}
	}
	return d.write(d.logsPath(checksum, from, to), logs)
}

func (d *Dir) blockTimesPath() string {
	return filepath.Join(d.path, fmt.Sprintf("blockstime%d.json", d.chainID))
}

// LoadBlockTimes returns cached block timestamps by block hash. A missing or
// corrupt file yields an empty map.
func (d *Dir) LoadBlockTimes() map[common.Hash]uint64 {
	out := make(map[common.Hash]uint64)
	d.load(d.blockTimesPath(), "blockstime", &out)
	return out
}

func (d *Dir) SaveBlockTimes(times map[common.Hash]uint64) error {
	if !d.Enabled() || len(times) == 0 {
		return nil
	}
	return d.write(d.blockTimesPath(), times)
}

func (d *Dir) feesPath() string {
	return filepath.Join(d.path, fmt.Sprintf("prices%d.json", d.chainID))
}

// LoadFees returns cached transaction fees by hash. A missing or corrupt
// file yields an empty map.
func (d *Dir) LoadFees() map[common.Hash]model.TxFee {
	out := make(map[common.Hash]model.TxFee)
	d.load(d.feesPath(), "prices", &out)
	return out
}

func (d *Dir) SaveFees(fees map[common.Hash]model.TxFee) error {
	if !d.Enabled() || len(fees) == 0 {
		return nil
	}
	return d.write(d.feesPath(), fees)
}

func (d *Dir) load(path, name string, into interface{}) {
	if !d.Enabled() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			d.logger.Warn("cache read failed", zap.String("cache", name), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, into); err != nil {
		d.logger.Warn("cache parse failed", zap.String("cache", name), zap.Error(err))
		return
	}
	d.logger.Info("cache loaded", zap.String("cache", name))
}

func (d *Dir) write(path string, value interface{}) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cache tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}
