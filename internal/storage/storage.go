package storage

import (
	"context"

	"daoTracker/internal/ledger"
	"daoTracker/internal/model"
)

// LogSink receives raw log records.
type LogSink interface {
	PutLogBatch(logs []model.LogRecord) error
}

// SnapshotStore persists the latest ledger snapshot of a chain.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *ledger.Snapshot) error
	LoadSnapshot(ctx context.Context, chainID uint64) (*ledger.Snapshot, bool, error)
}
