package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"daoTracker/internal/ledger"
	"daoTracker/internal/model"
)

// Schema creates the tables used by Store. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_snapshots (
	chain_id    BIGINT PRIMARY KEY,
	last_block  BIGINT NOT NULL,
	snapshot    JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wallets (
	chain_id      BIGINT NOT NULL,
	address       TEXT NOT NULL,
	shares        NUMERIC NOT NULL,
	staked        NUMERIC NOT NULL,
	voting_power  NUMERIC NOT NULL,
	rewards       NUMERIC NOT NULL,
	delegates_to  TEXT,
	votes         BIGINT NOT NULL,
	created_at    BIGINT NOT NULL,
	updated_at    BIGINT NOT NULL,
	PRIMARY KEY (chain_id, address)
);
`

// Store provides Postgres persistence for ledger snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// SaveSnapshot stores the snapshot as jsonb and refreshes the wallet table.
func (s *Store) SaveSnapshot(ctx context.Context, snap *ledger.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ledger_snapshots (chain_id, last_block, snapshot, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chain_id) DO UPDATE
		SET last_block = EXCLUDED.last_block, snapshot = EXCLUDED.snapshot, updated_at = now()
	`, int64(snap.ChainID), int64(snap.LastBlock), data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return s.UpsertWallets(ctx, snap.ChainID, snap.WalletList())
}

func (s *Store) LoadSnapshot(ctx context.Context, chainID uint64) (*ledger.Snapshot, bool, error) {
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM ledger_snapshots WHERE chain_id=$1`, int64(chainID))
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, true, nil
}

// UpsertWallets inserts or updates the wallet summary rows.
func (s *Store) UpsertWallets(ctx context.Context, chainID uint64, wallets []model.Wallet) error {
	if len(wallets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range wallets {
		batch.Queue(`
			INSERT INTO wallets (
				chain_id, address, shares, staked, voting_power, rewards, delegates_to, votes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (chain_id, address)
			DO UPDATE SET
				shares = EXCLUDED.shares,
				staked = EXCLUDED.staked,
				voting_power = EXCLUDED.voting_power,
				rewards = EXCLUDED.rewards,
				delegates_to = EXCLUDED.delegates_to,
				votes = EXCLUDED.votes,
				updated_at = EXCLUDED.updated_at
		`, walletRow(chainID, w)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range wallets {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// walletRow returns the insert arguments of a wallet. Amounts are passed as
// decimal text so NUMERIC keeps all 256 bits.
func walletRow(chainID uint64, w model.Wallet) []interface{} {
	var delegatesTo *string
	if w.Delegates != nil {
		to := strings.ToLower(w.Delegates.To.Hex())
		delegatesTo = &to
	}
	return []interface{}{
		int64(chainID),
		strings.ToLower(w.Address.Hex()),
		w.Shares.String(),
		w.Staked.String(),
		w.VotingPower.String(),
		w.Rewards.String(),
		delegatesTo,
		int64(w.Votes),
		int64(w.CreatedAt),
		int64(w.UpdatedAt),
	}
}
