package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bodega-pos/bodega/internal/platform/db"
)

const pgUndefinedTable = "42P01"

// PostgresPersister appends snapshots to an append-only table and loads the
// newest row at startup.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

// NewPostgresPersister wraps the given pool.
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

// EnsureSchema creates the snapshots table when missing.
func (p *PostgresPersister) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			taken_at TIMESTAMPTZ NOT NULL,
			state JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("snapshot: ensure schema: %w", err)
	}
	return nil
}

// Save appends a new snapshot row.
func (p *PostgresPersister) Save(ctx context.Context, snap Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO snapshots (taken_at, state) VALUES ($1, $2)`, time.Now().UTC(), state)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return fmt.Errorf("snapshot: save (sqlstate %s): %w", pgErr.Code, err)
		}
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// Load returns the newest snapshot. A missing table or an empty table both
// report ErrNoSnapshot so a fresh database boots clean.
func (p *PostgresPersister) Load(ctx context.Context) (Snapshot, error) {
	var state []byte
	err := p.pool.QueryRow(ctx, `SELECT state FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("snapshot: load: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return snap, nil
}

// Prune deletes all but the newest keep rows.
func (p *PostgresPersister) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	var removed int64
	err := db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM snapshots
			WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT $1)`, keep)
		if err != nil {
			return fmt.Errorf("snapshot: prune: %w", err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}
