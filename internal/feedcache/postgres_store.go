package feedcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/outbackwarning/outbackwarning/internal/database"
)

// PostgresStore persists snapshots in the feed_snapshots table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL snapshot store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const createSnapshotsTable = `
	CREATE TABLE IF NOT EXISTS feed_snapshots (
		key        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return database.EnsureSchema(ctx, s.pool, "feed_snapshots", createSnapshotsTable)
}

// Load returns the snapshot saved under key.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	query := `
		SELECT payload, fetched_at
		FROM feed_snapshots
		WHERE key = $1
	`

	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, key).Scan(&payload, &fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, ErrSnapshotNotFound
		}
		return nil, time.Time{}, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return payload, fetchedAt, nil
}

// Save upserts the snapshot under key.
func (s *PostgresStore) Save(ctx context.Context, key string, data []byte, fetchedAt time.Time) error {
	query := `
		INSERT INTO feed_snapshots (key, payload, fetched_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, key, data, fetchedAt); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}
