package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createBucketsTable = `
CREATE TABLE IF NOT EXISTS rate_buckets (
	caller_id    TEXT PRIMARY KEY,
	count        INTEGER NOT NULL,
	window_start TIMESTAMPTZ NOT NULL
)`

// takeBucket opens a fresh window when the stored one has expired and
// otherwise increments it, all in one statement.
const takeBucket = `
INSERT INTO rate_buckets (caller_id, count, window_start)
VALUES ($1, 1, $2)
ON CONFLICT (caller_id) DO UPDATE SET
	count = CASE WHEN rate_buckets.window_start <= $3 THEN 1 ELSE rate_buckets.count + 1 END,
	window_start = CASE WHEN rate_buckets.window_start <= $3 THEN EXCLUDED.window_start ELSE rate_buckets.window_start END
RETURNING count`

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps RateBuckets in a table, for deployments that already
// run Postgres and no Redis.
type PostgresStore struct {
	db  pgQuerier
	now func() time.Time
}

// NewPostgresStore connects a pool and makes sure the buckets table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	store := &PostgresStore{db: pool, now: time.Now}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// EnsureSchema creates the rate_buckets table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createBucketsTable); err != nil {
		return fmt.Errorf("failed to create rate_buckets table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.now().UTC()
	var count int64
	if err := s.db.QueryRow(ctx, takeBucket, key, now, now.Add(-window)).Scan(&count); err != nil {
		return false, fmt.Errorf("postgres rate counter: %w", err)
	}
	return count <= int64(limit), nil
}
