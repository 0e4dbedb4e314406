// Package store wraps the pipeline's Postgres access: every stage reads and
// writes through here rather than holding its own connection, mirroring the
// teacher's internal/db/postgres.go pattern.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store holds the shared connection pool. All repository methods in this
// package hang off *Store.
type Store struct {
	Pool *pgxpool.Pool
}

// Connect opens a pooled connection and pings it before returning.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parsing DSN: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: opening pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// InitSchema applies schema.sql. Every statement is CREATE ... IF NOT EXISTS,
// so this is safe to call on every process start.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: applying schema: %w", err)
	}
	return nil
}

// Close releases the pool. Safe to call once at shutdown.
func (s *Store) Close() {
	s.Pool.Close()
}
