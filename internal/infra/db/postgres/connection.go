package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool connects a pgx pool with a bounded size.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the bridge's single table if it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const sql = `
CREATE TABLE IF NOT EXISTS sms_correspondents (
    id         TEXT PRIMARY KEY,
    number     TEXT NOT NULL,
    alias      TEXT NOT NULL,
    room       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (number)
);
CREATE INDEX IF NOT EXISTS idx_sms_correspondents_room ON sms_correspondents (room);
`
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
