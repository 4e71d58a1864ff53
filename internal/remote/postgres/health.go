package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitesync/bitesync/internal/models"
)

// NewPool creates a lazily-connecting pgx pool. No connection is
// attempted yet, so construction succeeds while offline.
func NewPool(ctx context.Context, cfg models.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error configuring database pool: %w", err)
	}
	return pool, nil
}

// Connect opens a pgx pool against the hosted backend and verifies
// connectivity once. Used by one-shot commands that require a live
// backend.
func Connect(ctx context.Context, cfg models.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

// Health exposes the backend liveness probe used before a sync pass.
type Health struct {
	pool *pgxpool.Pool
}

func NewHealth(pool *pgxpool.Pool) *Health {
	return &Health{pool: pool}
}

func (h *Health) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
