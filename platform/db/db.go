// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/mattosconsultor/humano-saude/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a new database connection pool with production-ready settings.
// The pool is created once at process start and shared by all requests.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PoolAdapter adapts a pgx pool to the health-check interface used by the
// HTTP layer. A nil pool reports unhealthy, which is the degraded mode when
// no store endpoint is configured.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter wraps the given pool. The pool may be nil.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// ErrNotConfigured is reported by Ping when no pool was provided.
var ErrNotConfigured = errors.New("database not configured")

// Ping checks database connectivity.
func (a *PoolAdapter) Ping(ctx context.Context) error {
	if a.pool == nil {
		return ErrNotConfigured
	}
	return a.pool.Ping(ctx)
}
