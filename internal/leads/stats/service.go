// Package stats exposes the read-only dashboard aggregates. It forwards
// precomputed store views and never mutates lead data.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mattosconsultor/humano-saude/internal/leads/repository"
	"github.com/mattosconsultor/humano-saude/platform/apperr"
	"github.com/mattosconsultor/humano-saude/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Store is the consumer-driven slice of the repository the aggregator needs.
type Store interface {
	repository.AggregateReader
}

// Service serves dashboard statistics, provider groupings, and the funnel.
type Service struct {
	store Store
	cache *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

const dashboardCacheKey = "humano:dashboard_stats"

// New creates the aggregator. cache may be nil, in which case every read
// goes straight to the store views.
func New(store Store, cache *redis.Client, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{store: store, cache: cache, ttl: ttl, log: log}
}

// Dashboard returns the single aggregate row for the dashboard. The second
// return value is false when the view yields no row; that is the degraded
// "no statistics available" outcome, not an error.
func (s *Service) Dashboard(ctx context.Context) (repository.DashboardStats, bool, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, true, nil
	}

	stats, err := s.store.DashboardStats(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.DashboardStats{}, false, nil
	}
	if err != nil {
		return repository.DashboardStats{}, false, mapStoreError("dashboard stats", err)
	}

	s.toCache(ctx, stats)
	return stats, true, nil
}

// ByProvider returns lead counts grouped by current provider.
func (s *Service) ByProvider(ctx context.Context) ([]repository.ProviderCount, error) {
	items, err := s.store.LeadsByProvider(ctx)
	if err != nil {
		return nil, mapStoreError("leads by provider", err)
	}
	return items, nil
}

// Funnel returns one row per status present in the data.
func (s *Service) Funnel(ctx context.Context) ([]repository.FunnelRow, error) {
	items, err := s.store.PipelineFunnel(ctx)
	if err != nil {
		return nil, mapStoreError("pipeline funnel", err)
	}
	return items, nil
}

// fromCache reads the dashboard row from Redis. Cache trouble is logged and
// treated as a miss, never surfaced to the caller.
func (s *Service) fromCache(ctx context.Context) (repository.DashboardStats, bool) {
	if s.cache == nil {
		return repository.DashboardStats{}, false
	}

	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.log != nil {
			s.log.Debug("stats cache read failed", "error", err)
		}
		return repository.DashboardStats{}, false
	}

	var stats repository.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return repository.DashboardStats{}, false
	}
	return stats, true
}

func (s *Service) toCache(ctx context.Context, stats repository.DashboardStats) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.ttl).Err(); err != nil && s.log != nil {
		s.log.Debug("stats cache write failed", "error", err)
	}
}

func mapStoreError(op string, err error) error {
	if errors.Is(err, repository.ErrNotConnected) {
		return apperr.Unavailable("store not connected").WithOp(op)
	}
	return apperr.Wrap(apperr.KindInternal, "persistence failure", err).WithOp(op)
}
