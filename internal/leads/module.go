// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route
// registration.
package leads

import (
	"context"

	"github.com/mattosconsultor/humano-saude/internal/events"
	apphttp "github.com/mattosconsultor/humano-saude/internal/http"
	"github.com/mattosconsultor/humano-saude/internal/leads/handler"
	"github.com/mattosconsultor/humano-saude/internal/leads/lifecycle"
	"github.com/mattosconsultor/humano-saude/internal/leads/repository"
	"github.com/mattosconsultor/humano-saude/internal/leads/service"
	"github.com/mattosconsultor/humano-saude/internal/leads/stats"
	"github.com/mattosconsultor/humano-saude/platform/config"
	"github.com/mattosconsultor/humano-saude/platform/logger"
	"github.com/mattosconsultor/humano-saude/platform/metrics"
	"github.com/mattosconsultor/humano-saude/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	lifecycle *lifecycle.Service
}

// NewModule creates and initializes the leads module with all its
// dependencies. pool and cache may be nil; the module then runs in degraded
// mode and answers 503 for store-backed operations.
func NewModule(pool *pgxpool.Pool, cache *redis.Client, eventBus events.Bus, val *validator.Validator, m *metrics.Metrics, cfg config.RedisConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)

	// Log every freshly created lead so ingestion runs are traceable
	// without reading the store.
	eventBus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadCreated)
		if !ok {
			return nil
		}
		log.Info("lead created", "leadId", e.LeadID, "source", e.Source)
		return nil
	}))

	lifecycleSvc := lifecycle.New(repo, eventBus, m)
	statsSvc := stats.New(repo, cache, cfg.GetStatsCacheTTL(), log)
	svc := service.New(lifecycleSvc, repo, statsSvc)

	return &Module{
		handler:   handler.New(svc, val),
		service:   svc,
		lifecycle: lifecycleSvc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the façade for external callers.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
