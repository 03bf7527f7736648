// Package service is the façade for the leads module. HTTP handlers (and any
// other driver) talk only to this layer, which composes the lifecycle
// engine, the listing store, and the pipeline aggregator.
package service

import (
	"context"
	"errors"

	"github.com/mattosconsultor/humano-saude/internal/leads/domain"
	"github.com/mattosconsultor/humano-saude/internal/leads/lifecycle"
	"github.com/mattosconsultor/humano-saude/internal/leads/repository"
	"github.com/mattosconsultor/humano-saude/internal/leads/transport"
	"github.com/mattosconsultor/humano-saude/platform/apperr"

	"github.com/google/uuid"
)

// Lifecycle is the slice of the lifecycle engine the façade drives.
type Lifecycle interface {
	Create(ctx context.Context, params lifecycle.CreateParams) (lifecycle.CreateResult, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, newStatus domain.Status, note *string) (repository.Lead, error)
	Archive(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
}

// Aggregator is the pipeline statistics surface.
type Aggregator interface {
	Dashboard(ctx context.Context) (repository.DashboardStats, bool, error)
	ByProvider(ctx context.Context) ([]repository.ProviderCount, error)
	Funnel(ctx context.Context) ([]repository.FunnelRow, error)
}

// Lister is the listing slice of the store. Listing bypasses the lifecycle:
// it has no state-machine concerns.
type Lister interface {
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
}

// Service composes the module's use cases behind a single surface.
type Service struct {
	lifecycle  Lifecycle
	lister     Lister
	aggregator Aggregator
}

func New(lc Lifecycle, lister Lister, agg Aggregator) *Service {
	return &Service{lifecycle: lc, lister: lister, aggregator: agg}
}

// CreateFromExtraction feeds one extracted document into the lifecycle.
// A duplicate contact key is a positive outcome, not a failure.
func (s *Service) CreateFromExtraction(ctx context.Context, req transport.CreateLeadRequest) (lifecycle.CreateResult, error) {
	return s.lifecycle.Create(ctx, lifecycle.CreateParams{
		Name:             req.Name,
		Whatsapp:         req.Whatsapp,
		Email:            req.Email,
		CurrentProvider:  req.CurrentProvider,
		CurrentValue:     req.CurrentValue,
		BeneficiaryAges:  req.BeneficiaryAges,
		EstimatedSavings: req.EstimatedSavings,
		ProposedValue:    req.ProposedValue,
		ContractType:     req.ContractType,
		Notes:            req.Notes,
		RawPayload:       req.RawPayload,
	})
}

// ListResult pairs a page of leads with the total count for the filter.
type ListResult struct {
	Leads  []repository.Lead
	Total  int
	Limit  int
	Offset int
}

// List returns a page of non-archived leads, newest first. Limit and offset
// are clamped to sane bounds; an unknown status filter is rejected rather
// than silently matching nothing.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (ListResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = transport.DefaultListLimit
	}
	if limit > transport.MaxListLimit {
		limit = transport.MaxListLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	params := repository.ListParams{Limit: limit, Offset: offset}
	if req.Status != nil && *req.Status != "" {
		status := domain.Status(*req.Status)
		if !domain.IsKnownStatus(status) {
			return ListResult{}, apperr.Validation("invalid status filter").
				WithDetails(map[string]interface{}{"validStatuses": domain.ValidStatuses()})
		}
		params.Status = &status
	}

	leads, total, err := s.lister.List(ctx, params)
	if err != nil {
		return ListResult{}, mapStoreError("list leads", err)
	}

	return ListResult{Leads: leads, Total: total, Limit: limit, Offset: offset}, nil
}

// GetByID returns a single non-archived lead.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.lifecycle.GetByID(ctx, id)
}

// ChangeStatus moves a lead through the pipeline. The enum check here is
// deliberate even though the lifecycle repeats it: the façade rejects bad
// input before touching the store.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string, note *string) (repository.Lead, error) {
	target := domain.Status(status)
	if !domain.IsKnownStatus(target) {
		return repository.Lead{}, apperr.Validation("invalid status").
			WithDetails(map[string]interface{}{"validStatuses": domain.ValidStatuses()})
	}
	return s.lifecycle.TransitionStatus(ctx, id, target, note)
}

// Archive hides a lead from listings and lookups. Returns false when the
// lead does not exist.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.lifecycle.Archive(ctx, id)
}

// Dashboard returns the precomputed dashboard aggregates. ok is false when
// the aggregate view has no data yet.
func (s *Service) Dashboard(ctx context.Context) (repository.DashboardStats, bool, error) {
	return s.aggregator.Dashboard(ctx)
}

func (s *Service) ByProvider(ctx context.Context) ([]repository.ProviderCount, error) {
	return s.aggregator.ByProvider(ctx)
}

func (s *Service) Funnel(ctx context.Context) ([]repository.FunnelRow, error) {
	return s.aggregator.Funnel(ctx)
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found").WithOp(op)
	case errors.Is(err, repository.ErrNotConnected):
		return apperr.Unavailable("store not connected").WithOp(op)
	default:
		return apperr.Wrap(apperr.KindInternal, "persistence failure", err).WithOp(op)
	}
}
