// Package lifecycle owns the lead creation de-duplication rule and the
// status state machine. It is the only component that mutates a lead's
// status or appends to its history.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mattosconsultor/humano-saude/internal/events"
	"github.com/mattosconsultor/humano-saude/internal/leads/domain"
	"github.com/mattosconsultor/humano-saude/internal/leads/repository"
	"github.com/mattosconsultor/humano-saude/platform/apperr"
	"github.com/mattosconsultor/humano-saude/platform/metrics"
	"github.com/mattosconsultor/humano-saude/platform/phone"

	"github.com/google/uuid"
)

// SourceScannerPDF tags leads fed in by the document-extraction pipeline.
const SourceScannerPDF = "scanner_pdf"

// Store is the consumer-driven slice of the repository the lifecycle needs.
type Store interface {
	repository.LeadReader
	repository.LeadWriter
}

// Service implements the lead lifecycle engine.
type Service struct {
	store Store
	bus   events.Bus
	m     *metrics.Metrics
}

// New creates a lifecycle service. bus and m may be nil in tests.
func New(store Store, bus events.Bus, m *metrics.Metrics) *Service {
	return &Service{store: store, bus: bus, m: m}
}

// CreateParams carries the extraction fields for a new lead.
type CreateParams struct {
	Name             string
	Whatsapp         string
	Email            *string
	CurrentProvider  *string
	CurrentValue     *float64
	BeneficiaryAges  []int64
	EstimatedSavings *float64
	ProposedValue    *float64
	ContractType     *string
	Notes            *string
	RawPayload       map[string]interface{}
}

// CreateResult is the outcome of Create. Duplicate is a positive
// de-duplication result, not a failure: Lead then references the
// pre-existing record for the same contact key.
type CreateResult struct {
	Lead      repository.Lead
	Duplicate bool
}

// Create validates the extraction fields, normalizes the contact key, and
// persists a new lead with status "new" and empty history, unless a
// non-archived lead with the same contact key already exists.
func (s *Service) Create(ctx context.Context, params CreateParams) (CreateResult, error) {
	if strings.TrimSpace(params.Name) == "" {
		return CreateResult{}, apperr.Validation("name is required")
	}
	if strings.TrimSpace(params.Whatsapp) == "" {
		return CreateResult{}, apperr.Validation("whatsapp is required")
	}
	if !phone.IsPossible(params.Whatsapp) {
		return CreateResult{}, apperr.Validation("whatsapp is not a valid phone number")
	}
	for _, age := range params.BeneficiaryAges {
		if age < 0 {
			return CreateResult{}, apperr.Validation("beneficiary ages must be non-negative")
		}
	}

	lead, inserted, err := s.store.Insert(ctx, repository.CreateLeadParams{
		Name:             strings.TrimSpace(params.Name),
		Whatsapp:         phone.NormalizeE164(params.Whatsapp),
		Email:            params.Email,
		CurrentProvider:  params.CurrentProvider,
		CurrentValue:     params.CurrentValue,
		BeneficiaryAges:  params.BeneficiaryAges,
		EstimatedSavings: params.EstimatedSavings,
		ProposedValue:    params.ProposedValue,
		ContractType:     params.ContractType,
		Notes:            params.Notes,
		RawPayload:       params.RawPayload,
		Source:           SourceScannerPDF,
		Status:           domain.StatusNew,
	})
	if err != nil {
		return CreateResult{}, mapStoreError("create lead", err)
	}

	if !inserted {
		s.m.IncDuplicatesDetected()
		return CreateResult{Lead: lead, Duplicate: true}, nil
	}

	s.m.IncLeadsCreated()
	s.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Whatsapp:  lead.Whatsapp,
		Source:    lead.Source,
	})

	return CreateResult{Lead: lead}, nil
}

// TransitionStatus moves a lead to newStatus and appends exactly one history
// entry recording the change. Archived leads are terminal and report not
// found. The target status must belong to the fixed pipeline set; the state
// machine imposes no ordering beyond that.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, newStatus domain.Status, note *string) (repository.Lead, error) {
	if !domain.IsKnownStatus(newStatus) {
		return repository.Lead{}, apperr.Validation("invalid status").
			WithDetails(map[string]interface{}{"validStatuses": domain.ValidStatuses()})
	}

	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, mapStoreError("transition status", err)
	}
	if lead.Archived {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}

	previous := lead.Status
	history := append(lead.History, domain.HistoryEntry{
		Timestamp:      time.Now().UTC(),
		Event:          domain.EventStatusChange,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		Note:           note,
	})

	updated, err := s.store.Update(ctx, id, repository.UpdateLeadParams{
		Status:     &newStatus,
		History:    history,
		HistorySet: true,
	})
	if err != nil {
		return repository.Lead{}, mapStoreError("transition status", err)
	}

	s.m.IncStatusTransition(string(previous), string(newStatus))
	s.publish(ctx, events.LeadStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         updated.ID,
		PreviousStatus: string(previous),
		NewStatus:      string(newStatus),
	})

	return updated, nil
}

// Archive flips the archived flag. Archival is a visibility flag, not a
// pipeline status, so it records no history entry. Returns false when the
// lead does not exist.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) (bool, error) {
	archived, err := s.store.Archive(ctx, id)
	if err != nil {
		return false, mapStoreError("archive lead", err)
	}

	if archived {
		s.m.IncLeadsArchived()
		s.publish(ctx, events.LeadArchived{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
		})
	}

	return archived, nil
}

// GetByID returns the lead from the lifecycle's perspective: archived leads
// are invisible and report not found.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, mapStoreError("get lead", err)
	}
	if lead.Archived {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// mapStoreError re-signals store failures as typed domain errors so raw
// store errors never cross the lifecycle boundary.
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
