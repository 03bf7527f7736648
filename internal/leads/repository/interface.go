package repository

import (
	"context"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead records.
type LeadReader interface {
	// GetByID returns the lead regardless of its archived flag; terminal
	// handling of archived leads is the lifecycle's concern.
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	// GetLatestActiveByContact returns the most recent non-archived lead
	// with the given contact key.
	GetLatestActiveByContact(ctx context.Context, whatsapp string) (Lead, error)
	// List returns non-archived leads ordered by descending creation time,
	// plus the total count matching the filter.
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead records.
type LeadWriter interface {
	// Insert persists a new lead unless a non-archived lead with the same
	// contact key already exists, in which case that lead is returned and
	// the boolean is false. The guard is enforced by the store, not by a
	// read-then-write sequence.
	Insert(ctx context.Context, params CreateLeadParams) (Lead, bool, error)
	// Update applies the set partial fields and returns the updated lead.
	Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error)
	// Archive marks the lead archived. Returns false when no such lead exists.
	Archive(ctx context.Context, id uuid.UUID) (bool, error)
}

// AggregateReader provides the precomputed dashboard views.
type AggregateReader interface {
	DashboardStats(ctx context.Context) (DashboardStats, error)
	LeadsByProvider(ctx context.Context) ([]ProviderCount, error)
	PipelineFunnel(ctx context.Context) ([]FunnelRow, error)
}

// =====================================
// Composite Interface
// =====================================

// LeadsRepository is the complete store contract consumed by the core.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	AggregateReader
}

// Ensure Repository implements LeadsRepository
var _ LeadsRepository = (*Repository)(nil)
