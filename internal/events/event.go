// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/mattosconsultor/humano-saude/platform/events"
	"github.com/mattosconsultor/humano-saude/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is persisted. It is not published
// when creation resolves to an existing duplicate.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Whatsapp string    `json:"whatsapp"`
	Source   string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published after a successful pipeline transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadArchived is published when a lead is taken out of the active pipeline.
type LeadArchived struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadArchived) EventName() string { return "leads.lead.archived" }
