// Package events carries lead pipeline happenings (created, status moved,
// archived) between modules without direct coupling. Concrete event types
// live next to the domain that owns them; this package holds only the
// contract and the in-process bus.
package events

import (
	"context"
	"time"
)

// Event is anything the bus can carry.
type Event interface {
	// EventName identifies the event type, e.g. "leads.lead.created".
	// Subscriptions match on this string.
	EventName() string
	// OccurredAt is the moment the event was raised, not delivered.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp so concrete events only add their payload.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events. A handler subscribed to an event name receives
// every event published under that name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events from publishers to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its name.
	// Delivery is asynchronous; publishers never see handler errors.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers inline and stops at the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for events whose EventName matches
	// eventName exactly.
	Subscribe(eventName string, handler Handler)
}
