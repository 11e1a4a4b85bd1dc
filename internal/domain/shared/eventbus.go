package shared

import (
	"context"
	"time"
)

// EventHandler reacts to published events. EventTypes lists the types it
// wants; an empty list subscribes it to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what services depend on to emit events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus dispatches published events to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// IdempotencyStore remembers processed event IDs for a while so a handler
// runs at most once per event even when delivery repeats.
type IdempotencyStore interface {
	// MarkProcessed reports true when eventID was not yet recorded
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}
