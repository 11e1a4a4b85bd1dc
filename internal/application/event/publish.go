package event

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventSource is an aggregate with pending domain events
type EventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// PublishPending publishes and clears the pending events of source.
// Publish failures are logged; the state change has already been stored.
func PublishPending(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, source EventSource) {
	if publisher == nil {
		return
	}
	events := source.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		if logger != nil {
			logger.Error("failed to publish domain events",
				zap.Int("count", len(events)),
				zap.String("first_event", events[0].EventType()),
				zap.Error(err))
		}
	}
	source.ClearDomainEvents()
}
