package event

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher records domain events in the outbox table so the
// OutboxRelay can forward them to the message broker
type OutboxPublisher struct {
	serializer *EventSerializer
	repo       shared.OutboxRepository
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer, repo shared.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
		repo:       repo,
	}
}

// PublishWithTx records events within the provided transaction
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	entries, err := p.entries(events)
	if err != nil || len(entries) == 0 {
		return err
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// Handle implements shared.EventHandler. Subscribed as a wildcard handler on
// the event bus it copies every published event to the outbox.
func (p *OutboxPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	entries, err := p.entries([]shared.DomainEvent{event})
	if err != nil {
		return err
	}
	return p.repo.Save(ctx, entries...)
}

// EventTypes implements shared.EventHandler
func (p *OutboxPublisher) EventTypes() []string {
	return nil
}

func (p *OutboxPublisher) entries(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", event.EventType(), err)
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}
	return entries, nil
}

var _ shared.EventHandler = (*OutboxPublisher)(nil)
