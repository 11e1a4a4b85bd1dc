// Package shared is the store's shared kernel: entity bases, domain events,
// the event bus contracts, the outbox and domain errors.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID and stamps both timestamps with now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot adds the optimistic lock version and the events
// raised since the aggregate was loaded. Repositories compare Version on
// save; services publish and clear the events after a successful save.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// AddDomainEvent queues e for publishing
func (a *BaseAggregateRoot) AddDomainEvent(e DomainEvent) {
	a.events = append(a.events, e)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops the queued events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}
