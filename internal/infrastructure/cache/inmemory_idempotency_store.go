package cache

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore implements IdempotencyStore for single instance
// deployments and tests
type InMemoryIdempotencyStore struct {
	events *expiringMap[struct{}]
}

// NewInMemoryIdempotencyStore creates a store that sweeps expired event IDs
// every five minutes
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{events: newExpiringMap[struct{}](5 * time.Minute)}
}

// MarkProcessed returns true if the event was newly marked, false if it was
// already processed within its TTL
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return s.events.setIfAbsent(eventID, struct{}{}, ttl), nil
}

// IsProcessed checks if an event has already been processed
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	_, ok := s.events.get(eventID)
	return ok, nil
}

// Close stops the sweep. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.events.close()
	return nil
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.events.sweep()
}

// Size returns the number of tracked event IDs, expired ones included
func (s *InMemoryIdempotencyStore) Size() int {
	return s.events.size()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
