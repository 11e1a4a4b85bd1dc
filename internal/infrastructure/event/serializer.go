package event

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

// EventFactory returns an empty event ready to be decoded into
type EventFactory func() shared.DomainEvent

// EventSerializer encodes store events as JSON outbox payloads and decodes
// them back by event type.
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]EventFactory
}

// NewEventSerializer creates a serializer with no known types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{factories: make(map[string]EventFactory)}
}

// Register binds eventType to factory, replacing any earlier binding
func (s *EventSerializer) Register(eventType string, factory EventFactory) {
	s.mu.Lock()
	s.factories[eventType] = factory
	s.mu.Unlock()
}

// registerEvent binds eventType to the zero value of T
func registerEvent[T any, P interface {
	*T
	shared.DomainEvent
}](s *EventSerializer, eventType string) {
	s.Register(eventType, func() shared.DomainEvent { return P(new(T)) })
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data into the event registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// RegisteredTypes lists the known event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	s.mu.RUnlock()
	slices.Sort(types)
	return types
}
