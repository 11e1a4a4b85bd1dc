package event

import (
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{} // nil means every event
}

func (s subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order. Handlers for an
// event run in the order they subscribed, wildcard handlers included.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event when none are
// given. Registering the same handler again widens its subscription.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.subs {
		if r.subs[i].handler != handler {
			continue
		}
		if len(eventTypes) == 0 {
			r.subs[i].types = nil
		} else if r.subs[i].types != nil {
			for _, t := range eventTypes {
				r.subs[i].types[t] = struct{}{}
			}
		}
		return
	}

	sub := subscription{handler: handler}
	if len(eventTypes) > 0 {
		sub.types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			sub.types[t] = struct{}{}
		}
	}
	r.subs = append(r.subs, sub)
}

// Unregister removes handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subs[:0]
	for _, s := range r.subs {
		if s.handler != handler {
			kept = append(kept, s)
		}
	}
	r.subs = kept
}

// GetHandlers returns the handlers subscribed to eventType
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.matches(eventType) {
			result = append(result, s.handler)
		}
	}
	return result
}

// Len returns the number of distinct handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
