package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus runs subscribed handlers in the publishing goroutine.
// A handler that fails or panics is logged and the rest still run.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	failed   atomic.Int64
}

func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
}

// Publish delivers events in order. Handler failures never reach the caller.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, ev := range events {
		for _, h := range b.registry.GetHandlers(ev.EventType()) {
			err := safeHandle(ctx, h, ev)
			if err == nil {
				continue
			}
			b.failed.Add(1)
			b.logger.Error("Event handler failed",
				zap.String("event_type", ev.EventType()),
				zap.Stringer("event_id", ev.EventID()),
				zap.Stringer("aggregate_id", ev.AggregateID()),
				zap.Error(err))
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, defaulting to the types the
// handler declares.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

func (b *InMemoryEventBus) Start(context.Context) error {
	if b.running.CompareAndSwap(false, true) {
		b.logger.Info("Event bus started")
	}
	return nil
}

func (b *InMemoryEventBus) Stop(context.Context) error {
	if b.running.CompareAndSwap(true, false) {
		b.logger.Info("Event bus stopped", zap.Int64("handler_failures", b.failed.Load()))
	}
	return nil
}

// Failures counts handler errors and panics since creation
func (b *InMemoryEventBus) Failures() int64 {
	return b.failed.Load()
}

func safeHandle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
