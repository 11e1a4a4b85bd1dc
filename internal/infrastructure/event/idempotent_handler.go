package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long a handled event ID is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStats counts the outcomes of an IdempotentHandler
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event ID
// within the TTL. The stock decrement on CheckoutCompleted goes through it
// so a redelivered event never decrements twice.
//
// An event whose handler fails stays marked until the TTL expires.
type IdempotentHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewIdempotentHandler wraps next. A ttl of zero uses DefaultIdempotencyTTL.
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, ttl ...time.Duration) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &IdempotentHandler{next: next, store: store, ttl: DefaultIdempotencyTTL, logger: logger}
	if len(ttl) > 0 && ttl[0] > 0 {
		h.ttl = ttl[0]
	}
	return h
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle claims the event ID, then runs the wrapped handler. When the store
// is unreachable the event is handled anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", e.EventID().String()),
		zap.String("event_type", e.EventType()),
	}

	claimed, err := h.store.MarkProcessed(ctx, e.EventID().String(), h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("Idempotency store unavailable, handling event unguarded", append(fields, zap.Error(err))...)
	case !claimed:
		h.duplicates.Add(1)
		h.logger.Debug("Skipping duplicate event", fields...)
		return nil
	}

	if err := h.next.Handle(ctx, e); err != nil {
		h.failed.Add(1)
		h.logger.Error("Event handler failed", append(fields, zap.Error(err))...)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
