package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RelayConfig tunes the outbox relay
type RelayConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	PurgeSent     bool
	SentRetention time.Duration
	PurgeInterval time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:     100,
		PollInterval:  5 * time.Second,
		PurgeSent:     true,
		SentRetention: 7 * 24 * time.Hour,
		PurgeInterval: time.Hour,
	}
}

// MessageSink receives outbox entries on their way to the broker
type MessageSink interface {
	Deliver(ctx context.Context, entry *shared.OutboxEntry) error
}

// OutboxRelay polls the outbox and hands due entries to a MessageSink.
// Failed deliveries back off per entry until they go dead.
type OutboxRelay struct {
	repo   shared.OutboxRepository
	sink   MessageSink
	cfg    RelayConfig
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOutboxRelay(repo shared.OutboxRepository, sink MessageSink, cfg RelayConfig, logger *zap.Logger) *OutboxRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxRelay{repo: repo, sink: sink, cfg: cfg, logger: logger.Named("outbox_relay")}
}

// Start launches the polling goroutine. Calling it twice is an error.
func (r *OutboxRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return errors.New("outbox relay already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx)

	r.logger.Info("Outbox relay started",
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Bool("purge_sent", r.cfg.PurgeSent))
	return nil
}

// Stop cancels polling and waits for the current batch, bounded by ctx
func (r *OutboxRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		r.logger.Info("Outbox relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *OutboxRelay) run(ctx context.Context) {
	defer close(r.done)

	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()

	var purge <-chan time.Time
	if r.cfg.PurgeSent {
		t := time.NewTicker(r.cfg.PurgeInterval)
		defer t.Stop()
		purge = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			r.relayDue(ctx)
		case <-purge:
			r.purgeSent(ctx)
		}
	}
}

// relayDue delivers pending entries first, then failed ones whose backoff
// has elapsed.
func (r *OutboxRelay) relayDue(ctx context.Context) (sent, failed int) {
	ctx, span := telemetry.StartSpan(ctx, "outbox.relay")
	defer func() {
		span.SetAttributes(attribute.Int("outbox.sent", sent), attribute.Int("outbox.failed", failed))
		span.End()
	}()

	sources := []func() ([]*shared.OutboxEntry, error){
		func() ([]*shared.OutboxEntry, error) { return r.repo.FindPending(ctx, r.cfg.BatchSize) },
		func() ([]*shared.OutboxEntry, error) { return r.repo.FindRetryable(ctx, time.Now(), r.cfg.BatchSize) },
	}
	for _, load := range sources {
		entries, err := load()
		if err != nil {
			telemetry.RecordError(span, err)
			r.logger.Error("Load outbox entries", zap.Error(err))
			return sent, failed
		}
		if len(entries) == 0 {
			continue
		}
		claimed, err := r.repo.MarkProcessing(ctx, entryIDs(entries))
		if err != nil {
			telemetry.RecordError(span, err)
			r.logger.Error("Claim outbox entries", zap.Error(err))
			return sent, failed
		}
		for _, e := range claimed {
			if r.deliver(ctx, e) {
				sent++
			} else {
				failed++
			}
		}
	}
	return sent, failed
}

func entryIDs(entries []*shared.OutboxEntry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// deliver sends one claimed entry and persists the outcome
func (r *OutboxRelay) deliver(ctx context.Context, entry *shared.OutboxEntry) bool {
	log := r.logger.With(
		zap.Stringer("event_id", entry.EventID),
		zap.String("event_type", entry.EventType))

	deliverErr := r.sink.Deliver(ctx, entry)
	if deliverErr == nil {
		entry.MarkSent()
	} else {
		entry.MarkFailed(deliverErr.Error())
		if entry.IsDead() {
			log.Warn("Outbox entry is dead",
				zap.String("aggregate_type", entry.AggregateType),
				zap.Stringer("aggregate_id", entry.AggregateID),
				zap.Int("attempts", entry.RetryCount),
				zap.Error(deliverErr))
		} else {
			log.Error("Deliver outbox entry",
				zap.Int("attempt", entry.RetryCount),
				zap.Timep("next_retry_at", entry.NextRetryAt),
				zap.Error(deliverErr))
		}
	}

	if err := r.repo.Update(ctx, entry); err != nil {
		log.Error("Persist outbox entry", zap.String("status", string(entry.Status)), zap.Error(err))
		return false
	}
	if deliverErr == nil {
		log.Debug("Outbox entry delivered")
	}
	return deliverErr == nil
}

func (r *OutboxRelay) purgeSent(ctx context.Context) {
	cutoff := time.Now().Add(-r.cfg.SentRetention)
	n, err := r.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.Error("Purge sent outbox entries", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("Purged sent outbox entries", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}
