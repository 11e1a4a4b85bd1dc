package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingSink struct {
	mu        sync.Mutex
	delivered []*shared.OutboxEntry
	err       error
}

func (s *recordingSink) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, entry)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func TestOutboxRelay_DeliversPendingEntries(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()
	sink := &recordingSink{}

	entry := newOutboxEntry(t, order.EventTypeCheckoutCompleted, time.Now())
	require.NoError(t, repo.Save(ctx, entry))

	relay := NewOutboxRelay(repo, sink, DefaultRelayConfig(), zaptest.NewLogger(t))
	sent, failed := relay.relayDue(ctx)
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)

	require.Equal(t, 1, sink.count())
	assert.Equal(t, entry.EventID, sink.delivered[0].EventID)

	stored, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)

	sent, _ = relay.relayDue(ctx)
	assert.Zero(t, sent)
	assert.Equal(t, 1, sink.count())
}

func TestOutboxRelay_FailedDeliveryBacksOffThenDies(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()
	sink := &recordingSink{err: errors.New("channel/connection is not open")}

	entry := newOutboxEntry(t, order.EventTypeOrderDeleted, time.Now())
	entry.MaxRetries = 2
	require.NoError(t, repo.Save(ctx, entry))

	relay := NewOutboxRelay(repo, sink, DefaultRelayConfig(), nil)
	_, failed := relay.relayDue(ctx)
	assert.Equal(t, 1, failed)

	stored, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "channel/connection is not open", stored.LastError)
	require.NotNil(t, stored.NextRetryAt)

	// not due yet
	_, failed = relay.relayDue(ctx)
	assert.Zero(t, failed)

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{stored.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.False(t, relay.deliver(ctx, claimed[0]))

	stored, err = repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDead())
	assert.Nil(t, stored.NextRetryAt)
}

func TestOutboxRelay_PurgeSent(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	old := newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())
	old.MarkSent()
	processed := time.Now().Add(-30 * 24 * time.Hour)
	old.ProcessedAt = &processed
	recent := newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())
	recent.MarkSent()
	require.NoError(t, repo.Save(ctx, old, recent))

	NewOutboxRelay(repo, &recordingSink{}, DefaultRelayConfig(), zaptest.NewLogger(t)).purgeSent(ctx)

	_, err := repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestOutboxRelay_StartStop(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	sink := &recordingSink{}
	require.NoError(t, repo.Save(context.Background(), newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())))

	cfg := DefaultRelayConfig()
	cfg.PollInterval = 20 * time.Millisecond
	relay := NewOutboxRelay(repo, sink, cfg, zaptest.NewLogger(t))

	require.NoError(t, relay.Start(context.Background()))
	assert.Error(t, relay.Start(context.Background()))
	assert.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, relay.Stop(stopCtx))
}

func TestOutboxRelay_StopBeforeStart(t *testing.T) {
	relay := NewOutboxRelay(nil, nil, DefaultRelayConfig(), nil)
	assert.NoError(t, relay.Stop(context.Background()))
}
