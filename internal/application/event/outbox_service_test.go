package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeOutbox keeps entries in insertion order
type fakeOutbox struct {
	entries []*shared.OutboxEntry
	failAll error
}

func (f *fakeOutbox) add(status shared.OutboxStatus, eventType string) *shared.OutboxEntry {
	e := &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateID:   uuid.New(),
		AggregateType: "Order",
		Payload:       []byte(`{"order_number":"1042"}`),
		Status:        status,
		MaxRetries:    shared.DefaultMaxRetries,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if status == shared.OutboxStatusDead {
		e.RetryCount = e.MaxRetries
		e.LastError = "exchange \"store.events\" not found"
	}
	f.entries = append(f.entries, e)
	return e
}

func (f *fakeOutbox) find(status shared.OutboxStatus) []*shared.OutboxEntry {
	var out []*shared.OutboxEntry
	for _, e := range f.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeOutbox) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	f.entries = append(f.entries, entries...)
	return f.failAll
}

func (f *fakeOutbox) FindPending(_ context.Context, _ int) ([]*shared.OutboxEntry, error) {
	return f.find(shared.OutboxStatusPending), f.failAll
}

func (f *fakeOutbox) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, f.failAll
}

func (f *fakeOutbox) FindDead(_ context.Context, page, size int) ([]*shared.OutboxEntry, int64, error) {
	if f.failAll != nil {
		return nil, 0, f.failAll
	}
	dead := f.find(shared.OutboxStatusDead)
	start := min((page-1)*size, len(dead))
	end := min(start+size, len(dead))
	return dead[start:end], int64(len(dead)), nil
}

func (f *fakeOutbox) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOutbox) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, f.failAll
}

func (f *fakeOutbox) Update(context.Context, *shared.OutboxEntry) error { return f.failAll }

func (f *fakeOutbox) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, f.failAll }

func (f *fakeOutbox) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range f.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func TestOutboxService_ListDead(t *testing.T) {
	repo := &fakeOutbox{}
	for range 5 {
		repo.add(shared.OutboxStatusDead, "CheckoutCompleted")
	}
	repo.add(shared.OutboxStatusPending, "PaymentEntered")
	service := NewOutboxService(repo, zaptest.NewLogger(t))

	page, err := service.ListDead(context.Background(), DeadLetterQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Entries, 2)
	for _, v := range page.Entries {
		assert.Equal(t, "DEAD", v.Status)
		assert.Equal(t, shared.DefaultMaxRetries, v.Attempts)
	}
}

func TestDeadLetterQuery_Normalize(t *testing.T) {
	tests := []struct {
		q          DeadLetterQuery
		page, size int
	}{
		{DeadLetterQuery{}, 1, 20},
		{DeadLetterQuery{Page: -3, PageSize: 500}, 1, 100},
		{DeadLetterQuery{Page: 4, PageSize: 7}, 4, 7},
	}
	for _, tt := range tests {
		page, size := tt.q.normalize()
		assert.Equal(t, tt.page, page)
		assert.Equal(t, tt.size, size)
	}
}

func TestOutboxService_Get(t *testing.T) {
	repo := &fakeOutbox{}
	entry := repo.add(shared.OutboxStatusFailed, "CheckoutCompleted")
	entry.LastError = "channel/connection is not open"
	service := NewOutboxService(repo, nil)

	v, err := service.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_number":"1042"}`, string(v.Payload))
	assert.Equal(t, "FAILED", v.Status)
	assert.Equal(t, "channel/connection is not open", v.LastError)

	_, err = service.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOutboxService_GetDropsInvalidPayload(t *testing.T) {
	repo := &fakeOutbox{}
	entry := repo.add(shared.OutboxStatusPending, "OrderDeleted")
	entry.Payload = []byte("not json")

	v, err := NewOutboxService(repo, nil).Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Nil(t, v.Payload)
}

func TestOutboxService_Requeue(t *testing.T) {
	repo := &fakeOutbox{}
	dead := repo.add(shared.OutboxStatusDead, "CheckoutCompleted")
	pending := repo.add(shared.OutboxStatusPending, "CheckoutCompleted")
	service := NewOutboxService(repo, zaptest.NewLogger(t))

	v, err := service.Requeue(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", v.Status)
	assert.Zero(t, v.Attempts)
	assert.Empty(t, v.LastError)

	_, err = service.Requeue(context.Background(), pending.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = service.Requeue(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOutboxService_RequeueAllDead(t *testing.T) {
	repo := &fakeOutbox{}
	for range 3 {
		repo.add(shared.OutboxStatusDead, "OrderDeleted")
	}
	repo.add(shared.OutboxStatusSent, "OrderCreated")
	service := NewOutboxService(repo, zaptest.NewLogger(t))

	moved, err := service.RequeueAllDead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)
	assert.Empty(t, repo.find(shared.OutboxStatusDead))
	assert.Len(t, repo.find(shared.OutboxStatusPending), 3)
	assert.Len(t, repo.find(shared.OutboxStatusSent), 1)
}

func TestOutboxService_Stats(t *testing.T) {
	repo := &fakeOutbox{}
	for _, s := range []shared.OutboxStatus{
		shared.OutboxStatusPending, shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent, shared.OutboxStatusSent, shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		repo.add(s, "CheckoutCompleted")
	}

	stats, err := NewOutboxService(repo, nil).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutboxStats{Pending: 2, Processing: 1, Sent: 3, Failed: 1, Dead: 1, Total: 8}, *stats)
}

func TestOutboxService_RepositoryFailures(t *testing.T) {
	repo := &fakeOutbox{failAll: errors.New("connection reset")}
	service := NewOutboxService(repo, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := service.ListDead(ctx, DeadLetterQuery{})
	assertInternal(t, err)
	_, err = service.Get(ctx, uuid.New())
	assertInternal(t, err)
	_, err = service.Stats(ctx)
	assertInternal(t, err)
	_, err = service.RequeueAllDead(ctx)
	assertInternal(t, err)
}

func assertInternal(t *testing.T, err error) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.NotContains(t, de.Message, "connection reset")
}
