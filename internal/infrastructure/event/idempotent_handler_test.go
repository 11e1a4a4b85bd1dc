package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_RedeliveredCheckoutIsSkipped(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	stockHandler := new(MockEventHandler)
	event := newCheckoutCompleted()
	stockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(stockHandler, store, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, handler.Handle(context.Background(), event))
	}

	stockHandler.AssertExpectations(t)
	stats := handler.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(2), stats.Duplicates)
}

func TestIdempotentHandler_HandlerError(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	stockHandler := new(MockEventHandler)
	event := newCheckoutCompleted()
	stockHandler.On("Handle", mock.Anything, event).Return(errors.New("stock table locked")).Once()

	handler := NewIdempotentHandler(stockHandler, store, nil)

	assert.EqualError(t, handler.Handle(context.Background(), event), "stock table locked")
	// still marked, so an immediate redelivery is skipped
	assert.NoError(t, handler.Handle(context.Background(), event))

	stats := handler.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Duplicates)
	stockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_StoreErrorStillHandles(t *testing.T) {
	store := new(MockIdempotencyStore)
	stockHandler := new(MockEventHandler)
	event := newCheckoutCompleted()

	store.On("MarkProcessed", mock.Anything, event.EventID().String(), 24*time.Hour).
		Return(false, errors.New("redis: connection refused"))
	stockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(stockHandler, store, zaptest.NewLogger(t))

	require.NoError(t, handler.Handle(context.Background(), event))
	store.AssertExpectations(t)
	stockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_CustomTTLAndEventTypes(t *testing.T) {
	store := new(MockIdempotencyStore)
	stockHandler := new(MockEventHandler)
	event := newCheckoutCompleted()

	store.On("MarkProcessed", mock.Anything, event.EventID().String(), time.Hour).Return(true, nil).Once()
	stockHandler.On("EventTypes").Return([]string{order.EventTypeCheckoutCompleted})
	stockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(stockHandler, store, nil, time.Hour)

	assert.Equal(t, []string{order.EventTypeCheckoutCompleted}, handler.EventTypes())
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, int64(1), handler.Stats().Processed)
	store.AssertExpectations(t)
	stockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_ConcurrentRedelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	stockHandler := new(MockEventHandler)
	event := newCheckoutCompleted()
	stockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(stockHandler, store, nil)

	const workers = 50
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			errs <- handler.Handle(context.Background(), event)
		}()
	}
	for i := 0; i < workers; i++ {
		assert.NoError(t, <-errs)
	}

	stockHandler.AssertExpectations(t)
	stats := handler.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(workers-1), stats.Duplicates)
}
