package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of order.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindStale(ctx context.Context, statusIDs []string, anonymous bool, before time.Time) ([]order.Order, error) {
	args := m.Called(ctx, statusIDs, anonymous, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, statusID string) (int64, error) {
	args := m.Called(ctx, statusID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// StubStatusRepository serves the default statuses from memory
type StubStatusRepository struct {
	mu       sync.Mutex
	statuses map[string]order.Status
	defaults map[order.State]string
}

func NewStubStatusRepository() *StubStatusRepository {
	r := &StubStatusRepository{
		statuses: make(map[string]order.Status),
		defaults: make(map[order.State]string),
	}
	for _, s := range order.DefaultStatuses() {
		r.statuses[s.ID] = s
	}
	return r
}

func (r *StubStatusRepository) FindAll(ctx context.Context) ([]order.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.Status, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s)
	}
	return out, nil
}

func (r *StubStatusRepository) FindByID(ctx context.Context, id string) (*order.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *StubStatusRepository) Save(ctx context.Context, s *order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[s.ID] = *s
	return nil
}

func (r *StubStatusRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.statuses, id)
	return nil
}

func (r *StubStatusRepository) StateDefaults(ctx context.Context) (map[order.State]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[order.State]string, len(r.defaults))
	for k, v := range r.defaults {
		out[k] = v
	}
	return out, nil
}

func (r *StubStatusRepository) SetStateDefault(ctx context.Context, state order.State, statusID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[state] = statusID
	return nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType()
	}
	return types
}

// Events returns the published events
func (m *MockEventPublisher) Events() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.DomainEvent(nil), m.events...)
}
