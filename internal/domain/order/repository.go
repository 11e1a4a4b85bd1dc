package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Filter keys understood by OrderRepository.FindAll and Count
const (
	FilterStatusID       = "status_id"
	FilterOwnerID        = "owner_id"
	FilterIncludeDeleted = "include_deleted"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID, including its products, line items and comments.
	// Soft-deleted orders are not returned.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDIncludingDeleted finds an order by ID even when it was soft-deleted
	FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindByOwner finds the orders of a customer
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindStale finds orders in one of the given statuses last updated before the cutoff.
	// anonymous selects orders without owner; otherwise orders with an owner.
	FindStale(ctx context.Context, statusIDs []string, anonymous bool, before time.Time) ([]Order, error)

	// Save creates or updates an order with its children
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, o *Order) error

	// SoftDelete marks an order deleted, keeping its comments
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Purge permanently deletes an order with products, line items and comments
	Purge(ctx context.Context, id uuid.UUID) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByOwner counts the orders of a customer
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// CountByStatus counts orders in a status
	CountByStatus(ctx context.Context, statusID string) (int64, error)

	// GenerateOrderNumber generates a unique order number (ORD-YYYY-NNNNN)
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// StatusRepository defines the interface for order status configuration
type StatusRepository interface {
	// FindAll returns every configured status
	FindAll(ctx context.Context) ([]Status, error)

	// FindByID finds a status by machine name
	FindByID(ctx context.Context, id string) (*Status, error)

	// Save creates or updates a status
	Save(ctx context.Context, s *Status) error

	// Delete removes a status
	Delete(ctx context.Context, id string) error

	// StateDefaults returns the configured default status per state
	StateDefaults(ctx context.Context) (map[State]string, error)

	// SetStateDefault configures the default status of a state
	SetStateDefault(ctx context.Context, state State, statusID string) error
}

// LoadCatalog builds a StatusCatalog from the status repository
func LoadCatalog(ctx context.Context, repo StatusRepository) (*StatusCatalog, error) {
	statuses, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	defaults, err := repo.StateDefaults(ctx)
	if err != nil {
		return nil, err
	}
	return NewStatusCatalog(statuses, defaults), nil
}
