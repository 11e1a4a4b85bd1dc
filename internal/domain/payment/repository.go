package payment

import (
	"context"

	"github.com/google/uuid"
)

// MethodRepository defines the interface for payment method configuration
type MethodRepository interface {
	// FindAll returns every payment method ordered by weight
	FindAll(ctx context.Context) ([]Method, error)

	// FindEnabled returns enabled payment methods ordered by weight
	FindEnabled(ctx context.Context) ([]Method, error)

	// FindByID finds a payment method by machine name
	FindByID(ctx context.Context, id string) (*Method, error)

	// Save creates or updates a payment method
	Save(ctx context.Context, m *Method) error

	// Delete removes a payment method
	Delete(ctx context.Context, id string) error
}

// ReceiptRepository defines the interface for payment receipts
type ReceiptRepository interface {
	// FindByID finds a receipt
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindByOrder returns the receipts of an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Receipt, error)

	// Save creates or updates a receipt
	Save(ctx context.Context, r *Receipt) error

	// Delete removes a receipt
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOrder removes every receipt of an order
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) error
}
