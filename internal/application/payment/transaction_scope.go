package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
)

// TransactionScope runs order and receipt writes in one database transaction.
// An error returned by fn rolls back every write made through repos.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to the current transaction
type TransactionalRepositories interface {
	OrderRepo() order.OrderRepository
	ReceiptRepo() payment.ReceiptRepository
}

// NoOpTransactionScope calls fn with the plain repositories
type NoOpTransactionScope struct {
	orderRepo   order.OrderRepository
	receiptRepo payment.ReceiptRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(orderRepo order.OrderRepository, receiptRepo payment.ReceiptRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{orderRepo: orderRepo, receiptRepo: receiptRepo}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.OrderRepository { return s.orderRepo }

// ReceiptRepo returns the receipt repository
func (s *NoOpTransactionScope) ReceiptRepo() payment.ReceiptRepository { return s.receiptRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)

// settle recomputes the order balance inside the transaction and moves a
// paid order out of post-checkout
func settle(ctx context.Context, repos TransactionalRepositories, catalog *order.StatusCatalog, o *order.Order, authorID uuid.UUID) (decimal.Decimal, error) {
	receipts, err := repos.ReceiptRepo().FindByOrder(ctx, o.ID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := payment.Balance(o.Total(), receipts)
	if _, err := o.SettleBalance(catalog, balance, authorID); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
