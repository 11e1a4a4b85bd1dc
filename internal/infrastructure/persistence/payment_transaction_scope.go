package persistence

import (
	"context"

	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"gorm.io/gorm"
)

// GormPaymentScope runs order and receipt writes in one GORM transaction
type GormPaymentScope struct {
	db *gorm.DB
}

// NewGormPaymentScope creates a new GormPaymentScope
func NewGormPaymentScope(db *gorm.DB) *GormPaymentScope {
	return &GormPaymentScope{db: db}
}

// Execute commits when fn succeeds and rolls back otherwise
func (s *GormPaymentScope) Execute(ctx context.Context, fn func(repos paymentapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(paymentRepos{tx: tx})
	})
}

type paymentRepos struct {
	tx *gorm.DB
}

func (r paymentRepos) OrderRepo() order.OrderRepository { return NewGormOrderRepository(r.tx) }

func (r paymentRepos) ReceiptRepo() payment.ReceiptRepository { return NewGormReceiptRepository(r.tx) }

var _ paymentapp.TransactionScope = (*GormPaymentScope)(nil)
