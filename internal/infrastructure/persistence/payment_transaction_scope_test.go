package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentScope(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*GormPaymentScope, *GormOrderRepository, *order.Order) {
		db := setupStoreTestDB(t)
		orders := NewGormOrderRepository(db)
		o := newTestOrder(t, "ORD-2026-00001", uuid.New(), newTestProduct(t, uuid.New(), "A", 1, 20, 0))
		require.NoError(t, orders.Save(ctx, o))
		return NewGormPaymentScope(db), orders, o
	}

	t.Run("commits order and receipt together", func(t *testing.T) {
		scope, orders, o := setup(t)
		r, err := payment.NewReceipt(o.ID, "other", decimal.NewFromInt(20), "USD", uuid.Nil, "")
		require.NoError(t, err)

		err = scope.Execute(ctx, func(repos paymentapp.TransactionalRepositories) error {
			if err := repos.ReceiptRepo().Save(ctx, r); err != nil {
				return err
			}
			o.AddAdminComment(uuid.Nil, "paid")
			return repos.OrderRepo().SaveWithLock(ctx, o)
		})
		require.NoError(t, err)

		stored, err := orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version)
		receipts, err := NewGormReceiptRepository(scope.db).FindByOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Len(t, receipts, 1)
	})

	t.Run("receipt failure rolls back the order", func(t *testing.T) {
		scope, orders, o := setup(t)
		require.NoError(t, scope.db.Migrator().DropTable(&models.PaymentReceiptModel{}))
		r, err := payment.NewReceipt(o.ID, "other", decimal.NewFromInt(20), "USD", uuid.Nil, "")
		require.NoError(t, err)

		err = scope.Execute(ctx, func(repos paymentapp.TransactionalRepositories) error {
			o.AddAdminComment(uuid.Nil, "captured")
			if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
				return err
			}
			return repos.ReceiptRepo().Save(ctx, r)
		})
		require.Error(t, err)

		stored, err := orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Version)
		assert.Empty(t, stored.AdminComments())
	})

	t.Run("error from fn rolls back every write", func(t *testing.T) {
		scope, orders, o := setup(t)
		r, err := payment.NewReceipt(o.ID, "other", decimal.NewFromInt(5), "USD", uuid.Nil, "")
		require.NoError(t, err)
		boom := errors.New("gateway result rejected")

		err = scope.Execute(ctx, func(repos paymentapp.TransactionalRepositories) error {
			if err := repos.ReceiptRepo().Save(ctx, r); err != nil {
				return err
			}
			if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		stored, err := orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Version)
		receipts, err := NewGormReceiptRepository(scope.db).FindByOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Empty(t, receipts)
	})
}
