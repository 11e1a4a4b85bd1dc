package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*OrderService, *testutil.MockOrderRepository, *testutil.MockEventPublisher) {
	repo := new(testutil.MockOrderRepository)
	publisher := &testutil.MockEventPublisher{}
	retired := testutil.NewCatalogProduct(t, "POSTER", "Poster", 12, true)
	retired.SetActive(false)
	products := testutil.NewStubProductRepository(
		testutil.NewCatalogProduct(t, "EBOOK", "E-book", 5, false),
		retired,
	)
	svc := NewOrderService(repo, testutil.NewStubStatusRepository(), products, zaptest.NewLogger(t))
	svc.SetEventPublisher(publisher)
	return svc, repo, publisher
}

func existingOrder(t *testing.T, owner uuid.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-2026-00042", owner, "USD", order.DefaultStatusCatalog())
	require.NoError(t, err)
	p, err := order.NewOrderProduct(uuid.New(), "TEE", "T-shirt", 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, o.AddProduct(p))
	o.ClearDomainEvents()
	return o
}

func TestOrderService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo, publisher := newTestService(t)
	adminID := uuid.New()
	ownerID := uuid.New()

	repo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00001", nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

	resp, err := svc.Create(ctx, adminID, CreateOrderRequest{OwnerID: &ownerID, PrimaryEmail: " buyer@example.com ", Currency: "EUR"})
	require.NoError(t, err)

	assert.Equal(t, "ORD-2026-00001", resp.OrderNumber)
	assert.Equal(t, order.StatusPending, resp.StatusID)
	assert.Equal(t, "Pending", resp.StatusName)
	assert.Equal(t, "EUR", resp.Currency)
	assert.Equal(t, "buyer@example.com", resp.PrimaryEmail)
	assert.Equal(t, []string{order.EventTypeOrderCreated, order.EventTypeOrderCommentAdded}, publisher.Types())

	saved := repo.Calls[1].Arguments.Get(1).(*order.Order)
	require.Len(t, saved.AdminComments(), 1)
	assert.Equal(t, order.AdminCreatedComment, saved.AdminComments()[0].Message)
	repo.AssertExpectations(t)
}

func TestOrderService_Create_InvalidCurrency(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderRequest{Currency: "XXQ"})
	require.Error(t, err)
	repo.AssertNotCalled(t, "GenerateOrderNumber", mock.Anything)
}

func TestOrderService_Get(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	o := existingOrder(t, owner)

	t.Run("returns order with totals", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		resp, err := svc.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, "20.00 USD", resp.TotalFormatted)
		assert.Equal(t, string(order.StateInCheckout), resp.State)
		assert.Len(t, resp.Products, 1)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Get(ctx, id)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("customer cannot read another customer's order", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.GetForUser(ctx, uuid.New(), o.ID)
		assert.True(t, errors.Is(err, shared.ErrForbidden))

		resp, err := svc.GetForUser(ctx, owner, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, resp.ID)
	})
}

func TestOrderService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	o := existingOrder(t, uuid.New())

	matches := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderDir == "desc" &&
			f.Filters[order.FilterStatusID] == order.StatusPending
	})
	repo.On("FindAll", mock.Anything, matches).Return([]order.Order{*o}, nil)
	repo.On("Count", mock.Anything, matches).Return(int64(1), nil)

	items, total, err := svc.List(ctx, OrderListFilter{StatusID: order.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "In checkout", items[0].StatusName)
	assert.Equal(t, 2, items[0].ProductCount)
}

func TestOrderService_ListForUser(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	user := uuid.New()

	matches := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters[order.FilterOwnerID] == user && f.PageSize == maxPageSize
	})
	repo.On("FindAll", mock.Anything, matches).Return([]order.Order{}, nil)
	repo.On("Count", mock.Anything, matches).Return(int64(0), nil)

	items, total, err := svc.ListForUser(ctx, user, OrderListFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	author := uuid.New()

	t.Run("records comment and requests notification", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		o := existingOrder(t, uuid.New())
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("SaveWithLock", mock.Anything, o).Return(nil)

		resp, err := svc.UpdateStatus(ctx, o.ID, author, UpdateStatusRequest{
			StatusID: order.StatusProcessing,
			Message:  "Packing now",
			Notify:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusProcessing, resp.StatusID)
		assert.Equal(t, []string{
			order.EventTypeOrderStatusUpdated,
			order.EventTypeOrderCommentAdded,
			order.EventTypeOrderStatusEmailRequested,
		}, publisher.Types())
		assert.Empty(t, o.GetDomainEvents())
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		o := existingOrder(t, uuid.New())
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(ctx, o.ID, author, UpdateStatusRequest{StatusID: "nope"})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("concurrency conflict is returned", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		o := existingOrder(t, uuid.New())
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("SaveWithLock", mock.Anything, o).Return(shared.ErrConcurrencyConflict)

		_, err := svc.UpdateStatus(ctx, o.ID, author, UpdateStatusRequest{StatusID: order.StatusPending})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Empty(t, publisher.Types())
	})
}

func TestOrderService_Comments(t *testing.T) {
	ctx := context.Background()
	svc, repo, publisher := newTestService(t)
	o := existingOrder(t, uuid.New())
	author := uuid.New()
	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	repo.On("SaveWithLock", mock.Anything, o).Return(nil)

	resp, err := svc.AddComment(ctx, o.ID, author, AddCommentRequest{Message: "Thanks!"})
	require.NoError(t, err)
	require.Len(t, resp.OrderComments, 1)
	assert.Equal(t, "In checkout", resp.OrderComments[0].StatusName)

	resp, err = svc.AddAdminComment(ctx, o.ID, author, AddCommentRequest{Message: "VIP"})
	require.NoError(t, err)
	assert.Len(t, resp.AdminComments, 1)
	assert.Len(t, resp.OrderComments, 1)

	assert.Equal(t, []string{order.EventTypeOrderCommentAdded, order.EventTypeOrderCommentAdded}, publisher.Types())

	_, err = svc.AddComment(ctx, o.ID, author, AddCommentRequest{Message: "  "})
	assert.Error(t, err)
}

func TestOrderService_Products(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	o := existingOrder(t, uuid.New())
	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	repo.On("SaveWithLock", mock.Anything, o).Return(nil)

	resp, err := svc.AddProduct(ctx, o.ID, AddProductRequest{SKU: "EBOOK", Qty: 1})
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "E-book", resp.Products[1].Title)
	assert.False(t, resp.Products[1].Shippable)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(25)))

	resp, err = svc.UpdateProduct(ctx, o.ID, resp.Products[1].ID, UpdateProductRequest{Qty: 3})
	require.NoError(t, err)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(35)))

	resp, err = svc.UpdateProduct(ctx, o.ID, resp.Products[1].ID, UpdateProductRequest{Qty: 0})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 1)

	resp, err = svc.AddLineItem(ctx, o.ID, AddLineItemRequest{Type: "generic", Title: "Gift wrap", Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.Len(t, resp.LineItems, 1)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(22)))

	resp, err = svc.RemoveLineItem(ctx, o.ID, resp.LineItems[0].ID)
	require.NoError(t, err)
	assert.Empty(t, resp.LineItems)
}

func TestOrderService_AddProductReadsCatalog(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	o := existingOrder(t, uuid.New())
	repo.On("FindByID", mock.Anything, o.ID).Return(o, nil).Maybe()
	repo.On("SaveWithLock", mock.Anything, o).Return(nil).Maybe()

	tests := []struct {
		name string
		req  AddProductRequest
		code string
	}{
		{"unknown sku", AddProductRequest{SKU: "NOPE", Qty: 1}, "PRODUCT_NOT_FOUND"},
		{"unknown id", AddProductRequest{ProductID: uuid.New(), Qty: 1}, "PRODUCT_NOT_FOUND"},
		{"no reference", AddProductRequest{Qty: 1}, "INVALID_INPUT"},
		{"withdrawn product", AddProductRequest{SKU: "POSTER", Qty: 1}, "PRODUCT_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddProduct(ctx, o.ID, tt.req)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			assert.Len(t, o.Products, 1)
		})
	}
	repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOrderService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete publishes OrderDeleted", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		o := existingOrder(t, uuid.New())
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("SoftDelete", mock.Anything, o.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, o.ID))
		assert.Equal(t, []string{order.EventTypeOrderDeleted}, publisher.Types())
	})

	t.Run("purge of a live order deletes it first", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		o := existingOrder(t, uuid.New())
		repo.On("FindByIDIncludingDeleted", mock.Anything, o.ID).Return(o, nil)
		repo.On("Purge", mock.Anything, o.ID).Return(nil)

		require.NoError(t, svc.Purge(ctx, o.ID))
		assert.Equal(t, []string{order.EventTypeOrderDeleted}, publisher.Types())
	})

	t.Run("purge of a soft-deleted order", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		o := existingOrder(t, uuid.New())
		require.NoError(t, o.MarkDeleted())
		o.ClearDomainEvents()
		repo.On("FindByIDIncludingDeleted", mock.Anything, o.ID).Return(o, nil)
		repo.On("Purge", mock.Anything, o.ID).Return(nil)

		require.NoError(t, svc.Purge(ctx, o.ID))
		assert.Empty(t, publisher.Types())
		repo.AssertExpectations(t)
	})

	t.Run("deleted orders cannot be edited", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		o := existingOrder(t, uuid.New())
		require.NoError(t, o.MarkDeleted())
		repo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		email := "x@example.com"
		_, err := svc.Update(ctx, o.ID, UpdateOrderRequest{PrimaryEmail: &email})
		assert.Error(t, err)
	})
}

func TestStatusService(t *testing.T) {
	ctx := context.Background()
	statuses := testutil.NewStubStatusRepository()
	orders := new(testutil.MockOrderRepository)
	svc := NewStatusService(statuses, orders)

	t.Run("config lists states and statuses", func(t *testing.T) {
		cfg, err := svc.Config(ctx)
		require.NoError(t, err)
		assert.Len(t, cfg.States, 5)
		assert.Len(t, cfg.Statuses, 7)
		assert.Equal(t, order.StatusCanceled, cfg.Statuses[0].ID)
	})

	t.Run("create and rename custom status", func(t *testing.T) {
		resp, err := svc.Create(ctx, CreateStatusRequest{ID: "on_hold", Name: "On hold", State: "post_checkout", Weight: 1})
		require.NoError(t, err)
		assert.False(t, resp.Locked)

		_, err = svc.Create(ctx, CreateStatusRequest{ID: "on_hold", Name: "Again", State: "post_checkout"})
		require.Error(t, err)

		name := "Held"
		resp, err = svc.Update(ctx, "on_hold", UpdateStatusConfigRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Held", resp.Name)
	})

	t.Run("default must belong to the state", func(t *testing.T) {
		_, err := svc.SetStateDefault(ctx, "post_checkout", SetStateDefaultRequest{StatusID: order.StatusCompleted})
		require.Error(t, err)

		cfg, err := svc.SetStateDefault(ctx, "post_checkout", SetStateDefaultRequest{StatusID: "on_hold"})
		require.NoError(t, err)
		for _, st := range cfg.States {
			if st.ID == "post_checkout" {
				assert.Equal(t, "on_hold", st.DefaultStatus)
			}
		}
	})

	t.Run("locked and used statuses cannot be deleted", func(t *testing.T) {
		err := svc.Delete(ctx, order.StatusPending)
		require.Error(t, err)

		orders.On("CountByStatus", mock.Anything, "on_hold").Return(int64(3), nil).Once()
		err = svc.Delete(ctx, "on_hold")
		require.Error(t, err)

		orders.On("CountByStatus", mock.Anything, "on_hold").Return(int64(0), nil).Once()
		require.NoError(t, svc.Delete(ctx, "on_hold"))
	})
}

func TestOrderService_DeleteAbandonedCarts(t *testing.T) {
	ctx := context.Background()
	svc, repo, publisher := newTestService(t)
	now := time.Date(2026, 6, 1, 2, 0, 0, 0, time.UTC)
	inCheckout := []string{order.StatusInCheckout, order.StatusAbandoned}

	anon := existingOrder(t, uuid.Nil)
	member := existingOrder(t, uuid.New())

	repo.On("FindStale", mock.Anything, inCheckout, true, now.Add(-4*time.Hour)).Return([]order.Order{*anon}, nil)
	repo.On("FindStale", mock.Anything, inCheckout, false, now.AddDate(-1, 0, 0)).Return([]order.Order{*member}, nil)
	repo.On("Purge", mock.Anything, anon.ID).Return(nil)
	repo.On("Purge", mock.Anything, member.ID).Return(nil)

	result, err := svc.DeleteAbandonedCarts(ctx, now, 4*time.Hour, now.Sub(now.AddDate(-1, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, CartCleanupResult{Anonymous: 1, Authenticated: 1}, result)
	assert.Equal(t, []string{order.EventTypeOrderDeleted, order.EventTypeOrderDeleted}, publisher.Types())
	repo.AssertExpectations(t)
}

func TestOrderService_DeleteAbandonedCarts_Error(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	repo.On("FindStale", mock.Anything, mock.Anything, true, mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.DeleteAbandonedCarts(ctx, time.Now(), time.Hour, 0)
	assert.EqualError(t, err, "db down")
	repo.AssertNotCalled(t, "Purge", mock.Anything, mock.Anything)
}
