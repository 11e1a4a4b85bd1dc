package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/tax"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type checkoutFixture struct {
	svc       *CheckoutService
	orders    *testutil.MockOrderRepository
	tee       *catalog.Product
	methods   *testutil.StubMethodRepository
	publisher *testutil.MockEventPublisher
}

func newCheckoutFixture(t *testing.T, rules order.CheckoutRules) *checkoutFixture {
	t.Helper()
	vat, err := tax.NewRate("vat", tax.RateSettings{Label: "VAT", Rate: decimal.RequireFromString("0.1")})
	require.NoError(t, err)
	flat, err := shipping.NewFlatrateMethod("flat", "Flat rate", decimal.NewFromInt(5), decimal.NewFromInt(1))
	require.NoError(t, err)
	check, err := payment.NewMethod("check", payment.PluginCheck, "Check")
	require.NoError(t, err)
	cod, err := payment.NewMethod("cod", payment.PluginCOD, "Cash on delivery")
	require.NoError(t, err)
	cod.Disable()

	f := &checkoutFixture{
		orders:    new(testutil.MockOrderRepository),
		tee:       testutil.NewCatalogProduct(t, "TEE", "T-shirt", 10, true),
		methods:   testutil.NewStubMethodRepository(check, cod),
		publisher: &testutil.MockEventPublisher{},
	}
	f.svc = NewCheckoutService(
		f.orders,
		testutil.NewStubStatusRepository(),
		testutil.NewStubProductRepository(f.tee, testutil.NewCatalogProduct(t, "EBOOK", "E-book", 5, false)),
		testutil.NewStubRateRepository(vat),
		testutil.NewStubQuoteMethodRepository(flat),
		f.methods,
		rules,
		zaptest.NewLogger(t),
	)
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func openRules() order.CheckoutRules {
	return order.CheckoutRules{Enabled: true, AnonymousCheckout: true}
}

func cartOrder(t *testing.T, owner uuid.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-2026-00100", owner, "USD", order.DefaultStatusCatalog())
	require.NoError(t, err)
	p, err := order.NewOrderProduct(uuid.New(), "TEE", "T-shirt", 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, o.AddProduct(p))
	o.ClearDomainEvents()
	return o
}

func TestCheckoutService_CreateCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, openRules())
	f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00100", nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

	resp, err := f.svc.CreateCart(ctx, uuid.Nil, CreateCartRequest{
		PrimaryEmail: "buyer@example.com",
		Products: []orderapp.AddProductRequest{
			{ProductID: f.tee.ID, Qty: 2},
			{SKU: "EBOOK", Qty: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusInCheckout, resp.StatusID)
	assert.Equal(t, "USD", resp.Currency)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, f.tee.ID, resp.Products[0].ProductID)
	assert.Equal(t, "T-shirt", resp.Products[0].Title)
	assert.False(t, resp.Products[1].Shippable)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(25)))
	f.orders.AssertExpectations(t)
}

func TestCheckoutService_CreateCartUsesCatalogPrices(t *testing.T) {
	ctx := context.Background()

	t.Run("price comes from the catalog", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00101", nil)
		f.orders.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

		resp, err := f.svc.CreateCart(ctx, uuid.Nil, CreateCartRequest{
			Products: []orderapp.AddProductRequest{{SKU: "TEE", Qty: 1}},
		})
		require.NoError(t, err)
		assert.True(t, resp.Products[0].Price.Equal(decimal.NewFromInt(10)))
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(10)))
	})

	t.Run("unknown product creates no cart", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		f.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00102", nil)

		_, err := f.svc.CreateCart(ctx, uuid.Nil, CreateCartRequest{
			Products: []orderapp.AddProductRequest{{SKU: "TV-65", Qty: 1}},
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "PRODUCT_NOT_FOUND", de.Code)
		f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCheckoutService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("claims an anonymous cart", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, uuid.Nil)
		userID := uuid.New()
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		resp, err := f.svc.Start(ctx, o.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, resp.OwnerID)
		assert.Equal(t, []string{order.EventTypeCheckoutStarted}, f.publisher.Types())
	})

	t.Run("disabled checkout", func(t *testing.T) {
		f := newCheckoutFixture(t, order.CheckoutRules{})
		o := cartOrder(t, uuid.Nil)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := f.svc.Start(ctx, o.ID, uuid.New())
		require.Error(t, err)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("anonymous visitor without anonymous checkout", func(t *testing.T) {
		f := newCheckoutFixture(t, order.CheckoutRules{Enabled: true})
		o := cartOrder(t, uuid.Nil)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := f.svc.Start(ctx, o.ID, uuid.Nil)
		assert.True(t, errors.Is(err, shared.ErrUnauthorized))
	})
}

func TestCheckoutService_Update(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("stores panes", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		email := " buyer@example.com "
		method := "check"
		quote := "flat"
		resp, err := f.svc.Update(ctx, o.ID, owner, UpdateCheckoutRequest{
			PrimaryEmail:    &email,
			PaymentMethodID: &method,
			QuoteMethodID:   &quote,
		})
		require.NoError(t, err)
		assert.Equal(t, "buyer@example.com", resp.PrimaryEmail)
		assert.Equal(t, "check", o.PaymentMethodID)
		assert.Equal(t, "flat", o.QuoteMethodID)
	})

	t.Run("rejects disabled payment method", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		method := "cod"
		_, err := f.svc.Update(ctx, o.ID, owner, UpdateCheckoutRequest{PaymentMethodID: &method})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("forbidden for another customer", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := f.svc.Update(ctx, o.ID, uuid.New(), UpdateCheckoutRequest{})
		assert.True(t, errors.Is(err, shared.ErrForbidden))
	})
}

func TestCheckoutService_Review(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	f := newCheckoutFixture(t, openRules())
	o := cartOrder(t, owner)
	o.SetQuoteMethod("flat")
	o.SetPaymentMethod("check")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	review, err := f.svc.Review(ctx, o.ID, owner)
	require.NoError(t, err)

	require.NotNil(t, review.Quote)
	assert.Equal(t, "Flat rate", review.Quote.Label)
	assert.True(t, review.Quote.Amount.Equal(decimal.NewFromInt(7)), review.Quote.Amount.String())
	require.Len(t, review.TaxLines, 1)
	assert.True(t, review.TaxLines[0].Amount.Equal(decimal.NewFromInt(2)))
	assert.True(t, review.TaxTotal.Equal(decimal.NewFromInt(2)))
	assert.True(t, review.Total.Equal(decimal.NewFromInt(29)), review.Total.String())
	require.NotNil(t, review.PaymentMethod)
	assert.Equal(t, "check", review.PaymentMethod.Plugin)
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestCheckoutService_Complete(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("submits the order", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		o.SetQuoteMethod("flat")
		o.SetPaymentMethod("check")
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		resp, err := f.svc.Complete(ctx, o.ID, owner)
		require.NoError(t, err)

		assert.Equal(t, order.StatusPending, resp.StatusID)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(29)))
		assert.Len(t, o.LineItemsOfType(order.LineItemShipping), 1)
		assert.Len(t, o.LineItemsOfType(order.LineItemTax), 1)
		assert.Contains(t, f.publisher.Types(), order.EventTypeCheckoutCompleted)
		require.NotEmpty(t, o.OrderComments())
		assert.Equal(t, order.CheckoutCompleteComment, o.OrderComments()[len(o.OrderComments())-1].Message)
	})

	t.Run("repeated review does not duplicate charges", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		o.SetQuoteMethod("flat")
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		_, err := f.svc.Review(ctx, o.ID, owner)
		require.NoError(t, err)
		resp, err := f.svc.Complete(ctx, o.ID, owner)
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(29)))
		assert.Len(t, o.LineItemsOfType(order.LineItemShipping), 1)
	})

	t.Run("disabled payment method", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		o.SetPaymentMethod("cod")
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := f.svc.Complete(ctx, o.ID, owner)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("already checked out", func(t *testing.T) {
		f := newCheckoutFixture(t, openRules())
		o := cartOrder(t, owner)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		_, err := f.svc.Complete(ctx, o.ID, owner)
		require.NoError(t, err)
		_, err = f.svc.Complete(ctx, o.ID, owner)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("checkout rules are enforced on submit", func(t *testing.T) {
		tests := []struct {
			name  string
			rules order.CheckoutRules
			code  string
		}{
			{"disabled", order.CheckoutRules{AnonymousCheckout: true}, "INVALID_STATE"},
			{"anonymous not allowed", order.CheckoutRules{Enabled: true}, "UNAUTHORIZED"},
			{"below minimum subtotal", order.CheckoutRules{Enabled: true, AnonymousCheckout: true, MinimumSubtotal: decimal.NewFromInt(1000)}, "INVALID_STATE"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newCheckoutFixture(t, tt.rules)
				o := cartOrder(t, uuid.Nil)
				f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

				_, err := f.svc.Complete(ctx, o.ID, uuid.Nil)
				require.Error(t, err)
				var de *shared.DomainError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, tt.code, de.Code)
				assert.Equal(t, order.StatusInCheckout, o.StatusID)
				f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("disabled delivery country", func(t *testing.T) {
		rules := openRules()
		rules.Countries = []string{"US"}
		f := newCheckoutFixture(t, rules)
		o := cartOrder(t, owner)
		o.SetDeliveryAddress(valueobject.Address{Country: "FR"})
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := f.svc.Complete(ctx, o.ID, owner)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestCheckoutService_UpdateRejectsDisabledCountry(t *testing.T) {
	rules := openRules()
	rules.Countries = []string{"US", "CA"}
	f := newCheckoutFixture(t, rules)
	owner := uuid.New()
	o := cartOrder(t, owner)
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err := f.svc.Update(context.Background(), o.ID, owner, UpdateCheckoutRequest{
		BillingAddress: &valueobject.Address{FirstName: "Ada", Country: "de"},
	})
	require.Error(t, err)
	assert.Equal(t, "Billing country DE is not available.", err.Error())
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}
