package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fulfillmentFixture struct {
	svc       *FulfillmentService
	order     *order.Order
	mug       uuid.UUID
	poster    uuid.UUID
	ebook     uuid.UUID
	packages  *testutil.StubPackageRepository
	shipments *testutil.StubShipmentRepository
	publisher *testutil.MockEventPublisher
}

func newFulfillmentFixture(t *testing.T) *fulfillmentFixture {
	t.Helper()
	o, err := order.NewAdminOrder("ORD-2026-00011", uuid.New(), "USD", order.DefaultStatusCatalog(), uuid.New())
	require.NoError(t, err)
	add := func(sku string, qty int, shippable bool) uuid.UUID {
		p, err := order.NewOrderProduct(uuid.New(), sku, sku+" title", qty, decimal.NewFromInt(10))
		require.NoError(t, err)
		p.Shippable = shippable
		require.NoError(t, o.AddProduct(p))
		return o.Products[len(o.Products)-1].ID
	}
	f := &fulfillmentFixture{
		order:     o,
		packages:  testutil.NewStubPackageRepository(),
		shipments: testutil.NewStubShipmentRepository(),
		publisher: &testutil.MockEventPublisher{},
	}
	f.mug = add("MUG", 3, true)
	f.poster = add("POSTER", 1, true)
	f.ebook = add("EBOOK", 1, false)
	o.SetDeliveryAddress(valueobject.Address{FirstName: "Ada", Street1: "1 Main St", City: "Springfield", Country: "US"})

	orders := new(testutil.MockOrderRepository)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.svc = NewFulfillmentService(orders, f.packages, f.shipments, zaptest.NewLogger(t))
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func TestFulfillmentService_Packages(t *testing.T) {
	ctx := context.Background()
	f := newFulfillmentFixture(t)

	empty, err := f.svc.Packages(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.MessageNoPackages, empty.Message)

	unpackaged, err := f.svc.Unpackaged(ctx, f.order.ID)
	require.NoError(t, err)
	require.Len(t, unpackaged, 2, "non-shippable products are not packaged")

	created, err := f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 2}, {OrderProductID: f.poster, Qty: 1}},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, fulfillment.DefaultShippingType, created[0].ShippingType)
	assert.Equal(t, []string{"2 x MUG", "1 x POSTER"}, created[0].Products)

	unpackaged, err = f.svc.Unpackaged(ctx, f.order.ID)
	require.NoError(t, err)
	require.Len(t, unpackaged, 1)
	assert.Equal(t, "MUG", unpackaged[0].SKU)
	assert.Equal(t, 1, unpackaged[0].Qty)

	_, err = f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 2}},
	})
	assert.Error(t, err, "only one mug remains")

	_, err = f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.ebook, Qty: 1}},
	})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestFulfillmentService_CreateSeparatePackages(t *testing.T) {
	f := newFulfillmentFixture(t)

	created, err := f.svc.CreatePackages(context.Background(), f.order.ID, CreatePackagesRequest{
		ShippingType:     "envelope",
		Products:         []PackageLineRequest{{OrderProductID: f.mug, Qty: 3}, {OrderProductID: f.poster, Qty: 1}},
		SeparatePackages: true,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "envelope", created[1].ShippingType)
}

func TestFulfillmentService_UpdateAndDeletePackage(t *testing.T) {
	ctx := context.Background()
	f := newFulfillmentFixture(t)
	created, err := f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 1}},
	})
	require.NoError(t, err)
	id := created[0].ID

	updated, err := f.svc.UpdatePackage(ctx, f.order.ID, id, UpdatePackageRequest{
		Products:       []PackageLineRequest{{OrderProductID: f.mug, Qty: 3}},
		Weight:         decimal.RequireFromString("2.5"),
		TrackingNumber: " 1Z999 ",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3 x MUG"}, updated.Products)
	assert.Equal(t, "1Z999", updated.TrackingNumber)

	_, err = f.svc.UpdatePackage(ctx, f.order.ID, id, UpdatePackageRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 4}},
	})
	assert.Error(t, err)

	assert.True(t, errors.Is(f.svc.DeletePackage(ctx, uuid.New(), id), shared.ErrNotFound))
	require.NoError(t, f.svc.DeletePackage(ctx, f.order.ID, id))
	list, err := f.svc.Packages(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Packages)
}

func TestFulfillmentService_Shipments(t *testing.T) {
	ctx := context.Background()
	f := newFulfillmentFixture(t)

	none, err := f.svc.Shipments(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.MessageNoShipments, none.Message)

	created, err := f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 3}},
	})
	require.NoError(t, err)
	pkgID := created[0].ID

	shipment, err := f.svc.CreateShipment(ctx, f.order.ID, ShipmentRequest{
		PackageIDs:     []uuid.UUID{pkgID},
		Carrier:        "UPS",
		TrackingNumber: "1ZTRACK",
		Cost:           decimal.RequireFromString("8.40"),
	})
	require.NoError(t, err)
	assert.Equal(t, fulfillment.DefaultShippingMethod, shipment.Method)
	assert.Equal(t, "USD", shipment.Currency)
	assert.Equal(t, "Springfield", shipment.Destination.City)
	assert.Equal(t, []string{fulfillment.EventTypeShipmentSaved}, f.publisher.Types())

	pkg, err := f.packages.FindByID(ctx, pkgID)
	require.NoError(t, err)
	require.NotNil(t, pkg.ShipmentID)
	assert.Equal(t, "1ZTRACK", pkg.TrackingNumber)

	// Shipped packages can be neither edited nor reshipped.
	assert.Error(t, f.svc.DeletePackage(ctx, f.order.ID, pkgID))
	_, err = f.svc.CreateShipment(ctx, f.order.ID, ShipmentRequest{PackageIDs: []uuid.UUID{pkgID}})
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	updated, err := f.svc.UpdateShipment(ctx, f.order.ID, shipment.ID, ShipmentRequest{Carrier: "FedEx", TrackingNumber: "1ZTRACK"})
	require.NoError(t, err)
	assert.Equal(t, "FedEx", updated.Carrier)
	assert.Equal(t, "Springfield", updated.Destination.City)

	tracking, err := f.svc.TrackingNumbers(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1ZTRACK"}, tracking)

	require.NoError(t, f.svc.DeleteShipment(ctx, f.order.ID, shipment.ID))
	pkg, err = f.packages.FindByID(ctx, pkgID)
	require.NoError(t, err)
	assert.Nil(t, pkg.ShipmentID, "deleting a shipment frees its packages")
	list, err := f.svc.Shipments(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Shipments)
}

func TestFulfillmentService_CreateShipmentRejectsDuplicatePackages(t *testing.T) {
	ctx := context.Background()
	f := newFulfillmentFixture(t)

	created, err := f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 3}},
	})
	require.NoError(t, err)
	pkgID := created[0].ID

	_, err = f.svc.CreateShipment(ctx, f.order.ID, ShipmentRequest{PackageIDs: []uuid.UUID{pkgID, pkgID}})
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_SHIPMENT", de.Code)

	pkg, err := f.packages.FindByID(ctx, pkgID)
	require.NoError(t, err)
	assert.Nil(t, pkg.ShipmentID)
	assert.Empty(t, f.publisher.Types())
}

func TestOrderDeletedHandler(t *testing.T) {
	ctx := context.Background()
	f := newFulfillmentFixture(t)
	created, err := f.svc.CreatePackages(ctx, f.order.ID, CreatePackagesRequest{
		Products: []PackageLineRequest{{OrderProductID: f.mug, Qty: 1}},
	})
	require.NoError(t, err)
	_, err = f.svc.CreateShipment(ctx, f.order.ID, ShipmentRequest{PackageIDs: []uuid.UUID{created[0].ID}})
	require.NoError(t, err)

	h := NewOrderDeletedHandler(f.svc, zaptest.NewLogger(t))
	assert.Equal(t, []string{order.EventTypeOrderDeleted}, h.EventTypes())
	require.NoError(t, h.Handle(ctx, order.NewOrderDeletedEvent(f.order)))

	packages, _ := f.packages.FindByOrder(ctx, f.order.ID)
	shipments, _ := f.shipments.FindByOrder(ctx, f.order.ID)
	assert.Empty(t, packages)
	assert.Empty(t, shipments)

	assert.Error(t, h.Handle(ctx, order.NewCheckoutCompletedEvent(f.order)))
}
