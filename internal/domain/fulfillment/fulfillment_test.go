package fulfillment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPackage(t *testing.T) {
	orderID := uuid.New()
	line := PackageLine{OrderProductID: uuid.New(), SKU: "BOOK-1", Qty: 2}

	p, err := NewPackage(orderID, "", []PackageLine{line})
	require.NoError(t, err)
	assert.Equal(t, DefaultShippingType, p.ShippingType)
	assert.False(t, p.IsShipped())
	assert.Equal(t, []string{"2 x BOOK-1"}, p.Describe())

	_, err = NewPackage(orderID, "", nil)
	assert.Error(t, err)
	_, err = NewPackage(uuid.Nil, "", []PackageLine{line})
	assert.Error(t, err)
	_, err = NewPackage(orderID, "", []PackageLine{{OrderProductID: uuid.New(), SKU: "X", Qty: 0}})
	assert.Error(t, err)
}

func TestUnpackagedQuantities(t *testing.T) {
	a := ShippableProduct{OrderProductID: uuid.New(), SKU: "A", Qty: 3}
	b := ShippableProduct{OrderProductID: uuid.New(), SKU: "B", Qty: 1}

	pkg, err := NewPackage(uuid.New(), "", []PackageLine{
		{OrderProductID: a.OrderProductID, SKU: "A", Qty: 2},
		{OrderProductID: b.OrderProductID, SKU: "B", Qty: 1},
	})
	require.NoError(t, err)

	remaining := UnpackagedQuantities([]ShippableProduct{a, b}, []Package{*pkg})
	require.Len(t, remaining, 1)
	assert.Equal(t, "A", remaining[0].SKU)
	assert.Equal(t, 1, remaining[0].Qty)

	assert.NoError(t, ValidatePackaging(remaining, []PackageLine{{OrderProductID: a.OrderProductID, SKU: "A", Qty: 1}}))
	assert.Error(t, ValidatePackaging(remaining, []PackageLine{{OrderProductID: a.OrderProductID, SKU: "A", Qty: 2}}))
	assert.Error(t, ValidatePackaging(remaining, []PackageLine{{OrderProductID: b.OrderProductID, SKU: "B", Qty: 1}}))
}

func TestNewShipment(t *testing.T) {
	orderID := uuid.New()
	p1, err := NewPackage(orderID, "", []PackageLine{{OrderProductID: uuid.New(), SKU: "A", Qty: 1}})
	require.NoError(t, err)
	p2, err := NewPackage(orderID, "", []PackageLine{{OrderProductID: uuid.New(), SKU: "B", Qty: 1}})
	require.NoError(t, err)

	s, err := NewShipment(orderID, []*Package{p1, p2}, ShipmentDetails{Carrier: "UPS", TrackingNumber: "1234567890ABCD"})
	require.NoError(t, err)
	assert.Equal(t, DefaultShippingMethod, s.Method)
	assert.False(t, s.ShipDate.IsZero())
	assert.Len(t, s.PackageIDs, 2)
	require.True(t, p1.IsShipped())
	assert.Equal(t, s.ID, *p1.ShipmentID)
	assert.Equal(t, "1234567890ABCD", p2.TrackingNumber)

	events := s.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeShipmentSaved, events[0].EventType())

	_, err = NewShipment(orderID, []*Package{p1}, ShipmentDetails{})
	assert.Error(t, err, "already shipped")

	other, err := NewPackage(uuid.New(), "", []PackageLine{{OrderProductID: uuid.New(), SKU: "C", Qty: 1}})
	require.NoError(t, err)
	_, err = NewShipment(orderID, []*Package{other}, ShipmentDetails{})
	assert.Error(t, err, "other order")

	_, err = NewShipment(orderID, nil, ShipmentDetails{})
	assert.Error(t, err)

	p3, err := NewPackage(orderID, "", []PackageLine{{OrderProductID: uuid.New(), SKU: "D", Qty: 1}})
	require.NoError(t, err)
	copied := *p3
	_, err = NewShipment(orderID, []*Package{p3, &copied}, ShipmentDetails{})
	require.Error(t, err, "duplicate package")
	assert.False(t, p3.IsShipped())

	assert.Error(t, p1.Update("", p1.Lines, p1.Weight, p1.Dimensions, p1.Value, ""))

	ReleasePackages([]*Package{p1, p2})
	assert.False(t, p1.IsShipped())
	require.NoError(t, p1.Update("", p1.Lines, p1.Weight, p1.Dimensions, p1.Value, " T1 "))
	assert.Equal(t, "T1", p1.TrackingNumber)
}

func TestShipment_Update(t *testing.T) {
	orderID := uuid.New()
	p, err := NewPackage(orderID, "", []PackageLine{{OrderProductID: uuid.New(), SKU: "A", Qty: 1}})
	require.NoError(t, err)
	s, err := NewShipment(orderID, []*Package{p}, ShipmentDetails{Method: "ups"})
	require.NoError(t, err)
	s.ClearDomainEvents()

	s.Update(ShipmentDetails{TrackingNumber: "Z9"})
	assert.Equal(t, "ups", s.Method)
	assert.Equal(t, "Z9", s.TrackingNumber)
	assert.Len(t, s.GetDomainEvents(), 1)
}

func TestTrackingNumbers(t *testing.T) {
	shipmentID := uuid.New()
	shipments := []Shipment{{TrackingNumber: "B2"}, {TrackingNumber: ""}, {TrackingNumber: "A1"}}
	packages := []Package{
		{TrackingNumber: "C3", ShipmentID: &shipmentID},
		{TrackingNumber: "UNSHIPPED"},
		{TrackingNumber: "A1", ShipmentID: &shipmentID},
	}
	assert.Equal(t, []string{"A1", "B2", "C3"}, TrackingNumbers(shipments, packages))
}
