package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutCompleted() *order.CheckoutCompletedEvent {
	orderID := uuid.New()
	return &order.CheckoutCompletedEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:        uuid.New(),
			Type:      order.EventTypeCheckoutCompleted,
			Timestamp: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
			AggID:     orderID,
			AggType:   order.AggregateTypeOrder,
		},
		OrderID:     orderID,
		OrderNumber: "1042",
		OwnerID:     uuid.New(),
		Total:       decimal.RequireFromString("59.90"),
		Currency:    "USD",
		Products: []order.CheckoutProductInfo{
			{OrderProductID: uuid.New(), ProductID: uuid.New(), SKU: "MUG-RED", Title: "Mug", Qty: 2},
		},
	}
}

func TestRegisterStoreEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterStoreEvents(serializer)

	for _, eventType := range []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderDeleted,
		order.EventTypeCheckoutCompleted,
		payment.EventTypePaymentEntered,
		payment.EventTypePaymentDeleted,
		stock.EventTypeStockThresholdReached,
		catalog.EventTypeProductUpdated,
	} {
		assert.True(t, serializer.IsRegistered(eventType), eventType)
	}
	assert.False(t, serializer.IsRegistered("SalesOrderCreated"))
	types := serializer.RegisteredTypes()
	assert.Len(t, types, 14)
	assert.IsNonDecreasing(t, types)
}

func TestEventSerializer_Serialize(t *testing.T) {
	serializer := NewEventSerializer()

	data, err := serializer.Serialize(newCheckoutCompleted())

	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_number":"1042"`)
	assert.Contains(t, string(data), `"total":"59.9"`)
	assert.Contains(t, string(data), `"sku":"MUG-RED"`)
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterStoreEvents(serializer)

	original := newCheckoutCompleted()
	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(order.EventTypeCheckoutCompleted, data)
	require.NoError(t, err)

	event, ok := decoded.(*order.CheckoutCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.AggregateID(), event.AggregateID())
	assert.Equal(t, order.AggregateTypeOrder, event.AggregateType())
	assert.True(t, original.OccurredAt().Equal(event.OccurredAt()))
	assert.True(t, original.Total.Equal(event.Total))
	assert.Equal(t, original.Products, event.Products)
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterStoreEvents(serializer)

	_, err := serializer.Deserialize("UnknownEvent", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event type "UnknownEvent"`)

	_, err = serializer.Deserialize(order.EventTypeCheckoutCompleted, []byte(`invalid json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode CheckoutCompleted payload")
}
