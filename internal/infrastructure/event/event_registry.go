package event

import (
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/stock"
)

// RegisterStoreEvents makes every store event decodable from the outbox
func RegisterStoreEvents(serializer *EventSerializer) {
	registerEvent[order.OrderCreatedEvent](serializer, order.EventTypeOrderCreated)
	registerEvent[order.OrderStatusUpdatedEvent](serializer, order.EventTypeOrderStatusUpdated)
	registerEvent[order.OrderCommentAddedEvent](serializer, order.EventTypeOrderCommentAdded)
	registerEvent[order.OrderStatusEmailRequestedEvent](serializer, order.EventTypeOrderStatusEmailRequested)
	registerEvent[order.OrderDeletedEvent](serializer, order.EventTypeOrderDeleted)
	registerEvent[order.CheckoutStartedEvent](serializer, order.EventTypeCheckoutStarted)
	registerEvent[order.CheckoutCompletedEvent](serializer, order.EventTypeCheckoutCompleted)

	registerEvent[payment.PaymentEnteredEvent](serializer, payment.EventTypePaymentEntered)
	registerEvent[payment.PaymentDeletedEvent](serializer, payment.EventTypePaymentDeleted)

	registerEvent[fulfillment.ShipmentSavedEvent](serializer, fulfillment.EventTypeShipmentSaved)

	registerEvent[stock.StockThresholdReachedEvent](serializer, stock.EventTypeStockThresholdReached)

	registerEvent[catalog.ProductCreatedEvent](serializer, catalog.EventTypeProductCreated)
	registerEvent[catalog.ProductUpdatedEvent](serializer, catalog.EventTypeProductUpdated)
	registerEvent[catalog.ProductDeletedEvent](serializer, catalog.EventTypeProductDeleted)
}
