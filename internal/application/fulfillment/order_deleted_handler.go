package fulfillment

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderDeletedHandler removes the packages and shipments of deleted orders
type OrderDeletedHandler struct {
	service *FulfillmentService
	logger  *zap.Logger
}

// NewOrderDeletedHandler creates a new OrderDeletedHandler
func NewOrderDeletedHandler(service *FulfillmentService, logger *zap.Logger) *OrderDeletedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderDeletedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderDeletedHandler) EventTypes() []string {
	return []string{order.EventTypeOrderDeleted}
}

// Handle processes an OrderDeletedEvent
func (h *OrderDeletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*order.OrderDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderDeleted, event.EventType())
	}
	if err := h.service.DeleteForOrder(ctx, e.OrderID); err != nil {
		return fmt.Errorf("delete fulfillment of order %s: %w", e.OrderID, err)
	}
	h.logger.Info("fulfillment removed for deleted order",
		zap.String("order_id", e.OrderID.String()),
		zap.String("order_number", e.OrderNumber))
	return nil
}

var _ shared.EventHandler = (*OrderDeletedHandler)(nil)
