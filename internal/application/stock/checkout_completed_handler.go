package stock

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CheckoutCompletedHandler decrements stock for every product of a
// completed checkout
type CheckoutCompletedHandler struct {
	service *StockService
	logger  *zap.Logger
}

// NewCheckoutCompletedHandler creates a new CheckoutCompletedHandler
func NewCheckoutCompletedHandler(service *StockService, logger *zap.Logger) *CheckoutCompletedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutCompletedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *CheckoutCompletedHandler) EventTypes() []string {
	return []string{order.EventTypeCheckoutCompleted}
}

// Handle processes a CheckoutCompletedEvent. A failing SKU does not stop
// the remaining products from being decremented.
func (h *CheckoutCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*order.CheckoutCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeCheckoutCompleted, event.EventType())
	}

	var firstErr error
	decremented := 0
	for _, p := range e.Products {
		l, err := h.service.Decrement(ctx, p.SKU, p.Qty, p.Title)
		if err != nil {
			h.logger.Error("failed to decrement stock",
				zap.String("order_id", e.OrderID.String()),
				zap.String("sku", p.SKU),
				zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("decrement stock of %s: %w", p.SKU, err)
			}
			continue
		}
		if l != nil {
			decremented++
		}
	}

	h.logger.Debug("stock decremented for checkout",
		zap.String("order_number", e.OrderNumber),
		zap.Int("products", len(e.Products)),
		zap.Int("tracked", decremented))
	return firstErr
}

var _ shared.EventHandler = (*CheckoutCompletedHandler)(nil)
