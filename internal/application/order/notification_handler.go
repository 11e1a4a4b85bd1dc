package order

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderNotification is a customer notification about an order update
type OrderNotification struct {
	To          string `json:"to"`
	From        string `json:"from"`
	Subject     string `json:"subject"`
	OrderNumber string `json:"order_number"`
	StatusID    string `json:"status_id"`
	Message     string `json:"message"`
}

// OrderNotifier delivers order notifications
type OrderNotifier interface {
	Notify(ctx context.Context, n OrderNotification) error
}

// OrderNotificationHandler turns OrderStatusEmailRequested events into customer notifications
type OrderNotificationHandler struct {
	notifier  OrderNotifier
	storeName string
	from      string
	logger    *zap.Logger
}

// NewOrderNotificationHandler creates a new OrderNotificationHandler
func NewOrderNotificationHandler(notifier OrderNotifier, storeName, from string, logger *zap.Logger) *OrderNotificationHandler {
	return &OrderNotificationHandler{notifier: notifier, storeName: storeName, from: from, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderNotificationHandler) EventTypes() []string {
	return []string{order.EventTypeOrderStatusEmailRequested}
}

// Handle processes an OrderStatusEmailRequestedEvent
func (h *OrderNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*order.OrderStatusEmailRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderStatusEmailRequested, event.EventType())
	}
	if e.PrimaryEmail == "" {
		h.logger.Warn("order has no e-mail address, notification skipped",
			zap.String("order_id", e.OrderID.String()))
		return nil
	}

	n := OrderNotification{
		To:          e.PrimaryEmail,
		From:        h.from,
		Subject:     fmt.Sprintf("Order #%s Update", e.OrderNumber),
		OrderNumber: e.OrderNumber,
		StatusID:    e.StatusID,
		Message:     e.Message,
	}
	if h.storeName != "" {
		n.Subject = fmt.Sprintf("%s: Order #%s Update", h.storeName, e.OrderNumber)
	}
	if err := h.notifier.Notify(ctx, n); err != nil {
		// a failed notification never rolls back the status change
		h.logger.Error("failed to send order notification",
			zap.String("order_id", e.OrderID.String()),
			zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*OrderNotificationHandler)(nil)

// LoggingOrderNotifier logs notifications instead of sending them
type LoggingOrderNotifier struct {
	logger *zap.Logger
}

// NewLoggingOrderNotifier creates a new logging notifier
func NewLoggingOrderNotifier(logger *zap.Logger) *LoggingOrderNotifier {
	return &LoggingOrderNotifier{logger: logger}
}

// Notify logs the notification
func (n *LoggingOrderNotifier) Notify(_ context.Context, msg OrderNotification) error {
	n.logger.Info("order notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("status_id", msg.StatusID),
		zap.String("message", msg.Message),
	)
	return nil
}

var _ OrderNotifier = (*LoggingOrderNotifier)(nil)
