package stock

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// StockAlert is a threshold notification ready for delivery
type StockAlert struct {
	SKU          string `json:"sku"`
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title"`
	Stock        int    `json:"stock"`
	Threshold    int    `json:"threshold"`
	AlertType    string `json:"alert_type"` // "low_stock", "out_of_stock"
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

// StockAlertNotifier delivers stock alerts (mail, chat, ...)
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// ThresholdHandler turns StockThresholdReached events into alerts
type ThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewThresholdHandler creates a new handler for stock threshold events
func NewThresholdHandler(logger *zap.Logger) *ThresholdHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThresholdHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *ThresholdHandler) WithNotifier(notifier StockAlertNotifier) *ThresholdHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *ThresholdHandler) EventTypes() []string {
	return []string{stock.EventTypeStockThresholdReached}
}

// Handle processes a StockThresholdReachedEvent
func (h *ThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*stock.StockThresholdReachedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", stock.EventTypeStockThresholdReached),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			stock.EventTypeStockThresholdReached, event.EventType())
	}

	alertType := "low_stock"
	if e.Stock <= 0 {
		alertType = "out_of_stock"
	}
	alert := StockAlert{
		SKU:          e.SKU,
		ProductID:    e.ProductID.String(),
		ProductTitle: e.ProductTitle,
		Stock:        e.Stock,
		Threshold:    e.Threshold,
		AlertType:    alertType,
		Subject:      e.Subject,
		Body:         e.Body,
	}

	if h.notifier == nil {
		h.logger.Warn("no stock alert notifier configured",
			zap.String("sku", e.SKU),
			zap.String("alert_type", alertType))
		return nil
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		h.logger.Error("failed to send stock alert",
			zap.String("sku", e.SKU),
			zap.Error(err))
		return fmt.Errorf("send stock alert: %w", err)
	}
	return nil
}

// LoggingStockAlertNotifier writes alerts to the log
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new LoggingStockAlertNotifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn(alert.Subject,
		zap.String("sku", alert.SKU),
		zap.String("product_title", alert.ProductTitle),
		zap.Int("stock", alert.Stock),
		zap.Int("threshold", alert.Threshold),
		zap.String("alert_type", alert.AlertType),
		zap.String("body", alert.Body))
	return nil
}

var (
	_ shared.EventHandler = (*ThresholdHandler)(nil)
	_ StockAlertNotifier  = (*LoggingStockAlertNotifier)(nil)
)
