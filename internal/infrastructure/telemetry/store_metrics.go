package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StoreMetrics records checkout, payment and stock activity.
type StoreMetrics struct {
	logger *zap.Logger

	checkoutCompletedTotal *Counter
	orderRevenueTotal      *Counter
	paymentTotal           *Counter
	stockThresholdTotal    *Counter
	ordersInCheckout       *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	orderProvider OrderCountProvider
}

// OrderCountProvider reports how many orders are in a status.
type OrderCountProvider interface {
	CountByStatus(ctx context.Context, statusID string) (int64, error)
}

// StoreMetricsConfig holds configuration for store metrics.
type StoreMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	OrderProvider OrderCountProvider
}

// NewStoreMetrics creates the store instruments on the given meter.
func NewStoreMetrics(cfg StoreMetricsConfig) (*StoreMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &StoreMetrics{
		logger:        logger,
		stopChan:      make(chan struct{}),
		orderProvider: cfg.OrderProvider,
	}

	var err error
	if sm.checkoutCompletedTotal, err = NewCounter(cfg.Meter,
		"store_checkout_completed_total", "Total number of completed checkouts", "{orders}"); err != nil {
		return nil, err
	}
	if sm.orderRevenueTotal, err = NewCounter(cfg.Meter,
		"store_order_revenue_total", "Revenue of completed checkouts in cents", "{cents}"); err != nil {
		return nil, err
	}
	if sm.paymentTotal, err = NewCounter(cfg.Meter,
		"store_payment_total", "Total number of payment attempts", "{payments}"); err != nil {
		return nil, err
	}
	if sm.stockThresholdTotal, err = NewCounter(cfg.Meter,
		"store_stock_threshold_reached_total", "Times a SKU dropped to its stock threshold", "{events}"); err != nil {
		return nil, err
	}
	if sm.ordersInCheckout, err = NewGauge(cfg.Meter,
		"store_orders_in_checkout", "Orders currently in checkout", "{orders}"); err != nil {
		return nil, err
	}
	return sm, nil
}

// RecordCheckoutCompleted counts a completed checkout and its total.
func (sm *StoreMetrics) RecordCheckoutCompleted(ctx context.Context, currency string, total decimal.Decimal) {
	sm.checkoutCompletedTotal.Inc(ctx, AttrCurrency.String(currency))
	sm.orderRevenueTotal.Add(ctx, total.Shift(2).IntPart(), AttrCurrency.String(currency))
}

// PaymentStatus labels the outcome of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordPayment counts a payment attempt.
func (sm *StoreMetrics) RecordPayment(ctx context.Context, methodID string, status PaymentStatus) {
	sm.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(methodID),
		AttrPaymentStatus.String(string(status)),
	)
}

// RecordStockThreshold counts a threshold notification for a SKU.
func (sm *StoreMetrics) RecordStockThreshold(ctx context.Context, sku string) {
	sm.stockThresholdTotal.Inc(ctx, AttrSKU.String(sku))
}

// EventTypes subscribes the metrics to the events they count.
func (sm *StoreMetrics) EventTypes() []string {
	return []string{
		order.EventTypeCheckoutCompleted,
		payment.EventTypePaymentEntered,
		stock.EventTypeStockThresholdReached,
	}
}

// Handle records the event on the matching instrument.
func (sm *StoreMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.CheckoutCompletedEvent:
		sm.RecordCheckoutCompleted(ctx, e.Currency, e.Total)
	case *payment.PaymentEnteredEvent:
		sm.RecordPayment(ctx, e.MethodID, PaymentStatusSuccess)
	case *stock.StockThresholdReachedEvent:
		sm.RecordStockThreshold(ctx, e.SKU)
	}
	return nil
}

// StartPeriodicCollection samples the in-checkout order gauge every
// interval (default 5 minutes) until Stop or ctx cancellation.
func (sm *StoreMetrics) StartPeriodicCollection(ctx context.Context, statusID string, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go sm.runPeriodicCollection(ctx, statusID, interval)
	})
}

func (sm *StoreMetrics) runPeriodicCollection(ctx context.Context, statusID string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.collect(ctx, statusID)
	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic store metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.collect(ctx, statusID)
		}
	}
}

func (sm *StoreMetrics) collect(ctx context.Context, statusID string) {
	if sm.orderProvider == nil {
		return
	}
	count, err := sm.orderProvider.CountByStatus(ctx, statusID)
	if err != nil {
		sm.logger.Warn("Failed to count orders for metrics", zap.String("status_id", statusID), zap.Error(err))
		return
	}
	sm.ordersInCheckout.Record(ctx, count, AttrOrderStatus.String(statusID))
}

// Stop stops the periodic collection.
func (sm *StoreMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewStoreMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
