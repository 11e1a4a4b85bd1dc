package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/stock"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type stubOrderCounter struct {
	count int64
	err   error
}

func (s stubOrderCounter) CountByStatus(ctx context.Context, statusID string) (int64, error) {
	return s.count, s.err
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				return total
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value
				}
			}
		}
	}
	return -1
}

func TestNewStoreMetrics_NilMeter(t *testing.T) {
	sm, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, sm)
	assert.Equal(t, "NewStoreMetrics: meter cannot be nil", err.Error())
}

func TestStoreMetrics_NoopMeter(t *testing.T) {
	sm, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{
		Meter:  noop.NewMeterProvider().Meter("test"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordCheckoutCompleted(ctx, "USD", decimal.RequireFromString("12.34"))
	sm.RecordPayment(ctx, "check", telemetry.PaymentStatusSuccess)
	sm.RecordStockThreshold(ctx, "SKU-1")
}

func TestStoreMetrics_RecordCheckoutCompleted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sm, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordCheckoutCompleted(ctx, "USD", decimal.RequireFromString("12.34"))
	sm.RecordCheckoutCompleted(ctx, "USD", decimal.RequireFromString("0.66"))

	assert.Equal(t, int64(2), collectSum(t, reader, "store_checkout_completed_total"))
	assert.Equal(t, int64(1300), collectSum(t, reader, "store_order_revenue_total"))
}

func TestStoreMetrics_PeriodicCollection(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sm, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{
		Meter:         provider.Meter("test"),
		OrderProvider: stubOrderCounter{count: 7},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sm.StartPeriodicCollection(ctx, "in_checkout", time.Hour)
	defer sm.Stop()

	assert.Eventually(t, func() bool {
		return collectSum(t, reader, "store_orders_in_checkout") == 7
	}, time.Second, 10*time.Millisecond)
}

func TestStoreMetrics_CollectionErrorIsLogged(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sm, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{
		Meter:         provider.Meter("test"),
		OrderProvider: stubOrderCounter{err: errors.New("db down")},
	})
	require.NoError(t, err)

	sm.StartPeriodicCollection(context.Background(), "in_checkout", time.Hour)
	sm.Stop()
	sm.Stop()
}

func TestStoreMetrics_HandleEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sm, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{order.EventTypeCheckoutCompleted, payment.EventTypePaymentEntered, stock.EventTypeStockThresholdReached},
		sm.EventTypes())

	ctx := context.Background()
	require.NoError(t, sm.Handle(ctx, &order.CheckoutCompletedEvent{Currency: "USD", Total: decimal.RequireFromString("5.00")}))
	require.NoError(t, sm.Handle(ctx, &payment.PaymentEnteredEvent{MethodID: "check"}))
	require.NoError(t, sm.Handle(ctx, &payment.PaymentEnteredEvent{MethodID: "paypal_wps"}))
	require.NoError(t, sm.Handle(ctx, &stock.StockThresholdReachedEvent{SKU: "MUG-1"}))
	require.NoError(t, sm.Handle(ctx, &order.OrderDeletedEvent{}))

	assert.Equal(t, int64(1), collectSum(t, reader, "store_checkout_completed_total"))
	assert.Equal(t, int64(500), collectSum(t, reader, "store_order_revenue_total"))
	assert.Equal(t, int64(2), collectSum(t, reader, "store_payment_total"))
	assert.Equal(t, int64(1), collectSum(t, reader, "store_stock_threshold_reached_total"))
}
