package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testWidget struct {
	ID   uint   `gorm:"primaryKey"`
	SKU  string `gorm:"size:64"`
	Name string `gorm:"size:100"`
}

func openTracedDB(t *testing.T, cfg telemetry.DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&testWidget{}))

	require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zaptest.NewLogger(t)).RegisterOtelGorm(db))
	return db
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDBTracingDisabled(t *testing.T) {
	sr := recordSpans(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: false})

	require.NoError(t, db.Create(&testWidget{SKU: "TEE"}).Error)
	assert.Empty(t, sr.Ended())
}

func TestDBTracingTagsTable(t *testing.T) {
	sr := recordSpans(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: true, DBSystem: "sqlite"})

	require.NoError(t, db.Create(&testWidget{SKU: "TEE", Name: "T-shirt"}).Error)
	var found []testWidget
	require.NoError(t, db.Where("sku = ?", "TEE").Find(&found).Error)
	require.Len(t, found, 1)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	for _, span := range spans {
		table, ok := spanAttr(span, "db.sql.table")
		require.True(t, ok, span.Name())
		assert.Equal(t, "test_widgets", table.AsString())

		rows, ok := spanAttr(span, "db.rows_affected")
		require.True(t, ok)
		assert.Equal(t, int64(1), rows.AsInt64())

		_, slow := spanAttr(span, "db.slow_query")
		assert.False(t, slow)
	}
}

func TestDBTracingMarksErrors(t *testing.T) {
	sr := recordSpans(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: true})

	var rows []map[string]any
	assert.Error(t, db.Table("missing_table").Find(&rows).Error)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestDBTracingRecordNotFoundIsNotAnError(t *testing.T) {
	sr := recordSpans(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: true})

	var w testWidget
	assert.ErrorIs(t, db.First(&w, 42).Error, gorm.ErrRecordNotFound)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestDBTracingFlagsSlowQueries(t *testing.T) {
	sr := recordSpans(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond})

	require.NoError(t, db.Create(&testWidget{SKU: "MUG"}).Error)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	slow, ok := spanAttr(spans[0], "db.slow_query")
	require.True(t, ok)
	assert.True(t, slow.AsBool())

	var names []string
	for _, e := range spans[0].Events() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "slow_query")
}

func TestDBTracingRecordsDurations(t *testing.T) {
	recordSpans(t)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: true, Meter: provider.Meter("db")})
	require.NoError(t, db.Create(&testWidget{SKU: "CAP"}).Error)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "db_query_duration_seconds", m.Name)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	op, _ := hist.DataPoints[0].Attributes.Value(telemetry.AttrDBOperation)
	assert.Equal(t, "create", op.AsString())
}
