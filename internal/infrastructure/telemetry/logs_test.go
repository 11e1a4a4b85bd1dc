package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryLogExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryLogExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestNewLoggerProviderDisabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false, ServiceName: "storefront"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestLoggerProviderBridge(t *testing.T) {
	ctx := context.Background()
	exporter := &memoryLogExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))),
		name:     "storefront",
		logger:   zap.NewNop(),
	}
	t.Cleanup(func() { _ = lp.Shutdown(ctx) })

	local, logs := observer.New(zapcore.DebugLevel)
	log := lp.Bridge(zap.New(local), zapcore.InfoLevel)

	log.Debug("cart loaded")
	log.Info("checkout completed", zap.String("order_id", "1001"))
	log.With(zap.String("gateway", "test")).Warn("charge declined")
	require.NoError(t, lp.ForceFlush(ctx))

	assert.Equal(t, 3, logs.Len(), "local core keeps every entry")
	assert.Equal(t, []string{"checkout completed", "charge declined"}, exporter.bodies())
}
