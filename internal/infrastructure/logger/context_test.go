package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextWithoutLogger(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-7")
	ctx = WithUserID(ctx, "user-1")

	assert.Equal(t, "req-7", RequestID(ctx))
	assert.Equal(t, "user-1", UserID(ctx))

	FromContext(ctx).Info("order saved")
	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestContextIDsWithoutLogger(t *testing.T) {
	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "user-2")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "user-2", UserID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestFromContextAddsTraceIDs(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := trace.ContextWithSpanContext(WithContext(context.Background(), zap.New(core)), sc)

	FromContext(ctx).Info("checkout completed")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}
