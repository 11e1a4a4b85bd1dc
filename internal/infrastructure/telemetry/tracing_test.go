package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs an in-memory tracer provider for the test
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpan(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "checkout.complete",
		telemetry.SpanOrderNumber.String("ORD-2026-00042"))
	telemetry.EndSpan(span, nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "checkout.complete", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, telemetry.ScopeName, spans[0].InstrumentationScope().Name)
	assert.Contains(t, spans[0].Attributes(), telemetry.SpanOrderNumber.String("ORD-2026-00042"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestStartClientSpan(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartClientSpan(context.Background(), "paypal POST /payments/payment",
		telemetry.SpanHTTPMethod.String("POST"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
}

func TestEndSpanWithError(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "stock.decrement")
	telemetry.EndSpan(span, errors.New("row locked"))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "row locked", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecordErrorWithoutRecordingSpan(t *testing.T) {
	span := trace.SpanFromContext(context.Background())
	assert.NotPanics(t, func() {
		telemetry.RecordError(span, errors.New("ignored"))
		telemetry.EndSpan(span, nil)
	})
}

func TestAddEvent(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := telemetry.StartSpan(context.Background(), "terminal.process")
	telemetry.AddEvent(ctx, "receipt_logged", telemetry.SpanTxnType.String("auth_capture"))
	span.End()

	// no span in context
	telemetry.AddEvent(context.Background(), "dropped")

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "receipt_logged", spans[0].Events()[0].Name)
}

func TestTraceAndSpanIDs(t *testing.T) {
	recordSpans(t)

	assert.Empty(t, telemetry.TraceID(context.Background()))
	assert.Empty(t, telemetry.SpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "outer")
	defer span.End()
	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.TraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), telemetry.SpanID(ctx))

	child, childSpan := telemetry.StartSpan(ctx, "inner")
	defer childSpan.End()
	assert.Equal(t, telemetry.TraceID(ctx), telemetry.TraceID(child))
	assert.NotEqual(t, telemetry.SpanID(ctx), telemetry.SpanID(child))
}
