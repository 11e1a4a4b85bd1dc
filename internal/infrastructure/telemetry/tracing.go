package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of spans started by the store
const ScopeName = "github.com/storefront/backend"

// Span attribute keys of store operations
const (
	SpanOrderID     = attribute.Key("store.order.id")
	SpanOrderNumber = attribute.Key("store.order.number")
	SpanSKU         = attribute.Key("store.stock.sku")
	SpanQuantity    = attribute.Key("store.stock.quantity")
	SpanTxnType     = attribute.Key("store.payment.txn_type")
	SpanGateway     = attribute.Key("store.payment.gateway")
	SpanHTTPMethod  = attribute.Key("http.request.method")
	SpanHTTPStatus  = attribute.Key("http.response.status_code")
)

// StartSpan starts an internal span named after the operation, e.g.
// "checkout.complete". The caller must end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(ScopeName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
}

// StartClientSpan starts a span around a call to a remote service
func StartClientSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(ScopeName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

// EndSpan marks the span failed when err is non-nil, then ends it.
//
//	ctx, span := telemetry.StartSpan(ctx, "stock.decrement")
//	defer func() { telemetry.EndSpan(span, err) }()
func EndSpan(span trace.Span, err error) {
	RecordError(span, err)
	span.End()
}

// RecordError attaches err to the span and sets its status
func RecordError(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a timestamped event to the span in ctx
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// TraceID returns the hex trace ID in ctx, or "" without a valid span
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the hex span ID in ctx, or "" without a valid span
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
