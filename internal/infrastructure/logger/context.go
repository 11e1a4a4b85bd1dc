package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	userIDKey
)

// WithContext stores log in ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the request logger in ctx, tagged with the active
// trace and span IDs. Without one it returns a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	log, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		log = log.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return log
}

// WithRequestID records the request ID in ctx and on its logger
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		ctx = WithContext(ctx, log.With(zap.String("request_id", requestID)))
	}
	return ctx
}

// WithUserID records the authenticated user in ctx and on its logger
func WithUserID(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		ctx = WithContext(ctx, log.With(zap.String("user_id", userID)))
	}
	return ctx
}

// RequestID returns the request ID in ctx, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserID returns the authenticated user in ctx, or ""
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
