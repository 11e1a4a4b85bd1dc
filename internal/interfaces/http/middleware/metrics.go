package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// unmatchedRoute labels requests no route matched, keeping raw paths out
// of metric attributes.
const unmatchedRoute = "unmatched"

var responseSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 5000000}

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	size     *telemetry.Histogram
	inflight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, errReq := telemetry.NewCounter(meter,
		"http_server_request_total", "Store API requests served", "{request}")
	latency, errLat := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "Store API request latency in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	size, errSize := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "Store API response body size in bytes",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	})
	inflight, errInflight := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Store API requests in progress"),
		metric.WithUnit("{request}"))
	if err := errors.Join(errReq, errLat, errSize, errInflight); err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, latency: latency, size: size, inflight: inflight}, nil
}

// HTTPMetrics counts requests and records latency and response size per
// route pattern on meter. A nil meter makes it a pass-through.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	passThrough := func(c *gin.Context) { c.Next() }
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return m.handle
}

func (m *httpMetrics) handle(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()
	m.inflight.Add(ctx, 1)
	defer m.inflight.Add(ctx, -1)

	c.Next()

	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}
	m.latency.RecordDuration(ctx, time.Since(start), attrs...)
	if n := c.Writer.Size(); n > 0 {
		m.size.Record(ctx, float64(n), attrs...)
	}
	m.requests.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
}
