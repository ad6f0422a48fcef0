package telemetry

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/quotebook/internal/platform/telemetry"

// HeaderTraceID carries the trace ID of the request's span back to the client.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests that hit no route, keeping raw paths out of
// metric attributes.
const unmatchedRoute = "unmatched"

type serverMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newServerMetrics(meter metric.Meter) (*serverMetrics, error) {
	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of inbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Inbound HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Inbound HTTP requests in flight"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{duration: duration, total: total, active: active}, nil
}

// Middleware records request metrics on the global meter and sets
// X-Trace-ID when a span is active. Install it after TracingMiddleware.
func Middleware() gin.HandlerFunc {
	m, err := newServerMetrics(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		if m == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		base := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		}

		start := time.Now()
		m.active.Add(ctx, 1, metric.WithAttributes(base...))
		defer m.active.Add(ctx, -1, metric.WithAttributes(base...))

		c.Next()

		done := metric.WithAttributes(append(base, attribute.Int("http.status_code", c.Writer.Status()))...)
		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.total.Add(ctx, 1, done)
	}
}

// TracingMiddleware returns otelgin middleware that skips the given paths.
// The view stream is skipped so a long-lived connection holds no span.
func TracingMiddleware(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			_, skipped := skip[r.URL.Path]
			return !skipped
		}),
	)
}
