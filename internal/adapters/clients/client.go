// Package clients is the outbound HTTP layer: one instrumented client per
// downstream with retries, a circuit breaker, tracing, and request ID
// propagation. Callers translate its errors through the acl package.
package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotebook/internal/adapters/clients"

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

var (
	// ErrCircuitOpen is returned without contacting the downstream while its
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt of a
	// retrying client is spent. A single-attempt client returns the failure
	// as is.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// Config configures a Client.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// ServiceName names the downstream in logs, spans, and metrics. Required.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	// Zero means no limit; only ctx ends the attempt.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// ReturnServerErrors hands back the 5xx response of the final attempt so
	// its error body can be decoded. It still counts as a breaker failure.
	ReturnServerErrors bool

	Logger *slog.Logger
}

// Client is an instrumented HTTP client for a single downstream.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	retry   config.RetryConfig
	keep5xx bool
	breaker *Breaker
	logger  *slog.Logger

	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New creates a client for cfg.ServiceName.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	timeout := max(cfg.Timeout, 0)

	retry := cfg.Retry
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("downstream", cfg.ServiceName))

	c := &Client{
		name:    cfg.ServiceName,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: newTransport(cfg.Transport)},
		retry:   retry,
		keep5xx: cfg.ReturnServerErrors,
		breaker: NewBreaker(cfg.Circuit, logger),
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
	}

	if err := c.instrument(otel.Meter(instrumentationName)); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) instrument(meter metric.Meter) error {
	var err error

	c.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of outbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration metric: %w", err)
	}

	c.requests, err = meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Outbound HTTP requests by result"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	peer := metric.WithAttributes(attribute.String("peer.service", c.name))

	_, err = meter.Int64ObservableGauge("http.client.circuit.state",
		metric.WithDescription("Circuit breaker state: 0 closed, 1 open, 2 half-open"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(c.breaker.State()), peer)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("creating circuit gauge: %w", err)
	}

	return nil
}

// Do sends req through the breaker with retries. A nil error means a
// response below 500, or any response on the final attempt when
// ReturnServerErrors is set.
//
// Requests with a body are only replayed when req.GetBody is set, which
// http.NewRequest does for in-memory readers.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if err := c.breaker.Allow(); err != nil {
		c.observe(ctx, req.Method, 0, start, "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	propagateIDs(ctx, req.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.send(ctx, req, logger)
	if err != nil {
		c.breaker.Record(false)
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, req.Method, 0, start, "error")
		logger.ErrorContext(ctx, "request failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)

		if ctx.Err() != nil || c.retry.MaxAttempts == 1 {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	c.breaker.Record(resp.StatusCode < http.StatusInternalServerError)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	c.observe(ctx, req.Method, resp.StatusCode, start, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.DebugContext(ctx, "request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// send runs the attempt loop.
func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding body: %w", err)
			}

			req.Body = body
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		final := attempt >= c.retry.MaxAttempts

		switch {
		case err != nil:
			if final || !retryable(err) {
				return nil, err
			}

		case resp.StatusCode < http.StatusInternalServerError, final && c.keep5xx:
			return resp, nil

		default:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			err = fmt.Errorf("server error: %d", resp.StatusCode)
			if final {
				return nil, err
			}
		}

		wait := backoff(c.retry, attempt)
		logger.DebugContext(ctx, "retrying request",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.Any("error", err),
		)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// Get sends a GET for path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

// Post sends a JSON POST for path.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

// Delete sends a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// CircuitState returns the breaker position.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

func (c *Client) observe(ctx context.Context, method string, status int, start time.Time, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.name),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, time.Since(start).Seconds(), set)
	c.requests.Add(ctx, 1, set)
}

// propagateIDs copies the inbound request and correlation IDs onto an
// outbound request.
func propagateIDs(ctx context.Context, h http.Header) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		h.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		h.Set(middleware.HeaderCorrelationID, id)
	}
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}

	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}

	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}

	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}
