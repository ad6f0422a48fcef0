// Package middleware provides the gin middleware chain for the quotebook API.
package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID identifies a chain of requests, such as a
	// quotectl command that issues several API calls.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin and log key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin and log key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"

	// maxIDLength caps caller-supplied IDs. Longer values are replaced.
	maxIDLength = 128
)

type idKey string

// idHeader is one identifier carried in a header, the gin context, the
// request context and the context logger.
type idHeader struct {
	header string
	key    string
}

var (
	requestIDHeader     = idHeader{header: HeaderRequestID, key: ContextKeyRequestID}
	correlationIDHeader = idHeader{header: HeaderCorrelationID, key: ContextKeyCorrelationID}
)

func (h idHeader) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(h.header)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Set(h.key, id)
		c.Header(h.header, id)
		c.Request = c.Request.WithContext(h.attach(c.Request.Context(), id))

		c.Next()
	}
}

// attach stores id in ctx and tags the context logger with it.
func (h idHeader) attach(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, idKey(h.key), id)
	return logging.With(ctx, slog.String(h.key, id))
}

func (h idHeader) fromGin(c *gin.Context) string {
	return c.GetString(h.key)
}

func (h idHeader) fromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(idKey(h.key)).(string)

	return id
}

// validID rejects empty, oversized and non-printable IDs.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

// RequestID takes the request ID from X-Request-ID, or generates a UUID,
// and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return requestIDHeader.handler()
}

// CorrelationID propagates X-Correlation-ID the same way. A request without
// one starts a new correlation.
func CorrelationID() gin.HandlerFunc {
	return correlationIDHeader.handler()
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return requestIDHeader.fromGin(c)
}

// GetCorrelationID returns the correlation ID set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string {
	return correlationIDHeader.fromGin(c)
}

// RequestIDFromContext returns the request ID carried by ctx, or "".
// Outbound clients use it to forward the header.
func RequestIDFromContext(ctx context.Context) string {
	return requestIDHeader.fromContext(ctx)
}

// CorrelationIDFromContext returns the correlation ID carried by ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return correlationIDHeader.fromContext(ctx)
}

// ContextWithRequestID stores a request ID in ctx for outbound calls.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return requestIDHeader.attach(ctx, id)
}

// ContextWithCorrelationID stores a correlation ID in ctx for outbound calls.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return correlationIDHeader.attach(ctx, id)
}
