package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	traceIDKey      = "trace_id"
	headerRequestID = "X-Request-ID"
)

// MapDomainError maps a domain error to an HTTP status code and error response.
// Unknown errors are mapped to 500 Internal Server Error with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{
				validationErr.Field: validationErr.Message,
			}
		}

		return http.StatusBadRequest, resp

	case domain.IsNotReady(err):
		resp := NewErrorResponse(ErrorCodeNotReady, err.Error())

		var notReady *domain.NotReadyError
		if errors.As(err, &notReady) {
			resp.Error.Details = map[string]string{"state": notReady.State.String()}
		}

		return http.StatusServiceUnavailable, resp

	case domain.IsUnavailable(err):
		// Downstream names and reasons stay in the logs.
		return http.StatusServiceUnavailable, NewErrorResponse(
			ErrorCodeUnavailable,
			"service temporarily unavailable",
		)

	default:
		return http.StatusInternalServerError, NewErrorResponse(
			ErrorCodeInternal,
			"an internal error occurred",
		)
	}
}

// GetTraceID returns the trace ID for the request: an explicit "trace_id"
// context value, then the active span, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return c.GetHeader(headerRequestID)
}

// HandleError writes the mapped error response. Server-side failures are
// logged, with the pipeline step when a favorites mutation failed.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if status >= http.StatusInternalServerError {
		attrs := []any{
			"error", err.Error(),
			"status", status,
			"trace_id", resp.TraceID,
		}
		if step, ok := app.GetExecutionStep(err); ok {
			attrs = append(attrs, "step", string(step))
		}

		logging.FromContext(c.Request.Context()).Error("request failed", attrs...)
	}

	c.JSON(status, resp)
}

// AbortWithErrorCode aborts the request chain with a specific error code.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// RespondWithBindError writes a 400 for a failed BindAndValidate call, with
// field details when the failure came from struct validation.
func RespondWithBindError(c *gin.Context, err error) {
	if IsValidationError(err) {
		resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", ValidationErrors(err))
		c.JSON(http.StatusBadRequest, resp.WithTraceID(GetTraceID(c)))

		return
	}

	resp := NewErrorResponse(ErrorCodeBadRequest, "malformed request body")
	c.JSON(http.StatusBadRequest, resp.WithTraceID(GetTraceID(c)))
}
