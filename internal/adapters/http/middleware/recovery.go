package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// Recovery turns a panic into a logged stack trace and a 500 INTERNAL_ERROR
// envelope. It must be first in the chain. If the handler already started
// writing, the request is only aborted.
//
// A request context without a logger gets logger, so the ID middleware
// further down tags it rather than slog.Default.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctx := c.Request.Context(); logger != nil && logging.FromContextOr(ctx, nil) == nil {
			c.Request = c.Request.WithContext(logging.WithContext(ctx, logger))
		}

		defer func() {
			r := recover()
			if r == nil {
				return
			}

			traceID := dto.GetTraceID(c)

			logging.FromContextOr(c.Request.Context(), logger).Error("panic recovered",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.AbortWithErrorCode(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
