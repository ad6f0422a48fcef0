package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds API requests unless configured otherwise.
const DefaultRequestTimeout = 30 * time.Second

// StreamPath is the websocket route. Tracing and timeouts skip it.
const StreamPath = "/api/v1/views/stream"

// RouterConfig wires handlers into the router. Nil handlers are skipped.
type RouterConfig struct {
	Logger    *slog.Logger
	AppConfig *config.AppConfig
	RateLimit config.RateLimitConfig

	HealthHandler *handlers.HealthHandler
	BoardHandler  *handlers.BoardHandler
	StreamHandler *handlers.StreamHandler

	// Timeout bounds each API request except the stream. Zero disables it.
	Timeout time.Duration
}

// SetupRouter installs the middleware chain and routes on engine.
//
// Every route gets recovery, request and correlation IDs, tracing (not the
// stream), HTTP metrics and access logging (not /-/), in that order. /api/v1 adds the
// per-IP rate limit, and every /api/v1 route but the stream gets the request
// timeout. Health routes under /-/ get neither.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name, StreamPath),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(cfg.RateLimit))

	if cfg.StreamHandler != nil {
		cfg.StreamHandler.RegisterStreamRoutes(apiV1)
	}

	timed := apiV1.Group("")
	if cfg.Timeout > 0 {
		timed.Use(middleware.RequestTimeout(cfg.Timeout))
	}

	if cfg.BoardHandler != nil {
		cfg.BoardHandler.RegisterBoardRoutes(timed)
	}
}

// NewDefaultRouterConfig uses DefaultRequestTimeout and no rate limit.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
	boardHandler *handlers.BoardHandler,
	streamHandler *handlers.StreamHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		BoardHandler:  boardHandler,
		StreamHandler: streamHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
