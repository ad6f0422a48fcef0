// Package handlers holds the gin handlers of the quotebook API: the board
// (search and favorites), the websocket view stream, and the /-/ probes.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quotebook/internal/ports"
)

// BuildInfo identifies the running binary. Version, Commit, and BuildTime
// are set through ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills GoVersion from the runtime.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the probe group under /-/.
type HealthHandler struct {
	registry ports.HealthRegistry
	build    BuildInfo
	started  time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(registry ports.HealthRegistry, build BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry: registry,
		build:    build,
		started:  time.Now(),
	}
}

type liveResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Liveness answers 200 while the process runs. It checks nothing.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, liveResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Truncate(time.Second).String(),
	})
}

type readyResponse struct {
	Status  ports.HealthStatus            `json:"status"`
	Version string                        `json:"version,omitempty"`
	Checks  map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness runs the registered checks. Only a failed critical check turns
// it into a 503; a degraded service keeps taking traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	code := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, readyResponse{
		Status:  result.Status,
		Version: h.build.Version,
		Checks:  result.Checks,
	})
}

// Build returns the build information.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}

// RegisterHealthRoutes mounts /-/live, /-/ready, /-/build, and /-/metrics.
func (h *HealthHandler) RegisterHealthRoutes(engine *gin.Engine) {
	probes := engine.Group("/-")
	probes.GET("/live", h.Liveness)
	probes.GET("/ready", h.Readiness)
	probes.GET("/build", h.Build)
	probes.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
