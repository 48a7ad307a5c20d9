package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/database"
	"github.com/stwalsh4118/ptcalc/api/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is the readiness dependency of the health handler.
type Pinger interface {
	Ping(ctx context.Context) error
}

type poolStatser interface {
	Stats() database.PoolStats
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db          Pinger
	diagnostics *calculator.Diagnostics
	startTime   time.Time
	env         string
}

// NewHealthHandler creates a new HealthHandler instance.
// diagnostics may be nil, in which case info reports zero counters.
func NewHealthHandler(db Pinger, diagnostics *calculator.Diagnostics, env string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		diagnostics: diagnostics,
		startTime:   time.Now(),
		env:         env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string                         `json:"version"`
	Environment string                         `json:"environment"`
	Uptime      string                         `json:"uptime"`
	Diagnostics calculator.DiagnosticsSnapshot `json:"diagnostics"`
	Database    *database.PoolStats            `json:"database,omitempty"`
}

// Health handles GET /health endpoint.
// It does not check any dependencies and is used for liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK if the payment store answers a ping, 503 Service Unavailable otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "unconfigured",
		})
		return
	}

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Database: "connected",
	})
}

// Info handles GET /api/v1/info endpoint.
// Returns API metadata, the number of lookups that degraded to zero since start,
// and pool statistics when the store reports them.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)

	resp := InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
		Diagnostics: h.diagnostics.Snapshot(),
	}
	if s, ok := h.db.(poolStatser); ok {
		stats := s.Stats()
		resp.Database = &stats
	}

	c.JSON(http.StatusOK, resp)
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
