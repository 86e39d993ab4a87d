package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/odyssey/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// healthCheckTimeout bounds each dependency ping
const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one dependency
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    []HealthCheck
	now       func() time.Time
}

// NewSystemHandler creates a new SystemHandler. Checks with a nil Ping are skipped.
func NewSystemHandler(version string, checks ...HealthCheck) *SystemHandler {
	h := &SystemHandler{
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
	for _, check := range checks {
		if check.Ping != nil {
			h.checks = append(h.checks, check)
		}
	}
	return h
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status       string            `json:"status" example:"healthy"`
	Time         string            `json:"time" example:"2026-01-23T12:00:00Z"`
	Version      string            `json:"version" example:"1.0.0"`
	GoVersion    string            `json:"go_version" example:"go1.25.5"`
	Uptime       string            `json:"uptime" example:"1h30m45s"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Ping the database and redis. Answers 503 when any dependency is down.
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:       "healthy",
		Time:         h.now().UTC().Format(time.RFC3339),
		Version:      h.version,
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Dependencies: make(map[string]string, len(h.checks)),
	}

	status := http.StatusOK
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("dependency", check.Name), zap.Error(err))
			resp.Dependencies[check.Name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[check.Name] = "ok"
	}

	c.JSON(status, resp)
}
