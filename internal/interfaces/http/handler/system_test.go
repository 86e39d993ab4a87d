package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, h *SystemHandler) (int, HealthResponse) {
	t.Helper()
	r := gin.New()
	r.GET("/health", h.Health)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func okPing(context.Context) error { return nil }

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewSystemHandler("1.2.3",
			HealthCheck{Name: "database", Ping: okPing},
			HealthCheck{Name: "redis", Ping: okPing})
		h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

		status, resp := serveHealth(t, h)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Equal(t, "2026-01-02T03:04:05Z", resp.Time)
		assert.NotEmpty(t, resp.GoVersion)
		assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, resp.Dependencies)
	})

	t.Run("failing dependency", func(t *testing.T) {
		h := NewSystemHandler("1.2.3",
			HealthCheck{Name: "database", Ping: okPing},
			HealthCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("dial tcp: refused") }})

		status, resp := serveHealth(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "error", resp.Dependencies["redis"])
		assert.Equal(t, "ok", resp.Dependencies["database"])
	})

	t.Run("ping gets a deadline", func(t *testing.T) {
		var hasDeadline bool
		h := NewSystemHandler("dev", HealthCheck{Name: "database", Ping: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}})

		status, _ := serveHealth(t, h)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, hasDeadline)
	})

	t.Run("nil pings are skipped", func(t *testing.T) {
		h := NewSystemHandler("dev", HealthCheck{Name: "redis"})
		status, resp := serveHealth(t, h)
		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, resp.Dependencies)
	})
}
