package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing(t *testing.T) {
	t.Run("disabled adds nothing", func(t *testing.T) {
		assert.Empty(t, Tracing(TracingConfig{Enabled: false}))
	})

	t.Run("span is named after the route and tagged", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

		router := gin.New()
		router.Use(RequestID())
		router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "test", TracerProvider: tp})...)
		router.GET("/users/:name", func(c *gin.Context) {
			c.Set(JWTUserIDKey, "user-1")
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		router.ServeHTTP(httptest.NewRecorder(), req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "GET /users/:name", spans[0].Name())

		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range spans[0].Attributes() {
			attrs[kv.Key] = kv.Value
		}
		assert.Equal(t, "req-1", attrs["request_id"].AsString())
		assert.Equal(t, "user-1", attrs["user.id"].AsString())
	})
}
