// Package middleware provides the gin middleware of the auth API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider overrides the global provider, mostly for tests.
	TracerProvider trace.TracerProvider
}

// Tracing returns otelgin followed by a handler that tags the server span with
// the request ID and, once the JWT middleware has run, the user ID. The span is
// named after the route pattern, e.g. "GET /api/user/check-username/:username".
func Tracing(cfg TracingConfig) gin.HandlersChain {
	if !cfg.Enabled {
		return nil
	}

	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return gin.HandlersChain{otelgin.Middleware(cfg.ServiceName, opts...), tagSpan}
}

// tagSpan runs inside the otelgin span, which is ended once otelgin returns
func tagSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if id := c.GetString(RequestIDContextKey); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if id := GetJWTUserID(c); id != "" {
		span.SetAttributes(attribute.String(telemetry.SpanAttrUserID, id))
	}
}
