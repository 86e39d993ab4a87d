package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys for HTTP server metrics
var (
	AttrHTTPMethod = attribute.Key("http.request.method")
	AttrHTTPRoute  = attribute.Key("http.route")
	AttrHTTPStatus = attribute.Key("http.response.status_code")
)

// HTTPMetrics counts requests and records their latency per route pattern.
// Unmatched paths are reported as "unmatched" to keep cardinality bounded.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	requests, err := telemetry.NewCounter(meter,
		"http.server.requests", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}
	duration, err := telemetry.NewHistogram(meter,
		"http.server.duration", "HTTP request latency", "s", telemetry.HTTPDurationBuckets...)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx := c.Request.Context()
		method := AttrHTTPMethod.String(c.Request.Method)
		routeAttr := AttrHTTPRoute.String(route)

		requests.Inc(ctx, method, routeAttr, AttrHTTPStatus.String(strconv.Itoa(c.Writer.Status())))
		duration.RecordDuration(ctx, time.Since(start), method, routeAttr)
	}, nil
}
