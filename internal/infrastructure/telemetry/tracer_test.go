package telemetry_test

import (
	"context"
	"testing"

	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, config.TelemetryConfig{
		Enabled:     false,
		ServiceName: "test-service",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))

	tp.EnableSpanProfiles()
	assert.False(t, tp.IsSpanProfilesEnabled())
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := telemetry.StartServiceSpan(context.Background(), "auth", "login",
		attribute.String(telemetry.SpanAttrUserID, "u-1"))
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	telemetry.AddEvent(span, "refresh_token.reuse", telemetry.SpanAttrReason, "replay")
	telemetry.RecordError(span, assert.AnError)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "auth.login", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String(telemetry.SpanAttrUserID, "u-1"))
	require.Len(t, ended[0].Events(), 2) // custom event + recorded error
	assert.Equal(t, "refresh_token.reuse", ended[0].Events()[0].Name)
	assert.Equal(t, "Error", ended[0].Status().Code.String())
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}
