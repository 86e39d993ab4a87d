package telemetry_test

import (
	"context"
	"testing"

	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := telemetry.NewLoggerProvider(ctx, config.TelemetryConfig{LogsEnabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))

	core := lp.ZapCore(zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel), "disabled provider yields a nop core")
}

func TestLoggerProvider_NilZapCore(t *testing.T) {
	var lp *telemetry.LoggerProvider
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.ZapCore(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
}
