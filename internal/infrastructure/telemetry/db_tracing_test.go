package telemetry_test

import (
	"context"
	"testing"

	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	return db
}

func TestRegisterDBTracing(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		db := openSQLite(t)

		require.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
			Enabled:        false,
			TracerProvider: tp,
		}, zaptest.NewLogger(t)))

		require.NoError(t, db.WithContext(context.Background()).Exec("SELECT 1").Error)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("enabled records query spans", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		db := openSQLite(t)

		require.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
			Enabled:        true,
			DBSystem:       "sqlite",
			TracerProvider: tp,
		}, zaptest.NewLogger(t)))

		require.NoError(t, db.WithContext(context.Background()).Exec("CREATE TABLE t (id INTEGER)").Error)
		var n int64
		require.NoError(t, db.WithContext(context.Background()).Raw("SELECT COUNT(*) FROM t").Scan(&n).Error)

		assert.NotEmpty(t, recorder.Ended())
	})
}
