package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string        // postgresql or sqlite
	SlowQueryThresh time.Duration // default 200ms
	// TracerProvider overrides the global provider; tests use an in-memory recorder
	TracerProvider trace.TracerProvider
}

const defaultSlowQueryThresh = 200 * time.Millisecond

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db plus callbacks that flag slow queries.
// Query variables are never recorded, since they include token hashes and password hashes.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQueryThresh
	}

	opts := []otelgorm.Option{otelgorm.WithoutQueryVariables()}
	if cfg.DBSystem != "" {
		opts = append(opts, otelgorm.WithDBName(cfg.DBSystem))
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	t := &slowQueryTracker{threshold: cfg.SlowQueryThresh}
	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("odyssey:start:create", t.before),
		cb.Query().Before("gorm:query").Register("odyssey:start:query", t.before),
		cb.Update().Before("gorm:update").Register("odyssey:start:update", t.before),
		cb.Delete().Before("gorm:delete").Register("odyssey:start:delete", t.before),
		cb.Row().Before("gorm:row").Register("odyssey:start:row", t.before),
		cb.Raw().Before("gorm:raw").Register("odyssey:start:raw", t.before),

		cb.Create().After("gorm:create").Before("otel:after").Register("odyssey:end:create", t.after),
		cb.Query().After("gorm:query").Before("otel:after").Register("odyssey:end:query", t.after),
		cb.Update().After("gorm:update").Before("otel:after").Register("odyssey:end:update", t.after),
		cb.Delete().After("gorm:delete").Before("otel:after").Register("odyssey:end:delete", t.after),
		cb.Row().After("gorm:row").Before("otel:after").Register("odyssey:end:row", t.after),
		cb.Raw().After("gorm:raw").Before("otel:after").Register("odyssey:end:raw", t.after),
	)
	if err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

type slowQueryTracker struct {
	threshold time.Duration
}

func (t *slowQueryTracker) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *slowQueryTracker) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > t.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
