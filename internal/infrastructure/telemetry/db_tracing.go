package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls database span generation.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include query variables in spans; keep off outside development
	SlowQueryThresh time.Duration
}

// DefaultDBTracingConfig returns the database tracing defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

type dbTracingCallbacks struct {
	slowQueryThresh time.Duration
}

type dbTraceContextKey string

const queryStartKey dbTraceContextKey = "db_query_start"

// RegisterDBTracing installs the otelgorm plugin plus callbacks that tag
// spans with rows affected, table name, errors and slow-query events. DB
// spans parent onto whatever span is in the statement context, so repository
// calls show up under the service spans that issued them.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, log *zap.Logger) error {
	if !cfg.Enabled {
		log.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgres")}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := &dbTracingCallbacks{slowQueryThresh: cfg.SlowQueryThresh}
	if cb.slowQueryThresh <= 0 {
		cb.slowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	if err := cb.register(db); err != nil {
		return err
	}

	log.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cb.slowQueryThresh),
	)
	return nil
}

func (cb *dbTracingCallbacks) register(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("db_trace:before_create", cb.before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("db_trace:after_create", cb.after); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("db_trace:before_query", cb.before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("db_trace:after_query", cb.after); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("db_trace:before_update", cb.before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("db_trace:after_update", cb.after); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("db_trace:before_delete", cb.before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("db_trace:after_delete", cb.after); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("db_trace:before_row", cb.before); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("db_trace:after_row", cb.after); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("db_trace:before_raw", cb.before); err != nil {
		return err
	}
	return db.Callback().Raw().After("gorm:raw").Register("db_trace:after_raw", cb.after)
}

func (cb *dbTracingCallbacks) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
	}
}

func (cb *dbTracingCallbacks) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// ErrRecordNotFound is an expected outcome, not a failure
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > cb.slowQueryThresh {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", cb.slowQueryThresh.Milliseconds()),
			))
		}
	}
}
