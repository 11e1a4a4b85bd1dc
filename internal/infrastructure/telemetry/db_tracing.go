package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures query spans on the store database
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound variables in span statements. Development only.
	LogFullSQL       bool
	SlowQueryThresh  time.Duration
	DBSystem         string
	WithoutVariables bool
	// Meter receives a query duration histogram when set
	Meter metric.Meter
}

// DBTracingPlugin installs otelgorm plus store callbacks that tag each
// query span with its table, flag slow queries and record durations.
type DBTracingPlugin struct {
	config   DBTracingConfig
	logger   *zap.Logger
	duration *Histogram
}

type queryStartKey struct{}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// NewDBTracingPlugin creates the plugin. Zero values fall back to a 200ms
// slow query threshold on postgresql.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger.Named("db_tracing")}
}

// RegisterOtelGorm installs the plugin on db. It is a no-op when disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL || p.config.WithoutVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}

	if p.config.Meter != nil {
		h, err := NewHistogram(p.config.Meter, HistogramOpts{
			Name:        "db_query_duration_seconds",
			Description: "Store database query latency in seconds",
			Unit:        "s",
			Boundaries:  DBDurationBuckets,
		})
		if err != nil {
			return err
		}
		p.duration = h
	}

	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.Bool("duration_metrics", p.duration != nil),
	)
	return nil
}

// registerCallbacks hooks every gorm processor. After hooks run before
// otelgorm ends the span.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before gormRegister
		after  gormRegister
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create").Before("otel:after:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query").Before("otel:after:select")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update").Before("otel:after:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete").Before("otel:after:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row").Before("otel:after:row")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw").Before("otel:after:raw")},
	}
	for _, h := range hooks {
		if err := h.before.Register("store_db:before_"+h.op, markQueryStart); err != nil {
			return fmt.Errorf("register %s timing callback: %w", h.op, err)
		}
		if err := h.after.Register("store_db:after_"+h.op, p.afterQuery(h.op)); err != nil {
			return fmt.Errorf("register %s span callback: %w", h.op, err)
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) afterQuery(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		table := db.Statement.Table
		started, timed := ctx.Value(queryStartKey{}).(time.Time)
		var elapsed time.Duration
		if timed {
			elapsed = time.Since(started)
			if p.duration != nil {
				p.duration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op), AttrDBTable.String(table))
			}
		}

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if table != "" {
			span.SetAttributes(attribute.String("db.sql.table", table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			RecordError(span, db.Error)
		}
		if timed && elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
			p.logger.Warn("Slow query",
				zap.String("operation", op),
				zap.String("table", table),
				zap.Duration("elapsed", elapsed))
		}
	}
}
