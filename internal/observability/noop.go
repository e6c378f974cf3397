package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: tracenoop.NewTracerProvider().Tracer("")}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	// Note: the noop meter never returns errors, but we must check them to
	// satisfy the linter.
	m.parseDuration, _ = meter.Float64Histogram("fetchsql.parse.duration")       //nolint:errcheck
	m.generateDuration, _ = meter.Float64Histogram("fetchsql.generate.duration") //nolint:errcheck
	m.parseCount, _ = meter.Int64Counter("fetchsql.parse.count")                 //nolint:errcheck
	m.generateCount, _ = meter.Int64Counter("fetchsql.generate.count")           //nolint:errcheck
	m.errorCount, _ = meter.Int64Counter("fetchsql.error.count")                 //nolint:errcheck

	return m
}
