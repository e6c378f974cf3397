package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the fetchsql-specific metric instruments.
type Metrics struct {
	parseDuration    metric.Float64Histogram
	generateDuration metric.Float64Histogram
	parseCount       metric.Int64Counter
	generateCount    metric.Int64Counter
	errorCount       metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Instrument creation only fails on invalid parameters; fall back to the
	// bare instrument so a partial failure never disables the pipeline.
	var err error

	m.parseDuration, err = meter.Float64Histogram(
		"fetchsql.parse.duration",
		metric.WithDescription("Duration of parse invocations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.parseDuration, _ = meter.Float64Histogram("fetchsql.parse.duration")
	}

	m.generateDuration, err = meter.Float64Histogram(
		"fetchsql.generate.duration",
		metric.WithDescription("Duration of generate invocations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.generateDuration, _ = meter.Float64Histogram("fetchsql.generate.duration")
	}

	m.parseCount, err = meter.Int64Counter(
		"fetchsql.parse.count",
		metric.WithDescription("Total number of parse invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		m.parseCount, _ = meter.Int64Counter("fetchsql.parse.count")
	}

	m.generateCount, err = meter.Int64Counter(
		"fetchsql.generate.count",
		metric.WithDescription("Total number of generate invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		m.generateCount, _ = meter.Int64Counter("fetchsql.generate.count")
	}

	m.errorCount, err = meter.Int64Counter(
		"fetchsql.error.count",
		metric.WithDescription("Total number of failed invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("fetchsql.error.count")
	}

	return m
}

// RecordParse records one parse invocation.
func (m *Metrics) RecordParse(ctx context.Context, duration time.Duration, err error) {
	m.parseCount.Add(ctx, 1)
	m.parseDuration.Record(ctx, float64(duration.Nanoseconds())/1e6)
	if err != nil {
		m.errorCount.Add(ctx, 1)
	}
}

// RecordGenerate records one generate invocation.
func (m *Metrics) RecordGenerate(ctx context.Context, duration time.Duration, err error) {
	m.generateCount.Add(ctx, 1)
	m.generateDuration.Record(ctx, float64(duration.Nanoseconds())/1e6)
	if err != nil {
		m.errorCount.Add(ctx, 1)
	}
}
