package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with fetchsql-specific span creation
// methods.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartParse starts a span covering the full parse pipeline.
func (t *Tracer) StartParse(ctx context.Context, sourceBytes int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "fetchsql.parse", trace.WithAttributes(
		SourceBytesAttr(sourceBytes),
	))
}

// StartGenerate starts a span covering SQL generation for one document.
func (t *Tracer) StartGenerate(ctx context.Context, collection string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "fetchsql.generate", trace.WithAttributes(
		CollectionAttr(collection),
	))
}

// EndSpan records the outcome on the span and ends it.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
