// Package fetchsql transpiles FetchXML-style query markup into SQL text.
//
// The pipeline is purely computational and fail-fast: source text is scanned
// into tokens, assembled into a tag tree by a stack-based structural parser,
// walked into an immutable query document, and rendered as SQL. Each stage
// returns a single typed error on the first problem it finds; no stage
// produces partial output. Invocations share no state and may run
// concurrently without coordination.
package fetchsql

import (
	"context"
	"time"

	"github.com/fetchsql/fetchsql/internal/observability"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Transpiler.
type Option func(*Transpiler)

// WithNow overrides the clock used to resolve relative-date operators.
// Intended for hosts that need reproducible previews and for tests.
func WithNow(now func() time.Time) Option {
	return func(t *Transpiler) {
		t.now = now
	}
}

// WithTracerProvider enables tracing of parse and generate invocations.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Transpiler) {
		t.tracer = observability.NewTracer(tp)
	}
}

// WithMeterProvider enables metric collection for parse and generate
// invocations.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(t *Transpiler) {
		t.metrics = observability.NewMetrics(mp)
	}
}

// Transpiler converts query markup to SQL. The zero-configuration instance
// from New is ready to use; all instances are safe for concurrent use.
type Transpiler struct {
	now     func() time.Time
	tracer  *observability.Tracer
	metrics *observability.Metrics
}

// New creates a Transpiler. Without options it uses the wall clock and
// no-op instrumentation.
func New(opts ...Option) *Transpiler {
	t := &Transpiler{
		now:     time.Now,
		tracer:  observability.NewNoopTracer(),
		metrics: observability.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Parse turns source markup into a query document. The error is one of
// *TokenizeError, *StructuralError or *SemanticError; no partial document is
// ever returned.
func (t *Transpiler) Parse(ctx context.Context, src string) (*QueryDocument, error) {
	ctx, span := t.tracer.StartParse(ctx, len(src))
	start := time.Now()

	doc, err := parse(src)

	t.metrics.RecordParse(ctx, time.Since(start), err)
	if doc != nil {
		observability.EndSpan(span, err, observability.CollectionAttr(doc.Collection))
	} else {
		observability.EndSpan(span, err)
	}
	return doc, err
}

// Generate renders a query document as SQL text. The error is a
// *GenerationError.
func (t *Transpiler) Generate(ctx context.Context, doc *QueryDocument) (string, error) {
	ctx, span := t.tracer.StartGenerate(ctx, doc.Collection)
	start := time.Now()

	sql, err := generateSQL(doc, t.now())

	t.metrics.RecordGenerate(ctx, time.Since(start), err)
	observability.EndSpan(span, err)
	return sql, err
}

// Transpile is Parse followed by Generate.
func (t *Transpiler) Transpile(ctx context.Context, src string) (string, error) {
	doc, err := t.Parse(ctx, src)
	if err != nil {
		return "", err
	}
	return t.Generate(ctx, doc)
}

// parse runs the three parsing stages.
func parse(src string) (*QueryDocument, error) {
	tokens, err := NewTokenizer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	root, err := BuildTree(tokens)
	if err != nil {
		return nil, err
	}
	return BuildDocument(root)
}

var defaultTranspiler = New()

// Parse parses source markup with a default Transpiler.
func Parse(src string) (*QueryDocument, error) {
	return defaultTranspiler.Parse(context.Background(), src)
}

// Generate renders a query document with a default Transpiler.
func Generate(doc *QueryDocument) (string, error) {
	return defaultTranspiler.Generate(context.Background(), doc)
}

// Transpile parses and renders in one call with a default Transpiler.
func Transpile(src string) (string, error) {
	return defaultTranspiler.Transpile(context.Background(), src)
}
