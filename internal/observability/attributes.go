package observability

import "go.opentelemetry.io/otel/attribute"

// TracerName is the instrumentation scope name used for all spans.
const TracerName = "github.com/fetchsql/fetchsql"

// MeterName is the instrumentation scope name used for all metrics.
const MeterName = "github.com/fetchsql/fetchsql"

// Semantic attribute keys for fetchsql spans.
const (
	AttrSourceBytes = "fetchsql.source.bytes"
	AttrCollection  = "fetchsql.collection"
	AttrErrorCode   = "fetchsql.error.code"
)

// SourceBytesAttr records the length of the source text being parsed.
func SourceBytesAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrSourceBytes, n)
}

// CollectionAttr records the query's target collection.
func CollectionAttr(name string) attribute.KeyValue {
	return attribute.String(AttrCollection, name)
}

// ErrorCodeAttr records the stable error code of a failed stage.
func ErrorCodeAttr(code string) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code)
}
