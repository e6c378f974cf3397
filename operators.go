package fetchsql

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// arity is the number of literal values an operator consumes.
type arity int

const (
	arityNone arity = iota
	arityOne
	arityMany
)

// opInfo describes one supported operator. Rendering itself lives in the
// generator; the table fixes arity and flags the value shape.
type opInfo struct {
	arity arity
	// countArg marks operators whose single value is a positive day/hour count.
	countArg bool
	// relative marks operators resolved against the transpiler clock.
	relative bool
}

var operatorTable = map[Operator]opInfo{
	OperatorEq:         {arity: arityOne},
	OperatorNe:         {arity: arityOne},
	OperatorGt:         {arity: arityOne},
	OperatorGe:         {arity: arityOne},
	OperatorLt:         {arity: arityOne},
	OperatorLe:         {arity: arityOne},
	OperatorLike:       {arity: arityOne},
	OperatorNotLike:    {arity: arityOne},
	OperatorBeginsWith: {arity: arityOne},
	OperatorEndsWith:   {arity: arityOne},
	OperatorIn:         {arity: arityMany},
	OperatorNotIn:      {arity: arityMany},
	OperatorNull:       {arity: arityNone},
	OperatorNotNull:    {arity: arityNone},
	OperatorToday:      {arity: arityNone, relative: true},
	OperatorYesterday:  {arity: arityNone, relative: true},
	OperatorTomorrow:   {arity: arityNone, relative: true},
	OperatorLastXDays:  {arity: arityOne, countArg: true, relative: true},
	OperatorNextXDays:  {arity: arityOne, countArg: true, relative: true},
	OperatorLastXHours: {arity: arityOne, countArg: true, relative: true},
	OperatorNextXHours: {arity: arityOne, countArg: true, relative: true},
}

// lookupOperator resolves a source operator name. "neq" is accepted as a
// legacy spelling of "ne".
func lookupOperator(name string) (Operator, opInfo, bool) {
	if name == "neq" {
		name = string(OperatorNe)
	}
	op := Operator(name)
	info, ok := operatorTable[op]
	return op, info, ok
}

// comparisonSQL maps the simple comparison operators to their SQL tokens.
var comparisonSQL = map[Operator]string{
	OperatorEq: "=",
	OperatorNe: "<>",
	OperatorGt: ">",
	OperatorGe: ">=",
	OperatorLt: "<",
	OperatorLe: "<=",
}

// aggregateSQL maps aggregate functions to their SQL names.
var aggregateSQL = map[Aggregate]string{
	AggregateCount:       "COUNT",
	AggregateCountColumn: "COUNT",
	AggregateSum:         "SUM",
	AggregateAvg:         "AVG",
	AggregateMin:         "MIN",
	AggregateMax:         "MAX",
}

// canonicalInstant is the single output format for date/time literals. All
// source notations are normalized to UTC before rendering.
const canonicalInstant = "2006-01-02T15:04:05Z"

// dateTimeLayouts are the accepted source notations for date/time literals,
// tried in order.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// mapValue renders one raw literal as SQL text. The kind is inferred from the
// literal itself: integer, then decimal, then boolean, then guid, then
// date/time, falling back to a quoted string.
func mapValue(raw string) string {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		return d.String()
	}
	switch strings.ToLower(raw) {
	case "true":
		return "true"
	case "false":
		return "false"
	}
	if u, err := uuid.Parse(raw); err == nil {
		return "'" + u.String() + "'"
	}
	if ts, ok := parseDateTime(raw); ok {
		return quoteString(ts.Format(canonicalInstant))
	}
	return quoteString(raw)
}

// parseDateTime normalizes a date/time literal to a canonical UTC instant.
func parseDateTime(raw string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// quoteString renders a single-quoted SQL string, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// translateWildcards rewrites the source pattern wildcards to SQL LIKE
// wildcards: '*' becomes '%' and '?' becomes '_'.
func translateWildcards(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "*", "%")
	return strings.ReplaceAll(pattern, "?", "_")
}
