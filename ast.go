package fetchsql

// Combinator is the logical connective of a filter group.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// JoinKind is the join flavour of a linked entity.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinOuter JoinKind = "outer"
)

// Aggregate is an aggregate function applied to a selected attribute.
type Aggregate string

const (
	AggregateNone        Aggregate = ""
	AggregateCount       Aggregate = "count"
	AggregateCountColumn Aggregate = "countcolumn"
	AggregateSum         Aggregate = "sum"
	AggregateAvg         Aggregate = "avg"
	AggregateMin         Aggregate = "min"
	AggregateMax         Aggregate = "max"
)

// Operator is a condition comparison operator from the fixed supported set.
type Operator string

const (
	OperatorEq         Operator = "eq"
	OperatorNe         Operator = "ne"
	OperatorGt         Operator = "gt"
	OperatorGe         Operator = "ge"
	OperatorLt         Operator = "lt"
	OperatorLe         Operator = "le"
	OperatorLike       Operator = "like"
	OperatorNotLike    Operator = "not-like"
	OperatorBeginsWith Operator = "begins-with"
	OperatorEndsWith   Operator = "ends-with"
	OperatorIn         Operator = "in"
	OperatorNotIn      Operator = "not-in"
	OperatorNull       Operator = "null"
	OperatorNotNull    Operator = "not-null"
	OperatorToday      Operator = "today"
	OperatorYesterday  Operator = "yesterday"
	OperatorTomorrow   Operator = "tomorrow"
	OperatorLastXDays  Operator = "last-x-days"
	OperatorNextXDays  Operator = "next-x-days"
	OperatorLastXHours Operator = "last-x-hours"
	OperatorNextXHours Operator = "next-x-hours"
)

// QueryDocument is the root of a parsed query. It is immutable once built;
// the generator only reads it.
type QueryDocument struct {
	// Collection is the target collection name. Never empty.
	Collection string
	// Top caps the number of result rows. Zero means no cap.
	Top int
	// Distinct requests duplicate-free results.
	Distinct bool
	// Attributes is the ordered list of selected fields.
	Attributes []*AttributeSpec
	// Filter is the optional root filter group.
	Filter *FilterGroup
	// Links is the ordered list of joined entities.
	Links []*LinkedEntity
	// Orders is the ordered list of sort specifications.
	Orders []*OrderSpec
}

// AttributeSpec selects one field of a collection for output.
type AttributeSpec struct {
	Name      string
	Alias     string
	Aggregate Aggregate
	GroupBy   bool
}

// FilterItem is either a *Condition or a nested *FilterGroup.
type FilterItem interface {
	filterItem()
}

// FilterGroup combines conditions and nested groups with one logical connective.
// Items is never empty; nesting depth is unbounded.
type FilterGroup struct {
	Combinator Combinator
	Items      []FilterItem
}

func (*FilterGroup) filterItem() {}

// Depth returns the deepest nesting level of the group, counting the group
// itself as one level.
func (g *FilterGroup) Depth() int {
	depth := 1
	for _, item := range g.Items {
		if sub, ok := item.(*FilterGroup); ok {
			if d := 1 + sub.Depth(); d > depth {
				depth = d
			}
		}
	}
	return depth
}

// Condition is a single comparison test within a filter group.
type Condition struct {
	Attribute string
	Operator  Operator
	// Values holds the raw literal values; its length matches the
	// operator's arity.
	Values []string
}

func (*Condition) filterItem() {}

// LinkedEntity joins a further collection into the query. From is the join
// field on the linked collection, To the join field on the parent.
type LinkedEntity struct {
	Name  string
	From  string
	To    string
	Kind  JoinKind
	Alias string

	Attributes []*AttributeSpec
	Filter     *FilterGroup
	Links      []*LinkedEntity
}

// Qualifier returns the name other parts of the query use to reference this
// linked entity: its alias when declared, its collection name otherwise.
func (l *LinkedEntity) Qualifier() string {
	if l.Alias != "" {
		return l.Alias
	}
	return l.Name
}

// OrderSpec sorts the result by one field or declared alias.
type OrderSpec struct {
	Attribute  string
	Descending bool
}
