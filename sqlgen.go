package fetchsql

import (
	"strconv"
	"strings"
	"time"
)

// generator renders one query document as SQL text. It only reads the
// document; resolution state is collected up front.
type generator struct {
	doc *QueryDocument
	now time.Time
	// qualifiers holds every name a dotted field reference may use: the root
	// collection plus each linked entity's effective alias.
	qualifiers map[string]bool
}

// generateSQL renders the document. The clock is used only to resolve
// relative-date operators.
func generateSQL(doc *QueryDocument, now time.Time) (string, error) {
	if doc.Collection == "" {
		return "", generationErrorf(CodeUnsupported, "document has no target collection")
	}

	g := &generator{doc: doc, now: now.UTC(), qualifiers: map[string]bool{doc.Collection: true}}
	g.collectQualifiers(doc.Links)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if doc.Distinct {
		sb.WriteString("DISTINCT ")
	}

	fields, err := g.fieldList()
	if err != nil {
		return "", err
	}
	sb.WriteString(fields)

	sb.WriteString(" FROM ")
	sb.WriteString(doc.Collection)

	if err := g.writeJoins(&sb, doc.Links, doc.Collection); err != nil {
		return "", err
	}

	where, err := g.whereClause()
	if err != nil {
		return "", err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	groupBy, err := g.groupByClause()
	if err != nil {
		return "", err
	}
	if groupBy != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(groupBy)
	}

	orderBy, err := g.orderByClause()
	if err != nil {
		return "", err
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderBy)
	}

	if doc.Top > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(doc.Top))
	}

	return sb.String(), nil
}

func (g *generator) collectQualifiers(links []*LinkedEntity) {
	for _, link := range links {
		g.qualifiers[link.Qualifier()] = true
		g.collectQualifiers(link.Links)
	}
}

// fieldRef resolves one field reference within the given scope. A dotted
// reference must name a known qualifier; a bare reference is scoped to the
// root collection or, inside a linked entity, to that entity.
func (g *generator) fieldRef(name, scope string) (string, error) {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		qualifier := name[:idx]
		if !g.qualifiers[qualifier] {
			return "", generationErrorf(CodeUnresolvedReference,
				"%q does not reference the root collection or a declared alias", name)
		}
		return name, nil
	}
	if scope == "" || scope == g.doc.Collection {
		return name, nil
	}
	return scope + "." + name, nil
}

// fieldList renders the selected-field list: root attributes first, then each
// linked entity's attributes depth-first. No attributes at all selects
// everything.
func (g *generator) fieldList() (string, error) {
	var fields []string

	appendAttrs := func(attrs []*AttributeSpec, scope string) error {
		for _, attr := range attrs {
			ref, err := g.fieldRef(attr.Name, scope)
			if err != nil {
				return err
			}
			if fn, ok := aggregateSQL[attr.Aggregate]; ok {
				ref = fn + "(" + ref + ")"
			}
			if attr.Alias != "" {
				ref += " AS " + attr.Alias
			}
			fields = append(fields, ref)
		}
		return nil
	}

	if err := appendAttrs(g.doc.Attributes, ""); err != nil {
		return "", err
	}
	var walk func(links []*LinkedEntity) error
	walk = func(links []*LinkedEntity) error {
		for _, link := range links {
			if err := appendAttrs(link.Attributes, link.Qualifier()); err != nil {
				return err
			}
			if err := walk(link.Links); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(g.doc.Links); err != nil {
		return "", err
	}

	if len(fields) == 0 {
		return "*", nil
	}
	return strings.Join(fields, ", "), nil
}

// writeJoins renders join clauses depth-first. The join predicate relates the
// linked entity's from-field to the parent scope's to-field.
func (g *generator) writeJoins(sb *strings.Builder, links []*LinkedEntity, parent string) error {
	for _, link := range links {
		switch link.Kind {
		case JoinOuter:
			sb.WriteString(" LEFT JOIN ")
		default:
			sb.WriteString(" INNER JOIN ")
		}
		sb.WriteString(link.Name)
		if link.Alias != "" {
			sb.WriteString(" AS ")
			sb.WriteString(link.Alias)
		}
		sb.WriteString(" ON ")
		sb.WriteString(link.Qualifier())
		sb.WriteByte('.')
		sb.WriteString(link.From)
		sb.WriteString(" = ")
		sb.WriteString(parent)
		sb.WriteByte('.')
		sb.WriteString(link.To)

		if err := g.writeJoins(sb, link.Links, link.Qualifier()); err != nil {
			return err
		}
	}
	return nil
}

// whereClause combines the root filter with every linked entity's filter,
// all joined with AND. Each group keeps its own parenthesization.
func (g *generator) whereClause() (string, error) {
	var parts []string

	if g.doc.Filter != nil {
		part, err := g.renderGroup(g.doc.Filter, "")
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	var walk func(links []*LinkedEntity) error
	walk = func(links []*LinkedEntity) error {
		for _, link := range links {
			if link.Filter != nil {
				part, err := g.renderGroup(link.Filter, link.Qualifier())
				if err != nil {
					return err
				}
				parts = append(parts, part)
			}
			if err := walk(link.Links); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(g.doc.Links); err != nil {
		return "", err
	}

	return strings.Join(parts, " AND "), nil
}

// renderGroup renders a filter group with its combinator, parenthesizing the
// group so nested logical structure survives exactly. The parentheses are
// elided only for a group holding a single condition, where they carry no
// meaning.
func (g *generator) renderGroup(group *FilterGroup, scope string) (string, error) {
	connective := " AND "
	if group.Combinator == CombinatorOr {
		connective = " OR "
	}

	rendered := make([]string, 0, len(group.Items))
	for _, item := range group.Items {
		switch node := item.(type) {
		case *Condition:
			s, err := g.renderCondition(node, scope)
			if err != nil {
				return "", err
			}
			rendered = append(rendered, s)
		case *FilterGroup:
			s, err := g.renderGroup(node, scope)
			if err != nil {
				return "", err
			}
			rendered = append(rendered, s)
		}
	}

	if len(rendered) == 1 {
		if _, ok := group.Items[0].(*Condition); ok {
			return rendered[0], nil
		}
	}
	return "(" + strings.Join(rendered, connective) + ")", nil
}

// renderCondition renders one comparison, using the operator and value
// mapping tables for leaf translation.
func (g *generator) renderCondition(cond *Condition, scope string) (string, error) {
	field, err := g.fieldRef(cond.Attribute, scope)
	if err != nil {
		return "", err
	}

	if tok, ok := comparisonSQL[cond.Operator]; ok {
		return field + " " + tok + " " + mapValue(cond.Values[0]), nil
	}

	switch cond.Operator {
	case OperatorLike:
		return field + " LIKE " + quoteString(translateWildcards(cond.Values[0])), nil
	case OperatorNotLike:
		return field + " NOT LIKE " + quoteString(translateWildcards(cond.Values[0])), nil
	case OperatorBeginsWith:
		return field + " LIKE " + quoteString(cond.Values[0]+"%"), nil
	case OperatorEndsWith:
		return field + " LIKE " + quoteString("%"+cond.Values[0]), nil
	case OperatorIn, OperatorNotIn:
		mapped := make([]string, len(cond.Values))
		for i, v := range cond.Values {
			mapped[i] = mapValue(v)
		}
		tok := " IN ("
		if cond.Operator == OperatorNotIn {
			tok = " NOT IN ("
		}
		return field + tok + strings.Join(mapped, ", ") + ")", nil
	case OperatorNull:
		return field + " IS NULL", nil
	case OperatorNotNull:
		return field + " IS NOT NULL", nil
	}

	return g.renderRelativeDate(cond, field)
}

// renderRelativeDate resolves a relative-date operator against the transpiler
// clock and renders it as two bound conditions on the canonical UTC instant.
func (g *generator) renderRelativeDate(cond *Condition, field string) (string, error) {
	day := g.now.Truncate(24 * time.Hour)

	var start, end time.Time
	var inclusiveEnd bool
	switch cond.Operator {
	case OperatorToday:
		start, end = day, day.Add(24*time.Hour)
	case OperatorYesterday:
		start, end = day.Add(-24*time.Hour), day
	case OperatorTomorrow:
		start, end = day.Add(24*time.Hour), day.Add(48*time.Hour)
	case OperatorLastXDays:
		n, _ := strconv.Atoi(cond.Values[0])
		start, end, inclusiveEnd = g.now.Add(-time.Duration(n)*24*time.Hour), g.now, true
	case OperatorNextXDays:
		n, _ := strconv.Atoi(cond.Values[0])
		start, end, inclusiveEnd = g.now, g.now.Add(time.Duration(n)*24*time.Hour), true
	case OperatorLastXHours:
		n, _ := strconv.Atoi(cond.Values[0])
		start, end, inclusiveEnd = g.now.Add(-time.Duration(n)*time.Hour), g.now, true
	case OperatorNextXHours:
		n, _ := strconv.Atoi(cond.Values[0])
		start, end, inclusiveEnd = g.now, g.now.Add(time.Duration(n)*time.Hour), true
	default:
		return "", generationErrorf(CodeUnsupported, "operator %q cannot be rendered", cond.Operator)
	}

	upper := " < "
	if inclusiveEnd {
		upper = " <= "
	}
	return "(" + field + " >= " + quoteString(start.Format(canonicalInstant)) +
		" AND " + field + upper + quoteString(end.Format(canonicalInstant)) + ")", nil
}

// groupByClause lists every attribute flagged for grouping, in declaration
// order, root first then linked entities depth-first.
func (g *generator) groupByClause() (string, error) {
	var fields []string

	appendGroupBy := func(attrs []*AttributeSpec, scope string) error {
		for _, attr := range attrs {
			if !attr.GroupBy {
				continue
			}
			ref, err := g.fieldRef(attr.Name, scope)
			if err != nil {
				return err
			}
			fields = append(fields, ref)
		}
		return nil
	}

	if err := appendGroupBy(g.doc.Attributes, ""); err != nil {
		return "", err
	}
	var walk func(links []*LinkedEntity) error
	walk = func(links []*LinkedEntity) error {
		for _, link := range links {
			if err := appendGroupBy(link.Attributes, link.Qualifier()); err != nil {
				return err
			}
			if err := walk(link.Links); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(g.doc.Links); err != nil {
		return "", err
	}

	return strings.Join(fields, ", "), nil
}

// orderByClause renders sort specifications. A bare field is scoped to the
// root collection; it may equally be an alias introduced by the field list.
func (g *generator) orderByClause() (string, error) {
	var parts []string
	for _, order := range g.doc.Orders {
		ref, err := g.fieldRef(order.Attribute, "")
		if err != nil {
			return "", err
		}
		direction := " ASC"
		if order.Descending {
			direction = " DESC"
		}
		parts = append(parts, ref+direction)
	}
	return strings.Join(parts, ", "), nil
}
