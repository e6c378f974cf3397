package fetchsql

import "strconv"

// Tag and attribute names of the query markup grammar.
const (
	tagFetch     = "fetch"
	tagEntity    = "entity"
	tagAttribute = "attribute"
	tagFilter    = "filter"
	tagCondition = "condition"
	tagLink      = "link-entity"
	tagOrder     = "order"
	tagValue     = "value"
)

// BuildDocument walks a tag tree and produces the query document. Dispatch is
// keyed on the tag name at every level; any tag the grammar does not allow at
// that level is fatal.
func BuildDocument(root *TagNode) (*QueryDocument, error) {
	if root.Name != tagFetch {
		return nil, semanticErrorf(root.Pos, CodeUnknownElement,
			"expected root element %q, found %q", tagFetch, root.Name)
	}

	doc := &QueryDocument{}

	if v, ok := root.Attr("top"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, semanticErrorf(root.Pos, CodeInvalidAttribute,
				"top must be a positive integer, found %q", v)
		}
		doc.Top = n
	}
	if v, ok := root.Attr("distinct"); ok {
		b, err := parseBoolAttr(v)
		if err != nil {
			return nil, semanticErrorf(root.Pos, CodeInvalidAttribute,
				"distinct must be \"true\" or \"false\", found %q", v)
		}
		doc.Distinct = b
	}

	var entity *TagNode
	for _, child := range root.Children {
		if child.Name != tagEntity {
			return nil, semanticErrorf(child.Pos, CodeUnknownElement,
				"element %q is not allowed in %q", child.Name, tagFetch)
		}
		if entity != nil {
			return nil, semanticErrorf(child.Pos, CodeUnknownElement,
				"only one %q element is allowed in %q", tagEntity, tagFetch)
		}
		entity = child
	}
	if entity == nil {
		return nil, semanticErrorf(root.Pos, CodeMissingElement,
			"%q requires an %q child", tagFetch, tagEntity)
	}

	name, err := requireAttr(entity, "name")
	if err != nil {
		return nil, err
	}
	doc.Collection = name

	var filters []*FilterGroup
	for _, child := range entity.Children {
		switch child.Name {
		case tagAttribute:
			attr, err := parseAttributeSpec(child)
			if err != nil {
				return nil, err
			}
			doc.Attributes = append(doc.Attributes, attr)
		case tagFilter:
			group, err := parseFilterGroup(child)
			if err != nil {
				return nil, err
			}
			filters = append(filters, group)
		case tagLink:
			link, err := parseLinkedEntity(child)
			if err != nil {
				return nil, err
			}
			doc.Links = append(doc.Links, link)
		case tagOrder:
			order, err := parseOrderSpec(child)
			if err != nil {
				return nil, err
			}
			doc.Orders = append(doc.Orders, order)
		default:
			return nil, semanticErrorf(child.Pos, CodeUnknownElement,
				"element %q is not allowed in %q", child.Name, tagEntity)
		}
	}
	doc.Filter = mergeFilters(filters)

	if err := validateAliases(entity, doc.Collection); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseAttributeSpec builds one selected-field specification.
func parseAttributeSpec(n *TagNode) (*AttributeSpec, error) {
	name, err := requireAttr(n, "name")
	if err != nil {
		return nil, err
	}
	attr := &AttributeSpec{Name: name, Alias: n.AttrValue("alias")}

	if v, ok := n.Attr("aggregate"); ok {
		switch Aggregate(v) {
		case AggregateCount, AggregateCountColumn, AggregateSum, AggregateAvg, AggregateMin, AggregateMax:
			attr.Aggregate = Aggregate(v)
		default:
			return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
				"unknown aggregate function %q", v)
		}
	}
	if v, ok := n.Attr("groupby"); ok {
		b, err := parseBoolAttr(v)
		if err != nil {
			return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
				"groupby must be \"true\" or \"false\", found %q", v)
		}
		attr.GroupBy = b
	}
	if attr.Aggregate != AggregateNone && attr.GroupBy {
		return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
			"attribute %q cannot be both aggregated and grouped by", name)
	}
	return attr, nil
}

// parseFilterGroup builds a filter group, recursing into nested groups.
func parseFilterGroup(n *TagNode) (*FilterGroup, error) {
	typ, err := requireAttr(n, "type")
	if err != nil {
		return nil, err
	}
	if typ != string(CombinatorAnd) && typ != string(CombinatorOr) {
		return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
			"filter type must be \"and\" or \"or\", found %q", typ)
	}

	group := &FilterGroup{Combinator: Combinator(typ)}
	for _, child := range n.Children {
		switch child.Name {
		case tagCondition:
			cond, err := parseCondition(child)
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, cond)
		case tagFilter:
			sub, err := parseFilterGroup(child)
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, sub)
		default:
			return nil, semanticErrorf(child.Pos, CodeUnknownElement,
				"element %q is not allowed in %q", child.Name, tagFilter)
		}
	}
	if len(group.Items) == 0 {
		return nil, semanticErrorf(n.Pos, CodeEmptyFilter,
			"filter group has no conditions or sub-groups")
	}
	return group, nil
}

// parseCondition builds a single comparison test. Values come from either an
// inline value attribute or nested value children, never both; arity is
// validated against the operator.
func parseCondition(n *TagNode) (*Condition, error) {
	field, err := requireAttr(n, "attribute")
	if err != nil {
		return nil, err
	}
	opName, err := requireAttr(n, "operator")
	if err != nil {
		return nil, err
	}
	op, info, ok := lookupOperator(opName)
	if !ok {
		return nil, semanticErrorf(n.Pos, CodeUnknownOperator,
			"unknown operator %q", opName)
	}

	inline, hasInline := n.Attr("value")
	var values []string
	for _, child := range n.Children {
		if child.Name != tagValue {
			return nil, semanticErrorf(child.Pos, CodeUnknownElement,
				"element %q is not allowed in %q", child.Name, tagCondition)
		}
		values = append(values, child.Text)
	}
	if hasInline {
		if len(values) > 0 {
			return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
				"condition has both a value attribute and value children")
		}
		values = []string{inline}
	}

	switch info.arity {
	case arityNone:
		if len(values) != 0 {
			return nil, semanticErrorf(n.Pos, CodeArityMismatch,
				"operator %q takes no values, found %d", opName, len(values))
		}
	case arityOne:
		if len(values) != 1 {
			return nil, semanticErrorf(n.Pos, CodeArityMismatch,
				"operator %q takes exactly one value, found %d", opName, len(values))
		}
	case arityMany:
		if len(values) == 0 {
			return nil, semanticErrorf(n.Pos, CodeArityMismatch,
				"operator %q takes one or more values, found none", opName)
		}
	}

	if info.countArg {
		if v, err := strconv.Atoi(values[0]); err != nil || v <= 0 {
			return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
				"operator %q takes a positive integer value, found %q", opName, values[0])
		}
	}

	return &Condition{Attribute: field, Operator: op, Values: values}, nil
}

// parseLinkedEntity builds a joined entity, recursing into its own
// attributes, filters and further links.
func parseLinkedEntity(n *TagNode) (*LinkedEntity, error) {
	name, err := requireAttr(n, "name")
	if err != nil {
		return nil, err
	}
	from, err := requireAttr(n, "from")
	if err != nil {
		return nil, err
	}
	to, err := requireAttr(n, "to")
	if err != nil {
		return nil, err
	}

	link := &LinkedEntity{
		Name:  name,
		From:  from,
		To:    to,
		Kind:  JoinInner,
		Alias: n.AttrValue("alias"),
	}
	if v, ok := n.Attr("link-type"); ok {
		switch JoinKind(v) {
		case JoinInner, JoinOuter:
			link.Kind = JoinKind(v)
		default:
			return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
				"link-type must be \"inner\" or \"outer\", found %q", v)
		}
	}

	var filters []*FilterGroup
	for _, child := range n.Children {
		switch child.Name {
		case tagAttribute:
			attr, err := parseAttributeSpec(child)
			if err != nil {
				return nil, err
			}
			link.Attributes = append(link.Attributes, attr)
		case tagFilter:
			group, err := parseFilterGroup(child)
			if err != nil {
				return nil, err
			}
			filters = append(filters, group)
		case tagLink:
			sub, err := parseLinkedEntity(child)
			if err != nil {
				return nil, err
			}
			link.Links = append(link.Links, sub)
		default:
			return nil, semanticErrorf(child.Pos, CodeUnknownElement,
				"element %q is not allowed in %q", child.Name, tagLink)
		}
	}
	link.Filter = mergeFilters(filters)
	return link, nil
}

// parseOrderSpec builds one sort specification.
func parseOrderSpec(n *TagNode) (*OrderSpec, error) {
	field, err := requireAttr(n, "attribute")
	if err != nil {
		return nil, err
	}
	order := &OrderSpec{Attribute: field}
	if v, ok := n.Attr("descending"); ok {
		b, err := parseBoolAttr(v)
		if err != nil {
			return nil, semanticErrorf(n.Pos, CodeInvalidAttribute,
				"descending must be \"true\" or \"false\", found %q", v)
		}
		order.Descending = b
	}
	return order, nil
}

// mergeFilters folds sibling filter elements into a single group. One group
// passes through untouched; several are combined with an implicit AND, which
// is how sibling filters behave in the source notation.
func mergeFilters(filters []*FilterGroup) *FilterGroup {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	}
	merged := &FilterGroup{Combinator: CombinatorAnd}
	for _, g := range filters {
		merged.Items = append(merged.Items, g)
	}
	return merged
}

// validateAliases walks the tag tree once after a successful build and
// rejects duplicate link-entity aliases. A link without an alias is
// referenced by its collection name, so that name participates too, as does
// the root collection itself.
func validateAliases(entity *TagNode, collection string) error {
	seen := map[string]bool{collection: true}
	var walk func(n *TagNode) error
	walk = func(n *TagNode) error {
		for _, child := range n.Children {
			if child.Name != tagLink {
				continue
			}
			qualifier := child.AttrValue("alias")
			if qualifier == "" {
				qualifier = child.AttrValue("name")
			}
			if seen[qualifier] {
				return semanticErrorf(child.Pos, CodeDuplicateAlias,
					"alias %q is already in use", qualifier)
			}
			seen[qualifier] = true
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(entity)
}

func requireAttr(n *TagNode, name string) (string, error) {
	v, ok := n.Attr(name)
	if !ok || v == "" {
		return "", semanticErrorf(n.Pos, CodeMissingAttribute,
			"%q requires a non-empty %q attribute", n.Name, name)
	}
	return v, nil
}

func parseBoolAttr(v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errBadBool
}
