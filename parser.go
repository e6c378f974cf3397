package fetchsql

import "strings"

// TagNode is a generic markup tree node produced by the structural parser.
// It is consumed by the query model builder only; the generator never sees it.
type TagNode struct {
	Name     string
	Attrs    []Attr
	Children []*TagNode
	// Text is the accumulated significant text content of the element.
	Text string
	// Pos is the byte offset of the element's open tag.
	Pos int
}

// Attr returns the value of the named attribute and whether it is present.
func (n *TagNode) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the value of the named attribute, or "" when absent.
func (n *TagNode) AttrValue(name string) string {
	v, _ := n.Attr(name)
	return v
}

// BuildTree consumes a token sequence and produces the document's single root
// element. An explicit stack of in-progress nodes handles arbitrary nesting
// depth; any nesting violation is fatal.
func BuildTree(tokens []Token) (*TagNode, error) {
	var stack []*TagNode
	var root *TagNode

	for _, tok := range tokens {
		switch tok.Type {
		case TokenOpenTag:
			if root != nil && len(stack) == 0 {
				return nil, structuralErrorf(tok.Pos, CodeUnexpectedContent,
					"element %q appears after the root element was closed", tok.Name)
			}
			stack = append(stack, &TagNode{Name: tok.Name, Attrs: tok.Attrs, Pos: tok.Pos})

		case TokenSelfClosing:
			node := &TagNode{Name: tok.Name, Attrs: tok.Attrs, Pos: tok.Pos}
			if len(stack) == 0 {
				if root != nil {
					return nil, structuralErrorf(tok.Pos, CodeUnexpectedContent,
						"element %q appears after the root element was closed", tok.Name)
				}
				root = node
				continue
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, node)

		case TokenCloseTag:
			if len(stack) == 0 {
				return nil, structuralErrorf(tok.Pos, CodeUnexpectedClose,
					"close tag %q has no matching open tag", tok.Name)
			}
			top := stack[len(stack)-1]
			if top.Name != tok.Name {
				return nil, structuralErrorf(tok.Pos, CodeMismatchedTag,
					"expected close tag for %q, found %q", top.Name, tok.Name)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = top
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, top)

		case TokenText:
			if len(stack) == 0 {
				return nil, structuralErrorf(tok.Pos, CodeUnexpectedContent,
					"text %q appears outside the root element", strings.TrimSpace(tok.Text))
			}
			top := stack[len(stack)-1]
			top.Text += tok.Text

		case TokenEOF:
			if len(stack) > 0 {
				open := stack[len(stack)-1]
				return nil, structuralErrorf(open.Pos, CodeUnterminatedElement,
					"element %q is never closed", open.Name)
			}
		}
	}

	if root == nil {
		return nil, structuralErrorf(0, CodeMissingRoot, "input contains no root element")
	}
	return root, nil
}
