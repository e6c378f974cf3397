package fetchsql

import (
	"errors"
	"testing"
)

func mustTokenize(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := NewTokenizer(input).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	return tokens
}

func TestBuildTree(t *testing.T) {
	input := `<fetch top="5">
		<entity name="contact">
			<attribute name="fullname"/>
			<filter type="and">
				<condition attribute="status" operator="eq" value="1"/>
			</filter>
		</entity>
	</fetch>`

	root, err := BuildTree(mustTokenize(t, input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if root.Name != "fetch" {
		t.Fatalf("expected root fetch, got %q", root.Name)
	}
	if v := root.AttrValue("top"); v != "5" {
		t.Errorf("expected top attribute 5, got %q", v)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child of fetch, got %d", len(root.Children))
	}

	entity := root.Children[0]
	if entity.Name != "entity" {
		t.Fatalf("expected entity child, got %q", entity.Name)
	}
	if len(entity.Children) != 2 {
		t.Fatalf("expected 2 children of entity, got %d", len(entity.Children))
	}
	if entity.Children[0].Name != "attribute" || entity.Children[1].Name != "filter" {
		t.Errorf("unexpected entity children: %q, %q",
			entity.Children[0].Name, entity.Children[1].Name)
	}

	filter := entity.Children[1]
	if len(filter.Children) != 1 || filter.Children[0].Name != "condition" {
		t.Fatalf("expected condition inside filter")
	}
}

func TestBuildTreeTextContent(t *testing.T) {
	input := `<condition attribute="n" operator="in"><value>1</value><value>2</value></condition>`
	root, err := BuildTree(mustTokenize(t, input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 value children, got %d", len(root.Children))
	}
	if root.Children[0].Text != "1" || root.Children[1].Text != "2" {
		t.Errorf("unexpected value texts %q, %q", root.Children[0].Text, root.Children[1].Text)
	}
}

func TestBuildTreeDeepNesting(t *testing.T) {
	// Build 50 nested filter elements around one condition; the explicit
	// stack must reconstruct the exact depth.
	const depth = 50
	input := ""
	for i := 0; i < depth; i++ {
		input += `<filter type="and">`
	}
	input += `<condition attribute="a" operator="null"/>`
	for i := 0; i < depth; i++ {
		input += `</filter>`
	}

	root, err := BuildTree(mustTokenize(t, input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, levels := root, 1
	for len(node.Children) == 1 && node.Children[0].Name == "filter" {
		node = node.Children[0]
		levels++
	}
	if levels != depth {
		t.Errorf("expected nesting depth %d, got %d", depth, levels)
	}
	if len(node.Children) != 1 || node.Children[0].Name != "condition" {
		t.Errorf("expected condition at the innermost level")
	}
}

func TestBuildTreeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  ErrorCode
		pos   int
	}{
		{"Mismatched close tag", `<fetch><entity name="c"></fetch></fetch>`, CodeMismatchedTag, 24},
		{"Unterminated element", `<fetch><entity name="c">`, CodeUnterminatedElement, 7},
		{"Close without open", `</fetch>`, CodeUnexpectedClose, 0},
		{"Content after root", `<fetch></fetch><fetch></fetch>`, CodeUnexpectedContent, 15},
		{"Text outside root", `stray<fetch></fetch>`, CodeUnexpectedContent, 0},
		{"Empty input", ``, CodeMissingRoot, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := BuildTree(mustTokenize(t, tt.input))
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if root != nil {
				t.Error("expected no partial tree on error")
			}
			var serr *StructuralError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *StructuralError, got %T", err)
			}
			if serr.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, serr.Code)
			}
			if serr.Pos != tt.pos {
				t.Errorf("expected offset %d, got %d", tt.pos, serr.Pos)
			}
		})
	}
}
