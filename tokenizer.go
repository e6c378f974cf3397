package fetchsql

import (
	"strconv"
	"strings"
	"unicode"
)

// TokenType represents the type of a markup token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenOpenTag
	TokenCloseTag
	TokenSelfClosing
	TokenText
)

// Attr is a single name/value attribute on an open or self-closing tag.
// Attribute order is preserved; names are unique within one tag.
type Attr struct {
	Name  string
	Value string
}

// Token represents a single lexical token of the source markup.
type Token struct {
	Type TokenType
	// Name is the tag name for open, close and self-closing tokens.
	Name string
	// Attrs holds the attributes of open and self-closing tokens.
	Attrs []Attr
	// Text is the unescaped content of text tokens.
	Text string
	// Pos is the byte offset of the token's first character.
	Pos int
}

// Tokenizer scans query markup into a flat token sequence.
type Tokenizer struct {
	input string
	pos   int
	ch    rune
}

// NewTokenizer creates a new tokenizer over the given source text.
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: input}
	if len(input) > 0 {
		t.ch = rune(input[0])
	}
	return t
}

// advance moves to the next character.
func (t *Tokenizer) advance() {
	t.pos++
	if t.pos >= len(t.input) {
		t.ch = 0 // EOF
	} else {
		t.ch = rune(t.input[t.pos])
	}
}

// peek looks ahead without advancing.
func (t *Tokenizer) peek() rune {
	if t.pos+1 >= len(t.input) {
		return 0
	}
	return rune(t.input[t.pos+1])
}

// skipWhitespace skips whitespace characters.
func (t *Tokenizer) skipWhitespace() {
	for t.ch == ' ' || t.ch == '\t' || t.ch == '\n' || t.ch == '\r' {
		t.advance()
	}
}

// Tokenize scans the full input. It is fatal on error: no partial token
// stream is returned.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	var tokens []Token

	for t.ch != 0 {
		if t.ch == '<' {
			tok, skipped, err := t.readTag()
			if err != nil {
				return nil, err
			}
			if !skipped {
				tokens = append(tokens, tok)
			}
			continue
		}

		tok, err := t.readText()
		if err != nil {
			return nil, err
		}
		// Whitespace-only runs between structural tags carry no meaning.
		if strings.TrimSpace(tok.Text) != "" {
			tokens = append(tokens, tok)
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Pos: t.pos})
	return tokens, nil
}

// readTag scans a single construct starting at '<'. Prologs and comments are
// scanned and skipped (skipped=true) rather than tokenized.
func (t *Tokenizer) readTag() (Token, bool, error) {
	start := t.pos
	t.advance() // skip '<'

	switch {
	case t.ch == '?':
		if err := t.skipUntil("?>", start); err != nil {
			return Token{}, false, err
		}
		return Token{}, true, nil
	case t.ch == '!' && strings.HasPrefix(t.input[t.pos:], "!--"):
		if err := t.skipUntil("-->", start); err != nil {
			return Token{}, false, err
		}
		return Token{}, true, nil
	case t.ch == '/':
		t.advance()
		name := t.readName()
		if name == "" {
			return Token{}, false, tokenizeErrorf(start, CodeMalformedTag, "close tag is missing a name")
		}
		t.skipWhitespace()
		if t.ch != '>' {
			return Token{}, false, tokenizeErrorf(start, CodeUnterminatedTag, "close tag %q is not terminated", name)
		}
		t.advance()
		return Token{Type: TokenCloseTag, Name: name, Pos: start}, false, nil
	}

	name := t.readName()
	if name == "" {
		return Token{}, false, tokenizeErrorf(start, CodeMalformedTag, "tag is missing a name")
	}

	attrs, err := t.readAttrs(start)
	if err != nil {
		return Token{}, false, err
	}

	switch t.ch {
	case '/':
		t.advance()
		if t.ch != '>' {
			return Token{}, false, tokenizeErrorf(start, CodeUnterminatedTag, "tag %q is not terminated", name)
		}
		t.advance()
		return Token{Type: TokenSelfClosing, Name: name, Attrs: attrs, Pos: start}, false, nil
	case '>':
		t.advance()
		return Token{Type: TokenOpenTag, Name: name, Attrs: attrs, Pos: start}, false, nil
	default:
		return Token{}, false, tokenizeErrorf(start, CodeUnterminatedTag, "tag %q is not terminated", name)
	}
}

// readAttrs scans zero or more name="value" pairs, stopping before '>' or '/'.
func (t *Tokenizer) readAttrs(tagStart int) ([]Attr, error) {
	var attrs []Attr

	for {
		t.skipWhitespace()
		if t.ch == 0 {
			return nil, tokenizeErrorf(tagStart, CodeUnterminatedTag, "tag is not terminated")
		}
		if t.ch == '>' || t.ch == '/' {
			return attrs, nil
		}

		name := t.readName()
		if name == "" {
			return nil, tokenizeErrorf(t.pos, CodeMalformedTag, "expected attribute name, found %q", string(t.ch))
		}
		for _, a := range attrs {
			if a.Name == name {
				return nil, tokenizeErrorf(t.pos, CodeMalformedTag, "duplicate attribute %q", name)
			}
		}

		t.skipWhitespace()
		if t.ch != '=' {
			return nil, tokenizeErrorf(t.pos, CodeMalformedTag, "attribute %q is missing '='", name)
		}
		t.advance()
		t.skipWhitespace()

		if t.ch != '"' && t.ch != '\'' {
			return nil, tokenizeErrorf(t.pos, CodeMalformedTag, "attribute %q is missing a quoted value", name)
		}
		value, err := t.readQuoted()
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, Attr{Name: name, Value: value})
	}
}

// readQuoted scans a quoted attribute value and unescapes entities in it.
func (t *Tokenizer) readQuoted() (string, error) {
	quote := t.ch
	start := t.pos
	t.advance() // skip opening quote

	valueStart := t.pos
	for t.ch != 0 && t.ch != quote {
		t.advance()
	}
	if t.ch != quote {
		return "", tokenizeErrorf(start, CodeUnterminatedQuote, "attribute value is missing closing %q", string(quote))
	}
	raw := t.input[valueStart:t.pos]
	t.advance() // skip closing quote

	return unescape(raw, valueStart)
}

// readText scans a text run up to the next '<' and unescapes entities in it.
func (t *Tokenizer) readText() (Token, error) {
	start := t.pos
	for t.ch != 0 && t.ch != '<' {
		t.advance()
	}
	text, err := unescape(t.input[start:t.pos], start)
	if err != nil {
		return Token{}, err
	}
	return Token{Type: TokenText, Text: text, Pos: start}, nil
}

// readName scans a tag or attribute name.
func (t *Tokenizer) readName() string {
	start := t.pos
	for isNameChar(t.ch) {
		t.advance()
	}
	return t.input[start:t.pos]
}

// skipUntil advances past the next occurrence of the given terminator.
func (t *Tokenizer) skipUntil(term string, start int) error {
	idx := strings.Index(t.input[t.pos:], term)
	if idx < 0 {
		return tokenizeErrorf(start, CodeUnterminatedTag, "construct is missing terminating %q", term)
	}
	for i := 0; i < idx+len(term); i++ {
		t.advance()
	}
	return nil
}

func isNameChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' || ch == '_' || ch == ':'
}

// unescape resolves the five named entities and numeric character references.
// base is the byte offset of s within the full input, used for error positions.
func unescape(s string, base int) (string, error) {
	if !strings.ContainsRune(s, '&') {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return "", tokenizeErrorf(base+i, CodeBadCharRef, "character reference is missing ';'")
		}
		ref := s[i+1 : i+end]

		switch ref {
		case "amp":
			b.WriteByte('&')
		case "lt":
			b.WriteByte('<')
		case "gt":
			b.WriteByte('>')
		case "quot":
			b.WriteByte('"')
		case "apos":
			b.WriteByte('\'')
		default:
			r, err := decodeNumericRef(ref)
			if err != nil {
				return "", tokenizeErrorf(base+i, CodeBadCharRef, "invalid character reference %q", "&"+ref+";")
			}
			b.WriteRune(r)
		}
		i += end + 1
	}
	return b.String(), nil
}

// decodeNumericRef decodes the body of a numeric character reference,
// i.e. "#65" or "#x41" without the surrounding "&" and ";".
func decodeNumericRef(ref string) (rune, error) {
	if len(ref) < 2 || ref[0] != '#' {
		return 0, errBadRef
	}
	digits := ref[1:]
	radix := 10
	if digits[0] == 'x' || digits[0] == 'X' {
		digits = digits[1:]
		radix = 16
	}
	n, err := strconv.ParseUint(digits, radix, 32)
	if err != nil || !utf8Valid(rune(n)) {
		return 0, errBadRef
	}
	return rune(n), nil
}

func utf8Valid(r rune) bool {
	return r > 0 && r <= unicode.MaxRune && !(r >= 0xD800 && r <= 0xDFFF)
}
