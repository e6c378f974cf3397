package fetchsql

import (
	"errors"
	"fmt"
)

// Internal sentinels; callers wrap them into typed errors with position
// information before they cross the package boundary.
var (
	errBadRef  = errors.New("bad character reference")
	errBadBool = errors.New("bad boolean attribute")
)

// ErrorCode identifies the reason for a parse or generation failure.
// Codes are stable and intended for programmatic handling; messages are not.
type ErrorCode string

// Tokenizer error codes.
const (
	// CodeUnterminatedTag indicates a tag that was opened but never closed with '>'.
	CodeUnterminatedTag ErrorCode = "unterminated-tag"

	// CodeUnterminatedQuote indicates an attribute value missing its closing quote.
	CodeUnterminatedQuote ErrorCode = "unterminated-quote"

	// CodeBadCharRef indicates an invalid entity or numeric character reference.
	CodeBadCharRef ErrorCode = "bad-char-ref"

	// CodeMalformedTag indicates a tag that could not be scanned
	// (missing name, bad attribute syntax, duplicate attribute).
	CodeMalformedTag ErrorCode = "malformed-tag"
)

// Structural error codes.
const (
	// CodeMismatchedTag indicates a close tag whose name does not match the open tag.
	CodeMismatchedTag ErrorCode = "mismatched-tag"

	// CodeUnterminatedElement indicates an element still open at end of input.
	CodeUnterminatedElement ErrorCode = "unterminated-element"

	// CodeUnexpectedClose indicates a close tag with no matching open element.
	CodeUnexpectedClose ErrorCode = "unexpected-close"

	// CodeUnexpectedContent indicates content outside the single root element.
	CodeUnexpectedContent ErrorCode = "unexpected-content"

	// CodeMissingRoot indicates input with no root element at all.
	CodeMissingRoot ErrorCode = "missing-root"
)

// Semantic error codes.
const (
	// CodeUnknownElement indicates a child element the grammar does not allow here.
	CodeUnknownElement ErrorCode = "unknown-element"

	// CodeMissingElement indicates a required child element that is absent.
	CodeMissingElement ErrorCode = "missing-element"

	// CodeMissingAttribute indicates a required attribute that is absent or empty.
	CodeMissingAttribute ErrorCode = "missing-attribute"

	// CodeInvalidAttribute indicates an attribute with a value outside its domain.
	CodeInvalidAttribute ErrorCode = "invalid-attribute"

	// CodeUnknownOperator indicates a condition operator outside the supported set.
	CodeUnknownOperator ErrorCode = "unknown-operator"

	// CodeArityMismatch indicates a condition with the wrong number of values
	// for its operator.
	CodeArityMismatch ErrorCode = "arity-mismatch"

	// CodeEmptyFilter indicates a filter group with no conditions or sub-groups.
	CodeEmptyFilter ErrorCode = "empty-filter"

	// CodeDuplicateAlias indicates two linked entities resolving to the same alias.
	CodeDuplicateAlias ErrorCode = "duplicate-alias"
)

// Generation error codes.
const (
	// CodeUnresolvedReference indicates a field or alias reference that does not
	// resolve to the root collection, a linked entity, or a declared attribute alias.
	CodeUnresolvedReference ErrorCode = "unresolved-reference"

	// CodeUnsupported indicates a construct combination the SQL subset cannot express.
	CodeUnsupported ErrorCode = "unsupported"
)

// TokenizeError reports malformed lexical structure in the source markup.
type TokenizeError struct {
	// Pos is the byte offset into the source text where the problem was found.
	Pos int
	// Code classifies the failure.
	Code ErrorCode
	// Reason is a human-readable description.
	Reason string
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("fetchsql: tokenize error at offset %d: %s (%s)", e.Pos, e.Reason, e.Code)
}

// StructuralError reports a tag-nesting violation in the source markup.
type StructuralError struct {
	Pos    int
	Code   ErrorCode
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("fetchsql: structural error at offset %d: %s (%s)", e.Pos, e.Reason, e.Code)
}

// SemanticError reports a well-formed tag tree that does not describe a valid query.
type SemanticError struct {
	Pos    int
	Code   ErrorCode
	Reason string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("fetchsql: semantic error at offset %d: %s (%s)", e.Pos, e.Reason, e.Code)
}

// GenerationError reports a query document the SQL generator cannot render.
type GenerationError struct {
	Code   ErrorCode
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("fetchsql: generation error: %s (%s)", e.Reason, e.Code)
}

func tokenizeErrorf(pos int, code ErrorCode, format string, args ...interface{}) *TokenizeError {
	return &TokenizeError{Pos: pos, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func structuralErrorf(pos int, code ErrorCode, format string, args ...interface{}) *StructuralError {
	return &StructuralError{Pos: pos, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func semanticErrorf(pos int, code ErrorCode, format string, args ...interface{}) *SemanticError {
	return &SemanticError{Pos: pos, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func generationErrorf(code ErrorCode, format string, args ...interface{}) *GenerationError {
	return &GenerationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
