// Package errs defines the sentinel errors and error kinds shared by all dxform packages.
//
// Three error kinds are exposed:
//   - ParseError: malformed text input in the compact or human grammar
//   - CodecError: unrecognized tag, truncated or corrupt machine payload, decompression failure
//   - MappingError: dictionary file load failures
//
// Each kind wraps one of the sentinel errors below, so callers can match either the
// kind with errors.As or the exact cause with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

// Parse-time sentinels.
var (
	ErrSyntax            = errors.New("syntax error")
	ErrUnexpectedEOF     = errors.New("unexpected end of input")
	ErrUnclosedBracket   = errors.New("unclosed bracket")
	ErrArityMismatch     = errors.New("arity mismatch")
	ErrDittoNoPrevious   = errors.New("ditto marker without a previous row")
	ErrDittoOutsideTable = errors.New("ditto marker outside a table")
	ErrPrefixNoParent    = errors.New("prefix inheritance without a dotted parent key")
	ErrInvalidKey        = errors.New("invalid key")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInvalidString     = errors.New("invalid quoted string")
	ErrIndentation       = errors.New("invalid indentation")
	ErrInvalidUTF8       = errors.New("invalid UTF-8")
)

// Machine codec sentinels.
var (
	ErrUnknownTag         = errors.New("unknown compression tag")
	ErrTruncated          = errors.New("truncated payload")
	ErrCorrupt            = errors.New("corrupt archive")
	ErrInvalidMagic       = errors.New("invalid archive magic")
	ErrInvalidHeaderSize  = errors.New("invalid archive header size")
	ErrUnsupportedVersion = errors.New("unsupported archive version")
	ErrDecompress         = errors.New("decompression failed")
	ErrTooLarge           = errors.New("payload exceeds size limit")
	ErrKindMismatch       = errors.New("value kind mismatch")
)

// Serializer and model sentinels.
var (
	ErrUnrepresentable = errors.New("value cannot be represented in this format")
	ErrUnknownValue    = errors.New("unknown value variant")
	ErrRowLength       = errors.New("row length does not match schema")
)

// Conversion sentinels.
var (
	ErrUnknownFormat = errors.New("unknown document format")
)

// Mapping sentinels.
var (
	ErrMalformedEntry = errors.New("malformed dictionary entry")
	ErrMappingLoad    = errors.New("dictionary load failed")
)

// ParseError reports a malformed statement in a text grammar.
// Line and Column are 1-based; zero means the position is unknown.
type ParseError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("parse error: %s: %v", e.Msg, e.Err)
	}

	return fmt.Sprintf("parse error at %d:%d: %s: %v", e.Line, e.Column, e.Msg, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError at the given position.
func NewParseError(line, col int, cause error, format string, args ...any) *ParseError {
	return &ParseError{
		Line:   line,
		Column: col,
		Msg:    fmt.Sprintf(format, args...),
		Err:    cause,
	}
}

// CodecError reports a machine-format encode or decode failure.
type CodecError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("machine %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// NewCodecError wraps err as a CodecError for the given operation.
// A nil err yields a nil error.
func NewCodecError(op string, err error) error {
	if err == nil {
		return nil
	}

	var ce *CodecError
	if errors.As(err, &ce) {
		return err
	}

	return &CodecError{Op: op, Err: err}
}

// MappingError reports a dictionary file that could not be loaded.
// Line is zero when the failure is not tied to a specific line.
type MappingError struct {
	Path string
	Line int
	Err  error
}

func (e *MappingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mapping %s:%d: %v", e.Path, e.Line, e.Err)
	}

	return fmt.Sprintf("mapping %s: %v", e.Path, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}
