// Package textval holds the lexer and renderer for nested values shared by the
// compact and human grammars: scalars, quoted strings, arrays, objects and tables.
package textval

import (
	"errors"
	"strings"

	"github.com/arloliu/dxform/errs"
)

// Scanner is a byte cursor over one input with 1-based position reporting.
type Scanner struct {
	src   string
	off   int
	line0 int
	col0  int
}

// NewScanner creates a scanner whose first byte is at line 1, column 1.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, line0: 1, col0: 1}
}

// NewScannerAt creates a scanner whose first byte is at the given position.
// The human parser uses it to scan a single line of a larger input.
func NewScannerAt(src string, line, col int) *Scanner {
	return &Scanner{src: src, line0: line, col0: col}
}

func (s *Scanner) Offset() int       { return s.off }
func (s *Scanner) SetOffset(off int) { s.off = off }
func (s *Scanner) EOF() bool         { return s.off >= len(s.src) }
func (s *Scanner) Source() string    { return s.src }

// Peek returns the current byte, or 0 at end of input.
func (s *Scanner) Peek() byte {
	return s.PeekAt(0)
}

// PeekAt returns the byte n positions ahead, or 0 past end of input.
func (s *Scanner) PeekAt(n int) byte {
	if s.off+n >= len(s.src) || s.off+n < 0 {
		return 0
	}

	return s.src[s.off+n]
}

// Advance moves the cursor n bytes forward, stopping at end of input.
func (s *Scanner) Advance(n int) {
	s.off += n
	if s.off > len(s.src) {
		s.off = len(s.src)
	}
}

// HasPrefix reports whether the remaining input starts with p.
func (s *Scanner) HasPrefix(p string) bool {
	return strings.HasPrefix(s.src[s.off:], p)
}

// SkipBlanks skips spaces and tabs.
func (s *Scanner) SkipBlanks() {
	for s.off < len(s.src) && isBlank(s.src[s.off]) {
		s.off++
	}
}

// SkipSpace skips spaces, tabs and line breaks.
func (s *Scanner) SkipSpace() {
	for s.off < len(s.src) && (isBlank(s.src[s.off]) || isNewline(s.src[s.off])) {
		s.off++
	}
}

// AtLineEnd reports whether the cursor sits on a line break or at end of input.
func (s *Scanner) AtLineEnd() bool {
	return s.EOF() || isNewline(s.src[s.off])
}

// AtDeclaration reports whether the cursor is at an "N[" object or "N(" table.
func (s *Scanner) AtDeclaration() bool {
	i := 0
	for c := s.PeekAt(i); c >= '0' && c <= '9'; c = s.PeekAt(i) {
		i++
	}

	c := s.PeekAt(i)

	return i > 0 && (c == '[' || c == '(')
}

// RestOfLine consumes and returns the text up to the next '\n', without the
// terminator and without a trailing '\r'. The '\n' itself is left in place.
func (s *Scanner) RestOfLine() string {
	end := strings.IndexByte(s.src[s.off:], '\n')
	if end < 0 {
		end = len(s.src) - s.off
	}

	line := s.src[s.off : s.off+end]
	s.off += end

	return strings.TrimSuffix(line, "\r")
}

// SkipLine consumes the rest of the line including its terminator.
func (s *Scanner) SkipLine() {
	s.RestOfLine()
	s.SkipNewline()
}

// SkipNewline consumes one "\n" or "\r\n" when present.
func (s *Scanner) SkipNewline() bool {
	switch {
	case s.HasPrefix("\r\n"):
		s.off += 2
	case s.HasPrefix("\n"):
		s.off++
	default:
		return false
	}

	return true
}

// Position converts a byte offset into a 1-based line and column.
func (s *Scanner) Position(off int) (line, col int) {
	if off > len(s.src) {
		off = len(s.src)
	}

	head := s.src[:off]
	nl := strings.Count(head, "\n")
	if nl == 0 {
		return s.line0, s.col0 + off
	}

	return s.line0 + nl, off - strings.LastIndexByte(head, '\n')
}

// Errorf reports a parse error at the cursor.
func (s *Scanner) Errorf(cause error, format string, args ...any) error {
	return s.ErrorAt(s.off, cause, format, args...)
}

// ErrorAt reports a parse error at a byte offset. An error that is already a
// ParseError is returned unchanged so the innermost position wins.
func (s *Scanner) ErrorAt(off int, cause error, format string, args ...any) error {
	var pe *errs.ParseError
	if errors.As(cause, &pe) {
		return cause
	}

	line, col := s.Position(off)

	return errs.NewParseError(line, col, cause, format, args...)
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func isNewline(b byte) bool {
	return b == '\n' || b == '\r'
}

// isTerminator reports whether b ends a bare word.
func isTerminator(b byte) bool {
	switch b {
	case 0, ' ', '\t', '\r', '\n', ',', '[', ']', '(', ')', '=', '|', '"':
		return true
	default:
		return false
	}
}

// IsKeyByte reports whether b may appear inside a key segment.
func IsKeyByte(b byte) bool {
	return b == '_' || b == '-' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
