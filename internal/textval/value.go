package textval

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/optimizer"
)

// DittoMarker is the table cell token meaning "same as the previous row".
const DittoMarker = optimizer.DittoToken

// KeyMapper translates key segments between their in-document and written forms.
type KeyMapper interface {
	// ParseKey maps a written key token to a document key segment.
	ParseKey(token string) (string, error)
	// RenderKey maps a document key segment to its written token.
	RenderKey(segment string) (string, error)
}

// Style is one grammar's rendition of nested values.
type Style struct {
	Null  string
	True  string
	False string
	// Ditto enables the ditto marker in table cells, on both parse and render.
	Ditto bool
	// UseDitto decides whether a rendered cell is replaced by the ditto marker.
	// Nil means structural equality with the cell above.
	UseDitto func(prev, cur document.Value) bool
	Keys     KeyMapper
}

// PlainKeys is the KeyMapper that writes segments as they are.
type PlainKeys struct{}

func (PlainKeys) ParseKey(token string) (string, error) {
	if !document.ValidSegment(token) {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidKey, token)
	}

	return token, nil
}

func (PlainKeys) RenderKey(segment string) (string, error) {
	if !document.ValidSegment(segment) {
		return "", fmt.Errorf("%w: key segment %q", errs.ErrUnrepresentable, segment)
	}

	return segment, nil
}

// CompactStyle returns the token-minimal style with ditto enabled.
func CompactStyle(keys KeyMapper) *Style {
	return &Style{Null: optimizer.NullToken, True: "+", False: "-", Ditto: true, Keys: keys}
}

// HumanStyle returns the readable style used by the human grammar.
func HumanStyle() *Style {
	return &Style{Null: "null", True: "true", False: "false", Keys: PlainKeys{}}
}

var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Classify types a bare word: null, boolean and number spellings become those
// variants, everything else is a string. The ditto marker is not special here.
func Classify(word string) document.Value {
	switch word {
	case optimizer.NullToken, "null":
		return document.Null{}
	case "+", "true":
		return document.Bool(true)
	case "-", "false":
		return document.Bool(false)
	}

	if numberPattern.MatchString(word) {
		f, err := strconv.ParseFloat(word, 64)
		if err == nil && !math.IsInf(f, 0) {
			return document.Number(f)
		}
	}

	return document.Str(word)
}

// ParseValue parses one nested value at the cursor.
func (st *Style) ParseValue(s *Scanner) (document.Value, error) {
	return st.parseValue(s, 0)
}

// ParseString parses text as exactly one nested value surrounded by optional blanks.
func (st *Style) ParseString(s *Scanner) (document.Value, error) {
	s.SkipBlanks()

	v, err := st.parseValue(s, 0)
	if err != nil {
		return nil, err
	}

	s.SkipBlanks()
	if !s.EOF() {
		return nil, s.Errorf(errs.ErrSyntax, "unexpected %q after value", s.Peek())
	}

	return v, nil
}

func (st *Style) parseValue(s *Scanner, depth int) (document.Value, error) {
	if depth > document.MaxDepth {
		return nil, s.Errorf(errs.ErrSyntax, "nesting deeper than %d", document.MaxDepth)
	}

	switch c := s.Peek(); {
	case c == '[':
		return st.parseArray(s, depth)
	case c == '"':
		str, err := ParseQuoted(s)
		if err != nil {
			return nil, err
		}

		return document.Str(str), nil
	case isTerminator(c):
		if s.EOF() {
			return nil, s.Errorf(errs.ErrUnexpectedEOF, "expected value")
		}

		return nil, s.Errorf(errs.ErrSyntax, "expected value, found %q", c)
	}

	start := s.Offset()
	word := readWord(s)

	if isDigits(word) && (s.Peek() == '[' || s.Peek() == '(') {
		n, err := strconv.Atoi(word)
		if err != nil {
			return nil, s.ErrorAt(start, errs.ErrSyntax, "invalid count %q", word)
		}

		if s.Peek() == '[' {
			return st.parseObject(s, n, start, depth)
		}

		tbl, err := st.parseTable(s, n, start, depth)
		if err != nil {
			return nil, err
		}

		return tbl, nil
	}

	if word == DittoMarker {
		return nil, s.ErrorAt(start, errs.ErrDittoOutsideTable, "ditto marker is only valid in a table cell")
	}

	return Classify(word), nil
}

// ParseQuoted consumes a Go-syntax double-quoted string at the cursor.
func ParseQuoted(s *Scanner) (string, error) {
	src := s.Source()
	start := s.Offset()
	i := start + 1

	for {
		if i >= len(src) || src[i] == '\n' {
			return "", s.ErrorAt(start, errs.ErrInvalidString, "unterminated string")
		}

		if src[i] == '\\' {
			i += 2
			continue
		}

		if src[i] == '"' {
			break
		}
		i++
	}

	str, err := strconv.Unquote(src[start : i+1])
	if err != nil {
		return "", s.ErrorAt(start, errs.ErrInvalidString, "invalid string literal")
	}
	s.SetOffset(i + 1)

	return str, nil
}

func (st *Style) parseArray(s *Scanner, depth int) (document.Value, error) {
	start := s.Offset()
	s.Advance(1) // [

	items := []document.Value{}
	for {
		skipSeparators(s)

		if s.EOF() {
			return nil, s.ErrorAt(start, errs.ErrUnclosedBracket, "array is not closed")
		}

		if s.Peek() == ']' {
			s.Advance(1)
			return document.Array{Items: items}, nil
		}

		v, err := st.parseValue(s, depth+1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		if err := expectSeparator(s); err != nil {
			return nil, err
		}
	}
}

func (st *Style) parseObject(s *Scanner, n, start, depth int) (document.Value, error) {
	s.Advance(1) // [

	obj := document.NewObject(min(n, 64))
	for {
		skipSeparators(s)

		if s.EOF() {
			return nil, s.ErrorAt(start, errs.ErrUnclosedBracket, "object is not closed")
		}

		if s.Peek() == ']' {
			s.Advance(1)
			break
		}

		keyOff := s.Offset()
		key, err := st.parseKey(s)
		if err != nil {
			return nil, err
		}

		if s.Peek() != '=' {
			return nil, s.Errorf(errs.ErrSyntax, "expected '=' after field %q", key)
		}
		s.Advance(1)

		if obj.Has(key) {
			return nil, s.ErrorAt(keyOff, errs.ErrDuplicateKey, "field %q repeated", key)
		}

		v, err := st.parseValue(s, depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)

		if err := expectSeparator(s); err != nil {
			return nil, err
		}
	}

	if obj.Len() != n {
		return nil, s.ErrorAt(start, errs.ErrArityMismatch, "object declares %d fields, has %d", n, obj.Len())
	}

	return obj, nil
}

// ParseTable parses "(schema)[rows]" at the cursor for a table that declares n columns.
// start is the offset of the declaration, used for error positions.
func (st *Style) ParseTable(s *Scanner, n, start int) (*document.Table, error) {
	return st.parseTable(s, n, start, 0)
}

func (st *Style) parseTable(s *Scanner, n, start, depth int) (*document.Table, error) {
	if s.Peek() != '(' {
		return nil, s.Errorf(errs.ErrSyntax, "expected '(' to open table schema")
	}
	s.Advance(1)

	cols := make([]string, 0, min(n, 64))
	seen := make(map[string]bool, min(n, 64))
	for {
		s.SkipSpace()

		if s.EOF() {
			return nil, s.ErrorAt(start, errs.ErrUnclosedBracket, "table schema is not closed")
		}

		if s.Peek() == ')' {
			s.Advance(1)
			break
		}

		colOff := s.Offset()
		col, err := st.parseKey(s)
		if err != nil {
			return nil, err
		}

		if seen[col] {
			return nil, s.ErrorAt(colOff, errs.ErrDuplicateKey, "column %q repeated", col)
		}
		seen[col] = true
		cols = append(cols, col)
	}

	if len(cols) != n {
		return nil, s.ErrorAt(start, errs.ErrArityMismatch, "table declares %d columns, schema has %d", n, len(cols))
	}

	if s.Peek() != '[' {
		return nil, s.Errorf(errs.ErrSyntax, "expected '[' to open table rows")
	}
	bodyOff := s.Offset()
	s.Advance(1)

	tbl := document.NewTable(cols...)
	var row []document.Value
	rowOff := s.Offset()

	flush := func() error {
		if len(row) == 0 {
			return nil
		}

		if len(row) != n {
			return s.ErrorAt(rowOff, errs.ErrArityMismatch, "row has %d cells, schema has %d columns", len(row), n)
		}
		tbl.Rows = append(tbl.Rows, row)
		row = nil

		return nil
	}

	for {
		s.SkipBlanks()

		switch c := s.Peek(); {
		case s.EOF():
			return nil, s.ErrorAt(bodyOff, errs.ErrUnclosedBracket, "table rows are not closed")
		case c == ']':
			if err := flush(); err != nil {
				return nil, err
			}
			s.Advance(1)

			return tbl, nil
		case c == ',' || isNewline(c):
			if err := flush(); err != nil {
				return nil, err
			}
			s.Advance(1)

			continue
		}

		if len(row) == 0 {
			rowOff = s.Offset()
		}

		if len(row) >= n {
			return nil, s.ErrorAt(rowOff, errs.ErrArityMismatch, "row has more than %d cells", n)
		}

		var cell document.Value
		if st.Ditto && s.Peek() == '_' && isTerminator(s.PeekAt(1)) {
			if len(tbl.Rows) == 0 {
				return nil, s.Errorf(errs.ErrDittoNoPrevious, "ditto marker in the first row")
			}
			cell = tbl.Rows[len(tbl.Rows)-1][len(row)]
			s.Advance(1)
		} else {
			v, err := st.parseValue(s, depth+1)
			if err != nil {
				return nil, err
			}
			cell = v
		}
		row = append(row, cell)

		if c := s.Peek(); !isBlank(c) && !isNewline(c) && c != ',' && c != ']' && !s.EOF() {
			return nil, s.Errorf(errs.ErrSyntax, "unexpected %q after cell", c)
		}
	}
}

func (st *Style) parseKey(s *Scanner) (string, error) {
	start := s.Offset()
	if s.Peek() == '\'' {
		s.Advance(1)
	}

	for IsKeyByte(s.Peek()) {
		s.Advance(1)
	}

	token := s.Source()[start:s.Offset()]
	if token == "" || token == "'" {
		return "", s.ErrorAt(start, errs.ErrSyntax, "expected key")
	}

	key, err := st.Keys.ParseKey(token)
	if err != nil {
		return "", s.ErrorAt(start, err, "invalid key %q", token)
	}

	return key, nil
}

func readWord(s *Scanner) string {
	start := s.Offset()
	for !isTerminator(s.Peek()) {
		s.Advance(1)
	}

	return s.Source()[start:s.Offset()]
}

func skipSeparators(s *Scanner) {
	for {
		c := s.Peek()
		if c == ',' || isBlank(c) || isNewline(c) {
			s.Advance(1)
			continue
		}

		return
	}
}

func expectSeparator(s *Scanner) error {
	c := s.Peek()
	if s.EOF() || c == ',' || c == ']' || isBlank(c) || isNewline(c) {
		return nil
	}

	return s.Errorf(errs.ErrSyntax, "unexpected %q", c)
}

func isDigits(w string) bool {
	if w == "" {
		return false
	}

	for i := 0; i < len(w); i++ {
		if w[i] < '0' || w[i] > '9' {
			return false
		}
	}

	return true
}
