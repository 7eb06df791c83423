package human

import (
	"errors"
	"strings"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/internal/options"
	"github.com/arloliu/dxform/internal/textval"
)

type line struct {
	num    int
	indent int
	text   string
}

func (l line) scanner() *textval.Scanner {
	return textval.NewScannerAt(l.text, l.num, l.indent+1)
}

func (l line) errorf(off int, cause error, format string, args ...any) error {
	return errs.NewParseError(l.num, l.indent+1+off, cause, format, args...)
}

// splitLines drops blank and comment lines and measures indentation.
func splitLines(input string) ([]line, error) {
	raw := strings.Split(input, "\n")
	lines := make([]line, 0, len(raw))

	for i, r := range raw {
		r = strings.TrimSuffix(r, "\r")
		if strings.TrimSpace(r) == "" {
			continue
		}

		indent := 0
		for r[indent] == ' ' {
			indent++
		}

		if r[indent] == '\t' {
			return nil, errs.NewParseError(i+1, indent+1, errs.ErrIndentation, "tab in indentation")
		}

		if r[indent] == '#' {
			continue
		}

		lines = append(lines, line{num: i + 1, indent: indent, text: r[indent:]})
	}

	return lines, nil
}

// DefaultMaxInputSize is the default input limit of Parse.
const DefaultMaxInputSize = textval.DefaultMaxInputSize

// ParserConfig holds the human parser settings.
type ParserConfig struct {
	maxInput int
}

// ParseOption configures Parse.
type ParseOption = options.Option[*ParserConfig]

// WithMaxInputSize sets the largest input in bytes that Parse accepts.
func WithMaxInputSize(size int) ParseOption {
	return options.New(func(c *ParserConfig) error {
		if size <= 0 {
			return errors.New("max input size must be positive")
		}
		c.maxInput = size

		return nil
	})
}

// Parse reads human text into a new Document. Input must be valid UTF-8 and at most
// DefaultMaxInputSize bytes unless WithMaxInputSize says otherwise. Any malformed
// line aborts the parse with a *errs.ParseError and no document.
func Parse(input string, opts ...ParseOption) (*document.Document, error) {
	cfg := &ParserConfig{maxInput: DefaultMaxInputSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if err := textval.CheckInput(input, cfg.maxInput); err != nil {
		return nil, err
	}

	lines, err := splitLines(input)
	if err != nil {
		return nil, err
	}

	p := &parser{lines: lines, style: textval.HumanStyle(), doc: document.New()}
	if err := p.run(); err != nil {
		return nil, err
	}

	return p.doc, nil
}

type parser struct {
	lines []line
	pos   int
	style *textval.Style
	doc   *document.Document
}

func (p *parser) run() error {
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent != 0 {
			return ln.errorf(0, errs.ErrIndentation, "unexpected indentation at top level")
		}

		if ln.text[0] == '[' {
			if err := p.section(ln); err != nil {
				return err
			}

			continue
		}

		key, v, err := p.entry(ln, 0, true)
		if err != nil {
			return err
		}

		if _, dup := p.doc.Get(key); dup {
			return ln.errorf(0, errs.ErrDuplicateKey, "key %q repeated", key)
		}
		p.doc.Set(key, v)
	}

	return nil
}

// next returns the next line of a block indented at indent under a parent at
// parentIndent. ok is false once the block ends.
func (p *parser) next(parentIndent, indent int) (line, bool, error) {
	if p.pos >= len(p.lines) {
		return line{}, false, nil
	}

	ln := p.lines[p.pos]
	switch {
	case ln.indent == indent:
		return ln, true, nil
	case ln.indent <= parentIndent:
		return line{}, false, nil
	default:
		return line{}, false, ln.errorf(0, errs.ErrIndentation, "indentation %d does not match the block's %d", ln.indent, indent)
	}
}

// entry parses a "key : value" line and any child block below it.
func (p *parser) entry(ln line, depth int, dotted bool) (string, document.Value, error) {
	p.pos++
	s := ln.scanner()

	for c := s.Peek(); textval.IsKeyByte(c) || c == '.'; c = s.Peek() {
		s.Advance(1)
	}

	key := ln.text[:s.Offset()]
	if key == "" {
		return "", nil, s.Errorf(errs.ErrSyntax, "expected key, found %q", s.Peek())
	}

	valid := document.ValidSegment(key)
	if dotted {
		valid = document.ValidKey(key)
	}

	if !valid {
		return "", nil, s.ErrorAt(0, errs.ErrInvalidKey, "invalid key %q", key)
	}

	switch s.Peek() {
	case '!':
		s.Advance(1)
		return key, document.Bool(true), lineEnd(s)
	case '?':
		s.Advance(1)
		return key, document.Null{}, lineEnd(s)
	}

	s.SkipBlanks()
	if s.Peek() != ':' {
		return "", nil, s.Errorf(errs.ErrSyntax, "expected ':' after key %q", key)
	}
	s.Advance(1)

	if s.Peek() == ':' {
		s.Advance(1)
		if s.Peek() == ' ' {
			s.Advance(1)
		}

		return key, document.Str(s.RestOfLine()), nil
	}

	v, err := p.tail(s, ln, depth)
	if err != nil {
		return "", nil, err
	}

	return key, v, nil
}

// tail parses what follows a separator: a value on the same line, or a child block.
func (p *parser) tail(s *textval.Scanner, ln line, depth int) (document.Value, error) {
	s.SkipBlanks()
	if s.AtLineEnd() {
		return p.block(ln, depth+1)
	}

	switch c := s.Peek(); {
	case s.HasPrefix("{}"):
		s.Advance(2)
		if err := lineEnd(s); err != nil {
			return nil, err
		}

		return document.NewObject(0), nil
	case c == '[' || c == '"' || s.AtDeclaration():
		v, err := p.style.ParseValue(s)
		if err != nil {
			return nil, err
		}

		if err := lineEnd(s); err != nil {
			return nil, err
		}

		return v, nil
	}

	return textval.Classify(strings.TrimRight(s.RestOfLine(), " \t")), nil
}

// block parses the indented lines below parent as an object, list or table.
func (p *parser) block(parent line, depth int) (document.Value, error) {
	if depth > document.MaxDepth {
		return nil, parent.errorf(0, errs.ErrSyntax, "nesting deeper than %d", document.MaxDepth)
	}

	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= parent.indent {
		return nil, parent.errorf(len(parent.text), errs.ErrSyntax, "expected a value or an indented block")
	}

	first := p.lines[p.pos]
	switch {
	case first.text[0] == '|':
		tbl, err := p.table(first.indent)
		if err != nil {
			return nil, err
		}

		return tbl, nil
	case isItem(first.text):
		return p.list(parent.indent, first.indent, depth)
	default:
		return p.object(parent.indent, first.indent, depth)
	}
}

func (p *parser) object(parentIndent, indent, depth int) (document.Value, error) {
	obj := document.NewObject(0)
	for {
		ln, ok, err := p.next(parentIndent, indent)
		if err != nil {
			return nil, err
		}

		if !ok {
			return obj, nil
		}

		key, v, err := p.entry(ln, depth, false)
		if err != nil {
			return nil, err
		}

		if obj.Has(key) {
			return nil, ln.errorf(0, errs.ErrDuplicateKey, "field %q repeated", key)
		}
		obj.Set(key, v)
	}
}

func (p *parser) list(parentIndent, indent, depth int) (document.Value, error) {
	items := []document.Value{}
	for {
		ln, ok, err := p.next(parentIndent, indent)
		if err != nil {
			return nil, err
		}

		if !ok {
			return document.NewArray(items...), nil
		}

		if !isItem(ln.text) {
			return nil, ln.errorf(0, errs.ErrSyntax, "expected a '- ' list item")
		}
		p.pos++

		s := ln.scanner()
		s.Advance(1)

		v, err := p.tail(s, ln, depth)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

// table parses consecutive "|" lines at indent; the first line is the header.
func (p *parser) table(indent int) (*document.Table, error) {
	header := p.lines[p.pos]
	p.pos++

	var cols []string
	seen := make(map[string]bool)
	err := gridCells(header, func(s *textval.Scanner) error {
		start := s.Offset()
		for textval.IsKeyByte(s.Peek()) {
			s.Advance(1)
		}

		col := header.text[start:s.Offset()]
		if !document.ValidSegment(col) {
			return s.ErrorAt(start, errs.ErrInvalidKey, "invalid column name %q", col)
		}

		if seen[col] {
			return s.ErrorAt(start, errs.ErrDuplicateKey, "column %q repeated", col)
		}
		seen[col] = true
		cols = append(cols, col)

		return nil
	})
	if err != nil {
		return nil, err
	}

	tbl := document.NewTable(cols...)
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent != indent || ln.text[0] != '|' {
			break
		}
		p.pos++

		row := make([]document.Value, 0, len(cols))
		err := gridCells(ln, func(s *textval.Scanner) error {
			if len(row) == len(cols) {
				return s.Errorf(errs.ErrArityMismatch, "row has more than %d cells", len(cols))
			}

			v, err := p.style.ParseValue(s)
			if err != nil {
				return err
			}
			row = append(row, v)

			return nil
		})
		if err != nil {
			return nil, err
		}

		if len(row) != len(cols) {
			return nil, ln.errorf(0, errs.ErrArityMismatch, "row has %d cells, header has %d columns", len(row), len(cols))
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	return tbl, nil
}

// section parses "[name]" and the grid lines that follow it.
func (p *parser) section(ln line) error {
	p.pos++
	s := ln.scanner()
	s.Advance(1)
	s.SkipBlanks()

	start := s.Offset()
	for textval.IsKeyByte(s.Peek()) {
		s.Advance(1)
	}

	name := ln.text[start:s.Offset()]
	if !document.ValidSegment(name) {
		return s.ErrorAt(start, errs.ErrInvalidKey, "invalid section name %q", name)
	}

	s.SkipBlanks()
	if s.Peek() != ']' {
		return s.Errorf(errs.ErrSyntax, "expected ']' after section name")
	}
	s.Advance(1)

	if err := lineEnd(s); err != nil {
		return err
	}

	tbl := document.NewTable()
	if p.pos < len(p.lines) && p.lines[p.pos].indent == 0 && p.lines[p.pos].text[0] == '|' {
		var err error
		if tbl, err = p.table(0); err != nil {
			return err
		}
	}

	if err := p.doc.AddSection(name, tbl); err != nil {
		return ln.errorf(0, err, "section %q", name)
	}

	return nil
}

// gridCells calls cell for each cell of a "| a | b |" line with the scanner on it.
func gridCells(ln line, cell func(*textval.Scanner) error) error {
	s := ln.scanner()
	s.Advance(1) // |

	for {
		s.SkipBlanks()
		if s.EOF() {
			return nil
		}

		if err := cell(s); err != nil {
			return err
		}

		s.SkipBlanks()
		if s.Peek() != '|' {
			return s.Errorf(errs.ErrSyntax, "expected '|' after cell")
		}
		s.Advance(1)
	}
}

func isItem(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}

func lineEnd(s *textval.Scanner) error {
	s.SkipBlanks()
	if !s.EOF() {
		return s.Errorf(errs.ErrSyntax, "unexpected %q at end of line", s.Peek())
	}

	return nil
}
