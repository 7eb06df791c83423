package compact

import (
	"errors"
	"strconv"
	"strings"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/internal/options"
	"github.com/arloliu/dxform/internal/textval"
	"github.com/arloliu/dxform/mapping"
	"github.com/arloliu/dxform/optimizer"
)

// DefaultMaxInputSize is the default input limit of Parse.
const DefaultMaxInputSize = textval.DefaultMaxInputSize

// ParserConfig holds the compact parser settings.
type ParserConfig struct {
	maxInput int
}

// ParseOption configures Parse.
type ParseOption = options.Option[*ParserConfig]

// WithMaxInputSize sets the largest input in bytes that Parse accepts. Default is
// DefaultMaxInputSize.
func WithMaxInputSize(size int) ParseOption {
	return options.New(func(c *ParserConfig) error {
		if size <= 0 {
			return errors.New("max input size must be positive")
		}
		c.maxInput = size

		return nil
	})
}

// Parse reads compact text into a new Document, expanding abbreviated keys through reg.
// A nil reg parses keys as written. Input must be valid UTF-8 and within the size
// limit. Any malformed statement aborts the parse with a *errs.ParseError and no
// document.
func Parse(input string, reg *mapping.Registry, opts ...ParseOption) (*document.Document, error) {
	cfg := &ParserConfig{maxInput: DefaultMaxInputSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if err := textval.CheckInput(input, cfg.maxInput); err != nil {
		return nil, err
	}

	if reg == nil {
		reg = mapping.Identity()
	}

	keys := registryKeys{reg: reg}
	p := &parser{
		s:     textval.NewScanner(input),
		keys:  keys,
		style: textval.CompactStyle(keys),
		doc:   document.New(),
	}

	if err := p.run(); err != nil {
		return nil, err
	}

	return p.doc, nil
}

type parser struct {
	s       *textval.Scanner
	keys    registryKeys
	style   *textval.Style
	doc     *document.Document
	prevKey string
}

func (p *parser) run() error {
	s := p.s
	for {
		s.SkipBlanks()
		if s.EOF() {
			return nil
		}

		var err error
		switch c := s.Peek(); c {
		case '\n', '\r':
			s.Advance(1)
			continue
		case '#':
			s.SkipLine()
			continue
		case '@':
			err = p.section()
		default:
			err = p.statement()
		}

		if err != nil {
			return err
		}

		s.SkipBlanks()
		if !s.AtLineEnd() {
			return s.Errorf(errs.ErrSyntax, "unexpected %q after statement", s.Peek())
		}
	}
}

func (p *parser) statement() error {
	s := p.s
	start := s.Offset()

	inherit := false
	if s.HasPrefix(optimizer.PrefixMarker) {
		inherit = true
		s.Advance(1)
	}

	keyOff := s.Offset()
	token := p.readKeyToken()
	if token == "" {
		return s.Errorf(errs.ErrSyntax, "expected key, found %q", s.Peek())
	}

	key, err := p.keys.expandKey(token)
	if err != nil {
		return s.ErrorAt(keyOff, err, "invalid key %q", token)
	}

	if inherit {
		prefix := optimizer.Prefix(p.prevKey)
		if prefix == "" {
			return s.ErrorAt(start, errs.ErrPrefixNoParent, "'^%s' has no dotted key to inherit from", token)
		}
		key = prefix + "." + key
	}

	if _, dup := p.doc.Get(key); dup {
		return s.ErrorAt(keyOff, errs.ErrDuplicateKey, "key %q repeated", key)
	}

	v, err := p.value()
	if err != nil {
		return err
	}

	p.doc.Set(key, v)
	p.prevKey = key

	return nil
}

// value parses what follows a statement key.
func (p *parser) value() (document.Value, error) {
	s := p.s

	switch s.Peek() {
	case ':':
		if s.PeekAt(1) == ':' {
			s.Advance(2)
			return document.Str(s.RestOfLine()), nil
		}
		s.Advance(1)

		return p.assignment()
	case '>':
		s.Advance(1)
		return p.stream()
	case '!':
		s.Advance(1)
		return document.Bool(true), nil
	case '?':
		s.Advance(1)
		return document.Null{}, nil
	default:
		if s.AtLineEnd() {
			return nil, s.Errorf(errs.ErrSyntax, "statement has no value")
		}

		return nil, s.Errorf(errs.ErrSyntax, "unrecognized sigil %q", s.Peek())
	}
}

// assignment parses the value of "key:value".
func (p *parser) assignment() (document.Value, error) {
	s := p.s
	s.SkipBlanks()

	switch c := s.Peek(); {
	case c == '[' || s.AtDeclaration():
		return p.style.ParseValue(s)
	case c == '"':
		str, err := textval.ParseQuoted(s)
		if err != nil {
			return nil, err
		}

		return document.Str(str), nil
	}

	valOff := s.Offset()
	rest := strings.TrimRight(s.RestOfLine(), " \t")
	if rest == textval.DittoMarker {
		return nil, s.ErrorAt(valOff, errs.ErrDittoOutsideTable, "ditto marker is only valid in a table cell")
	}

	return textval.Classify(rest), nil
}

// stream parses the pipe-delimited items of "key>a|b|c".
func (p *parser) stream() (document.Value, error) {
	s := p.s
	s.SkipBlanks()

	items := []document.Value{}
	if s.AtLineEnd() {
		return document.Array{Items: items, Stream: true}, nil
	}

	for {
		v, err := p.style.ParseValue(s)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		s.SkipBlanks()
		if s.Peek() != '|' {
			return document.Array{Items: items, Stream: true}, nil
		}
		s.Advance(1)
		s.SkipBlanks()
	}
}

// section parses "@name:N(schema)[rows]".
func (p *parser) section() error {
	s := p.s
	start := s.Offset()
	s.Advance(1) // @

	nameOff := s.Offset()
	for textval.IsKeyByte(s.Peek()) {
		s.Advance(1)
	}

	name := s.Source()[nameOff:s.Offset()]
	if !document.ValidSegment(name) {
		return s.ErrorAt(nameOff, errs.ErrInvalidKey, "invalid section name %q", name)
	}

	if s.Peek() != ':' {
		return s.Errorf(errs.ErrSyntax, "expected ':' after section name")
	}
	s.Advance(1)

	declOff := s.Offset()
	n, ok := readCount(s)
	if !ok {
		return s.Errorf(errs.ErrSyntax, "expected column count for section %q", name)
	}

	tbl, err := p.style.ParseTable(s, n, declOff)
	if err != nil {
		return err
	}

	if err := p.doc.AddSection(name, tbl); err != nil {
		return s.ErrorAt(start, err, "section %q", name)
	}

	return nil
}

func (p *parser) readKeyToken() string {
	s := p.s
	start := s.Offset()
	for {
		c := s.Peek()
		if textval.IsKeyByte(c) || c == '.' || c == '\'' {
			s.Advance(1)
			continue
		}

		return s.Source()[start:s.Offset()]
	}
}

func readCount(s *textval.Scanner) (int, bool) {
	start := s.Offset()
	for c := s.Peek(); c >= '0' && c <= '9'; c = s.Peek() {
		s.Advance(1)
	}

	n, err := strconv.Atoi(s.Source()[start:s.Offset()])
	if err != nil {
		return 0, false
	}

	return n, true
}
