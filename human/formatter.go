package human

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/internal/options"
	"github.com/arloliu/dxform/internal/textval"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 4

// FormatterConfig holds the human formatter settings.
type FormatterConfig struct {
	indent int
	align  bool
}

// Option configures a Formatter.
type Option = options.Option[*FormatterConfig]

// WithIndent sets the number of spaces per nesting level, between 1 and 16.
func WithIndent(n int) Option {
	return options.New(func(c *FormatterConfig) error {
		if n < 1 || n > 16 {
			return errors.New("indent must be between 1 and 16 spaces")
		}
		c.indent = n

		return nil
	})
}

// WithAlignment toggles padding of keys and table cells into columns. Enabled by default.
func WithAlignment(enabled bool) Option {
	return options.NoError(func(c *FormatterConfig) {
		c.align = enabled
	})
}

// Formatter renders Documents as human text. It is safe for concurrent use.
type Formatter struct {
	cfg   FormatterConfig
	style *textval.Style
}

// NewFormatter creates a formatter with the given options.
func NewFormatter(opts ...Option) (*Formatter, error) {
	cfg := &FormatterConfig{indent: DefaultIndent, align: true}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Formatter{cfg: *cfg, style: textval.HumanStyle()}, nil
}

// Format renders doc with a formatter built from opts.
func Format(doc *document.Document, opts ...Option) (string, error) {
	f, err := NewFormatter(opts...)
	if err != nil {
		return "", err
	}

	return f.Format(doc)
}

// Format renders the context block, then each section after a blank line.
func (f *Formatter) Format(doc *document.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", errs.ErrUnrepresentable)
	}

	var sb strings.Builder
	if err := f.writeFields(&sb, doc.Context(), 0, 0, true); err != nil {
		return "", err
	}

	for _, sec := range doc.Sections() {
		if !document.ValidSegment(sec.Name) {
			return "", fmt.Errorf("%w: section name %q", errs.ErrUnrepresentable, sec.Name)
		}

		if sec.Table == nil {
			return "", fmt.Errorf("section %q: %w", sec.Name, document.UnknownVariant(sec.Table))
		}

		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteByte('[')
		sb.WriteString(sec.Name)
		sb.WriteString("]\n")

		if err := f.writeGrid(&sb, sec.Table, 0); err != nil {
			return "", fmt.Errorf("section %q: %w", sec.Name, err)
		}
	}

	return sb.String(), nil
}

func (f *Formatter) indent(level int) string {
	return strings.Repeat(" ", level*f.cfg.indent)
}

func (f *Formatter) writeFields(sb *strings.Builder, fields []document.Field, level, depth int, dotted bool) error {
	if depth > document.MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnrepresentable, document.MaxDepth)
	}

	width := 0
	if f.cfg.align {
		for _, fld := range fields {
			width = max(width, len(fld.Key))
		}
	}

	ind := f.indent(level)
	for _, fld := range fields {
		valid := document.ValidSegment(fld.Key)
		if dotted {
			valid = document.ValidKey(fld.Key)
		}

		if !valid {
			return fmt.Errorf("%w: key %q", errs.ErrUnrepresentable, fld.Key)
		}

		sb.WriteString(ind)
		sb.WriteString(fld.Key)
		if pad := width - len(fld.Key); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}

		if err := f.writeEntryValue(sb, fld.Value, level, depth); err != nil {
			return fmt.Errorf("key %q: %w", fld.Key, err)
		}
	}

	return nil
}

// writeEntryValue writes everything after the key of a "key : value" line.
func (f *Formatter) writeEntryValue(sb *strings.Builder, v document.Value, level, depth int) error {
	if isBlock(v) {
		sb.WriteString(" :\n")
		return f.writeBlock(sb, v, level+1, depth+1)
	}

	if str, ok := v.(document.Str); ok && useLeaf(string(str)) {
		sb.WriteString(" :: ")
		sb.WriteString(string(str))
		sb.WriteByte('\n')

		return nil
	}

	text, err := f.scalarText(v)
	if err != nil {
		return err
	}
	sb.WriteString(" : ")
	sb.WriteString(text)
	sb.WriteByte('\n')

	return nil
}

func (f *Formatter) writeBlock(sb *strings.Builder, v document.Value, level, depth int) error {
	switch val := v.(type) {
	case *document.Object:
		return f.writeFields(sb, val.Fields(), level, depth, false)
	case document.Array:
		if depth > document.MaxDepth {
			return fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnrepresentable, document.MaxDepth)
		}

		ind := f.indent(level)
		for _, item := range val.Items {
			sb.WriteString(ind)
			sb.WriteByte('-')

			if isBlock(item) {
				sb.WriteByte('\n')
				if err := f.writeBlock(sb, item, level+1, depth+1); err != nil {
					return err
				}

				continue
			}

			text, err := f.scalarText(item)
			if err != nil {
				return err
			}
			sb.WriteByte(' ')
			sb.WriteString(text)
			sb.WriteByte('\n')
		}

		return nil
	case *document.Table:
		return f.writeGrid(sb, val, level)
	default:
		return document.UnknownVariant(v)
	}
}

// scalarText renders a value that fits on its line.
func (f *Formatter) scalarText(v document.Value) (string, error) {
	switch val := v.(type) {
	case document.Str:
		str := string(val)
		if humanPlain(str) {
			return str, nil
		}

		return strconv.Quote(str), nil
	case document.Array:
		return "[]", nil
	case *document.Object:
		if val == nil {
			return "", document.UnknownVariant(v)
		}

		return "{}", nil
	default:
		return f.style.Render(v)
	}
}

// writeGrid writes a table as "| a | b |" lines, header first.
func (f *Formatter) writeGrid(sb *strings.Builder, t *document.Table, level int) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUnrepresentable, err)
	}

	if len(t.Columns) == 0 {
		if len(t.Rows) > 0 {
			return fmt.Errorf("%w: rows in a table without columns", errs.ErrUnrepresentable)
		}

		return nil
	}

	grid := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if !document.ValidSegment(c) {
			return fmt.Errorf("%w: column %q", errs.ErrUnrepresentable, c)
		}
		header[i] = c
	}
	grid = append(grid, header)

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			text, err := f.style.Render(cell)
			if err != nil {
				return err
			}
			cells[i] = text
		}
		grid = append(grid, cells)
	}

	widths := make([]int, len(t.Columns))
	if f.cfg.align {
		for _, cells := range grid {
			for i, c := range cells {
				widths[i] = max(widths[i], len(c))
			}
		}
	}

	ind := f.indent(level)
	for _, cells := range grid {
		sb.WriteString(ind)
		sb.WriteByte('|')
		for i, c := range cells {
			sb.WriteByte(' ')
			sb.WriteString(c)
			if pad := widths[i] - len(c); pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			sb.WriteString(" |")
		}
		sb.WriteByte('\n')
	}

	return nil
}

// isBlock reports whether v is written as an indented child block.
func isBlock(v document.Value) bool {
	switch val := v.(type) {
	case *document.Object:
		return val != nil && val.Len() > 0
	case document.Array:
		return len(val.Items) > 0
	case *document.Table:
		return val != nil && len(val.Columns) > 0
	default:
		return false
	}
}

// humanPlain reports whether str reads back unchanged as an unquoted value:
// the parser trims the rest of the line and types it as a bare word.
func humanPlain(str string) bool {
	if str == "" || str != strings.TrimSpace(str) || textval.HasControl(str) {
		return false
	}

	switch str[0] {
	case '"', '[', '{', ':':
		return false
	}

	if textval.NewScanner(str).AtDeclaration() {
		return false
	}

	_, ok := textval.Classify(str).(document.Str)

	return ok
}

// useLeaf reports whether an entry string is written as "key :: raw".
func useLeaf(str string) bool {
	return str != "" && !humanPlain(str) && !textval.HasControl(str)
}
