package compact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/internal/options"
	"github.com/arloliu/dxform/internal/textval"
	"github.com/arloliu/dxform/mapping"
	"github.com/arloliu/dxform/optimizer"
)

const blockIndent = "    "

// SerializerConfig holds the compact serializer settings.
type SerializerConfig struct {
	policy   optimizer.InlinePolicy
	truncate int
	ditto    bool
	inherit  bool
}

// Option configures a Serializer.
type Option = options.Option[*SerializerConfig]

// WithInlinePolicy replaces the inline-vs-block thresholds.
func WithInlinePolicy(p optimizer.InlinePolicy) Option {
	return options.New(func(c *SerializerConfig) error {
		if p.MaxFields < 0 || p.MaxWidth < 0 {
			return errors.New("inline policy thresholds must not be negative")
		}
		c.policy = p

		return nil
	})
}

// WithKeyTruncation truncates key segments that have no abbreviation to limit bytes.
// A limit of zero or less selects optimizer.DefaultTruncateLength. The output is an
// editing hint: it does not parse back to the same keys.
func WithKeyTruncation(limit int) Option {
	return options.NoError(func(c *SerializerConfig) {
		if limit <= 0 {
			limit = optimizer.DefaultTruncateLength
		}
		c.truncate = limit
	})
}

// WithDitto toggles ditto markers in table rows. Enabled by default.
func WithDitto(enabled bool) Option {
	return options.NoError(func(c *SerializerConfig) {
		c.ditto = enabled
	})
}

// WithPrefixInheritance toggles "^suffix" keys. Enabled by default.
func WithPrefixInheritance(enabled bool) Option {
	return options.NoError(func(c *SerializerConfig) {
		c.inherit = enabled
	})
}

// Serializer renders Documents as compact text. It is safe for concurrent use.
type Serializer struct {
	cfg   SerializerConfig
	keys  registryKeys
	style *textval.Style
}

// NewSerializer creates a serializer abbreviating keys through reg. A nil reg writes
// keys as they are.
func NewSerializer(reg *mapping.Registry, opts ...Option) (*Serializer, error) {
	cfg := &SerializerConfig{
		policy:  optimizer.DefaultInlinePolicy(),
		ditto:   true,
		inherit: true,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if reg == nil {
		reg = mapping.Identity()
	}

	keys := registryKeys{reg: reg, truncate: cfg.truncate}
	style := textval.CompactStyle(keys)
	style.Ditto = cfg.ditto
	style.UseDitto = optimizer.UseDitto

	return &Serializer{cfg: *cfg, keys: keys, style: style}, nil
}

// Serialize renders doc with a serializer built from reg and opts.
func Serialize(doc *document.Document, reg *mapping.Registry, opts ...Option) (string, error) {
	s, err := NewSerializer(reg, opts...)
	if err != nil {
		return "", err
	}

	return s.Serialize(doc)
}

// Serialize renders the context in order, then every section.
func (s *Serializer) Serialize(doc *document.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", errs.ErrUnrepresentable)
	}

	var sb strings.Builder
	prev := ""
	for _, f := range doc.Context() {
		if !document.ValidKey(f.Key) {
			return "", fmt.Errorf("%w: key %q", errs.ErrUnrepresentable, f.Key)
		}

		keyText, err := s.renderKey(prev, f.Key)
		if err != nil {
			return "", err
		}

		if err := s.writeEntry(&sb, keyText, f.Value); err != nil {
			return "", fmt.Errorf("key %q: %w", f.Key, err)
		}
		sb.WriteByte('\n')
		prev = f.Key
	}

	for _, sec := range doc.Sections() {
		if !document.ValidSegment(sec.Name) {
			return "", fmt.Errorf("%w: section name %q", errs.ErrUnrepresentable, sec.Name)
		}

		if sec.Table == nil {
			return "", fmt.Errorf("section %q: %w", sec.Name, document.UnknownVariant(sec.Table))
		}

		body, err := s.tableText(sec.Table)
		if err != nil {
			return "", fmt.Errorf("section %q: %w", sec.Name, err)
		}

		sb.WriteByte('@')
		sb.WriteString(sec.Name)
		sb.WriteByte(':')
		sb.WriteString(body)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}

func (s *Serializer) renderKey(prev, key string) (string, error) {
	if s.cfg.inherit {
		if suffix, ok := optimizer.InheritedSuffix(prev, key); ok {
			short, err := s.keys.compressKey(suffix)
			if err != nil {
				return "", err
			}

			return optimizer.PrefixMarker + short, nil
		}
	}

	return s.keys.compressKey(key)
}

func (s *Serializer) writeEntry(sb *strings.Builder, key string, v document.Value) error {
	sb.WriteString(key)

	switch val := v.(type) {
	case document.Null:
		sb.WriteByte('?')
	case document.Bool:
		if val {
			sb.WriteByte('!')
		} else {
			sb.WriteString(":-")
		}
	case document.Number:
		num, err := textval.FormatNumber(float64(val))
		if err != nil {
			return err
		}
		sb.WriteByte(':')
		sb.WriteString(num)
	case document.Str:
		str := string(val)
		switch {
		case textval.HasControl(str):
			sb.WriteByte(':')
			sb.WriteString(strconv.Quote(str))
		case plainSafe(str):
			sb.WriteByte(':')
			sb.WriteString(str)
		default:
			sb.WriteString("::")
			sb.WriteString(str)
		}
	case document.Array:
		if optimizer.StyleOf(val) == optimizer.ArrayStream {
			sb.WriteByte('>')
			for i, item := range val.Items {
				if i > 0 {
					sb.WriteByte('|')
				}

				text, err := s.style.Render(item)
				if err != nil {
					return err
				}
				sb.WriteString(text)
			}

			return nil
		}

		text, err := s.style.Render(val)
		if err != nil {
			return err
		}
		sb.WriteByte(':')
		sb.WriteString(text)
	case *document.Object:
		text, err := s.objectText(val)
		if err != nil {
			return err
		}
		sb.WriteByte(':')
		sb.WriteString(text)
	case *document.Table:
		if val == nil {
			return document.UnknownVariant(v)
		}

		text, err := s.tableText(val)
		if err != nil {
			return err
		}
		sb.WriteByte(':')
		sb.WriteString(text)
	default:
		return document.UnknownVariant(v)
	}

	return nil
}

func (s *Serializer) objectText(obj *document.Object) (string, error) {
	inline, err := s.style.Render(obj)
	if err != nil {
		return "", err
	}

	if optimizer.ShouldInline(obj.Len(), len(inline), s.cfg.policy) {
		return inline, nil
	}

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(obj.Len()))
	sb.WriteString("[\n")
	for _, f := range obj.Fields() {
		key, err := s.keys.RenderKey(f.Key)
		if err != nil {
			return "", err
		}

		text, err := s.style.Render(f.Value)
		if err != nil {
			return "", err
		}

		sb.WriteString(blockIndent)
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	sb.WriteByte(']')

	return sb.String(), nil
}

func (s *Serializer) tableText(t *document.Table) (string, error) {
	header, rows, err := s.style.RenderTable(t)
	if err != nil {
		return "", err
	}

	inline := header + "[" + strings.Join(rows, ",") + "]"
	if optimizer.ShouldInline(len(rows), len(inline), s.cfg.policy) {
		return inline, nil
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("[\n")
	for _, row := range rows {
		sb.WriteString(blockIndent)
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	sb.WriteByte(']')

	return sb.String(), nil
}

// plainSafe reports whether str survives "key:str" unchanged: the parser reads the
// rest of the line, trims it, and types it as a bare word.
func plainSafe(str string) bool {
	if str == "" || str == textval.DittoMarker || str != strings.TrimSpace(str) {
		return false
	}

	switch str[0] {
	case '[', '"', ':':
		return false
	}

	if i := strings.IndexFunc(str, func(r rune) bool { return r < '0' || r > '9' }); i > 0 && (str[i] == '[' || str[i] == '(') {
		return false
	}

	_, ok := textval.Classify(str).(document.Str)

	return ok
}
