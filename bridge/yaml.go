// Package bridge converts third-party configuration formats into Documents.
//
// FromYAML reads YAML 1.2, and therefore JSON, through gopkg.in/yaml.v3 nodes:
// mappings become objects, sequences become arrays and scalars are typed by their
// resolved tag. A top-level key whose value is a non-empty sequence of mappings
// that all have the same keys becomes a Section instead of a context entry.
package bridge

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/internal/options"
)

// Config holds the bridge settings.
type Config struct {
	sections bool
}

// Option configures FromYAML.
type Option = options.Option[*Config]

// WithSections controls whether top-level sequences of uniform mappings become
// sections. Default is true; when false they stay arrays of objects.
func WithSections(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.sections = enabled
	})
}

// FromYAML builds a Document from YAML or JSON input. Empty input yields an empty
// Document. The top level must be a mapping.
func FromYAML(data []byte, opts ...Option) (*document.Document, error) {
	cfg := &Config{sections: true}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errs.NewParseError(0, 0, errs.ErrSyntax, "yaml: %v", err)
	}

	doc := document.New()
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, nodeError(top, errs.ErrUnrepresentable, "top level is a %s, want a mapping", kindName(top.Kind))
	}

	b := &builder{cfg: cfg}
	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode, valNode := top.Content[i], resolve(top.Content[i+1])

		key, err := b.key(keyNode, document.ValidKey)
		if err != nil {
			return nil, err
		}

		if _, dup := doc.Get(key); dup || hasSection(doc, key) {
			return nil, nodeError(keyNode, errs.ErrDuplicateKey, "key %q repeated", key)
		}

		if cfg.sections && document.ValidSegment(key) {
			if cols, ok := uniformColumns(valNode); ok {
				tbl, err := b.table(valNode, cols)
				if err != nil {
					return nil, err
				}

				if err := doc.AddSection(key, tbl); err != nil {
					return nil, nodeError(keyNode, err, "section %q", key)
				}

				continue
			}
		}

		v, err := b.value(valNode, 0)
		if err != nil {
			return nil, err
		}
		doc.Set(key, v)
	}

	return doc, nil
}

// maxValues bounds the values built from one input, counting every value reached
// through an alias again.
const maxValues = 1 << 22

type builder struct {
	cfg    *Config
	values int
}

func (b *builder) key(n *yaml.Node, valid func(string) bool) (string, error) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return "", nodeError(n, errs.ErrInvalidKey, "mapping key is a %s", kindName(n.Kind))
	}

	if !valid(n.Value) {
		return "", nodeError(n, errs.ErrInvalidKey, "invalid key %q", n.Value)
	}

	return n.Value, nil
}

func (b *builder) value(n *yaml.Node, depth int) (document.Value, error) {
	if depth > document.MaxDepth {
		return nil, nodeError(n, errs.ErrUnrepresentable, "nesting deeper than %d", document.MaxDepth)
	}

	if b.values++; b.values > maxValues {
		return nil, nodeError(n, errs.ErrUnrepresentable, "input expands to more than %d values", maxValues)
	}

	n = resolve(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n)
	case yaml.SequenceNode:
		items := make([]document.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := b.value(c, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}

		return document.NewArray(items...), nil
	case yaml.MappingNode:
		obj := document.NewObject(len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := b.key(n.Content[i], document.ValidSegment)
			if err != nil {
				return nil, err
			}

			if obj.Has(key) {
				return nil, nodeError(n.Content[i], errs.ErrDuplicateKey, "field %q repeated", key)
			}

			v, err := b.value(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}

		return obj, nil
	default:
		return nil, nodeError(n, errs.ErrUnrepresentable, "unsupported %s node", kindName(n.Kind))
	}
}

// table converts a sequence of mappings with the given columns.
func (b *builder) table(seq *yaml.Node, cols []string) (*document.Table, error) {
	tbl := document.NewTable(cols...)
	for _, item := range seq.Content {
		m := resolve(item)
		row := make([]document.Value, len(cols))
		for i := 0; i+1 < len(m.Content); i += 2 {
			col := columnIndex(cols, m.Content[i].Value)

			v, err := b.value(m.Content[i+1], 1)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}

		if err := tbl.AddRow(row...); err != nil {
			return nil, nodeError(m, err, "row")
		}
	}

	return tbl, nil
}

// uniformColumns reports the column names when seq is a non-empty sequence of
// mappings that all have the same set of valid, distinct scalar keys.
func uniformColumns(seq *yaml.Node) ([]string, bool) {
	if seq.Kind != yaml.SequenceNode || len(seq.Content) == 0 {
		return nil, false
	}

	var cols []string
	for i, item := range seq.Content {
		m := resolve(item)
		if m.Kind != yaml.MappingNode {
			return nil, false
		}

		keys := make([]string, 0, len(m.Content)/2)
		for j := 0; j+1 < len(m.Content); j += 2 {
			k := m.Content[j]
			if k.Kind != yaml.ScalarNode || !document.ValidSegment(k.Value) || columnIndex(keys, k.Value) >= 0 {
				return nil, false
			}
			keys = append(keys, k.Value)
		}

		if i == 0 {
			if len(keys) == 0 {
				return nil, false
			}
			cols = keys

			continue
		}

		if len(keys) != len(cols) {
			return nil, false
		}

		for _, k := range keys {
			if columnIndex(cols, k) < 0 {
				return nil, false
			}
		}
	}

	return cols, true
}

func scalar(n *yaml.Node) (document.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return document.Null{}, nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return nil, nodeError(n, errs.ErrSyntax, "bool: %v", err)
		}

		return document.Bool(v), nil
	case "!!int", "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, nodeError(n, errs.ErrSyntax, "number: %v", err)
		}

		return document.Number(v), nil
	default:
		return document.Str(n.Value), nil
	}
}

// resolve follows alias nodes to their anchors.
func resolve(n *yaml.Node) *yaml.Node {
	for i := 0; n.Kind == yaml.AliasNode && n.Alias != nil && i <= document.MaxDepth; i++ {
		n = n.Alias
	}

	return n
}

func columnIndex(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}

	return -1
}

func hasSection(doc *document.Document, name string) bool {
	_, ok := doc.Section(name)
	return ok
}

func nodeError(n *yaml.Node, cause error, format string, args ...any) error {
	return errs.NewParseError(n.Line, n.Column, cause, format, args...)
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}
