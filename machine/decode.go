package machine

import (
	"fmt"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
)

// materializer copies an archive into a Document.
//
// The writer shares only string, null and boolean records, so any other record
// reached twice marks a corrupt archive. Rejecting it keeps decoding linear in
// the archive size even for crafted inputs that reuse containers.
type materializer struct {
	a    *Archive
	seen []uint64
}

// Document materializes the whole archive into a new Document.
func (a *Archive) Document() (*document.Document, error) {
	m := &materializer{a: a, seen: make([]uint64, len(a.records)/64+1)}

	doc, err := m.document()
	if err != nil {
		return nil, errs.NewCodecError("decode", err)
	}

	return doc, nil
}

func (m *materializer) document() (*document.Document, error) {
	doc := document.New()

	for i := range m.a.ContextLen() {
		key, ref, err := m.a.ContextEntry(i)
		if err != nil {
			return nil, err
		}

		if _, dup := doc.Get(key); dup {
			return nil, fmt.Errorf("%w: context key %q repeated", errs.ErrCorrupt, key)
		}

		v, err := m.value(ref, 0)
		if err != nil {
			return nil, fmt.Errorf("context key %q: %w", key, err)
		}
		doc.Set(key, v)
	}

	for i := range m.a.SectionLen() {
		name, ref, err := m.a.SectionAt(i)
		if err != nil {
			return nil, err
		}

		v, err := m.value(ref, 0)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", name, err)
		}

		tbl, _ := v.(*document.Table)
		if err := doc.AddSection(name, tbl); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrCorrupt, err)
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorrupt, err)
	}

	return doc, nil
}

// claim marks a container or number record as visited.
func (m *materializer) claim(ref ValueRef) error {
	word, bit := ref.off/64, uint64(1)<<(ref.off%64)
	if m.seen[word]&bit != 0 {
		return fmt.Errorf("%w: %s record at %d referenced twice", errs.ErrCorrupt, ref.kind, ref.off)
	}
	m.seen[word] |= bit

	return nil
}

func (m *materializer) value(ref ValueRef, depth int) (document.Value, error) {
	if depth > document.MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", errs.ErrCorrupt, document.MaxDepth)
	}

	switch ref.kind {
	case format.KindNull:
		return document.Null{}, nil
	case format.KindBool:
		b, err := ref.Bool()
		return document.Bool(b), err
	case format.KindStr:
		s, err := ref.String()
		return document.Str(s), err
	}

	if err := m.claim(ref); err != nil {
		return nil, err
	}

	switch ref.kind {
	case format.KindNumber:
		n, err := ref.Number()
		return document.Number(n), err
	case format.KindArray:
		return m.array(ref, depth)
	case format.KindObject:
		return m.object(ref, depth)
	case format.KindTable:
		return m.table(ref, depth)
	default:
		return nil, fmt.Errorf("%w: unknown value kind %d", errs.ErrCorrupt, ref.kind)
	}
}

func (m *materializer) array(ref ValueRef, depth int) (document.Value, error) {
	stream, n, _, err := ref.arrayHeader()
	if err != nil {
		return nil, err
	}

	items := make([]document.Value, n)
	for i := range items {
		child, err := ref.Index(i)
		if err != nil {
			return nil, err
		}

		if items[i], err = m.value(child, depth+1); err != nil {
			return nil, err
		}
	}

	return document.Array{Items: items, Stream: stream}, nil
}

func (m *materializer) object(ref ValueRef, depth int) (document.Value, error) {
	n, _, err := ref.objectHeader()
	if err != nil {
		return nil, err
	}

	obj := document.NewObject(n)
	for i := range n {
		key, child, err := ref.FieldAt(i)
		if err != nil {
			return nil, err
		}

		if obj.Has(key) {
			return nil, fmt.Errorf("%w: field %q repeated", errs.ErrCorrupt, key)
		}

		v, err := m.value(child, depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}

	return obj, nil
}

func (m *materializer) table(ref ValueRef, depth int) (document.Value, error) {
	cols, rows, _, err := ref.tableHeader()
	if err != nil {
		return nil, err
	}

	tbl := document.NewTable(make([]string, cols)...)
	for c := range cols {
		if tbl.Columns[c], err = ref.Column(c); err != nil {
			return nil, err
		}
	}

	tbl.Rows = make([][]document.Value, rows)
	for r := range rows {
		row := make([]document.Value, cols)
		for c := range cols {
			cell, err := ref.Cell(r, c)
			if err != nil {
				return nil, err
			}

			if row[c], err = m.value(cell, depth+1); err != nil {
				return nil, err
			}
		}
		tbl.Rows[r] = row
	}

	return tbl, nil
}
