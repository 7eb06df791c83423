package document

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/arloliu/dxform/errs"
)

// Section is a named table.
type Section struct {
	Name  string
	Table *Table
}

// Document is an ordered context mapping plus named sections.
type Document struct {
	context  *Object
	sections []*Section
	byName   map[string]int
}

// New creates an empty document.
func New() *Document {
	return &Document{
		context: NewObject(8),
		byName:  make(map[string]int),
	}
}

// Set assigns a context value.
func (d *Document) Set(key string, value Value) {
	d.context.Set(key, value)
}

// Get returns a context value.
func (d *Document) Get(key string) (Value, bool) {
	return d.context.Get(key)
}

// Context returns the context entries in insertion order.
func (d *Document) Context() []Field {
	return d.context.Fields()
}

// ContextLen returns the number of context entries.
func (d *Document) ContextLen() int {
	return d.context.Len()
}

// AddSection appends a named section. Names are unique within a document.
func (d *Document) AddSection(name string, table *Table) error {
	if _, ok := d.byName[name]; ok {
		return fmt.Errorf("%w: section %q", errs.ErrDuplicateKey, name)
	}

	d.byName[name] = len(d.sections)
	d.sections = append(d.sections, &Section{Name: name, Table: table})

	return nil
}

// Section returns the section with the given name.
func (d *Document) Section(name string) (*Section, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}

	return d.sections[i], true
}

// Sections returns the sections in insertion order.
func (d *Document) Sections() []*Section {
	return d.sections
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// ValidSegment reports whether s is a single key segment.
func ValidSegment(s string) bool {
	return segmentPattern.MatchString(s)
}

// ValidKey reports whether key is one or more dot-separated segments.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}

	for _, seg := range strings.Split(key, ".") {
		if !ValidSegment(seg) {
			return false
		}
	}

	return true
}

// Validate checks that every key, field name, column name and section name is well formed
// and that every table row matches its schema.
func (d *Document) Validate() error {
	for _, f := range d.context.Fields() {
		if !ValidKey(f.Key) {
			return fmt.Errorf("%w: context key %q", errs.ErrInvalidKey, f.Key)
		}

		if err := validateValue(f.Value, 0); err != nil {
			return fmt.Errorf("context key %q: %w", f.Key, err)
		}
	}

	for _, s := range d.sections {
		if !ValidSegment(s.Name) {
			return fmt.Errorf("%w: section name %q", errs.ErrInvalidKey, s.Name)
		}

		if s.Table == nil {
			return fmt.Errorf("%w: section %q has no table", errs.ErrUnknownValue, s.Name)
		}

		if err := validateValue(s.Table, 0); err != nil {
			return fmt.Errorf("section %q: %w", s.Name, err)
		}
	}

	return nil
}

// MaxDepth bounds value nesting in every form.
const MaxDepth = 256

func validateValue(v Value, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnrepresentable, MaxDepth)
	}

	switch val := v.(type) {
	case Null, Bool, Number, Str:
		return nil
	case Array:
		for _, item := range val.Items {
			if err := validateValue(item, depth+1); err != nil {
				return err
			}
		}

		return nil
	case *Object:
		if val == nil {
			return UnknownVariant(v)
		}

		for _, f := range val.Fields() {
			if !ValidSegment(f.Key) {
				return fmt.Errorf("%w: field name %q", errs.ErrInvalidKey, f.Key)
			}

			if err := validateValue(f.Value, depth+1); err != nil {
				return err
			}
		}

		return nil
	case *Table:
		if val == nil {
			return UnknownVariant(v)
		}

		for _, c := range val.Columns {
			if !ValidSegment(c) {
				return fmt.Errorf("%w: column name %q", errs.ErrInvalidKey, c)
			}
		}

		if err := val.Validate(); err != nil {
			return err
		}

		for _, row := range val.Rows {
			for _, cell := range row {
				if err := validateValue(cell, depth+1); err != nil {
					return err
				}
			}
		}

		return nil
	default:
		return UnknownVariant(v)
	}
}

// Equal reports whether two documents are structurally equal.
//
// Context entries and object fields compare as key/value sets, arrays and table rows
// compare in order, sections compare in order by name and table. The Array stream
// tag is ignored.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}

	if !objectsEqual(a.context, b.context) {
		return false
	}

	if len(a.sections) != len(b.sections) {
		return false
	}

	for i, sa := range a.sections {
		sb := b.sections[i]
		if sa.Name != sb.Name || !ValuesEqual(sa.Table, sb.Table) {
			return false
		}
	}

	return true
}

// ValuesEqual reports whether two values are structurally equal. NaN equals NaN.
func ValuesEqual(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}

		if math.IsNaN(float64(x)) {
			return math.IsNaN(float64(y))
		}

		return x == y
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}

		for i := range x.Items {
			if !ValuesEqual(x.Items[i], y.Items[i]) {
				return false
			}
		}

		return true
	case *Object:
		y, ok := b.(*Object)
		return ok && objectsEqual(x, y)
	case *Table:
		y, ok := b.(*Table)
		return ok && tablesEqual(x, y)
	default:
		return false
	}
}

func objectsEqual(a, b *Object) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Len() != b.Len() {
		return false
	}

	for _, f := range a.fields {
		other, ok := b.Get(f.Key)
		if !ok || !ValuesEqual(f.Value, other) {
			return false
		}
	}

	return true
}

func tablesEqual(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}

	if len(a.Columns) != len(b.Columns) || len(a.Rows) != len(b.Rows) {
		return false
	}

	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}

	for r := range a.Rows {
		if len(a.Rows[r]) != len(b.Rows[r]) {
			return false
		}

		for c := range a.Rows[r] {
			if !ValuesEqual(a.Rows[r][c], b.Rows[r][c]) {
				return false
			}
		}
	}

	return true
}
