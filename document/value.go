// Package document defines the in-memory model shared by the human, compact and machine forms.
//
// A Document is an ordered context mapping from dotted keys to values plus zero or more
// named sections, each owning a table. Value is a closed sum type: the only
// implementations are the variants declared in this package.
package document

import (
	"fmt"

	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
)

// Value is the sealed set of document values:
// Null, Bool, Number, Str, Array, *Object and *Table.
type Value interface {
	Kind() format.ValueKind
	isValue()
}

type (
	// Null is an explicit null, distinct from an absent key and from the empty string.
	Null struct{}
	// Bool is a boolean value.
	Bool bool
	// Number is a 64-bit float. All numeric values share this representation.
	Number float64
	// Str is an owned string.
	Str string
)

// Array is an ordered list of values. Stream records whether the array was written with
// the pipe-delimited stream syntax; it steers re-serialization and is ignored by Equal.
type Array struct {
	Items  []Value
	Stream bool
}

func (Null) Kind() format.ValueKind { return format.KindNull }
func (Bool) Kind() format.ValueKind { return format.KindBool }
func (Number) Kind() format.ValueKind { return format.KindNumber }
func (Str) Kind() format.ValueKind { return format.KindStr }
func (Array) Kind() format.ValueKind { return format.KindArray }
func (*Object) Kind() format.ValueKind { return format.KindObject }
func (*Table) Kind() format.ValueKind { return format.KindTable }

func (Null) isValue() {}
func (Bool) isValue() {}
func (Number) isValue() {}
func (Str) isValue() {}
func (Array) isValue() {}
func (*Object) isValue() {}
func (*Table) isValue() {}

// NewArray creates a bracketed array of items.
func NewArray(items ...Value) Array {
	return Array{Items: items}
}

// NewStream creates a stream array of items.
func NewStream(items ...Value) Array {
	return Array{Items: items, Stream: true}
}

// UnknownVariant builds the error reported when a consumer meets a Value it does not know.
// Only foreign nil values can reach it, since Value is sealed.
func UnknownVariant(v Value) error {
	return fmt.Errorf("%w: %T", errs.ErrUnknownValue, v)
}

// Field is one key/value pair of an Object, or one context entry of a Document.
type Field struct {
	Key   string
	Value Value
}

// Object is an ordered string-to-value mapping.
// The zero value is not usable; create objects with NewObject.
type Object struct {
	fields []Field
	index  map[string]int
}

// NewObject creates an empty object with room for capacity fields.
func NewObject(capacity int) *Object {
	return &Object{
		fields: make([]Field, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

// Set assigns value to key. A new key is appended; an existing key keeps its position.
func (o *Object) Set(key string, value Value) {
	if i, ok := o.index[key]; ok {
		o.fields[i].Value = value
		return
	}

	o.index[key] = len(o.fields)
	o.fields = append(o.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}

	return o.fields[i].Value, true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Len returns the number of fields.
func (o *Object) Len() int {
	return len(o.fields)
}

// Fields returns the fields in insertion order. The slice must not be modified.
func (o *Object) Fields() []Field {
	return o.fields
}

// Keys returns the field names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.fields))
	for i, f := range o.fields {
		keys[i] = f.Key
	}

	return keys
}

// Table is a schema plus rows; every row holds exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// NewTable creates an empty table with the given column schema.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row, rejecting rows whose length differs from the schema.
func (t *Table) AddRow(cells ...Value) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("%w: got %d cells, schema has %d columns", errs.ErrRowLength, len(cells), len(t.Columns))
	}

	t.Rows = append(t.Rows, cells)

	return nil
}

// Validate checks every row against the schema.
func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, schema has %d columns", errs.ErrRowLength, i, len(row), len(t.Columns))
		}
	}

	return nil
}
