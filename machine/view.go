package machine

import (
	"fmt"
	"math"

	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/internal/encoding"
)

// Archive is a read-only view over a raw archive. It never copies the buffer:
// strings returned by its accessors are subslices of the data passed to OpenArchive,
// and the caller must not modify that data while the view is in use.
//
// Every accessor validates the offsets and lengths it reads; a corrupt archive
// yields an error, never a panic or an out-of-range read.
type Archive struct {
	hdr    Header
	engine endian.EndianEngine
	// records is the value region, data[:IndexOffset].
	records []byte
	index   []byte
}

// OpenArchive validates the header of a raw (untagged, uncompressed) archive and
// returns a view over it.
func OpenArchive(raw []byte) (*Archive, error) {
	hdr, err := ParseHeader(raw)
	if err != nil {
		return nil, errs.NewCodecError("decode", err)
	}

	return &Archive{
		hdr:     hdr,
		engine:  hdr.Engine(),
		records: raw[:hdr.IndexOffset:hdr.IndexOffset],
		index:   raw[hdr.IndexOffset:],
	}, nil
}

// Header returns the parsed archive header.
func (a *Archive) Header() Header {
	return a.hdr
}

// ByteOrder returns the engine the archive was written with.
func (a *Archive) ByteOrder() endian.EndianEngine {
	return a.engine
}

// ContextLen returns the number of context entries.
func (a *Archive) ContextLen() int {
	return int(a.hdr.ContextCount)
}

// SectionLen returns the number of sections.
func (a *Archive) SectionLen() int {
	return int(a.hdr.SectionCount)
}

// indexEntry reads the i-th (name, value) pair of the index region.
func (a *Archive) indexEntry(i int) (uint32, uint32) {
	pos := i * indexEntrySize

	return a.engine.Uint32(a.index[pos:]), a.engine.Uint32(a.index[pos+4:])
}

// ContextEntry returns the key and value of the i-th context entry.
func (a *Archive) ContextEntry(i int) (string, ValueRef, error) {
	if i < 0 || i >= a.ContextLen() {
		return "", ValueRef{}, errs.NewCodecError("decode", fmt.Errorf("%w: context entry %d of %d", errs.ErrCorrupt, i, a.ContextLen()))
	}

	keyOff, valOff := a.indexEntry(i)

	return a.entry(keyOff, valOff, a.hdr.IndexOffset)
}

// SectionAt returns the name and table of the i-th section.
func (a *Archive) SectionAt(i int) (string, ValueRef, error) {
	if i < 0 || i >= a.SectionLen() {
		return "", ValueRef{}, errs.NewCodecError("decode", fmt.Errorf("%w: section %d of %d", errs.ErrCorrupt, i, a.SectionLen()))
	}

	nameOff, tblOff := a.indexEntry(a.ContextLen() + i)

	name, ref, err := a.entry(nameOff, tblOff, a.hdr.IndexOffset)
	if err != nil {
		return "", ValueRef{}, err
	}

	if ref.kind != format.KindTable {
		return "", ValueRef{}, errs.NewCodecError("decode", fmt.Errorf("%w: section %q holds a %s", errs.ErrCorrupt, name, ref.kind))
	}

	return name, ref, nil
}

// Lookup finds a context entry by key with a linear scan of the context index.
func (a *Archive) Lookup(key string) (ValueRef, bool, error) {
	for i := range a.ContextLen() {
		keyOff, valOff := a.indexEntry(i)

		k, err := a.str(keyOff, a.hdr.IndexOffset)
		if err != nil {
			return ValueRef{}, false, errs.NewCodecError("decode", err)
		}

		if string(k) == key {
			ref, err := a.ref(valOff, a.hdr.IndexOffset)
			if err != nil {
				return ValueRef{}, false, errs.NewCodecError("decode", err)
			}

			return ref, true, nil
		}
	}

	return ValueRef{}, false, nil
}

// Section finds a section table by name.
func (a *Archive) Section(name string) (ValueRef, bool, error) {
	for i := range a.SectionLen() {
		n, ref, err := a.SectionAt(i)
		if err != nil {
			return ValueRef{}, false, err
		}

		if n == name {
			return ref, true, nil
		}
	}

	return ValueRef{}, false, nil
}

func (a *Archive) entry(nameOff, valOff, limit uint32) (string, ValueRef, error) {
	name, err := a.str(nameOff, limit)
	if err != nil {
		return "", ValueRef{}, errs.NewCodecError("decode", err)
	}

	ref, err := a.ref(valOff, limit)
	if err != nil {
		return "", ValueRef{}, errs.NewCodecError("decode", err)
	}

	return string(name), ref, nil
}

// ref resolves a record offset that must lie in [HeaderSize, limit).
func (a *Archive) ref(off, limit uint32) (ValueRef, error) {
	if off < HeaderSize || off >= limit {
		return ValueRef{}, fmt.Errorf("%w: record offset %d outside [%d, %d)", errs.ErrCorrupt, off, HeaderSize, limit)
	}

	kind := format.ValueKind(a.records[off])
	if kind < format.KindNull || kind > format.KindTable {
		return ValueRef{}, fmt.Errorf("%w: unknown value kind %d at offset %d", errs.ErrCorrupt, kind, off)
	}

	return ValueRef{a: a, off: off, kind: kind}, nil
}

// str resolves a string record below limit.
func (a *Archive) str(off, limit uint32) ([]byte, error) {
	ref, err := a.ref(off, limit)
	if err != nil {
		return nil, err
	}

	if ref.kind != format.KindStr {
		return nil, fmt.Errorf("%w: expected a string at offset %d, found %s", errs.ErrCorrupt, off, ref.kind)
	}

	s, _, err := encoding.ReadString(a.records, int(off)+1)

	return s, err
}

// offsets checks that n fixed-width offsets fit at pos and returns the position past them.
func (a *Archive) offsets(pos int, n uint64) (int, error) {
	if n > uint64(len(a.records)-pos)/4 {
		return 0, fmt.Errorf("%w: %d offsets at %d overrun the value region", errs.ErrTruncated, n, pos)
	}

	return pos + int(n)*4, nil
}

// ValueRef points at one value record of an Archive. The zero ValueRef is invalid.
type ValueRef struct {
	a    *Archive
	off  uint32
	kind format.ValueKind
}

// Kind returns the record's value kind.
func (r ValueRef) Kind() format.ValueKind {
	return r.kind
}

// Offset returns the record's offset in the archive.
func (r ValueRef) Offset() uint32 {
	return r.off
}

func (r ValueRef) expect(kind format.ValueKind) error {
	if r.a == nil {
		return errs.NewCodecError("decode", fmt.Errorf("%w: invalid value reference", errs.ErrKindMismatch))
	}

	if r.kind != kind {
		return errs.NewCodecError("decode", fmt.Errorf("%w: want %s, record at %d is %s", errs.ErrKindMismatch, kind, r.off, r.kind))
	}

	return nil
}

func (r ValueRef) body() int {
	return int(r.off) + 1
}

// Bool returns the value of a boolean record.
func (r ValueRef) Bool() (bool, error) {
	if err := r.expect(format.KindBool); err != nil {
		return false, err
	}

	pos := r.body()
	if pos >= len(r.a.records) {
		return false, errs.NewCodecError("decode", fmt.Errorf("%w: bool at %d", errs.ErrTruncated, r.off))
	}

	switch r.a.records[pos] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errs.NewCodecError("decode", fmt.Errorf("%w: bool byte %d at %d", errs.ErrCorrupt, r.a.records[pos], r.off))
	}
}

// Number returns the value of a number record.
func (r ValueRef) Number() (float64, error) {
	if err := r.expect(format.KindNumber); err != nil {
		return 0, err
	}

	bits, err := encoding.ReadUint64(r.a.records, r.body(), r.a.engine)
	if err != nil {
		return 0, errs.NewCodecError("decode", err)
	}

	return math.Float64frombits(bits), nil
}

// Bytes returns the bytes of a string record without copying them.
func (r ValueRef) Bytes() ([]byte, error) {
	if err := r.expect(format.KindStr); err != nil {
		return nil, err
	}

	s, _, err := encoding.ReadString(r.a.records, r.body())
	if err != nil {
		return nil, errs.NewCodecError("decode", err)
	}

	return s, nil
}

// String returns a copy of a string record.
func (r ValueRef) String() (string, error) {
	b, err := r.Bytes()

	return string(b), err
}

// arrayHeader returns the stream flag, item count and position of the first offset.
func (r ValueRef) arrayHeader() (bool, int, int, error) {
	pos := r.body()
	if pos >= len(r.a.records) {
		return false, 0, 0, fmt.Errorf("%w: array at %d", errs.ErrTruncated, r.off)
	}

	flags := r.a.records[pos]
	if flags&^arrayFlagStream != 0 {
		return false, 0, 0, fmt.Errorf("%w: array flags %#x at %d", errs.ErrCorrupt, flags, r.off)
	}

	n, pos, err := encoding.ReadUvarint(r.a.records, pos+1)
	if err != nil {
		return false, 0, 0, err
	}

	if _, err := r.a.offsets(pos, uint64(n)); err != nil {
		return false, 0, 0, err
	}

	return flags&arrayFlagStream != 0, int(n), pos, nil
}

// objectHeader returns the field count and position of the first pair.
func (r ValueRef) objectHeader() (int, int, error) {
	n, pos, err := encoding.ReadUvarint(r.a.records, r.body())
	if err != nil {
		return 0, 0, err
	}

	if _, err := r.a.offsets(pos, 2*uint64(n)); err != nil {
		return 0, 0, err
	}

	return int(n), pos, nil
}

// tableHeader returns the column and row counts and the position of the column offsets.
func (r ValueRef) tableHeader() (int, int, int, error) {
	cols, pos, err := encoding.ReadUvarint(r.a.records, r.body())
	if err != nil {
		return 0, 0, 0, err
	}

	rows, pos, err := encoding.ReadUvarint(r.a.records, pos)
	if err != nil {
		return 0, 0, 0, err
	}

	if cols == 0 && rows != 0 {
		return 0, 0, 0, fmt.Errorf("%w: %d rows in a table without columns at %d", errs.ErrCorrupt, rows, r.off)
	}

	if _, err := r.a.offsets(pos, uint64(cols)*(1+uint64(rows))); err != nil {
		return 0, 0, 0, err
	}

	return int(cols), int(rows), pos, nil
}

// child resolves the offset stored at pos, which must point below r.
func (r ValueRef) child(pos int) (ValueRef, error) {
	return r.a.ref(r.a.engine.Uint32(r.a.records[pos:]), r.off)
}

// Len returns the number of items of an array, fields of an object or rows of a table.
func (r ValueRef) Len() (int, error) {
	if r.a == nil {
		return 0, r.expect(format.KindArray)
	}

	var (
		n   int
		err error
	)

	switch r.kind {
	case format.KindArray:
		_, n, _, err = r.arrayHeader()
	case format.KindObject:
		n, _, err = r.objectHeader()
	case format.KindTable:
		_, n, _, err = r.tableHeader()
	default:
		return 0, errs.NewCodecError("decode", fmt.Errorf("%w: %s has no length", errs.ErrKindMismatch, r.kind))
	}

	return n, errs.NewCodecError("decode", err)
}

// Stream reports whether an array record carries the stream tag.
func (r ValueRef) Stream() (bool, error) {
	if err := r.expect(format.KindArray); err != nil {
		return false, err
	}

	stream, _, _, err := r.arrayHeader()

	return stream, errs.NewCodecError("decode", err)
}

// Index returns the i-th item of an array record.
func (r ValueRef) Index(i int) (ValueRef, error) {
	if err := r.expect(format.KindArray); err != nil {
		return ValueRef{}, err
	}

	_, n, pos, err := r.arrayHeader()
	if err != nil {
		return ValueRef{}, errs.NewCodecError("decode", err)
	}

	if i < 0 || i >= n {
		return ValueRef{}, errs.NewCodecError("decode", fmt.Errorf("%w: index %d of %d items", errs.ErrCorrupt, i, n))
	}

	ref, err := r.child(pos + 4*i)

	return ref, errs.NewCodecError("decode", err)
}

// FieldAt returns the name and value of the i-th field of an object record.
func (r ValueRef) FieldAt(i int) (string, ValueRef, error) {
	if err := r.expect(format.KindObject); err != nil {
		return "", ValueRef{}, err
	}

	n, pos, err := r.objectHeader()
	if err != nil {
		return "", ValueRef{}, errs.NewCodecError("decode", err)
	}

	if i < 0 || i >= n {
		return "", ValueRef{}, errs.NewCodecError("decode", fmt.Errorf("%w: field %d of %d", errs.ErrCorrupt, i, n))
	}

	pos += 8 * i

	return r.a.entry(r.a.engine.Uint32(r.a.records[pos:]), r.a.engine.Uint32(r.a.records[pos+4:]), r.off)
}

// Field finds a field of an object record by name.
func (r ValueRef) Field(name string) (ValueRef, bool, error) {
	if err := r.expect(format.KindObject); err != nil {
		return ValueRef{}, false, err
	}

	n, pos, err := r.objectHeader()
	if err != nil {
		return ValueRef{}, false, errs.NewCodecError("decode", err)
	}

	for i := range n {
		p := pos + 8*i

		key, err := r.a.str(r.a.engine.Uint32(r.a.records[p:]), r.off)
		if err != nil {
			return ValueRef{}, false, errs.NewCodecError("decode", err)
		}

		if string(key) == name {
			ref, err := r.child(p + 4)
			if err != nil {
				return ValueRef{}, false, errs.NewCodecError("decode", err)
			}

			return ref, true, nil
		}
	}

	return ValueRef{}, false, nil
}

// TableShape returns the column and row counts of a table record.
func (r ValueRef) TableShape() (int, int, error) {
	if err := r.expect(format.KindTable); err != nil {
		return 0, 0, err
	}

	cols, rows, _, err := r.tableHeader()

	return cols, rows, errs.NewCodecError("decode", err)
}

// Column returns the name of the c-th column of a table record.
func (r ValueRef) Column(c int) (string, error) {
	if err := r.expect(format.KindTable); err != nil {
		return "", err
	}

	cols, _, pos, err := r.tableHeader()
	if err != nil {
		return "", errs.NewCodecError("decode", err)
	}

	if c < 0 || c >= cols {
		return "", errs.NewCodecError("decode", fmt.Errorf("%w: column %d of %d", errs.ErrCorrupt, c, cols))
	}

	name, err := r.a.str(r.a.engine.Uint32(r.a.records[pos+4*c:]), r.off)
	if err != nil {
		return "", errs.NewCodecError("decode", err)
	}

	return string(name), nil
}

// Cell returns the cell at (row, c) of a table record.
func (r ValueRef) Cell(row, c int) (ValueRef, error) {
	if err := r.expect(format.KindTable); err != nil {
		return ValueRef{}, err
	}

	cols, rows, pos, err := r.tableHeader()
	if err != nil {
		return ValueRef{}, errs.NewCodecError("decode", err)
	}

	if row < 0 || row >= rows || c < 0 || c >= cols {
		return ValueRef{}, errs.NewCodecError("decode", fmt.Errorf("%w: cell (%d, %d) of %dx%d", errs.ErrCorrupt, row, c, rows, cols))
	}

	ref, err := r.child(pos + 4*(cols+row*cols+c))

	return ref, errs.NewCodecError("decode", err)
}
