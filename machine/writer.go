package machine

import (
	"fmt"
	"math"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/internal/encoding"
	"github.com/arloliu/dxform/internal/pool"
)

// Array record flag bits.
const arrayFlagStream uint8 = 1 << 0

// archiveWriter appends value records in post-order: children are written before
// their parent, so every child offset is lower than its parent's offset.
type archiveWriter struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	strs   map[string]uint32

	// Offsets of the shared null, true and false records, zero until first written.
	nullOff, trueOff, falseOff uint32
}

// writeArchive builds the raw archive of doc into bb.
func writeArchive(bb *pool.ByteBuffer, doc *document.Document, engine endian.EndianEngine) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", errs.ErrUnrepresentable)
	}

	w := &archiveWriter{buf: bb, engine: engine, strs: make(map[string]uint32)}
	bb.Grow(HeaderSize)
	bb.B = bb.B[:HeaderSize]

	context := doc.Context()
	ctxIndex, releaseCtx := pool.GetUint32Slice(2 * len(context))
	defer releaseCtx()

	for i, f := range context {
		keyOff, err := w.str(f.Key)
		if err != nil {
			return err
		}

		valOff, err := w.value(f.Value, 0)
		if err != nil {
			return fmt.Errorf("key %q: %w", f.Key, err)
		}
		ctxIndex[2*i], ctxIndex[2*i+1] = keyOff, valOff
	}

	sections := doc.Sections()
	secIndex, releaseSec := pool.GetUint32Slice(2 * len(sections))
	defer releaseSec()

	for i, sec := range sections {
		nameOff, err := w.str(sec.Name)
		if err != nil {
			return err
		}

		if sec.Table == nil {
			return fmt.Errorf("section %q: %w", sec.Name, document.UnknownVariant(sec.Table))
		}

		tblOff, err := w.table(sec.Table, 0)
		if err != nil {
			return fmt.Errorf("section %q: %w", sec.Name, err)
		}
		secIndex[2*i], secIndex[2*i+1] = nameOff, tblOff
	}

	indexOff, err := w.offset()
	if err != nil {
		return err
	}

	bb.Grow(4 * (len(ctxIndex) + len(secIndex)))
	for _, off := range ctxIndex {
		bb.B = engine.AppendUint32(bb.B, off)
	}
	for _, off := range secIndex {
		bb.B = engine.AppendUint32(bb.B, off)
	}

	if uint64(bb.Len()) > math.MaxUint32 {
		return fmt.Errorf("%w: archive of %d bytes", errs.ErrTooLarge, bb.Len())
	}

	Header{
		Version:      Version,
		Flags:        endian.Flags(engine),
		ContextCount: uint32(len(context)),  //nolint:gosec
		SectionCount: uint32(len(sections)), //nolint:gosec
		IndexOffset:  indexOff,
		TotalSize:    uint32(bb.Len()), //nolint:gosec
	}.put(bb.B[:HeaderSize])

	return nil
}

// offset returns the offset of the next record.
func (w *archiveWriter) offset() (uint32, error) {
	if uint64(w.buf.Len()) >= math.MaxUint32 {
		return 0, fmt.Errorf("%w: archive exceeds 4 GiB", errs.ErrTooLarge)
	}

	return uint32(w.buf.Len()), nil //nolint:gosec
}

// begin starts a record of the given kind and returns its offset.
func (w *archiveWriter) begin(kind format.ValueKind, bodySize int) (uint32, error) {
	off, err := w.offset()
	if err != nil {
		return 0, err
	}

	w.buf.Grow(1 + bodySize)
	w.buf.B = append(w.buf.B, byte(kind))

	return off, nil
}

func (w *archiveWriter) str(s string) (uint32, error) {
	if off, ok := w.strs[s]; ok {
		return off, nil
	}

	off, err := w.begin(format.KindStr, encoding.StringSize(s))
	if err != nil {
		return 0, err
	}

	if w.buf.B, err = encoding.AppendString(w.buf.B, s); err != nil {
		return 0, err
	}
	w.strs[s] = off

	return off, nil
}

func (w *archiveWriter) shared(slot *uint32, kind format.ValueKind, body ...byte) (uint32, error) {
	if *slot != 0 {
		return *slot, nil
	}

	off, err := w.begin(kind, len(body))
	if err != nil {
		return 0, err
	}
	w.buf.B = append(w.buf.B, body...)
	*slot = off

	return off, nil
}

func (w *archiveWriter) value(v document.Value, depth int) (uint32, error) {
	if depth > document.MaxDepth {
		return 0, fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnrepresentable, document.MaxDepth)
	}

	switch val := v.(type) {
	case document.Null:
		return w.shared(&w.nullOff, format.KindNull)
	case document.Bool:
		if val {
			return w.shared(&w.trueOff, format.KindBool, 1)
		}

		return w.shared(&w.falseOff, format.KindBool, 0)
	case document.Number:
		off, err := w.begin(format.KindNumber, 8)
		if err != nil {
			return 0, err
		}
		w.buf.B = w.engine.AppendUint64(w.buf.B, math.Float64bits(float64(val)))

		return off, nil
	case document.Str:
		return w.str(string(val))
	case document.Array:
		return w.array(val, depth)
	case *document.Object:
		if val == nil {
			return 0, document.UnknownVariant(v)
		}

		return w.object(val, depth)
	case *document.Table:
		if val == nil {
			return 0, document.UnknownVariant(v)
		}

		return w.table(val, depth)
	default:
		return 0, document.UnknownVariant(v)
	}
}

func (w *archiveWriter) array(arr document.Array, depth int) (uint32, error) {
	items, release := pool.GetUint32Slice(len(arr.Items))
	defer release()

	for i, item := range arr.Items {
		off, err := w.value(item, depth+1)
		if err != nil {
			return 0, err
		}
		items[i] = off
	}

	var flags uint8
	if arr.Stream {
		flags |= arrayFlagStream
	}

	off, err := w.begin(format.KindArray, 1+encoding.MaxUvarintLen+4*len(items))
	if err != nil {
		return 0, err
	}
	w.buf.B = append(w.buf.B, flags)
	w.buf.B = encoding.AppendUvarint(w.buf.B, uint32(len(items))) //nolint:gosec
	w.appendOffsets(items)

	return off, nil
}

func (w *archiveWriter) object(obj *document.Object, depth int) (uint32, error) {
	fields := obj.Fields()
	pairs, release := pool.GetUint32Slice(2 * len(fields))
	defer release()

	for i, f := range fields {
		keyOff, err := w.str(f.Key)
		if err != nil {
			return 0, err
		}

		valOff, err := w.value(f.Value, depth+1)
		if err != nil {
			return 0, err
		}
		pairs[2*i], pairs[2*i+1] = keyOff, valOff
	}

	off, err := w.begin(format.KindObject, encoding.MaxUvarintLen+4*len(pairs))
	if err != nil {
		return 0, err
	}
	w.buf.B = encoding.AppendUvarint(w.buf.B, uint32(len(fields))) //nolint:gosec
	w.appendOffsets(pairs)

	return off, nil
}

func (w *archiveWriter) table(t *document.Table, depth int) (uint32, error) {
	if depth > document.MaxDepth {
		return 0, fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnrepresentable, document.MaxDepth)
	}

	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrUnrepresentable, err)
	}

	if len(t.Columns) == 0 && len(t.Rows) > 0 {
		return 0, fmt.Errorf("%w: rows in a table without columns", errs.ErrUnrepresentable)
	}

	cols, releaseCols := pool.GetUint32Slice(len(t.Columns))
	defer releaseCols()

	for i, c := range t.Columns {
		off, err := w.str(c)
		if err != nil {
			return 0, err
		}
		cols[i] = off
	}

	cells, releaseCells := pool.GetUint32Slice(len(t.Rows) * len(t.Columns))
	defer releaseCells()

	for r, row := range t.Rows {
		for c, cell := range row {
			off, err := w.value(cell, depth+1)
			if err != nil {
				return 0, err
			}
			cells[r*len(t.Columns)+c] = off
		}
	}

	off, err := w.begin(format.KindTable, 2*encoding.MaxUvarintLen+4*(len(cols)+len(cells)))
	if err != nil {
		return 0, err
	}
	w.buf.B = encoding.AppendUvarint(w.buf.B, uint32(len(cols)))   //nolint:gosec
	w.buf.B = encoding.AppendUvarint(w.buf.B, uint32(len(t.Rows))) //nolint:gosec
	w.appendOffsets(cols)
	w.appendOffsets(cells)

	return off, nil
}

func (w *archiveWriter) appendOffsets(offs []uint32) {
	for _, off := range offs {
		w.buf.B = w.engine.AppendUint32(w.buf.B, off)
	}
}
