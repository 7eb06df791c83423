package textval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
)

// FormatNumber renders f so that Classify reads it back as the same number.
// Integral values below 1e21 use plain notation; everything else uses the shortest form.
func FormatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: non-finite number %v", errs.ErrUnrepresentable, f)
	}

	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}

	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// IsBare reports whether s can be written as a bare word and read back as the same string.
func IsBare(s string) bool {
	if s == "" || s == DittoMarker {
		return false
	}

	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < 0x20 || b == 0x7f || isTerminator(b) {
			return false
		}
	}

	_, ok := Classify(s).(document.Str)

	return ok
}

// HasControl reports whether s holds a line break or another control character,
// which only a quoted string can carry.
func HasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}

	return false
}

// RenderString writes s bare when possible and quoted otherwise.
func RenderString(s string) string {
	if IsBare(s) {
		return s
	}

	return strconv.Quote(s)
}

// Render writes v as a single-line nested value.
func (st *Style) Render(v document.Value) (string, error) {
	var sb strings.Builder
	if err := st.render(&sb, v, 0); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func (st *Style) render(sb *strings.Builder, v document.Value, depth int) error {
	if depth > document.MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnrepresentable, document.MaxDepth)
	}

	switch val := v.(type) {
	case document.Null:
		sb.WriteString(st.Null)
	case document.Bool:
		if val {
			sb.WriteString(st.True)
		} else {
			sb.WriteString(st.False)
		}
	case document.Number:
		s, err := FormatNumber(float64(val))
		if err != nil {
			return err
		}
		sb.WriteString(s)
	case document.Str:
		sb.WriteString(RenderString(string(val)))
	case document.Array:
		sb.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				sb.WriteByte(',')
			}

			if err := st.render(sb, item, depth+1); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *document.Object:
		if val == nil {
			return document.UnknownVariant(v)
		}

		sb.WriteString(strconv.Itoa(val.Len()))
		sb.WriteByte('[')
		for i, f := range val.Fields() {
			if i > 0 {
				sb.WriteByte(' ')
			}

			key, err := st.Keys.RenderKey(f.Key)
			if err != nil {
				return err
			}
			sb.WriteString(key)
			sb.WriteByte('=')

			if err := st.render(sb, f.Value, depth+1); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *document.Table:
		if val == nil {
			return document.UnknownVariant(v)
		}

		header, rows, err := st.renderTable(val, depth)
		if err != nil {
			return err
		}
		sb.WriteString(header)
		sb.WriteByte('[')
		sb.WriteString(strings.Join(rows, ","))
		sb.WriteByte(']')
	default:
		return document.UnknownVariant(v)
	}

	return nil
}

// RenderTable writes a table as its "N(schema)" header and one string per row.
// Cells equal to the cell above are written as the ditto marker when the style enables it.
func (st *Style) RenderTable(t *document.Table) (string, []string, error) {
	return st.renderTable(t, 0)
}

func (st *Style) renderTable(t *document.Table, depth int) (string, []string, error) {
	if err := t.Validate(); err != nil {
		return "", nil, fmt.Errorf("%w: %w", errs.ErrUnrepresentable, err)
	}

	if len(t.Columns) == 0 && len(t.Rows) > 0 {
		return "", nil, fmt.Errorf("%w: rows in a table without columns", errs.ErrUnrepresentable)
	}

	var hb strings.Builder
	hb.WriteString(strconv.Itoa(len(t.Columns)))
	hb.WriteByte('(')
	for i, c := range t.Columns {
		if i > 0 {
			hb.WriteByte(' ')
		}

		col, err := st.Keys.RenderKey(c)
		if err != nil {
			return "", nil, err
		}
		hb.WriteString(col)
	}
	hb.WriteByte(')')

	rows := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		var rb strings.Builder
		for c, cell := range row {
			if c > 0 {
				rb.WriteByte(' ')
			}

			if st.Ditto && r > 0 && st.useDitto(t.Rows[r-1][c], cell) {
				rb.WriteString(DittoMarker)
				continue
			}

			if err := st.render(&rb, cell, depth+1); err != nil {
				return "", nil, err
			}
		}
		rows[r] = rb.String()
	}

	return hb.String(), rows, nil
}

func (st *Style) useDitto(prev, cur document.Value) bool {
	if st.UseDitto != nil {
		return st.UseDitto(prev, cur)
	}

	return document.ValuesEqual(prev, cur)
}
