package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/errs"
)

func TestString_RoundTrip(t *testing.T) {
	inputs := []string{"", "a", "héllo", strings.Repeat("x", 127), strings.Repeat("y", 128), strings.Repeat("z", 70000)}

	var buf []byte
	for _, s := range inputs {
		var err error
		before := len(buf)
		buf, err = AppendString(buf, s)
		require.NoError(t, err)
		require.Equal(t, StringSize(s), len(buf)-before, "size of %d-byte string", len(s))
	}

	off := 0
	for _, want := range inputs {
		got, next, err := ReadString(buf, off)
		require.NoError(t, err)
		require.Equal(t, want, string(got))
		off = next
	}
	require.Equal(t, len(buf), off)
}

func TestReadString_SharesMemory(t *testing.T) {
	buf, err := AppendString(nil, "abc")
	require.NoError(t, err)

	got, _, err := ReadString(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 3, cap(got), "subslice must not reach past the string")

	buf[1] = 'X'
	require.Equal(t, "Xbc", string(got))
}

func TestReadString_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		off  int
		want error
	}{
		{"empty", nil, 0, errs.ErrTruncated},
		{"offset past end", []byte{1, 'a'}, 5, errs.ErrTruncated},
		{"negative offset", []byte{1, 'a'}, -1, errs.ErrTruncated},
		{"short body", []byte{5, 'a', 'b'}, 0, errs.ErrTruncated},
		{"unterminated uvarint", []byte{0x80, 0x80}, 0, errs.ErrTruncated},
		{"uvarint overflow", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, 0, errs.ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadString(tt.data, tt.off)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadUvarint(t *testing.T) {
	buf := AppendUvarint(nil, 300)
	buf = AppendUvarint(buf, 1<<32-1)

	v, off, err := ReadUvarint(buf, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(300), v)

	v, off, err = ReadUvarint(buf, off)
	require.NoError(t, err)
	require.Equal(t, uint32(1<<32-1), v)
	require.Equal(t, len(buf), off)
}

func TestReadFixedWidth(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		buf := engine.AppendUint32(nil, 0xdeadbeef)
		buf = engine.AppendUint64(buf, 0x0102030405060708)

		v32, err := ReadUint32(buf, 0, engine)
		require.NoError(t, err)
		require.Equal(t, uint32(0xdeadbeef), v32)

		v64, err := ReadUint64(buf, 4, engine)
		require.NoError(t, err)
		require.Equal(t, uint64(0x0102030405060708), v64)

		_, err = ReadUint32(buf, 10, engine)
		require.ErrorIs(t, err, errs.ErrTruncated)

		_, err = ReadUint64(buf, 5, engine)
		require.ErrorIs(t, err, errs.ErrTruncated)
	}
}
