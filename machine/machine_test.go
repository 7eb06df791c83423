package machine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/platform"
)

var allAlgorithms = []format.CompressionType{
	format.CompressionNone,
	format.CompressionLZ4,
	format.CompressionZstd,
}

func requireDocEqual(t *testing.T, want, got *document.Document) {
	t.Helper()
	require.True(t, document.Equal(want, got), "documents differ\nwant: %s\ngot:  %s", spew.Sdump(want), spew.Sdump(got))
}

func requireCodecError(t *testing.T, err error, want error) {
	t.Helper()
	require.Error(t, err)

	var ce *errs.CodecError
	require.True(t, errors.As(err, &ce), "want *errs.CodecError, got %T: %v", err, err)

	if want != nil {
		require.ErrorIs(t, err, want)
	}
}

func sampleDocument(t *testing.T) *document.Document {
	t.Helper()

	grid := document.NewTable("x", "y")
	require.NoError(t, grid.AddRow(document.Number(1), document.Str("one")))
	require.NoError(t, grid.AddRow(document.Number(2), document.Null{}))

	server := document.NewObject(3)
	server.Set("host", document.Str("localhost"))
	server.Set("port", document.Number(8080))
	server.Set("grid", grid)

	doc := document.New()
	doc.Set("name", document.Str("app"))
	doc.Set("version", document.Number(2.5))
	doc.Set("ratio", document.Number(math.NaN()))
	doc.Set("limit", document.Number(math.Inf(-1)))
	doc.Set("debug", document.Bool(true))
	doc.Set("verbose", document.Bool(false))
	doc.Set("owner", document.Null{})
	doc.Set("alias", document.Str("localhost"))
	doc.Set("server", server)
	doc.Set("tags", document.NewArray(document.Str("a"), document.Str(""), document.Number(-0.5)))
	doc.Set("events", document.NewStream(document.Str("start"), document.Bool(true)))
	doc.Set("empty", document.NewObject(0))
	doc.Set("list", document.NewArray())
	doc.Set("app.build.id", document.Str("ünï\ncode"))

	users := document.NewTable("id", "name", "active")
	require.NoError(t, users.AddRow(document.Number(1), document.Str("alice"), document.Bool(true)))
	require.NoError(t, users.AddRow(document.Number(2), document.Str("bob"), document.Bool(false)))
	require.NoError(t, doc.AddSection("users", users))
	require.NoError(t, doc.AddSection("none", document.NewTable()))
	require.NoError(t, doc.AddSection("cols_only", document.NewTable("a", "b")))

	return doc
}

// largeDocument returns a document whose archive is well above CompressionThreshold
// and compresses well.
func largeDocument(t *testing.T, entries int) *document.Document {
	t.Helper()

	doc := document.New()
	for i := range entries {
		doc.Set(fmt.Sprintf("service.endpoint_%04d", i), document.Str(fmt.Sprintf("https://service-%d.internal.example.com/api/v1", i)))
	}

	return doc
}

// =============================================================================
// Round Trip Tests
// =============================================================================

func TestEncodeDecode_RoundTrip(t *testing.T) {
	docs := map[string]*document.Document{
		"empty":  document.New(),
		"sample": sampleDocument(t),
		"large":  largeDocument(t, 200),
	}

	for name, doc := range docs {
		for _, algo := range allAlgorithms {
			t.Run(fmt.Sprintf("%s/%s", name, algo), func(t *testing.T) {
				data, err := Encode(doc, algo, WithCompressionThreshold(0))
				require.NoError(t, err)

				back, err := Decode(data)
				require.NoError(t, err)
				requireDocEqual(t, doc, back)
			})
		}
	}
}

func TestDecode_PreservesOrderAndStream(t *testing.T) {
	doc := sampleDocument(t)
	data, err := Encode(doc, format.CompressionNone)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)

	wantKeys := make([]string, 0, doc.ContextLen())
	for _, f := range doc.Context() {
		wantKeys = append(wantKeys, f.Key)
	}

	gotKeys := make([]string, 0, back.ContextLen())
	for _, f := range back.Context() {
		gotKeys = append(gotKeys, f.Key)
	}
	require.Equal(t, wantKeys, gotKeys)

	events, ok := back.Get("events")
	require.True(t, ok)
	require.True(t, events.(document.Array).Stream)

	tags, _ := back.Get("tags")
	require.False(t, tags.(document.Array).Stream)

	ratio, _ := back.Get("ratio")
	require.True(t, math.IsNaN(float64(ratio.(document.Number))))

	names := make([]string, 0, 3)
	for _, s := range back.Sections() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"users", "none", "cols_only"}, names)
}

func TestEncode_Deterministic(t *testing.T) {
	for _, algo := range allAlgorithms {
		t.Run(algo.String(), func(t *testing.T) {
			a, err := Encode(largeDocument(t, 100), algo)
			require.NoError(t, err)

			b, err := Encode(largeDocument(t, 100), algo)
			require.NoError(t, err)

			require.Equal(t, a, b)
			require.Equal(t, Fingerprint(a), Fingerprint(b))
		})
	}
}

func TestEncode_DeduplicatesStrings(t *testing.T) {
	doc := document.New()
	doc.Set("a", document.Str("shared-value"))
	doc.Set("b", document.Str("shared-value"))

	data, err := Encode(doc, format.CompressionNone)
	require.NoError(t, err)
	require.Equal(t, 1, bytes.Count(data, []byte("shared-value")))

	a, err := Open(data)
	require.NoError(t, err)

	refA, ok, err := a.Lookup("a")
	require.NoError(t, err)
	require.True(t, ok)

	refB, ok, err := a.Lookup("b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, refA.Offset(), refB.Offset())
}

func TestEncode_BigEndian(t *testing.T) {
	doc := sampleDocument(t)

	data, err := Encode(doc, format.CompressionNone, WithBigEndian())
	require.NoError(t, err)

	raw := data[1:]
	require.Equal(t, Magic, string(raw[:4]))
	require.Equal(t, endian.FlagBigEndian, raw[5])
	require.Equal(t, uint32(doc.ContextLen()), binary.BigEndian.Uint32(raw[8:12]))
	require.Equal(t, uint32(len(raw)), binary.BigEndian.Uint32(raw[20:24]))

	back, err := Decode(data)
	require.NoError(t, err)
	requireDocEqual(t, doc, back)

	little, err := Encode(doc, format.CompressionNone, WithBigEndian(), WithLittleEndian())
	require.NoError(t, err)
	require.Equal(t, uint8(0), little[1+5])
	require.Equal(t, len(data), len(little))
}

// =============================================================================
// Header Tests
// =============================================================================

func TestParseHeader(t *testing.T) {
	doc := sampleDocument(t)
	data, err := Encode(doc, format.CompressionNone)
	require.NoError(t, err)

	raw := data[1:]
	hdr, err := ParseHeader(raw)
	require.NoError(t, err)
	require.Equal(t, Version, hdr.Version)
	require.Equal(t, uint8(0), hdr.Flags)
	require.Equal(t, uint32(doc.ContextLen()), hdr.ContextCount)
	require.Equal(t, uint32(3), hdr.SectionCount)
	require.Equal(t, uint32(len(raw)), hdr.TotalSize)
	require.Equal(t, hdr.TotalSize-8*(hdr.ContextCount+hdr.SectionCount), hdr.IndexOffset)
	require.Equal(t, raw[:HeaderSize], hdr.Bytes())
}

func TestParseHeader_Errors(t *testing.T) {
	data, err := Encode(sampleDocument(t), format.CompressionNone)
	require.NoError(t, err)
	raw := data[1:]

	mutate := func(fn func(b []byte)) []byte {
		b := append([]byte(nil), raw...)
		fn(b)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", raw[:HeaderSize-1], errs.ErrInvalidHeaderSize},
		{"magic", mutate(func(b []byte) { b[0] = 'X' }), errs.ErrInvalidMagic},
		{"version", mutate(func(b []byte) { b[4] = 2 }), errs.ErrUnsupportedVersion},
		{"unknown flag", mutate(func(b []byte) { b[5] = 0x80 }), errs.ErrCorrupt},
		{"reserved byte", mutate(func(b []byte) { b[7] = 1 }), errs.ErrCorrupt},
		{"truncated", raw[:len(raw)-1], errs.ErrTruncated},
		{"index offset", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[16:], 3) }), errs.ErrCorrupt},
		{"counts", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[8:], 1<<30) }), errs.ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.data)
			require.ErrorIs(t, err, tt.want)

			_, err = OpenArchive(tt.data)
			requireCodecError(t, err, tt.want)
		})
	}
}

// =============================================================================
// Compression Policy Tests
// =============================================================================

func TestEncode_BelowThresholdIsUncompressed(t *testing.T) {
	doc := document.New()
	doc.Set("a", document.Number(1))

	for _, algo := range allAlgorithms {
		data, stats, err := EncodeWithStats(doc, algo)
		require.NoError(t, err)
		require.Equal(t, byte(format.CompressionNone), data[0])
		require.Equal(t, format.CompressionNone, stats.Algorithm)
		require.Equal(t, algo, stats.Requested)
		require.Equal(t, algo != format.CompressionNone, stats.FellBack())
		require.Equal(t, stats.OriginalSize, stats.CompressedSize)
	}
}

func TestEncode_AboveThresholdIsCompressed(t *testing.T) {
	doc := largeDocument(t, 200)

	for _, algo := range []format.CompressionType{format.CompressionLZ4, format.CompressionZstd} {
		t.Run(algo.String(), func(t *testing.T) {
			data, stats, err := EncodeWithStats(doc, algo)
			require.NoError(t, err)
			require.Greater(t, stats.OriginalSize, int64(CompressionThreshold))
			require.Equal(t, byte(algo), data[0])
			require.False(t, stats.FellBack())
			require.Less(t, stats.CompressedSize, stats.OriginalSize)
			require.Less(t, stats.CompressionRatio(), 1.0)
			require.Equal(t, int64(len(data)-1), stats.CompressedSize)
		})
	}
}

func TestEncode_IncompressibleFallsBack(t *testing.T) {
	noise := make([]byte, 8<<10)
	rand.New(rand.NewSource(7)).Read(noise)

	doc := document.New()
	doc.Set("noise", document.Str(noise))

	for _, algo := range []format.CompressionType{format.CompressionLZ4, format.CompressionZstd} {
		t.Run(algo.String(), func(t *testing.T) {
			data, stats, err := EncodeWithStats(doc, algo)
			require.NoError(t, err)
			require.Equal(t, byte(format.CompressionNone), data[0])
			require.True(t, stats.FellBack())

			back, err := Decode(data)
			require.NoError(t, err)
			requireDocEqual(t, doc, back)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(sampleDocument(t), format.CompressionType(9))
	requireCodecError(t, err, errs.ErrUnknownTag)

	_, err = Encode(nil, format.CompressionNone)
	requireCodecError(t, err, errs.ErrUnrepresentable)

	bad := document.New()
	bad.Set("bad key", document.Number(1))
	_, err = Encode(bad, format.CompressionNone)
	requireCodecError(t, err, errs.ErrUnrepresentable)
	require.ErrorIs(t, err, errs.ErrInvalidKey)

	rowsNoCols := document.New()
	tbl := document.NewTable()
	tbl.Rows = append(tbl.Rows, []document.Value{})
	require.NoError(t, rowsNoCols.AddSection("s", tbl))
	_, err = Encode(rowsNoCols, format.CompressionNone)
	requireCodecError(t, err, errs.ErrUnrepresentable)

	_, err = NewEncoder(WithCompressionThreshold(-1))
	require.Error(t, err)
}

// =============================================================================
// Corrupt Input Tests
// =============================================================================

func TestDecode_InvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, errs.ErrTruncated},
		{"unknown tag", []byte{0x07, 1, 2, 3}, errs.ErrUnknownTag},
		{"tag only", []byte{0x00}, errs.ErrInvalidHeaderSize},
		{"lz4 garbage", []byte{0x01, 5, 0, 0, 0, 0xff, 0xff}, errs.ErrDecompress},
		{"lz4 short prefix", []byte{0x01, 5}, errs.ErrTruncated},
		{"zstd garbage", []byte{0x02, 1, 2, 3, 4, 5, 6, 7, 8}, errs.ErrDecompress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(tt.data)
			require.Nil(t, doc)
			requireCodecError(t, err, tt.want)
		})
	}
}

func TestDecode_MaxDecodedSize(t *testing.T) {
	data, err := Encode(largeDocument(t, 200), format.CompressionLZ4)
	require.NoError(t, err)
	require.Equal(t, byte(format.CompressionLZ4), data[0])

	_, err = Decode(data, WithMaxDecodedSize(512))
	requireCodecError(t, err, errs.ErrTooLarge)

	_, err = Decode(data, WithMaxDecodedSize(0))
	require.Error(t, err)

	data, err = Encode(largeDocument(t, 200), format.CompressionZstd)
	require.NoError(t, err)

	_, err = Decode(data, WithMaxDecodedSize(512))
	requireCodecError(t, err, nil)
}

func TestDecode_ByteFlipsNeverPanic(t *testing.T) {
	small := sampleDocument(t)

	for _, algo := range allAlgorithms {
		t.Run(algo.String(), func(t *testing.T) {
			data, err := Encode(small, algo, WithCompressionThreshold(0))
			require.NoError(t, err)

			for i := range data {
				for _, mask := range []byte{0x01, 0x80, 0xff} {
					corrupt := append([]byte(nil), data...)
					corrupt[i] ^= mask

					require.NotPanics(t, func() {
						if _, err := Decode(corrupt); err != nil {
							requireCodecError(t, err, nil)
						}
					}, "byte %d mask %#x", i, mask)
				}
			}
		})
	}
}

func TestDecode_TruncationsFail(t *testing.T) {
	for _, algo := range allAlgorithms {
		t.Run(algo.String(), func(t *testing.T) {
			data, err := Encode(sampleDocument(t), algo, WithCompressionThreshold(0))
			require.NoError(t, err)

			for n := range len(data) {
				require.NotPanics(t, func() {
					_, err := Decode(data[:n])
					requireCodecError(t, err, nil)
				}, "length %d", n)
			}
		})
	}
}

// rawBuilder assembles hand-made little-endian archives.
type rawBuilder struct {
	b []byte
}

func newRawBuilder() *rawBuilder {
	return &rawBuilder{b: make([]byte, HeaderSize)}
}

func (r *rawBuilder) off() uint32 { return uint32(len(r.b)) }

func (r *rawBuilder) str(s string) uint32 {
	off := r.off()
	r.b = append(r.b, byte(format.KindStr), byte(len(s)))
	r.b = append(r.b, s...)

	return off
}

func (r *rawBuilder) array(count uint32, items ...uint32) uint32 {
	off := r.off()
	r.b = append(r.b, byte(format.KindArray), 0)
	r.b = binary.AppendUvarint(r.b, uint64(count))
	for _, it := range items {
		r.b = binary.LittleEndian.AppendUint32(r.b, it)
	}

	return off
}

func (r *rawBuilder) record(kind format.ValueKind, body ...byte) uint32 {
	off := r.off()
	r.b = append(r.b, byte(kind))
	r.b = append(r.b, body...)

	return off
}

func (r *rawBuilder) finish(entries [][2]uint32, sections [][2]uint32) []byte {
	hdr := Header{
		Version:      Version,
		ContextCount: uint32(len(entries)),
		SectionCount: uint32(len(sections)),
		IndexOffset:  r.off(),
	}

	for _, e := range append(entries, sections...) {
		r.b = binary.LittleEndian.AppendUint32(r.b, e[0])
		r.b = binary.LittleEndian.AppendUint32(r.b, e[1])
	}

	hdr.TotalSize = r.off()
	copy(r.b, hdr.Bytes())

	return append([]byte{byte(format.CompressionNone)}, r.b...)
}

func TestDecode_HandCraftedArchives(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := newRawBuilder()
		key := r.str("a")
		val := r.array(1, r.record(format.KindNull))

		doc, err := Decode(r.finish([][2]uint32{{key, val}}, nil))
		require.NoError(t, err)

		v, ok := doc.Get("a")
		require.True(t, ok)
		require.Equal(t, document.NewArray(document.Null{}), v)
	})

	tests := []struct {
		name  string
		build func(r *rawBuilder) []byte
		want  error
	}{
		{"self reference", func(r *rawBuilder) []byte {
			key := r.str("a")
			self := r.off()
			r.array(1, self)

			return r.finish([][2]uint32{{key, self}}, nil)
		}, errs.ErrCorrupt},
		{"forward reference", func(r *rawBuilder) []byte {
			key := r.str("a")
			arr := r.array(1, r.off()+20)

			return r.finish([][2]uint32{{key, arr}}, nil)
		}, errs.ErrCorrupt},
		{"shared container", func(r *rawBuilder) []byte {
			key := r.str("a")
			inner := r.array(0)
			outer := r.array(2, inner, inner)

			return r.finish([][2]uint32{{key, outer}}, nil)
		}, errs.ErrCorrupt},
		{"count overruns region", func(r *rawBuilder) []byte {
			key := r.str("a")
			arr := r.array(1 << 28)

			return r.finish([][2]uint32{{key, arr}}, nil)
		}, errs.ErrTruncated},
		{"duplicate context key", func(r *rawBuilder) []byte {
			key := r.str("a")
			null := r.record(format.KindNull)

			return r.finish([][2]uint32{{key, null}, {key, null}}, nil)
		}, errs.ErrCorrupt},
		{"key is not a string", func(r *rawBuilder) []byte {
			null := r.record(format.KindNull)

			return r.finish([][2]uint32{{null, null}}, nil)
		}, errs.ErrCorrupt},
		{"section is not a table", func(r *rawBuilder) []byte {
			name := r.str("s")
			null := r.record(format.KindNull)

			return r.finish(nil, [][2]uint32{{name, null}})
		}, errs.ErrCorrupt},
		{"rows without columns", func(r *rawBuilder) []byte {
			name := r.str("s")
			tbl := r.record(format.KindTable, 0, 5)

			return r.finish(nil, [][2]uint32{{name, tbl}})
		}, errs.ErrCorrupt},
		{"unknown kind", func(r *rawBuilder) []byte {
			key := r.str("a")
			bad := r.record(format.ValueKind(0x42))

			return r.finish([][2]uint32{{key, bad}}, nil)
		}, errs.ErrCorrupt},
		{"bool byte", func(r *rawBuilder) []byte {
			key := r.str("a")
			b := r.record(format.KindBool, 7)

			return r.finish([][2]uint32{{key, b}}, nil)
		}, errs.ErrCorrupt},
		{"truncated number", func(r *rawBuilder) []byte {
			key := r.str("a")
			n := r.record(format.KindNumber, 1, 2, 3)

			return r.finish([][2]uint32{{key, n}}, nil)
		}, errs.ErrTruncated},
		{"invalid key", func(r *rawBuilder) []byte {
			key := r.str("bad key")
			null := r.record(format.KindNull)

			return r.finish([][2]uint32{{key, null}}, nil)
		}, errs.ErrCorrupt},
		{"index points at header", func(r *rawBuilder) []byte {
			r.record(format.KindNull)

			return r.finish([][2]uint32{{4, 4}}, nil)
		}, errs.ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(tt.build(newRawBuilder()))
			require.Nil(t, doc)
			requireCodecError(t, err, tt.want)
		})
	}
}

// =============================================================================
// Archive View Tests
// =============================================================================

func TestArchive_Accessors(t *testing.T) {
	data, err := Encode(sampleDocument(t), format.CompressionNone)
	require.NoError(t, err)

	a, err := Open(data)
	require.NoError(t, err)
	require.Equal(t, 14, a.ContextLen())
	require.Equal(t, 3, a.SectionLen())

	key, ref, err := a.ContextEntry(0)
	require.NoError(t, err)
	require.Equal(t, "name", key)
	require.Equal(t, format.KindStr, ref.Kind())

	s, err := ref.String()
	require.NoError(t, err)
	require.Equal(t, "app", s)

	_, _, err = a.ContextEntry(14)
	requireCodecError(t, err, errs.ErrCorrupt)

	version, ok, err := a.Lookup("version")
	require.NoError(t, err)
	require.True(t, ok)

	n, err := version.Number()
	require.NoError(t, err)
	require.InDelta(t, 2.5, n, 0)

	_, err = version.Bool()
	requireCodecError(t, err, errs.ErrKindMismatch)

	_, ok, err = a.Lookup("missing")
	require.NoError(t, err)
	require.False(t, ok)

	debug, _, err := a.Lookup("debug")
	require.NoError(t, err)
	b, err := debug.Bool()
	require.NoError(t, err)
	require.True(t, b)

	events, _, err := a.Lookup("events")
	require.NoError(t, err)
	stream, err := events.Stream()
	require.NoError(t, err)
	require.True(t, stream)

	length, err := events.Len()
	require.NoError(t, err)
	require.Equal(t, 2, length)

	first, err := events.Index(0)
	require.NoError(t, err)
	s, err = first.String()
	require.NoError(t, err)
	require.Equal(t, "start", s)

	_, err = events.Index(2)
	requireCodecError(t, err, errs.ErrCorrupt)

	server, _, err := a.Lookup("server")
	require.NoError(t, err)
	require.Equal(t, format.KindObject, server.Kind())

	port, ok, err := server.Field("port")
	require.NoError(t, err)
	require.True(t, ok)
	n, err = port.Number()
	require.NoError(t, err)
	require.InDelta(t, 8080.0, n, 0)

	_, ok, err = server.Field("nope")
	require.NoError(t, err)
	require.False(t, ok)

	name, host, err := server.FieldAt(0)
	require.NoError(t, err)
	require.Equal(t, "host", name)
	require.Equal(t, format.KindStr, host.Kind())

	grid, _, err := server.Field("grid")
	require.NoError(t, err)

	cols, rows, err := grid.TableShape()
	require.NoError(t, err)
	require.Equal(t, 2, cols)
	require.Equal(t, 2, rows)

	col, err := grid.Column(1)
	require.NoError(t, err)
	require.Equal(t, "y", col)

	cell, err := grid.Cell(1, 1)
	require.NoError(t, err)
	require.Equal(t, format.KindNull, cell.Kind())

	_, err = grid.Cell(2, 0)
	requireCodecError(t, err, errs.ErrCorrupt)

	_, err = version.Len()
	requireCodecError(t, err, errs.ErrKindMismatch)

	users, ok, err := a.Section("users")
	require.NoError(t, err)
	require.True(t, ok)
	cols, rows, err = users.TableShape()
	require.NoError(t, err)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2, rows)

	_, ok, err = a.Section("missing")
	require.NoError(t, err)
	require.False(t, ok)

	var zero ValueRef
	_, err = zero.Number()
	requireCodecError(t, err, errs.ErrKindMismatch)
}

func TestArchive_StringsShareBuffer(t *testing.T) {
	doc := document.New()
	doc.Set("k", document.Str("hello"))

	data, err := Encode(doc, format.CompressionNone)
	require.NoError(t, err)

	a, err := Open(data)
	require.NoError(t, err)

	ref, _, err := a.Lookup("k")
	require.NoError(t, err)

	b, err := ref.Bytes()
	require.NoError(t, err)
	require.Equal(t, 5, cap(b))

	b[0] = 'j'
	require.Contains(t, string(data), "jello")
}

// =============================================================================
// Batch Tests
// =============================================================================

func batchDocuments(t *testing.T, n int) []*document.Document {
	t.Helper()

	docs := make([]*document.Document, n)
	for i := range docs {
		doc := largeDocument(t, 10+i%20)
		doc.Set("index", document.Number(float64(i)))
		docs[i] = doc
	}

	return docs
}

func TestEncodeBatch_MatchesSequential(t *testing.T) {
	for _, n := range []int{0, 5, ParallelBatchThreshold, 150} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			docs := batchDocuments(t, n)

			out, err := EncodeBatch(context.Background(), docs, format.CompressionZstd)
			require.NoError(t, err)
			require.Len(t, out, n)

			for i, doc := range docs {
				want, err := Encode(doc, format.CompressionZstd)
				require.NoError(t, err)
				require.Equal(t, want, out[i], "document %d", i)
			}
		})
	}
}

func TestEncodeBatch_Errors(t *testing.T) {
	docs := batchDocuments(t, 100)
	bad := document.New()
	bad.Set("bad key", document.Null{})
	docs[70] = bad

	_, err := EncodeBatch(context.Background(), docs, format.CompressionLZ4)
	require.ErrorIs(t, err, errs.ErrUnrepresentable)
	require.Contains(t, err.Error(), "document 70")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, n := range []int{3, 100} {
		_, err = EncodeBatch(ctx, batchDocuments(t, n), format.CompressionNone)
		require.ErrorIs(t, err, context.Canceled)
	}

	_, err = EncodeBatch(context.Background(), docs, format.CompressionNone, WithCompressionThreshold(-5))
	require.Error(t, err)
}

// =============================================================================
// File And Fingerprint Tests
// =============================================================================

func TestWriteReadFile_MemFS(t *testing.T) {
	var fsys platform.MemFS
	ctx := context.Background()
	doc := sampleDocument(t)

	require.NoError(t, WriteFile(ctx, &fsys, "conf.machine", doc, format.CompressionZstd))

	back, err := ReadFile(ctx, &fsys, "conf.machine")
	require.NoError(t, err)
	requireDocEqual(t, doc, back)

	_, err = ReadFile(ctx, &fsys, "missing.machine")
	require.ErrorIs(t, err, platform.ErrNotExist)
}

func TestWriteReadFile_LocalAsync(t *testing.T) {
	fsys, err := platform.NewLocalFS()
	require.NoError(t, err)

	doc := document.New()
	doc.Set("blob", document.Str(strings.Repeat("x", AsyncIOThreshold+10)))

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "big.machine")

	require.NoError(t, WriteFile(ctx, fsys, path, doc, format.CompressionNone))

	size, err := fsys.Size(ctx, path)
	require.NoError(t, err)
	require.Greater(t, size, int64(AsyncIOThreshold))

	back, err := ReadFile(ctx, fsys, path)
	require.NoError(t, err)
	requireDocEqual(t, doc, back)
}

func TestContentFingerprint(t *testing.T) {
	a, err := ContentFingerprint(sampleDocument(t))
	require.NoError(t, err)

	b, err := ContentFingerprint(sampleDocument(t))
	require.NoError(t, err)
	require.Equal(t, a, b)

	changed := sampleDocument(t)
	changed.Set("name", document.Str("other"))
	c, err := ContentFingerprint(changed)
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	_, err = ContentFingerprint(nil)
	require.Error(t, err)
}
