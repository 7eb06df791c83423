package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Zstd": NewZstdCompressor(DefaultMaxDecodedSize),
		"LZ4":  NewLZ4Compressor(DefaultMaxDecodedSize),
	}
}

func generateTestData(size int) []byte {
	line := []byte("server.host=localhost server.port=8080 debug=false\n")
	data := make([]byte, 0, size)
	for len(data) < size {
		data = append(data, line...)
	}

	return data[:size]
}

func generateRandomData(size int) []byte {
	r := rand.New(rand.NewSource(42))
	data := make([]byte, size)
	r.Read(data)

	return data
}

// =============================================================================
// Factory Tests
// =============================================================================

func TestCreateCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionNone, format.CompressionLZ4, format.CompressionZstd} {
		codec, err := CreateCodec(ct, 0)
		require.NoError(t, err)
		require.NotNil(t, codec)

		builtin, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, builtin)
	}

	_, err := CreateCodec(format.CompressionType(9), 0)
	require.Error(t, err)

	_, err = GetCodec(format.CompressionType(9))
	require.Error(t, err)
}

func TestCompressionStats_Calculations(t *testing.T) {
	stats := CompressionStats{
		Requested:      format.CompressionZstd,
		Algorithm:      format.CompressionZstd,
		OriginalSize:   1000,
		CompressedSize: 250,
	}
	require.InDelta(t, 0.25, stats.CompressionRatio(), 1e-9)
	require.InDelta(t, 75.0, stats.SpaceSavings(), 1e-9)
	require.False(t, stats.FellBack())

	require.Zero(t, CompressionStats{}.CompressionRatio())

	stats.Algorithm = format.CompressionNone
	require.True(t, stats.FellBack())
}

// =============================================================================
// Round Trip Tests
// =============================================================================

func TestAllCodecs_RoundTrip(t *testing.T) {
	sizes := []int{0, 1, 13, 100, 4096, 64 * 1024}

	for name, codec := range getAllCodecs() {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("%s/%d", name, size), func(t *testing.T) {
				for _, data := range [][]byte{generateTestData(size), generateRandomData(size)} {
					compressed, err := codec.Compress(data)
					require.NoError(t, err)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.True(t, bytes.Equal(data, decompressed))
				}
			})
		}
	}
}

func TestCodecs_ShrinkRepetitiveData(t *testing.T) {
	data := generateTestData(16 * 1024)

	for _, name := range []string{"Zstd", "LZ4"} {
		compressed, err := getAllCodecs()[name].Compress(data)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(data)/4, name)
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := generateTestData(8 * 1024)

	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			failures := make([]error, 16)

			for i := range failures {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()

					compressed, err := codec.Compress(data)
					if err != nil {
						failures[i] = err
						return
					}

					out, err := codec.Decompress(compressed)
					if err != nil {
						failures[i] = err
						return
					}

					if !bytes.Equal(out, data) {
						failures[i] = fmt.Errorf("worker %d: round trip mismatch", i)
					}
				}(i)
			}
			wg.Wait()

			for _, err := range failures {
				require.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// Invalid Input Tests
// =============================================================================

func TestLZ4_InvalidData(t *testing.T) {
	codec := NewLZ4Compressor(1024)

	_, err := codec.Decompress([]byte{1, 2})
	require.ErrorIs(t, err, errs.ErrTruncated)

	huge := make([]byte, 8)
	binary.LittleEndian.PutUint32(huge, 1<<30)
	_, err = codec.Decompress(huge)
	require.ErrorIs(t, err, errs.ErrTooLarge)

	bad := []byte{16, 0, 0, 0, 0xff, 0xff, 0xff}
	_, err = codec.Decompress(bad)
	require.ErrorIs(t, err, errs.ErrDecompress)

	_, err = codec.Decompress([]byte{0, 0, 0, 0, 1})
	require.ErrorIs(t, err, errs.ErrDecompress)

	// A valid block whose prefix understates the decoded size.
	good, err := codec.Compress(generateTestData(512))
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(good, 100)
	_, err = codec.Decompress(good)
	require.ErrorIs(t, err, errs.ErrDecompress)
}

func TestZstd_InvalidData(t *testing.T) {
	codec := NewZstdCompressor(1024)

	_, err := codec.Decompress(nil)
	require.ErrorIs(t, err, errs.ErrDecompress)

	_, err = codec.Decompress([]byte("definitely not zstd"))
	require.ErrorIs(t, err, errs.ErrDecompress)

	big, err := codec.Compress(generateTestData(64 * 1024))
	require.NoError(t, err)
	_, err = codec.Decompress(big)
	require.Error(t, err)

	small, err := codec.Compress(generateTestData(512))
	require.NoError(t, err)
	_, err = codec.Decompress(small[:len(small)-3])
	require.ErrorIs(t, err, errs.ErrDecompress)
}
