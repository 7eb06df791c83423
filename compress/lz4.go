package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/dxform/errs"
)

// lz4SizePrefix is the length of the little-endian uncompressed size that precedes
// every LZ4 block.
const lz4SizePrefix = 4

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor is the fast codec. Its output is a uint32 little-endian
// uncompressed size followed by one LZ4 block.
type LZ4Compressor struct {
	maxDecoded int
}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor that refuses to decode more than
// maxDecoded bytes.
//
// Returns:
//   - LZ4Compressor: New LZ4 compressor instance
func NewLZ4Compressor(maxDecoded int) LZ4Compressor {
	return LZ4Compressor{maxDecoded: maxDecoded}
}

// Compress compresses the input data using LZ4 compression.
//
// Uses a pooled lz4.Compressor for better performance.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Size prefix and compressed block
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: %d bytes exceed the lz4 size prefix", errs.ErrTooLarge, len(data))
	}

	dst := make([]byte, lz4SizePrefix+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(dst, uint32(len(data)))

	if len(data) == 0 {
		return dst[:lz4SizePrefix], nil
	}

	// Get compressor from pool
	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4SizePrefix:])
	if err != nil {
		return nil, err
	}

	return dst[:lz4SizePrefix+n], nil
}

// Decompress decompresses the input data using LZ4 decompression.
//
// The size prefix is checked against the decoded size limit before the output
// buffer is allocated, and the block must decode to exactly that size.
//
// Parameters:
//   - data: Size prefix and compressed block
//
// Returns:
//   - []byte: Decompressed data
//   - error: errs.ErrTruncated, errs.ErrTooLarge or errs.ErrDecompress
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < lz4SizePrefix {
		return nil, fmt.Errorf("%w: lz4 size prefix needs %d bytes, got %d", errs.ErrTruncated, lz4SizePrefix, len(data))
	}

	size := binary.LittleEndian.Uint32(data)
	if uint64(size) > uint64(c.maxDecoded) {
		return nil, fmt.Errorf("%w: lz4 payload declares %d bytes, limit is %d", errs.ErrTooLarge, size, c.maxDecoded)
	}

	if size == 0 {
		if len(data) != lz4SizePrefix {
			return nil, fmt.Errorf("%w: lz4 block after zero size prefix", errs.ErrDecompress)
		}

		return []byte{}, nil
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data[lz4SizePrefix:], buf)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", errs.ErrDecompress, err)
	}

	if n != int(size) {
		return nil, fmt.Errorf("%w: lz4 block decoded to %d bytes, prefix says %d", errs.ErrDecompress, n, size)
	}

	return buf, nil
}
