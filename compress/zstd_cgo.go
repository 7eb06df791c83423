//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/dxform/errs"
)

const gozstdLevel = 6

// Compress compresses the input data using the cgo Zstandard binding.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, gozstdLevel), nil
}

// Decompress decompresses Zstd-compressed data. The frame header is checked
// against the decoded size limit before any output is allocated.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if err := checkZstdFrame(data, c.maxDecoded); err != nil {
		return nil, err
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errs.ErrDecompress, err)
	}

	if len(out) > c.maxDecoded {
		return nil, fmt.Errorf("%w: zstd payload decoded to %d bytes, limit is %d", errs.ErrTooLarge, len(out), c.maxDecoded)
	}

	if out == nil {
		out = []byte{}
	}

	return out, nil
}
