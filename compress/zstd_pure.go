//go:build !(cgo && gozstd)

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/dxform/errs"
)

// zstdDecoderPools holds one decoder pool per decoded size limit. The
// klauspost/compress/zstd decoder is designed to run without allocations after a
// warmup, so decoders are kept and reused.
var zstdDecoderPools sync.Map // int -> *sync.Pool

func zstdDecoderPool(maxDecoded int) *sync.Pool {
	if p, ok := zstdDecoderPools.Load(maxDecoded); ok {
		return p.(*sync.Pool)
	}

	p := &sync.Pool{
		New: func() any {
			decoder, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1), // Single-threaded for predictable performance
				zstd.WithDecoderLowmem(false),
				zstd.WithDecoderMaxMemory(uint64(maxDecoded)),
			)
			if err != nil {
				// This should never happen with valid options
				panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
			}

			return decoder
		},
	}
	actual, _ := zstdDecoderPools.LoadOrStore(maxDecoded, p)

	return actual.(*sync.Pool)
}

// zstdEncoderPool pools zstd encoders for reuse to eliminate allocation overhead.
var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderCRC(false),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true), // Empty archives still produce a frame
		)
		if err != nil {
			// This should never happen with valid options
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// Compress compresses the input data into a single Zstandard frame.
// Uses a pooled encoder for better performance (eliminates allocation overhead).
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	// EncodeAll is stateless - safe to use with pooled encoder
	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses Zstd-compressed data.
// Uses a pooled decoder for better performance (eliminates allocation overhead).
//
// Frames that declare or produce more than the decoded size limit are rejected.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if err := checkZstdFrame(data, c.maxDecoded); err != nil {
		return nil, err
	}

	pool := zstdDecoderPool(c.maxDecoded)
	decoder, _ := pool.Get().(*zstd.Decoder)
	defer pool.Put(decoder)

	// Even if this call fails, the decoder can be reused for next call
	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errs.ErrDecompress, err)
	}

	if decompressed == nil {
		decompressed = []byte{}
	}

	return decompressed, nil
}
