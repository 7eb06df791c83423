package compress

import (
	"fmt"

	"github.com/arloliu/dxform/format"
)

// DefaultMaxDecodedSize bounds the output of every decompressor. Payloads that
// declare or produce more are rejected before the buffer is allocated.
const DefaultMaxDecodedSize = 256 << 20

// Compressor compresses a complete archive payload.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is owned by the caller
	//   - Input slice is not modified
	//   - Internal encoders are pooled and reused
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// Implementations validate the input, enforce their decoded size limit and must be
// safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns an error wrapping errs.ErrDecompress if input data is corrupted
	//   - Returns an error wrapping errs.ErrTooLarge if the output exceeds the limit
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats records what one compression pass achieved.
type CompressionStats struct {
	// Requested is the algorithm the caller asked for
	Requested format.CompressionType

	// Algorithm is the algorithm recorded in the tag byte
	Algorithm format.CompressionType

	// OriginalSize is the size of the raw archive
	OriginalSize int64

	// CompressedSize is the size of the payload after the tag byte
	CompressedSize int64
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
// Returns 0.0 if the original size is zero.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage (0-100%).
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// FellBack reports whether the requested algorithm was replaced by no compression.
func (s CompressionStats) FellBack() bool {
	return s.Requested != s.Algorithm
}

// CreateCodec is a factory function that creates a Codec for the compression type
// with the given decoded size limit. A limit of zero or less uses DefaultMaxDecodedSize.
//
// Parameters:
//   - compressionType: Type of compression (None, LZ4 or Zstd)
//   - maxDecoded: Largest output a Decompress call may produce
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, maxDecoded int) (Codec, error) {
	if maxDecoded <= 0 {
		maxDecoded = DefaultMaxDecodedSize
	}

	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(maxDecoded), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(maxDecoded), nil
	default:
		return nil, fmt.Errorf("invalid compression: %s", compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(DefaultMaxDecodedSize),
	format.CompressionLZ4:  NewLZ4Compressor(DefaultMaxDecodedSize),
}

// GetCodec retrieves a built-in Codec, limited to DefaultMaxDecodedSize, for the
// specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
