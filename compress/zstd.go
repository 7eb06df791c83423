package compress

// ZstdCompressor provides Zstandard compression for the size-optimized tag.
//
// This compressor is designed for scenarios where compression ratio is more important
// than compression speed, making it ideal for:
//   - Archives checked into repositories or shipped with releases
//   - Network transmission where bandwidth is limited
//
// The pure Go implementation (github.com/klauspost/compress/zstd) is the default.
// Building with cgo and the "gozstd" tag switches to github.com/valyala/gozstd; both
// produce standard Zstd frames, so either build decodes the other's output.
type ZstdCompressor struct {
	maxDecoded int
}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor that refuses to decode more than
// maxDecoded bytes.
//
// Example:
//
//	compressor := NewZstdCompressor(compress.DefaultMaxDecodedSize)
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor(maxDecoded int) ZstdCompressor {
	return ZstdCompressor{maxDecoded: maxDecoded}
}
