// Package compress provides the compression codecs behind the machine form's tag byte.
//
// # Overview
//
// A machine file is one tag byte followed by a payload. The tag selects the codec:
//   - None (format.CompressionNone): the raw archive
//   - LZ4 (format.CompressionLZ4): fast; a uint32 little-endian size prefix plus one block
//   - Zstd (format.CompressionZstd): size-optimized; one standard Zstandard frame
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Decoded Size Limits
//
// Machine files are untrusted input. Every decompressor carries a decoded size limit
// (DefaultMaxDecodedSize unless the caller chooses another through CreateCodec) and
// checks it before allocating: LZ4 against its size prefix, Zstd against the frame
// header and through the decoder's memory cap.
//
// # Build Tags
//
// Zstd uses github.com/klauspost/compress/zstd by default. Building with cgo enabled
// and the "gozstd" tag switches to github.com/valyala/gozstd:
//
//	go build -tags gozstd ./...
//
// Encoders and decoders are pooled; all codecs are safe for concurrent use.
package compress
