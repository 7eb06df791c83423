package machine

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/dxform/compress"
	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/internal/options"
	"github.com/arloliu/dxform/internal/pool"
)

// Encoder turns Documents into tagged machine payloads. An Encoder is immutable
// after construction and safe for concurrent use.
type Encoder struct {
	cfg *EncoderConfig
}

// NewEncoder creates an Encoder.
//
// Parameters:
//   - opts: Optional configuration (compression threshold, byte order, logger)
//
// Returns:
//   - *Encoder: The configured encoder
//   - error: Invalid option
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := defaultEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{cfg: cfg}, nil
}

// Encode encodes doc and compresses it with algo when that pays off.
func (e *Encoder) Encode(doc *document.Document, algo format.CompressionType) ([]byte, error) {
	out, _, err := e.EncodeWithStats(doc, algo)
	return out, err
}

// EncodeWithStats is Encode that also reports which algorithm was recorded.
//
// The requested algorithm is replaced by none when the raw archive is smaller than
// the compression threshold, or when the compressed payload is not smaller than the
// raw archive. The output is deterministic for a given document and configuration.
func (e *Encoder) EncodeWithStats(doc *document.Document, algo format.CompressionType) ([]byte, compress.CompressionStats, error) {
	stats := compress.CompressionStats{Requested: algo, Algorithm: format.CompressionNone}

	if !algo.IsValid() {
		return nil, stats, errs.NewCodecError("encode", fmt.Errorf("%w: %d", errs.ErrUnknownTag, algo))
	}

	if doc == nil {
		return nil, stats, errs.NewCodecError("encode", fmt.Errorf("%w: nil document", errs.ErrUnrepresentable))
	}

	if err := doc.Validate(); err != nil {
		return nil, stats, errs.NewCodecError("encode", fmt.Errorf("%w: %w", errs.ErrUnrepresentable, err))
	}

	bb := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(bb)

	if err := writeArchive(bb, doc, e.cfg.engine); err != nil {
		return nil, stats, errs.NewCodecError("encode", err)
	}

	raw := bb.Bytes()
	payload := raw
	stats.OriginalSize = int64(len(raw))

	switch {
	case algo == format.CompressionNone:
	case len(raw) < e.cfg.threshold:
		e.cfg.logger.Debug("archive below compression threshold",
			slog.String("requested", algo.String()),
			slog.Int("size", len(raw)),
			slog.Int("threshold", e.cfg.threshold))
	default:
		codec, err := compress.GetCodec(algo)
		if err != nil {
			return nil, stats, errs.NewCodecError("encode", fmt.Errorf("%w: %w", errs.ErrUnknownTag, err))
		}

		compressed, err := codec.Compress(raw)
		if err != nil {
			return nil, stats, errs.NewCodecError("encode", err)
		}

		if len(compressed) < len(raw) {
			payload = compressed
			stats.Algorithm = algo
		} else {
			e.cfg.logger.Debug("compression did not shrink archive",
				slog.String("requested", algo.String()),
				slog.Int("size", len(raw)),
				slog.Int("compressed", len(compressed)))
		}
	}

	out := make([]byte, 1+len(payload))
	out[0] = byte(stats.Algorithm)
	copy(out[1:], payload)
	stats.CompressedSize = int64(len(payload))

	return out, stats, nil
}

// Encode encodes doc with a one-off Encoder.
func Encode(doc *document.Document, algo format.CompressionType, opts ...EncoderOption) ([]byte, error) {
	enc, err := NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return enc.Encode(doc, algo)
}

// EncodeWithStats encodes doc with a one-off Encoder and reports compression stats.
func EncodeWithStats(doc *document.Document, algo format.CompressionType, opts ...EncoderOption) ([]byte, compress.CompressionStats, error) {
	enc, err := NewEncoder(opts...)
	if err != nil {
		return nil, compress.CompressionStats{}, err
	}

	return enc.EncodeWithStats(doc, algo)
}

// Payload strips the tag byte of a machine payload and decompresses it, returning
// the raw archive. A payload tagged none is returned as a subslice of data.
func Payload(data []byte, opts ...DecoderOption) ([]byte, error) {
	cfg, err := newDecoderConfig(opts)
	if err != nil {
		return nil, err
	}

	raw, err := cfg.payload(data)
	if err != nil {
		return nil, errs.NewCodecError("decode", err)
	}

	return raw, nil
}

func (c *DecoderConfig) payload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", errs.ErrTruncated)
	}

	tag := format.CompressionType(data[0])
	if !tag.IsValid() {
		return nil, fmt.Errorf("%w: %#x", errs.ErrUnknownTag, data[0])
	}

	if tag == format.CompressionNone {
		return data[1:], nil
	}

	codec, err := compress.CreateCodec(tag, c.maxDecoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnknownTag, err)
	}

	return codec.Decompress(data[1:])
}

// Open returns a lazy view over a machine payload. For uncompressed payloads the
// view shares data; compressed payloads are decompressed into a new buffer first.
func Open(data []byte, opts ...DecoderOption) (*Archive, error) {
	raw, err := Payload(data, opts...)
	if err != nil {
		return nil, err
	}

	return OpenArchive(raw)
}

// Decode decodes a machine payload into a new Document.
// Corrupt, truncated or oversized input yields a *errs.CodecError.
func Decode(data []byte, opts ...DecoderOption) (*document.Document, error) {
	a, err := Open(data, opts...)
	if err != nil {
		return nil, err
	}

	return a.Document()
}
