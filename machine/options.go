package machine

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/dxform/compress"
	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/internal/options"
)

// CompressionThreshold is the default archive size below which compression is
// skipped and the payload is tagged none.
const CompressionThreshold = 1 << 10

// EncoderConfig holds the machine encoder settings.
type EncoderConfig struct {
	threshold int
	engine    endian.EndianEngine
	logger    *slog.Logger
}

func defaultEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		threshold: CompressionThreshold,
		engine:    endian.GetLittleEndianEngine(),
		logger:    slog.New(slog.DiscardHandler),
	}
}

// EncoderOption is a functional option for configuring an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithCompressionThreshold sets the archive size below which the requested
// compression is ignored. Zero compresses every archive.
// Default is CompressionThreshold.
func WithCompressionThreshold(size int) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if size < 0 {
			return fmt.Errorf("compression threshold cannot be negative: %d", size)
		}
		c.threshold = size

		return nil
	})
}

// WithLittleEndian writes archives in little-endian byte order. This is the default.
func WithLittleEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian writes archives in big-endian byte order.
func WithBigEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithEncoderLogger sets the logger that receives compression decisions at debug level.
// The encoder is silent by default.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// DecoderConfig holds the machine decoder settings.
type DecoderConfig struct {
	maxDecoded int
}

// DecoderOption is a functional option for configuring decoding.
type DecoderOption = options.Option[*DecoderConfig]

// WithMaxDecodedSize bounds the size a compressed payload may expand to.
// Default is compress.DefaultMaxDecodedSize.
func WithMaxDecodedSize(size int) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		if size <= 0 {
			return fmt.Errorf("max decoded size must be positive: %d", size)
		}
		c.maxDecoded = size

		return nil
	})
}

func newDecoderConfig(opts []DecoderOption) (*DecoderConfig, error) {
	cfg := &DecoderConfig{maxDecoded: compress.DefaultMaxDecodedSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
