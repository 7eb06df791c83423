package dxform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/arloliu/dxform/compact"
	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/human"
	"github.com/arloliu/dxform/internal/options"
	"github.com/arloliu/dxform/internal/textval"
	"github.com/arloliu/dxform/machine"
	"github.com/arloliu/dxform/mapping"
	"github.com/arloliu/dxform/platform"
)

// FormatForPath returns the form implied by the extension of path.
// Extensions are matched case-insensitively.
func FormatForPath(path string) (format.Form, error) {
	ext := strings.ToLower(filepath.Ext(path))
	form, ok := format.FormForExt(ext)
	if !ok {
		return 0, fmt.Errorf("%w: %q (want %s, %s or %s)",
			errs.ErrUnknownFormat, path, format.ExtHuman, format.ExtCompact, format.ExtMachine)
	}

	return form, nil
}

// ConverterConfig holds the settings of a Converter.
type ConverterConfig struct {
	reg         *mapping.Registry
	algo        format.CompressionType
	compactOpts []compact.Option
	humanOpts   []human.Option
	encoderOpts []machine.EncoderOption
	decoderOpts []machine.DecoderOption
	maxInput    int
	logger      *slog.Logger
}

// ConverterOption configures a Converter.
type ConverterOption = options.Option[*ConverterConfig]

// WithRegistry sets the key registry used by the compact form.
// Default is mapping.Default().
func WithRegistry(reg *mapping.Registry) ConverterOption {
	return options.New(func(c *ConverterConfig) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		c.reg = reg

		return nil
	})
}

// WithCompression sets the algorithm requested for machine output. Default is Zstd.
func WithCompression(algo format.CompressionType) ConverterOption {
	return options.New(func(c *ConverterConfig) error {
		if !algo.IsValid() {
			return fmt.Errorf("%w: %d", errs.ErrUnknownTag, algo)
		}
		c.algo = algo

		return nil
	})
}

// WithCompactOptions appends options for compact output.
func WithCompactOptions(opts ...compact.Option) ConverterOption {
	return options.NoError(func(c *ConverterConfig) {
		c.compactOpts = append(c.compactOpts, opts...)
	})
}

// WithHumanOptions appends options for human output.
func WithHumanOptions(opts ...human.Option) ConverterOption {
	return options.NoError(func(c *ConverterConfig) {
		c.humanOpts = append(c.humanOpts, opts...)
	})
}

// WithEncoderOptions appends options for machine output.
func WithEncoderOptions(opts ...machine.EncoderOption) ConverterOption {
	return options.NoError(func(c *ConverterConfig) {
		c.encoderOpts = append(c.encoderOpts, opts...)
	})
}

// WithDecoderOptions appends options for machine input.
func WithDecoderOptions(opts ...machine.DecoderOption) ConverterOption {
	return options.NoError(func(c *ConverterConfig) {
		c.decoderOpts = append(c.decoderOpts, opts...)
	})
}

// WithMaxInputSize sets the largest human or compact input in bytes that Parse
// accepts. Default is 100 MiB.
func WithMaxInputSize(size int) ConverterOption {
	return options.New(func(c *ConverterConfig) error {
		if size <= 0 {
			return errors.New("max input size must be positive")
		}
		c.maxInput = size

		return nil
	})
}

// WithLogger sets the logger for conversion events. The machine encoder logs
// through it as well unless WithEncoderOptions sets its own logger.
func WithLogger(logger *slog.Logger) ConverterOption {
	return options.New(func(c *ConverterConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger

		return nil
	})
}

// Converter converts documents between any two forms with one fixed configuration.
// A Converter is safe for concurrent use.
type Converter struct {
	cfg     *ConverterConfig
	encoder *machine.Encoder
}

// NewConverter creates a Converter. Without WithRegistry it uses mapping.Default(),
// and fails when the default dictionaries cannot be loaded.
func NewConverter(opts ...ConverterOption) (*Converter, error) {
	cfg := &ConverterConfig{
		algo:     format.CompressionZstd,
		maxInput: textval.DefaultMaxInputSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.reg == nil {
		reg, err := mapping.Default()
		if err != nil {
			return nil, err
		}
		cfg.reg = reg
	}

	encOpts := append([]machine.EncoderOption{machine.WithEncoderLogger(cfg.logger)}, cfg.encoderOpts...)
	encoder, err := machine.NewEncoder(encOpts...)
	if err != nil {
		return nil, err
	}

	return &Converter{cfg: cfg, encoder: encoder}, nil
}

// Registry returns the key registry used by the compact form.
func (c *Converter) Registry() *mapping.Registry {
	return c.cfg.reg
}

// Parse reads input in the given form. Text input that is not valid UTF-8 or is
// larger than the configured limit fails with a *errs.ParseError.
func (c *Converter) Parse(input []byte, from format.Form) (*document.Document, error) {
	switch from {
	case format.FormHuman:
		return human.Parse(string(input), human.WithMaxInputSize(c.cfg.maxInput))
	case format.FormCompact:
		return compact.Parse(string(input), c.cfg.reg, compact.WithMaxInputSize(c.cfg.maxInput))
	case format.FormMachine:
		return machine.Decode(input, c.cfg.decoderOpts...)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownFormat, from)
	}
}

// Render writes doc in the given form.
func (c *Converter) Render(doc *document.Document, to format.Form) ([]byte, error) {
	switch to {
	case format.FormHuman:
		out, err := human.Format(doc, c.cfg.humanOpts...)
		if err != nil {
			return nil, err
		}

		return []byte(out), nil
	case format.FormCompact:
		out, err := compact.Serialize(doc, c.cfg.reg, c.cfg.compactOpts...)
		if err != nil {
			return nil, err
		}

		return []byte(out), nil
	case format.FormMachine:
		return c.encoder.Encode(doc, c.cfg.algo)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownFormat, to)
	}
}

// Convert parses input in form from and renders it in form to. Converting a form
// to itself normalizes it.
func (c *Converter) Convert(input []byte, from, to format.Form) ([]byte, error) {
	doc, err := c.Parse(input, from)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", from, err)
	}

	out, err := c.Render(doc, to)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", to, err)
	}

	return out, nil
}

// ReadDocument reads the file at path in the form implied by its extension.
func (c *Converter) ReadDocument(ctx context.Context, fsys platform.FS, path string) (*document.Document, error) {
	from, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	if from == format.FormMachine {
		return machine.ReadFile(ctx, fsys, path, c.cfg.decoderOpts...)
	}

	data, err := fsys.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return c.Parse(data, from)
}

// WriteDocument writes doc to path in the form implied by its extension.
func (c *Converter) WriteDocument(ctx context.Context, fsys platform.FS, path string, doc *document.Document) error {
	to, err := FormatForPath(path)
	if err != nil {
		return err
	}

	if to == format.FormMachine {
		return c.encoder.WriteFile(ctx, fsys, path, doc, c.cfg.algo)
	}

	data, err := c.Render(doc, to)
	if err != nil {
		return err
	}

	return fsys.WriteFile(ctx, path, data)
}

// ConvertFile converts the file at in to the file at out, choosing both forms
// from the path extensions. The output is written atomically when fsys supports it.
func (c *Converter) ConvertFile(ctx context.Context, fsys platform.FS, in, out string) error {
	// Reject an unknown output form before reading the input.
	if _, err := FormatForPath(out); err != nil {
		return err
	}

	doc, err := c.ReadDocument(ctx, fsys, in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}

	if err := c.WriteDocument(ctx, fsys, out, doc); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	c.cfg.logger.Info("converted document",
		"input", in, "output", out,
		"context", doc.ContextLen(), "sections", len(doc.Sections()))

	return nil
}

// Convert converts input between two forms with a default Converter that uses reg.
func Convert(input []byte, from, to format.Form, reg *mapping.Registry) ([]byte, error) {
	c, err := NewConverter(WithRegistry(reg))
	if err != nil {
		return nil, err
	}

	return c.Convert(input, from, to)
}
