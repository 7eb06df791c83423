package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/dxform"
	"github.com/arloliu/dxform/bridge"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/human"
	"github.com/arloliu/dxform/machine"
	"github.com/arloliu/dxform/mapping"
	"github.com/arloliu/dxform/platform"
)

const version = "v0.1.0"

// Environment variables that provide flag defaults.
const (
	envCompression = "DX_COMPRESSION"
	envLogLevel    = "DX_LOG_LEVEL"
)

type globalFlags struct {
	logLevel string
	mappings string
	noBuilt  bool
}

type convertFlags struct {
	input       string
	output      string
	compression string
	indent      int
	threshold   int
	noSections  bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var logger *slog.Logger

	root := newRootCmd(stdout, stderr, &logger)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(stderr, nil))
		}
		logger.Error("dxconv failed", "error", err)

		return 1
	}

	return 0
}

func newRootCmd(stdout, stderr io.Writer, logger **slog.Logger) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "dxconv",
		Short:         "dxconv converts configuration documents between the human, compact and machine forms.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", g.logLevel, err)
			}
			*logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", envOr(envLogLevel, "info"), "log level: debug, info, warn or error ($"+envLogLevel+")")
	pf.StringVar(&g.mappings, "mappings", os.Getenv(mapping.EnvMappingsDir), "directory of .dxmap/.yaml key dictionaries ($"+mapping.EnvMappingsDir+")")
	pf.BoolVar(&g.noBuilt, "no-builtin", false, "do not load the built-in key dictionary")

	root.AddCommand(
		newConvertCmd(g, logger),
		newInspectCmd(stdout),
		newVersionCmd(stdout),
	)

	return root
}

func newConvertCmd(g *globalFlags, logger **slog.Logger) *cobra.Command {
	f := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a document; forms are chosen by the file extensions",
		Long: "Convert reads the input file and writes the output file in the forms implied by\n" +
			"their extensions (.human, .dx, .machine). YAML and JSON input (.yaml, .yml, .json)\n" +
			"is imported as well.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), g, f, *logger)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input file path")
	fl.StringVarP(&f.output, "output", "o", "", "output file path")
	fl.StringVarP(&f.compression, "compression", "c", envOr(envCompression, "zstd"), "machine compression: none, lz4 (fast) or zstd (size) ($"+envCompression+")")
	fl.IntVar(&f.indent, "indent", human.DefaultIndent, "spaces per nesting level in human output")
	fl.IntVar(&f.threshold, "threshold", machine.CompressionThreshold, "archive size in bytes from which machine output is compressed")
	fl.BoolVar(&f.noSections, "no-sections", false, "keep YAML sequences of mappings as arrays instead of sections")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runConvert(ctx context.Context, g *globalFlags, f *convertFlags, logger *slog.Logger) error {
	algo, ok := format.ParseCompression(strings.ToLower(f.compression))
	if !ok {
		return fmt.Errorf("unknown compression %q", f.compression)
	}

	reg, err := loadRegistry(g, logger)
	if err != nil {
		return err
	}

	conv, err := dxform.NewConverter(
		dxform.WithRegistry(reg),
		dxform.WithCompression(algo),
		dxform.WithLogger(logger),
		dxform.WithHumanOptions(human.WithIndent(f.indent)),
		dxform.WithEncoderOptions(machine.WithCompressionThreshold(f.threshold)),
	)
	if err != nil {
		return err
	}

	fsys, err := platform.NewLocalFS(platform.WithLogger(logger))
	if err != nil {
		return err
	}

	if !isBridgeInput(f.input) {
		return conv.ConvertFile(ctx, fsys, f.input, f.output)
	}

	data, err := fsys.ReadFile(ctx, f.input)
	if err != nil {
		return err
	}

	doc, err := bridge.FromYAML(data, bridge.WithSections(!f.noSections))
	if err != nil {
		return fmt.Errorf("import %s: %w", f.input, err)
	}

	if err := conv.WriteDocument(ctx, fsys, f.output, doc); err != nil {
		return fmt.Errorf("write %s: %w", f.output, err)
	}

	logger.Info("imported document", "input", f.input, "output", f.output,
		"context", doc.ContextLen(), "sections", len(doc.Sections()))

	return nil
}

func loadRegistry(g *globalFlags, logger *slog.Logger) (*mapping.Registry, error) {
	if g.mappings == "" && !g.noBuilt {
		return mapping.Default()
	}

	opts := []mapping.Option{mapping.WithLogger(logger)}
	if g.noBuilt {
		opts = append(opts, mapping.WithoutDefaults())
	}
	if g.mappings != "" {
		opts = append(opts, mapping.WithDir(g.mappings))
	}

	return mapping.New(opts...)
}

func isBridgeInput(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func newInspectCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.machine",
		Short: "Print the header of a machine file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, err := platform.NewLocalFS()
			if err != nil {
				return err
			}

			data, err := fsys.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a, err := machine.Open(data)
			if err != nil {
				return err
			}

			hdr := a.Header()
			fmt.Fprintf(stdout, "compression : %s\n", format.CompressionType(data[0]))
			fmt.Fprintf(stdout, "payload     : %d bytes\n", len(data))
			fmt.Fprintf(stdout, "archive     : %d bytes\n", hdr.TotalSize)
			fmt.Fprintf(stdout, "version     : %d\n", hdr.Version)
			fmt.Fprintf(stdout, "byte order  : %s\n", a.ByteOrder())
			fmt.Fprintf(stdout, "context     : %d\n", a.ContextLen())
			fmt.Fprintf(stdout, "sections    : %d\n", a.SectionLen())
			fmt.Fprintf(stdout, "fingerprint : %016x\n", machine.Fingerprint(data))

			return nil
		},
	}
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dxconv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(stdout, "dxconv %s (machine archive v%d)\n", version, machine.Version)
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}
