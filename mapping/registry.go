// Package mapping implements the bidirectional key-abbreviation registry.
//
// A Registry holds two maps that are inverse functions of each other: short to long
// and long to short. Expand and Compress are total: a key the registry does not know
// is returned unchanged. Registries are immutable once built and safe for concurrent
// use without locking.
package mapping

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/arloliu/dxform/internal/options"
)

// DefaultDir is the conventional project directory holding dictionary files.
const DefaultDir = ".dx/mappings"

// EnvMappingsDir overrides DefaultDir for the process registry.
const EnvMappingsDir = "DX_MAPPINGS_DIR"

// Entry is one abbreviation pair.
type Entry struct {
	Short string
	Long  string
}

// Registry is an immutable bidirectional abbreviation dictionary.
type Registry struct {
	forward map[string]string // short -> long
	reverse map[string]string // long -> short
}

// Config collects the registry construction options.
type Config struct {
	useDefaults bool
	dirs        []string
	optionalDir bool
	entries     []Entry
	logger      *slog.Logger
}

// Option configures registry construction.
type Option = options.Option[*Config]

// WithoutDefaults skips the built-in abbreviation table.
func WithoutDefaults() Option {
	return options.NoError(func(c *Config) {
		c.useDefaults = false
	})
}

// WithDir loads every dictionary file in dir after the defaults.
// Multiple directories load in the order given.
func WithDir(dir string) Option {
	return options.NoError(func(c *Config) {
		c.dirs = append(c.dirs, dir)
	})
}

// WithEntries adds explicit entries after all dictionary files.
func WithEntries(entries ...Entry) Option {
	return options.NoError(func(c *Config) {
		c.entries = append(c.entries, entries...)
	})
}

// WithLogger sets the logger used while loading dictionary files.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

func withOptionalDir() Option {
	return options.NoError(func(c *Config) {
		c.optionalDir = true
	})
}

// New builds a registry. Later entries shadow earlier ones: defaults first, then
// dictionary directories, then explicit entries.
func New(opts ...Option) (*Registry, error) {
	cfg := &Config{
		useDefaults: true,
		logger:      slog.New(slog.DiscardHandler),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	r := &Registry{
		forward: make(map[string]string, len(builtinEntries)),
		reverse: make(map[string]string, len(builtinEntries)),
	}

	if cfg.useDefaults {
		for _, e := range builtinEntries {
			r.add(e)
		}
	}

	for _, dir := range cfg.dirs {
		entries, err := loadDir(dir, cfg.optionalDir, cfg.logger)
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			r.add(e)
		}
	}

	for _, e := range cfg.entries {
		r.add(e)
	}

	cfg.logger.Debug("mapping registry ready", slog.Int("entries", len(r.forward)))

	return r, nil
}

// add inserts e, dropping any stale pair that mentions either side so the two maps
// stay inverse functions.
func (r *Registry) add(e Entry) {
	if e.Short == "" || e.Long == "" || e.Short == e.Long {
		return
	}

	if oldLong, ok := r.forward[e.Short]; ok {
		delete(r.reverse, oldLong)
	}

	if oldShort, ok := r.reverse[e.Long]; ok {
		delete(r.forward, oldShort)
	}

	r.forward[e.Short] = e.Long
	r.reverse[e.Long] = e.Short
}

// Expand returns the long form of short, or short itself when it is not an abbreviation.
func (r *Registry) Expand(short string) string {
	if long, ok := r.forward[short]; ok {
		return long
	}

	return short
}

// Compress returns the abbreviation of long, or long itself when none is registered.
func (r *Registry) Compress(long string) string {
	if short, ok := r.reverse[long]; ok {
		return short
	}

	return long
}

// IsShort reports whether key is a registered abbreviation.
func (r *Registry) IsShort(key string) bool {
	_, ok := r.forward[key]
	return ok
}

// IsLong reports whether key has a registered abbreviation.
func (r *Registry) IsLong(key string) bool {
	_, ok := r.reverse[key]
	return ok
}

// Len returns the number of pairs.
func (r *Registry) Len() int {
	return len(r.forward)
}

// Entries returns all pairs sorted by short form.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.forward))
	for s, l := range r.forward {
		out = append(out, Entry{Short: s, Long: l})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Short < out[j].Short
	})

	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the process-wide registry: built-in defaults merged with the
// dictionary files under DefaultDir, or under $DX_MAPPINGS_DIR when set.
// It is built on first call; a load failure is returned on every call.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		dir := os.Getenv(EnvMappingsDir)
		opts := []Option{WithDir(dir)}
		if dir == "" {
			opts = []Option{WithDir(DefaultDir), withOptionalDir()}
		}

		defaultRegistry, defaultErr = New(opts...)
	})

	return defaultRegistry, defaultErr
}

// Identity returns a registry without any entries; every key passes through.
func Identity() *Registry {
	return &Registry{
		forward: map[string]string{},
		reverse: map[string]string{},
	}
}
