// Package platform provides the file I/O collaborator used by the machine codec.
//
// FS moves whole buffers: a read returns the complete file or an error, and a write
// either replaces the target completely or leaves it untouched. AsyncFS adds
// channel-based variants that implementations may back with a different I/O path;
// callers pick it for large payloads.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/arloliu/dxform/internal/options"
)

// ErrNotExist is returned for a path that does not exist.
var ErrNotExist = errors.New("file does not exist")

// FS reads and writes whole files.
type FS interface {
	// ReadFile returns the complete contents of path.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile replaces path with data atomically.
	WriteFile(ctx context.Context, path string, data []byte) error
	// Size returns the size in bytes of path.
	Size(ctx context.Context, path string) (int64, error)
}

// ReadResult is the outcome of an asynchronous read.
type ReadResult struct {
	Data []byte
	Err  error
}

// AsyncFS is an FS that can also run reads and writes in the background.
// Each returned channel delivers exactly one value and is then closed.
type AsyncFS interface {
	FS
	ReadFileAsync(ctx context.Context, path string) <-chan ReadResult
	WriteFileAsync(ctx context.Context, path string, data []byte) <-chan error
}

// LocalConfig holds LocalFS settings.
type LocalConfig struct {
	perm   os.FileMode
	logger *slog.Logger
}

// LocalOption configures a LocalFS.
type LocalOption = options.Option[*LocalConfig]

// WithPerm sets the permission bits of written files. Default is 0o644.
func WithPerm(perm os.FileMode) LocalOption {
	return options.New(func(c *LocalConfig) error {
		if perm&^os.ModePerm != 0 {
			return fmt.Errorf("invalid file permission %v", perm)
		}
		c.perm = perm

		return nil
	})
}

// WithLogger sets the logger for I/O diagnostics. LocalFS is silent by default.
func WithLogger(logger *slog.Logger) LocalOption {
	return options.NoError(func(c *LocalConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// LocalFS is the operating system file system.
type LocalFS struct {
	cfg LocalConfig
}

var _ AsyncFS = (*LocalFS)(nil)

// NewLocalFS creates a LocalFS.
func NewLocalFS(opts ...LocalOption) (*LocalFS, error) {
	cfg := LocalConfig{perm: 0o644, logger: slog.New(slog.DiscardHandler)}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &LocalFS{cfg: cfg}, nil
}

// ReadFile reads the complete file at path.
func (l *LocalFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapPathError("read", path, err)
	}

	l.cfg.logger.Debug("read file", slog.String("path", path), slog.Int("size", len(data)))

	return data, nil
}

// WriteFile writes data to a temporary file in the target directory, syncs it and
// renames it over path, so readers observe either the old or the new contents.
func (l *LocalFS) WriteFile(ctx context.Context, path string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return wrapPathError("write", path, err)
	}

	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return wrapPathError("write", path, err)
	}

	if err = tmp.Sync(); err != nil {
		return wrapPathError("write", path, err)
	}

	if err = tmp.Chmod(l.cfg.perm); err != nil {
		return wrapPathError("write", path, err)
	}

	if err = tmp.Close(); err != nil {
		return wrapPathError("write", path, err)
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = os.Rename(tmpName, path); err != nil {
		return wrapPathError("write", path, err)
	}

	l.cfg.logger.Debug("wrote file", slog.String("path", path), slog.Int("size", len(data)))

	return nil
}

// Size returns the size of the file at path.
func (l *LocalFS) Size(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, wrapPathError("stat", path, err)
	}

	return info.Size(), nil
}

// ReadFileAsync runs ReadFile on its own goroutine.
func (l *LocalFS) ReadFileAsync(ctx context.Context, path string) <-chan ReadResult {
	ch := make(chan ReadResult, 1)
	go func() {
		defer close(ch)
		data, err := l.ReadFile(ctx, path)
		ch <- ReadResult{Data: data, Err: err}
	}()

	return ch
}

// WriteFileAsync runs WriteFile on its own goroutine.
func (l *LocalFS) WriteFileAsync(ctx context.Context, path string, data []byte) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- l.WriteFile(ctx, path, data)
	}()

	return ch
}

func wrapPathError(op, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s %s: %w: %w", op, path, ErrNotExist, err)
	}

	return fmt.Errorf("%s %s: %w", op, path, err)
}

// MemFS is an in-memory FS. The zero value is empty and ready to use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ FS = (*MemFS)(nil)

// ReadFile returns a copy of the stored contents of path.
func (m *MemFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotExist)
	}

	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data under path.
func (m *MemFS) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[path] = append([]byte(nil), data...)

	return nil
}

// Size returns the stored size of path.
func (m *MemFS) Size(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return 0, fmt.Errorf("stat %s: %w", path, ErrNotExist)
	}

	return int64(len(data)), nil
}
