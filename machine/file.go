package machine

import (
	"context"
	"fmt"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/platform"
)

// AsyncIOThreshold is the payload size from which file I/O goes through
// platform.AsyncFS when the file system provides it.
const AsyncIOThreshold = 1 << 20

// WriteFile encodes doc and writes the payload to path. The write is all-or-nothing.
func WriteFile(ctx context.Context, fsys platform.FS, path string, doc *document.Document, algo format.CompressionType, opts ...EncoderOption) error {
	e, err := NewEncoder(opts...)
	if err != nil {
		return err
	}

	return e.WriteFile(ctx, fsys, path, doc, algo)
}

// WriteFile encodes doc with e and writes the payload to path.
func (e *Encoder) WriteFile(ctx context.Context, fsys platform.FS, path string, doc *document.Document, algo format.CompressionType) error {
	payload, err := e.Encode(doc, algo)
	if err != nil {
		return err
	}

	return writePayload(ctx, fsys, path, payload)
}

// ReadFile reads path and decodes the payload.
func ReadFile(ctx context.Context, fsys platform.FS, path string, opts ...DecoderOption) (*document.Document, error) {
	payload, err := readPayload(ctx, fsys, path)
	if err != nil {
		return nil, err
	}

	return Decode(payload, opts...)
}

func writePayload(ctx context.Context, fsys platform.FS, path string, payload []byte) error {
	if afs, ok := fsys.(platform.AsyncFS); ok && len(payload) >= AsyncIOThreshold {
		select {
		case err := <-afs.WriteFileAsync(ctx, path, payload):
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fsys.WriteFile(ctx, path, payload)
}

func readPayload(ctx context.Context, fsys platform.FS, path string) ([]byte, error) {
	afs, ok := fsys.(platform.AsyncFS)
	if !ok {
		return fsys.ReadFile(ctx, path)
	}

	size, err := afs.Size(ctx, path)
	if err != nil {
		return nil, err
	}

	if size < AsyncIOThreshold {
		return afs.ReadFile(ctx, path)
	}

	select {
	case res := <-afs.ReadFileAsync(ctx, path):
		if res.Err != nil {
			return nil, fmt.Errorf("async read: %w", res.Err)
		}

		return res.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
