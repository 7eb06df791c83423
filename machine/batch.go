package machine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/format"
)

// ParallelBatchThreshold is the batch size from which EncodeBatch fans out to
// parallel workers.
const ParallelBatchThreshold = 64

// EncodeBatch encodes docs with the same algorithm and options. Result i is the
// payload of docs[i] whether the batch ran sequentially or in parallel.
//
// Batches smaller than ParallelBatchThreshold are encoded in order on the calling
// goroutine. Larger batches are spread over at most GOMAXPROCS workers; the first
// error cancels the remaining work and is returned with the index of its document.
func EncodeBatch(ctx context.Context, docs []*document.Document, algo format.CompressionType, opts ...EncoderOption) ([][]byte, error) {
	enc, err := NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return enc.EncodeBatch(ctx, docs, algo)
}

// EncodeBatch is the Encoder form of the package-level EncodeBatch.
func (e *Encoder) EncodeBatch(ctx context.Context, docs []*document.Document, algo format.CompressionType) ([][]byte, error) {
	out := make([][]byte, len(docs))

	if len(docs) < ParallelBatchThreshold {
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			payload, err := e.Encode(doc, algo)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = payload
		}

		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			payload, err := e.Encode(doc, algo)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = payload

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
