// Package pool recycles the scratch buffers used while building machine archives.
package pool

import (
	"sync"
)

// Archive buffer sizes used by the default pool.
const (
	ArchiveBufferDefaultSize  = 4 << 10 // initial capacity of a pooled buffer
	ArchiveBufferMaxThreshold = 4 << 20 // larger buffers are not returned to the pool
	archiveBufferStep         = 4 << 10
)

// ByteBuffer is an append-only byte slice that archive writers grow in place.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates an empty ByteBuffer with the given capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the buffer contents. The slice is only valid until the buffer
// is returned to its pool.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the number of bytes written.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer and keeps its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Grow makes room for n more bytes. Buffers up to 16KiB grow by 4KiB steps,
// larger ones by a quarter of their capacity, and never by less than n.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	step := archiveBufferStep
	if cap(bb.B) > 4*archiveBufferStep {
		step = cap(bb.B) / 4
	}
	step = max(step, n)

	grown := make([]byte, len(bb.B), len(bb.B)+step)
	copy(grown, bb.B)
	bb.B = grown
}

// ByteBufferPool is a sync.Pool of ByteBuffers that drops buffers above a
// capacity limit instead of keeping them alive.
type ByteBufferPool struct {
	pool     sync.Pool
	maxBytes int
}

// NewByteBufferPool creates a pool of buffers with the given initial capacity.
// A maxBytes of zero keeps every buffer.
func NewByteBufferPool(capacity, maxBytes int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(capacity) },
		},
		maxBytes: maxBytes,
	}
}

// Get returns an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool. Nil and oversized buffers are dropped.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil || (p.maxBytes > 0 && cap(bb.B) > p.maxBytes) {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var archivePool = NewByteBufferPool(ArchiveBufferDefaultSize, ArchiveBufferMaxThreshold)

// GetArchiveBuffer takes a buffer from the archive pool.
func GetArchiveBuffer() *ByteBuffer {
	return archivePool.Get()
}

// PutArchiveBuffer returns a buffer to the archive pool.
func PutArchiveBuffer(bb *ByteBuffer) {
	archivePool.Put(bb)
}
