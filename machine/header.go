package machine

import (
	"fmt"

	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/errs"
)

const (
	// Magic opens every raw archive.
	Magic = "DXMA"
	// Version is the archive layout version written by this package.
	Version uint8 = 1
	// HeaderSize is the fixed size of the archive header.
	HeaderSize = 24

	// indexEntrySize is one (key or name offset, value or table offset) pair.
	indexEntrySize = 8
	knownFlags     = endian.FlagBigEndian
)

// Header is the fixed-size section at the start of a raw archive.
type Header struct {
	Version uint8 // byte offset 4
	// Flags holds the byte order bit; other bits must be zero.
	Flags uint8 // byte offset 5
	// ContextCount is the number of context entries in the context index.
	ContextCount uint32 // byte offset 8-11
	// SectionCount is the number of entries in the section index.
	SectionCount uint32 // byte offset 12-15
	// IndexOffset is the byte offset of the context index. The section index follows
	// it and ends the archive; every value record lies between the header and it.
	IndexOffset uint32 // byte offset 16-19
	// TotalSize is the archive length in bytes.
	TotalSize uint32 // byte offset 20-23
}

// Engine returns the byte order the header declares.
func (h Header) Engine() endian.EndianEngine {
	return endian.FromFlags(h.Flags)
}

// Bytes serializes the header. Magic, version and flags are byte-order free; the
// counts and offsets use the declared byte order.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.put(b)

	return b
}

func (h Header) put(b []byte) {
	engine := h.Engine()

	copy(b[0:4], Magic)
	b[4] = h.Version
	b[5] = h.Flags
	b[6], b[7] = 0, 0
	engine.PutUint32(b[8:12], h.ContextCount)
	engine.PutUint32(b[12:16], h.SectionCount)
	engine.PutUint32(b[16:20], h.IndexOffset)
	engine.PutUint32(b[20:24], h.TotalSize)
}

// ParseHeader parses and validates the header of a raw archive.
//
// Parameters:
//   - data: The whole raw archive, so that sizes can be checked against it
//
// Returns:
//   - Header: Parsed header struct
//   - error: ErrInvalidHeaderSize, ErrInvalidMagic, ErrUnsupportedVersion or ErrCorrupt
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrInvalidHeaderSize, HeaderSize, len(data))
	}

	if string(data[0:4]) != Magic {
		return Header{}, fmt.Errorf("%w: %q", errs.ErrInvalidMagic, data[0:4])
	}

	h := Header{Version: data[4], Flags: data[5]}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}

	if h.Flags&^knownFlags != 0 || data[6] != 0 || data[7] != 0 {
		return Header{}, fmt.Errorf("%w: reserved header bits set", errs.ErrCorrupt)
	}

	engine := h.Engine()
	h.ContextCount = engine.Uint32(data[8:12])
	h.SectionCount = engine.Uint32(data[12:16])
	h.IndexOffset = engine.Uint32(data[16:20])
	h.TotalSize = engine.Uint32(data[20:24])

	if uint64(h.TotalSize) != uint64(len(data)) {
		return Header{}, fmt.Errorf("%w: header declares %d bytes, archive has %d", errs.ErrTruncated, h.TotalSize, len(data))
	}

	indexLen := (uint64(h.ContextCount) + uint64(h.SectionCount)) * indexEntrySize
	if h.IndexOffset < HeaderSize || uint64(h.IndexOffset)+indexLen != uint64(h.TotalSize) {
		return Header{}, fmt.Errorf("%w: index at %d with %d entries does not end the archive", errs.ErrCorrupt, h.IndexOffset, indexLen/indexEntrySize)
	}

	return h, nil
}
