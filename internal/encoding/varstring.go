package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/dxform/endian"
	"github.com/arloliu/dxform/errs"
)

// MaxUvarintLen is the longest uvarint the archive writes (a uint32 value).
const MaxUvarintLen = 5

// AppendUvarint appends v as a uvarint.
func AppendUvarint(dst []byte, v uint32) []byte {
	return binary.AppendUvarint(dst, uint64(v))
}

// AppendString appends s as a uvarint length followed by its bytes.
//
// Encoding format:
//   - 1-5 bytes: length as uvarint
//   - N bytes: UTF-8 string data
func AppendString(dst []byte, s string) ([]byte, error) {
	if uint64(len(s)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: string of %d bytes", errs.ErrTooLarge, len(s))
	}

	dst = AppendUvarint(dst, uint32(len(s)))

	return append(dst, s...), nil
}

// StringSize returns the encoded size of s.
func StringSize(s string) int {
	n := len(s)
	size := 1
	for n >= 0x80 {
		n >>= 7
		size++
	}

	return size + len(s)
}

// ReadUvarint decodes a uvarint that must fit in a uint32.
//
// Returns:
//   - uint32: The decoded value
//   - int: The offset after the value
//   - error: errs.ErrTruncated or errs.ErrCorrupt
func ReadUvarint(data []byte, off int) (uint32, int, error) {
	if off < 0 || off >= len(data) {
		return 0, 0, fmt.Errorf("%w: uvarint at offset %d, have %d bytes", errs.ErrTruncated, off, len(data))
	}

	v, n := binary.Uvarint(data[off:])
	switch {
	case n == 0:
		return 0, 0, fmt.Errorf("%w: uvarint at offset %d", errs.ErrTruncated, off)
	case n < 0 || n > MaxUvarintLen || v > math.MaxUint32:
		return 0, 0, fmt.Errorf("%w: uvarint at offset %d overflows uint32", errs.ErrCorrupt, off)
	}

	return uint32(v), off + n, nil
}

// ReadString decodes a length-prefixed string as a subslice of data.
//
// Returns:
//   - []byte: The string bytes, sharing memory with data
//   - int: The offset after the string
//   - error: errs.ErrTruncated or errs.ErrCorrupt
func ReadString(data []byte, off int) ([]byte, int, error) {
	n, next, err := ReadUvarint(data, off)
	if err != nil {
		return nil, 0, err
	}

	if uint64(n) > uint64(len(data)-next) {
		return nil, 0, fmt.Errorf("%w: string at offset %d needs %d bytes, have %d", errs.ErrTruncated, off, n, len(data)-next)
	}

	end := next + int(n)

	return data[next:end:end], end, nil
}

// ReadUint32 decodes a fixed-width uint32 in the engine's byte order.
func ReadUint32(data []byte, off int, engine endian.EndianEngine) (uint32, error) {
	if off < 0 || len(data)-off < 4 {
		return 0, fmt.Errorf("%w: uint32 at offset %d, have %d bytes", errs.ErrTruncated, off, len(data))
	}

	return engine.Uint32(data[off:]), nil
}

// ReadUint64 decodes a fixed-width uint64 in the engine's byte order.
func ReadUint64(data []byte, off int, engine endian.EndianEngine) (uint64, error) {
	if off < 0 || len(data)-off < 8 {
		return 0, fmt.Errorf("%w: uint64 at offset %d, have %d bytes", errs.ErrTruncated, off, len(data))
	}

	return engine.Uint64(data[off:]), nil
}
