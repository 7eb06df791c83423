// Package endian provides the byte order engines used by the machine archive.
//
// This package combines the ByteOrder and AppendByteOrder interfaces of
// encoding/binary into a single EndianEngine, so the archive writer can append
// fixed-width fields and the archive view can read them through the same value.
//
// # Basic Usage
//
// Archives are little-endian unless the writer is asked otherwise; the choice is
// recorded in the header flags:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, offset)
//
//	engine = endian.FromFlags(header.Flags)
//	offset := engine.Uint32(buf[pos:])
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import "encoding/binary"

// FlagBigEndian is the archive header flag bit set for big-endian archives.
const FlagBigEndian uint8 = 1 << 0

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}

// FromFlags returns the engine selected by the header flags.
func FromFlags(flags uint8) EndianEngine {
	if flags&FlagBigEndian != 0 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Flags returns the header flag bits that record engine.
func Flags(engine EndianEngine) uint8 {
	if IsBigEndian(engine) {
		return FlagBigEndian
	}

	return 0
}
