// Package format holds the wire-level enumerations shared by dxform packages.
package format

type (
	CompressionType uint8
	ValueKind       uint8
	Form            uint8
)

// Compression tags are written verbatim as the first byte of a machine file.
const (
	CompressionNone CompressionType = 0x0 // CompressionNone marks a raw archive payload.
	CompressionLZ4  CompressionType = 0x1 // CompressionLZ4 marks the fast-compression payload.
	CompressionZstd CompressionType = 0x2 // CompressionZstd marks the size-optimized payload.
)

// Value kinds are written as the first byte of every archived value record.
const (
	KindNull   ValueKind = 0x1
	KindBool   ValueKind = 0x2
	KindNumber ValueKind = 0x3
	KindStr    ValueKind = 0x4
	KindArray  ValueKind = 0x5
	KindObject ValueKind = 0x6
	KindTable  ValueKind = 0x7
)

// Forms are the three document representations.
const (
	FormHuman   Form = 0x1
	FormCompact Form = 0x2
	FormMachine Form = 0x3
)

// File extensions used for each form.
const (
	ExtHuman   = ".human"
	ExtCompact = ".dx"
	ExtMachine = ".machine"
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// IsValid reports whether c is one of the defined compression tags.
func (c CompressionType) IsValid() bool {
	return c <= CompressionZstd
}

// ParseCompression resolves a user-facing compression name.
// Accepted names: none, fast, lz4, size, zstd.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "none", "None", "":
		return CompressionNone, true
	case "fast", "lz4", "LZ4":
		return CompressionLZ4, true
	case "size", "zstd", "Zstd":
		return CompressionZstd, true
	default:
		return CompressionNone, false
	}
}

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindStr:
		return "Str"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	case KindTable:
		return "Table"
	default:
		return "Unknown"
	}
}

func (f Form) String() string {
	switch f {
	case FormHuman:
		return "human"
	case FormCompact:
		return "compact"
	case FormMachine:
		return "machine"
	default:
		return "unknown"
	}
}

// Ext returns the conventional file extension for the form.
func (f Form) Ext() string {
	switch f {
	case FormHuman:
		return ExtHuman
	case FormCompact:
		return ExtCompact
	case FormMachine:
		return ExtMachine
	default:
		return ""
	}
}

// FormForExt maps a file extension (with leading dot) to its form.
func FormForExt(ext string) (Form, bool) {
	switch ext {
	case ExtHuman:
		return FormHuman, true
	case ExtCompact:
		return FormCompact, true
	case ExtMachine:
		return FormMachine, true
	default:
		return 0, false
	}
}
