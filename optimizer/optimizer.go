// Package optimizer holds the pure decision functions the compact serializer applies:
// key abbreviation, truncation hints, inline-vs-block layout, ditto and array style.
//
// Every function is stateless and safe for concurrent use.
package optimizer

import (
	"strings"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/mapping"
)

const (
	// NullToken is the compact rendition of an explicit null.
	NullToken = "~"
	// DittoToken marks a table cell equal to the cell above.
	DittoToken = "_"
	// LiteralPrefix marks a key segment that must not be expanded on parse.
	LiteralPrefix = "'"
	// PrefixMarker introduces a key that inherits the previous key's dotted prefix.
	PrefixMarker = "^"
)

// Inline layout defaults.
const (
	DefaultMaxInlineFields = 8
	DefaultMaxInlineWidth  = 96
	DefaultTruncateLength  = 12
)

// InlinePolicy bounds the size of a value rendered on one line.
type InlinePolicy struct {
	MaxFields int // inline only below this many fields or rows
	MaxWidth  int // inline only below this many rendered bytes
}

// DefaultInlinePolicy returns fewer than 8 fields and under 96 characters.
func DefaultInlinePolicy() InlinePolicy {
	return InlinePolicy{MaxFields: DefaultMaxInlineFields, MaxWidth: DefaultMaxInlineWidth}
}

// ShouldInline reports whether a value with fieldCount entries, whose single-line
// rendition is renderedLen bytes, stays on one line.
func ShouldInline(fieldCount, renderedLen int, p InlinePolicy) bool {
	return fieldCount < p.MaxFields && renderedLen < p.MaxWidth
}

// CompressSegment abbreviates one key segment. A segment that has no abbreviation
// but collides with one is written with LiteralPrefix so parsing keeps it as is.
func CompressSegment(reg *mapping.Registry, seg string) string {
	if short := reg.Compress(seg); short != seg {
		return short
	}

	if reg.IsShort(seg) {
		return LiteralPrefix + seg
	}

	return seg
}

// ExpandSegment reverses CompressSegment.
func ExpandSegment(reg *mapping.Registry, token string) string {
	if lit, ok := strings.CutPrefix(token, LiteralPrefix); ok {
		return lit
	}

	return reg.Expand(token)
}

// CompressKey abbreviates every segment of a dotted key.
func CompressKey(reg *mapping.Registry, key string) string {
	return AbbreviateKey(reg, key, 0)
}

// AbbreviateKey abbreviates every segment of a dotted key and truncates the
// segments that have no abbreviation to limit bytes. A limit of zero or less
// disables truncation, which makes it equal to CompressKey.
func AbbreviateKey(reg *mapping.Registry, key string, limit int) string {
	return mapSegments(key, func(seg string) string {
		short := CompressSegment(reg, seg)
		if short == seg {
			return TruncateKey(seg, limit)
		}

		return short
	})
}

// ExpandKey expands every segment of a dotted key.
func ExpandKey(reg *mapping.Registry, key string) string {
	return mapSegments(key, func(seg string) string {
		return ExpandSegment(reg, seg)
	})
}

// TruncateKey shortens every segment longer than limit to its first limit bytes.
// It is a lossy editing hint and never part of a round trip.
func TruncateKey(key string, limit int) string {
	if limit <= 0 {
		return key
	}

	return mapSegments(key, func(seg string) string {
		if len(seg) > limit {
			return seg[:limit]
		}

		return seg
	})
}

// Prefix returns the dotted prefix of key, or "" when key has a single segment.
func Prefix(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return ""
	}

	return key[:i]
}

// InheritedSuffix returns the part of key after prev's prefix when both keys share
// a non-empty dotted prefix, which lets the serializer write "^suffix".
func InheritedSuffix(prev, key string) (string, bool) {
	p := Prefix(prev)
	if p == "" || Prefix(key) != p {
		return "", false
	}

	return key[len(p)+1:], true
}

// UseDitto reports whether cur may be written as the ditto marker below prev.
func UseDitto(prev, cur document.Value) bool {
	return document.ValuesEqual(prev, cur)
}

// ArrayStyle is the rendition chosen for an array.
type ArrayStyle uint8

const (
	ArrayBracket ArrayStyle = iota // [a,b,c]
	ArrayStream                    // a|b|c
)

// StyleOf picks the array rendition: stream arrays stay pipe-delimited.
func StyleOf(arr document.Array) ArrayStyle {
	if arr.Stream {
		return ArrayStream
	}

	return ArrayBracket
}

func mapSegments(key string, fn func(string) string) string {
	if !strings.Contains(key, ".") {
		return fn(key)
	}

	segs := strings.Split(key, ".")
	for i, s := range segs {
		segs[i] = fn(s)
	}

	return strings.Join(segs, ".")
}
