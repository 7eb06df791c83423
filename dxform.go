// Package dxform converts configuration documents between three representations:
//
//   - human (.human): an indented, aligned text form for editing
//   - compact (.dx): a dense text form with abbreviated keys, inline containers
//     and repeated-value elision
//   - machine (.machine): a binary archive with optional LZ4 or Zstd compression
//
// Every form parses into the same document.Document, so any pair converts
// losslessly through it.
//
// # Basic Usage
//
// Parsing and serializing take an explicit key registry for the compact form:
//
//	reg, _ := mapping.Default()
//
//	doc, err := dxform.ParseHuman(src)
//	compactText, err := dxform.SerializeCompact(doc, reg)
//	payload, err := dxform.EncodeMachine(doc, format.CompressionZstd)
//
// The pairwise converters compose these steps:
//
//	payload, err := dxform.CompactToMachine(compactText, reg, format.CompressionLZ4)
//	humanText, err := dxform.MachineToHuman(payload)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the form packages
// (human, compact, machine). For fine-grained control, such as serializer options,
// lazy archive views or batch encoding, use those packages directly.
package dxform

import (
	"github.com/arloliu/dxform/compact"
	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/human"
	"github.com/arloliu/dxform/machine"
	"github.com/arloliu/dxform/mapping"
)

// ParseHuman parses human text into a new Document.
func ParseHuman(input string) (*document.Document, error) {
	return human.Parse(input)
}

// ParseCompact parses compact text, expanding abbreviated keys through reg.
func ParseCompact(input string, reg *mapping.Registry) (*document.Document, error) {
	return compact.Parse(input, reg)
}

// SerializeHuman renders doc as human text.
//
// Available options:
//   - human.WithIndent(n)
//   - human.WithAlignment(true|false)
func SerializeHuman(doc *document.Document, opts ...human.Option) (string, error) {
	return human.Format(doc, opts...)
}

// SerializeCompact renders doc as compact text, abbreviating keys through reg.
//
// Available options:
//   - compact.WithInlinePolicy(policy)
//   - compact.WithDitto(true|false)
//   - compact.WithPrefixInheritance(true|false)
//   - compact.WithKeyTruncation(limit)
func SerializeCompact(doc *document.Document, reg *mapping.Registry, opts ...compact.Option) (string, error) {
	return compact.Serialize(doc, reg, opts...)
}

// EncodeMachine encodes doc as a machine payload. Small archives, and archives that
// do not shrink, are stored uncompressed whatever algo requests.
func EncodeMachine(doc *document.Document, algo format.CompressionType, opts ...machine.EncoderOption) ([]byte, error) {
	return machine.Encode(doc, algo, opts...)
}

// DecodeMachine decodes a machine payload into a new Document.
func DecodeMachine(data []byte, opts ...machine.DecoderOption) (*document.Document, error) {
	return machine.Decode(data, opts...)
}

// HumanToCompact converts human text to compact text.
func HumanToCompact(input string, reg *mapping.Registry) (string, error) {
	doc, err := ParseHuman(input)
	if err != nil {
		return "", err
	}

	return SerializeCompact(doc, reg)
}

// CompactToHuman converts compact text to human text.
func CompactToHuman(input string, reg *mapping.Registry) (string, error) {
	doc, err := ParseCompact(input, reg)
	if err != nil {
		return "", err
	}

	return SerializeHuman(doc)
}

// CompactToMachine converts compact text to a machine payload.
func CompactToMachine(input string, reg *mapping.Registry, algo format.CompressionType) ([]byte, error) {
	doc, err := ParseCompact(input, reg)
	if err != nil {
		return nil, err
	}

	return EncodeMachine(doc, algo)
}

// MachineToCompact converts a machine payload to compact text.
func MachineToCompact(data []byte, reg *mapping.Registry) (string, error) {
	doc, err := DecodeMachine(data)
	if err != nil {
		return "", err
	}

	return SerializeCompact(doc, reg)
}

// HumanToMachine converts human text to a machine payload.
func HumanToMachine(input string, algo format.CompressionType) ([]byte, error) {
	doc, err := ParseHuman(input)
	if err != nil {
		return nil, err
	}

	return EncodeMachine(doc, algo)
}

// MachineToHuman converts a machine payload to human text.
func MachineToHuman(data []byte) (string, error) {
	doc, err := DecodeMachine(data)
	if err != nil {
		return "", err
	}

	return SerializeHuman(doc)
}
