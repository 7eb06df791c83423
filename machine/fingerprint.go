package machine

import (
	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/format"
	"github.com/arloliu/dxform/internal/hash"
)

// Fingerprint returns the xxHash64 of an encoded payload. Equal payloads have equal
// fingerprints, so callers can skip rewriting unchanged files.
func Fingerprint(data []byte) uint64 {
	return hash.Fingerprint(data)
}

// ContentFingerprint returns the fingerprint of doc's uncompressed archive in the
// default byte order. It does not depend on the compression a file was written with.
func ContentFingerprint(doc *document.Document) (uint64, error) {
	payload, err := Encode(doc, format.CompressionNone)
	if err != nil {
		return 0, err
	}

	return Fingerprint(payload[1:]), nil
}
