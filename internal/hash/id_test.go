package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty", "", 0xef46db3751d8e999},
		{"short", "test", 0x4fdcca5ddb678139},
		{"long", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, Fingerprint([]byte(tt.data)))
		})
	}
}

func TestFingerprint_DetectsChange(t *testing.T) {
	a := []byte{0x00, 'D', 'X', 'M', 'A', 0x01}
	b := []byte{0x00, 'D', 'X', 'M', 'A', 0x02}

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.Equal(t, Fingerprint(a), Fingerprint(append([]byte(nil), a...)))
}
