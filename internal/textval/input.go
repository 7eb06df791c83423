package textval

import (
	"strings"
	"unicode/utf8"

	"github.com/arloliu/dxform/errs"
)

// DefaultMaxInputSize is the largest text input the parsers accept by default.
const DefaultMaxInputSize = 100 << 20

// CheckInput rejects text inputs longer than maxSize bytes and inputs that are
// not valid UTF-8. A maxSize of zero or less disables the size check. The UTF-8
// error carries the line and column of the first invalid byte.
func CheckInput(input string, maxSize int) error {
	if maxSize > 0 && len(input) > maxSize {
		return errs.NewParseError(0, 0, errs.ErrTooLarge, "input of %d bytes exceeds the %d byte limit", len(input), maxSize)
	}

	if utf8.ValidString(input) {
		return nil
	}

	off := 0
	for off < len(input) {
		r, size := utf8.DecodeRuneInString(input[off:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		off += size
	}

	line := 1 + strings.Count(input[:off], "\n")
	col := off - (strings.LastIndexByte(input[:off], '\n') + 1) + 1

	return errs.NewParseError(line, col, errs.ErrInvalidUTF8, "byte %#x at offset %d", input[off], off)
}
