package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/dxform/errs"
)

// checkZstdFrame validates the first frame header and its declared content size.
func checkZstdFrame(data []byte, maxDecoded int) error {
	var h zstd.Header
	if err := h.Decode(data); err != nil {
		return fmt.Errorf("%w: zstd header: %w", errs.ErrDecompress, err)
	}

	if h.Skippable {
		return fmt.Errorf("%w: zstd payload starts with a skippable frame", errs.ErrDecompress)
	}

	if h.HasFCS && h.FrameContentSize > uint64(maxDecoded) {
		return fmt.Errorf("%w: zstd frame declares %d bytes, limit is %d", errs.ErrTooLarge, h.FrameContentSize, maxDecoded)
	}

	return nil
}
