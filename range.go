package blockranges

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// DefaultBlockSize is the block size used by the delta-download client when
// it writes its analysis file.
const DefaultBlockSize = 4096

// Range represents an end-inclusive range of bytes or blocks.
type Range struct {
	// Start is the start of the range (starting at 0).
	Start int64

	// End is the end of the range.
	End int64
}

// Len returns the number of units covered by the range.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%d-%d]", r.Start, r.End)
}

// HeaderValue formats the range for an HTTP Range header.
func (r Range) HeaderValue() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

func (r Range) valid() bool {
	return r.Start >= 0 && r.Start <= r.End
}

// ToBlocks converts byte ranges to the blocks that contain them. Consecutive
// ranges that end up sharing a block are combined so the result stays
// non-overlapping.
func ToBlocks(ranges []Range, blockSize int64) ([]Range, error) {
	if blockSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "block size %d", blockSize)
	}

	blocks := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		b := Range{Start: r.Start / blockSize, End: r.End / blockSize}

		if n := len(blocks); n > 0 && blocks[n-1].Start <= b.Start && b.Start <= blocks[n-1].End {
			blocks[n-1].End = max(blocks[n-1].End, b.End)
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// ToBytes converts block ranges back to the byte ranges spanning whole blocks.
func ToBytes(ranges []Range, blockSize int64) ([]Range, error) {
	if blockSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "block size %d", blockSize)
	}

	maxBlock := math.MaxInt64/blockSize - 1
	byteRanges := make([]Range, len(ranges))
	for i, r := range ranges {
		if r.End > maxBlock {
			return nil, errors.Wrapf(ErrInvalidInput, "block range %d %s overflows at block size %d", i, r, blockSize)
		}
		byteRanges[i] = Range{Start: r.Start * blockSize, End: r.End*blockSize + blockSize - 1}
	}
	return byteRanges, nil
}
