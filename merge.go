package blockranges

import (
	"github.com/pkg/errors"
)

// ErrInvalidInput is returned when a range sequence does not satisfy the
// merger's preconditions.
var ErrInvalidInput = errors.New("invalid input")

// Validate checks that ranges is non-empty, sorted ascending by start and
// pairwise non-overlapping.
func Validate(ranges []Range) error {
	if len(ranges) == 0 {
		return errors.Wrap(ErrInvalidInput, "empty range sequence")
	}

	for i, r := range ranges {
		if !r.valid() {
			return errors.Wrapf(ErrInvalidInput, "range %d %s is malformed", i, r)
		}
		if i > 0 && ranges[i-1].End >= r.Start {
			return errors.Wrapf(ErrInvalidInput, "range %d %s overlaps or precedes %s", i, r, ranges[i-1])
		}
	}

	return nil
}

// Merge coalesces ranges separated by at most threshold uncovered units.
//
// The gap between two ranges is the number of units strictly between them,
// so adjacent ranges have a gap of 0. Merged ranges also cover their gaps:
// fetching a few unneeded units is cheaper than issuing another request.
// The input slice is left untouched.
func Merge(ranges []Range, threshold int64) ([]Range, error) {
	if threshold < 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "negative threshold %d", threshold)
	}
	if err := Validate(ranges); err != nil {
		return nil, err
	}

	merged := make([]Range, 1, len(ranges))
	merged[0] = ranges[0]

	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]

		if r.Start-last.End-1 <= threshold {
			last.End = r.End
			continue
		}

		merged = append(merged, r)
	}

	return merged, nil
}
