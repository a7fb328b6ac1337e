// Package analysis reads and writes the block analysis file produced by the
// delta-download client when ZSYNC2_ANALYZE_BLOCKS is set.
package analysis

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/menmos/blockranges"
)

// DefaultFileName is the name the client writes its analysis to.
const DefaultFileName = "zsync2_block_analysis.txt"

// DefaultLabel is the header label written by the client.
const DefaultLabel = "new file size"

// Log is a parsed analysis file.
type Log struct {
	// Label is the text before the colon on the header line.
	Label string

	// TotalSize is the size of the target file in bytes.
	TotalSize int64

	// Ranges are the byte ranges that had to be downloaded, in file order.
	Ranges []blockranges.Range
}

// Blocks returns the number of whole blocks in the file along with the
// downloaded ranges expressed in blocks.
func (l *Log) Blocks(blockSize int64) (int64, []blockranges.Range, error) {
	ranges, err := blockranges.ToBlocks(l.Ranges, blockSize)
	if err != nil {
		return 0, nil, err
	}
	return l.TotalSize / blockSize, ranges, nil
}

// Write serializes the log in the format Parse accepts.
func Write(w io.Writer, l *Log) error {
	label := l.Label
	if label == "" {
		label = DefaultLabel
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s: %d\n", label, l.TotalSize); err != nil {
		return errors.Wrap(err, "failed to write analysis header")
	}

	for _, r := range l.Ranges {
		if _, err := fmt.Fprintf(bw, "%d %d\n", r.Start, r.End); err != nil {
			return errors.Wrap(err, "failed to write analysis range")
		}
	}

	return errors.Wrap(bw.Flush(), "failed to flush analysis log")
}
