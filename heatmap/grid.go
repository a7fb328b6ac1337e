// Package heatmap lays out the blocks of a file on a grid and renders which
// of them had to be downloaded.
package heatmap

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/menmos/blockranges"
)

// DefaultColumns is the number of blocks drawn per row.
const DefaultColumns = 128

// MaxBlocks bounds the file size a grid accepts, 64 GiB at the default
// block size.
const MaxBlocks = 1 << 24

// State is the state of a single block.
type State uint8

const (
	// Outside marks cells past the end of the file.
	Outside State = iota
	// Present marks blocks that exist in the file but were not downloaded.
	Present
	// Downloaded marks blocks covered by a range.
	Downloaded
)

func (s State) String() string {
	switch s {
	case Outside:
		return "outside"
	case Present:
		return "present"
	case Downloaded:
		return "downloaded"
	}
	return "unknown"
}

// Grid is a row-major layout of file blocks.
type Grid struct {
	columns     int
	rows        int
	totalBlocks int64
	downloaded  *bitset.BitSet
}

// NewGrid lays out totalBlocks blocks, marking the blocks covered by ranges.
// Ranges are in block units and may overhang the file by less than one row.
// One spare row is always kept at the bottom.
func NewGrid(totalBlocks int64, ranges []blockranges.Range, columns int) (*Grid, error) {
	if columns <= 0 || columns > MaxBlocks {
		return nil, errors.Errorf("grid needs between 1 and %d columns, got %d", MaxBlocks, columns)
	}
	if totalBlocks < 0 {
		return nil, errors.Errorf("negative block count %d", totalBlocks)
	}
	if totalBlocks > MaxBlocks {
		return nil, errors.Errorf("block count %d exceeds the %d blocks a heatmap can show", totalBlocks, MaxBlocks)
	}

	limit := totalBlocks + int64(columns)
	extent := totalBlocks
	downloaded := bitset.New(uint(totalBlocks))
	span := bitset.New(uint(limit))
	for _, r := range ranges {
		if r.Start < 0 || r.Start > r.End {
			return nil, errors.Errorf("invalid block range %s", r)
		}
		if r.End >= limit {
			return nil, errors.Errorf("block range %s is past the end of the file (%d blocks)", r, totalBlocks)
		}

		span.FlipRange(uint(r.Start), uint(r.End+1))
		downloaded.InPlaceUnion(span)
		span.FlipRange(uint(r.Start), uint(r.End+1))

		extent = max(extent, r.End+1)
	}

	cols := int64(columns)
	rows := (extent+cols-1)/cols + 1

	return &Grid{
		columns:     columns,
		rows:        int(rows),
		totalBlocks: totalBlocks,
		downloaded:  downloaded,
	}, nil
}

// Columns returns the grid width in blocks.
func (g *Grid) Columns() int { return g.columns }

// Rows returns the grid height in blocks.
func (g *Grid) Rows() int { return g.rows }

// At returns the state of the cell at row, col.
func (g *Grid) At(row, col int) State {
	block := int64(row)*int64(g.columns) + int64(col)
	if g.downloaded.Test(uint(block)) {
		return Downloaded
	}
	if block < g.totalBlocks {
		return Present
	}
	return Outside
}

// Counts returns the number of cells in each state.
func (g *Grid) Counts() map[State]int {
	counts := make(map[State]int, 3)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			counts[g.At(row, col)]++
		}
	}
	return counts
}
