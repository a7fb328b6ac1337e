package heatmap

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// DefaultCellSize is the edge length of a block in pixels.
const DefaultCellSize = 4

// Endpoints and midpoint of the viridis colormap.
var viridis = [3]color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// Palette maps the states found in counts onto viridis the way an
// auto-scaled colormap does: the lowest state present is drawn dark, the
// highest bright. A grid with a single state is drawn entirely dark.
func Palette(counts map[State]int) map[State]color.RGBA {
	lo, hi := Downloaded, Outside
	for _, s := range []State{Outside, Present, Downloaded} {
		if counts[s] == 0 {
			continue
		}
		lo = min(lo, s)
		hi = max(hi, s)
	}

	colors := make(map[State]color.RGBA, 3)
	for _, s := range []State{Outside, Present, Downloaded} {
		switch {
		case hi <= lo || s <= lo:
			colors[s] = viridis[0]
		case s >= hi:
			colors[s] = viridis[2]
		default:
			colors[s] = viridis[1]
		}
	}
	return colors
}

// Image draws the grid with cellSize x cellSize pixels per block.
func Image(g *Grid, cellSize int) (*image.RGBA, error) {
	if cellSize <= 0 {
		return nil, errors.Errorf("cell size must be positive, got %d", cellSize)
	}

	colors := Palette(g.Counts())

	cells := image.NewRGBA(image.Rect(0, 0, g.columns, g.rows))
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.columns; col++ {
			cells.SetRGBA(col, row, colors[g.At(row, col)])
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, g.columns*cellSize, g.rows*cellSize))
	draw.NearestNeighbor.Scale(img, img.Bounds(), cells, cells.Bounds(), draw.Src, nil)

	return img, nil
}

// Render encodes the grid as a PNG.
func Render(w io.Writer, g *Grid, cellSize int) error {
	img, err := Image(g, cellSize)
	if err != nil {
		return err
	}

	return errors.Wrap(png.Encode(w, img), "failed to encode heatmap")
}
