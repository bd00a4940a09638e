// Package preview renders ordered slices as a contact sheet and plots slice
// depths, for checking an ordering by eye.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"

	"github.com/mrsinham/dicomraw/internal/volume"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls the contact sheet layout.
type Options struct {
	Rows int
	Cols int
	// TileSize is the edge length of each tile in pixels.
	TileSize int
	// Gap is the spacing between tiles in pixels.
	Gap    int
	Labels bool
}

// DefaultOptions returns a 6x6 sheet of 128 pixel tiles.
func DefaultOptions() Options {
	return Options{Rows: 6, Cols: 6, TileSize: 128, Gap: 4, Labels: true}
}

// TileIndices returns which of n ordered slices each tile shows: tile i
// shows slice i*n/(rows*cols). With fewer slices than tiles some slices
// repeat.
func TileIndices(n, rows, cols int) []int {
	tiles := rows * cols
	if n <= 0 || tiles <= 0 {
		return nil
	}
	idx := make([]int, tiles)
	for i := range idx {
		idx[i] = i * n / tiles
	}
	return idx
}

// Sheet renders the ordered slices of v as a grid of tiles. Each tile is
// windowed to its own sample range and mapped through the bone colormap.
func Sheet[T volume.Sample](v *volume.Volume[T], opts Options) (*image.RGBA, error) {
	if v == nil || v.Slices == 0 {
		return nil, fmt.Errorf("empty volume")
	}
	if opts.Rows <= 0 || opts.Cols <= 0 || opts.TileSize <= 0 {
		return nil, fmt.Errorf("invalid layout %dx%d tiles of %dpx", opts.Rows, opts.Cols, opts.TileSize)
	}

	step := opts.TileSize + opts.Gap
	sheet := image.NewRGBA(image.Rect(0, 0, opts.Cols*step-opts.Gap, opts.Rows*step-opts.Gap))
	draw.Draw(sheet, sheet.Bounds(), image.Black, image.Point{}, draw.Src)

	for i, k := range TileIndices(v.Slices, opts.Rows, opts.Cols) {
		tile := colorize(v.Slice(k))

		// Keep the aspect ratio inside the square tile.
		w, h := opts.TileSize, opts.TileSize
		if v.Cols > v.Rows {
			h = opts.TileSize * v.Rows / v.Cols
		} else if v.Rows > v.Cols {
			w = opts.TileSize * v.Cols / v.Rows
		}
		x0 := (i%opts.Cols)*step + (opts.TileSize-w)/2
		y0 := (i/opts.Cols)*step + (opts.TileSize-h)/2
		dst := image.Rect(x0, y0, x0+w, y0+h)
		draw.CatmullRom.Scale(sheet, dst, tile, tile.Bounds(), draw.Src, nil)

		if opts.Labels {
			drawLabel(sheet, (i%opts.Cols)*step+3, (i/opts.Cols)*step+13, strconv.Itoa(k))
		}
	}
	return sheet, nil
}

// colorize maps one slice onto RGBA through the bone colormap, stretched
// between the slice's own min and max.
func colorize[T volume.Sample](g volume.Grid[T]) *image.RGBA {
	data, rows, cols := g.Data, g.Rows, g.Cols
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	lo, hi := data[0], data[0]
	for _, s := range data {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	span := float64(hi) - float64(lo)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			var t float64
			if span > 0 {
				t = (float64(data[y*cols+x]) - float64(lo)) / span
			}
			img.SetRGBA(x, y, Bone(t))
		}
	}
	return img
}

func drawLabel(dst *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 220, B: 0, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// SavePNG encodes img as PNG to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
