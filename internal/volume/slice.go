// Package volume orders DICOM slices along their plane normal and stacks
// them into a 3D voxel volume with physical scale metadata.
package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is the set of unsigned sample types a native pixel grid can hold.
type Sample interface {
	uint8 | uint16 | uint32
}

// Grid is a row-major 2D array of intensity samples.
type Grid[T Sample] struct {
	Rows int
	Cols int
	Data []T
}

// NewGrid allocates a zeroed grid.
func NewGrid[T Sample](rows, cols int) Grid[T] {
	return Grid[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}
}

// At returns the sample at (row, col).
func (g Grid[T]) At(row, col int) T {
	return g.Data[row*g.Cols+col]
}

// BitDepth is the (allocated, stored, high bit) triple of a slice.
type BitDepth struct {
	Allocated int
	Stored    int
	High      int
}

func (b BitDepth) String() string {
	return fmt.Sprintf("%d, %d, %d", b.Allocated, b.Stored, b.High)
}

// SliceRecord is one parsed slice. Geometry fields hold the raw attribute
// values; their length is validated by the stage that needs them.
type SliceRecord[T Sample] struct {
	// ID identifies the record in error messages (usually the file path).
	ID string

	Pixels Grid[T]

	// ImageOrientation holds the row cosines followed by the column cosines.
	ImageOrientation []float64
	ImagePosition    []float64
	PixelSpacing     []float64
	// SliceThickness is nil when the attribute is absent or unreadable.
	SliceThickness *float64

	Bits BitDepth

	// SeriesUID and Instance are informational only and never used for ordering.
	SeriesUID string
	Instance  int
}

// Orientation returns the row and column direction cosines.
func (r SliceRecord[T]) Orientation() (row, col r3.Vec, err error) {
	if len(r.ImageOrientation) != 6 {
		return r3.Vec{}, r3.Vec{}, fmt.Errorf("image orientation has %d values, want 6: %w",
			len(r.ImageOrientation), ErrMissingMetadata)
	}
	if !allFinite(r.ImageOrientation) {
		return r3.Vec{}, r3.Vec{}, fmt.Errorf("image orientation is not finite: %w", ErrMissingMetadata)
	}
	o := r.ImageOrientation
	return r3.Vec{X: o[0], Y: o[1], Z: o[2]}, r3.Vec{X: o[3], Y: o[4], Z: o[5]}, nil
}

// Position returns the slice origin in patient coordinates.
func (r SliceRecord[T]) Position() (r3.Vec, error) {
	if len(r.ImagePosition) != 3 {
		return r3.Vec{}, fmt.Errorf("image position has %d values, want 3: %w",
			len(r.ImagePosition), ErrMissingMetadata)
	}
	if !allFinite(r.ImagePosition) {
		return r3.Vec{}, fmt.Errorf("image position is not finite: %w", ErrMissingMetadata)
	}
	p := r.ImagePosition
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}, nil
}

// Spacing returns the (row, column) pixel spacing.
func (r SliceRecord[T]) Spacing() (row, col float64, err error) {
	if len(r.PixelSpacing) != 2 {
		return 0, 0, fmt.Errorf("pixel spacing has %d values, want 2: %w",
			len(r.PixelSpacing), ErrMissingMetadata)
	}
	if !allFinite(r.PixelSpacing) {
		return 0, 0, fmt.Errorf("pixel spacing is not finite: %w", ErrMissingMetadata)
	}
	return r.PixelSpacing[0], r.PixelSpacing[1], nil
}

// DeclaredThickness reports the slice thickness when it is present and usable.
func (r SliceRecord[T]) DeclaredThickness() (float64, bool) {
	if r.SliceThickness == nil {
		return 0, false
	}
	t := *r.SliceThickness
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return 0, false
	}
	return t, true
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
