package volume

import (
	"encoding/binary"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Volume is a stack of same-shape grids. Data is slice-major and row-major
// within a slice, which is also the raw output layout.
type Volume[T Sample] struct {
	Rows   int
	Cols   int
	Slices int
	Data   []T
}

// Shape returns (rows, cols, slices).
func (v *Volume[T]) Shape() [3]int {
	return [3]int{v.Rows, v.Cols, v.Slices}
}

// At returns the sample at (row, col) of slice i.
func (v *Volume[T]) At(row, col, i int) T {
	return v.Data[(i*v.Rows+row)*v.Cols+col]
}

// Slice returns slice i as a grid sharing the volume's storage.
func (v *Volume[T]) Slice(i int) Grid[T] {
	n := v.Rows * v.Cols
	return Grid[T]{Rows: v.Rows, Cols: v.Cols, Data: v.Data[i*n : (i+1)*n]}
}

// SizeBytes returns the size of the sample data in bytes.
func (v *Volume[T]) SizeBytes() int64 {
	var zero T
	return int64(len(v.Data)) * int64(binary.Size(zero))
}

// ThicknessSource tells where the slice thickness came from.
type ThicknessSource int

const (
	ThicknessDeclared ThicknessSource = iota
	ThicknessDerived
)

func (s ThicknessSource) String() string {
	if s == ThicknessDerived {
		return "derived"
	}
	return "declared"
}

// CheckShapes verifies that every grid has the first grid's dimensions and
// that its sample count matches them.
func CheckShapes[T Sample](records []SliceRecord[T]) error {
	if len(records) == 0 {
		return stageErr(StageAssemble, "", fmt.Errorf("empty slice set: %w", ErrInsufficientData))
	}
	ref := records[0].Pixels
	if ref.Rows <= 0 || ref.Cols <= 0 {
		return stageErr(StageAssemble, records[0].ID,
			fmt.Errorf("empty pixel grid %dx%d: %w", ref.Rows, ref.Cols, ErrShapeMismatch))
	}
	for _, r := range records {
		g := r.Pixels
		if g.Rows != ref.Rows || g.Cols != ref.Cols {
			return stageErr(StageAssemble, r.ID,
				fmt.Errorf("grid %dx%d, want %dx%d: %w", g.Rows, g.Cols, ref.Rows, ref.Cols, ErrShapeMismatch))
		}
		if len(g.Data) != g.Rows*g.Cols {
			return stageErr(StageAssemble, r.ID,
				fmt.Errorf("grid holds %d samples, want %d: %w", len(g.Data), g.Rows*g.Cols, ErrShapeMismatch))
		}
	}
	return nil
}

// ResolveThickness prefers the first record's declared thickness and falls
// back to the depth difference between the first two records.
func ResolveThickness[T Sample](records []SliceRecord[T], depths []float64) (float64, ThicknessSource, error) {
	if len(records) == 0 {
		return 0, 0, stageErr(StageAssemble, "", fmt.Errorf("empty slice set: %w", ErrInsufficientData))
	}
	if t, ok := records[0].DeclaredThickness(); ok {
		return t, ThicknessDeclared, nil
	}
	if len(records) < 2 || len(depths) < 2 {
		return 0, 0, stageErr(StageAssemble, records[0].ID,
			fmt.Errorf("no declared thickness and %d slice(s) to derive it from: %w", len(records), ErrInsufficientData))
	}
	return depths[1] - depths[0], ThicknessDerived, nil
}

// Assemble stacks the grids along a new trailing axis in the given order.
// Samples are copied unchanged.
func Assemble[T Sample](records []SliceRecord[T]) (*Volume[T], error) {
	if err := CheckShapes(records); err != nil {
		return nil, err
	}
	rows, cols := records[0].Pixels.Rows, records[0].Pixels.Cols
	n := rows * cols
	v := &Volume[T]{
		Rows:   rows,
		Cols:   cols,
		Slices: len(records),
		Data:   make([]T, n*len(records)),
	}
	for i, r := range records {
		copy(v.Data[i*n:(i+1)*n], r.Pixels.Data)
	}
	return v, nil
}

// ComputeScale returns the voxel size (row spacing, column spacing,
// thickness) and the volume scale: voxel size times shape, divided by its
// largest component.
func ComputeScale(rowSpacing, colSpacing, thickness float64, shape [3]int) (voxel, scale [3]float64, err error) {
	voxel = [3]float64{rowSpacing, colSpacing, thickness}
	for i := range scale {
		scale[i] = voxel[i] * float64(shape[i])
	}
	m := floats.Max(scale[:])
	if !(m > 0) {
		return voxel, scale, stageErr(StageAssemble, "",
			fmt.Errorf("volume has no physical extent (voxel %v, shape %v): %w", voxel, shape, ErrInsufficientData))
	}
	floats.Scale(1/m, scale[:])
	return voxel, scale, nil
}
