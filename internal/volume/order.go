package volume

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Range selects the half-open interval [Start, End) of the ordered slices.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Len returns the number of slices the range selects.
func (r Range) Len() int {
	return r.End - r.Start
}

// Depths projects each record's position onto the normal.
func Depths[T Sample](records []SliceRecord[T], normal r3.Vec) ([]float64, error) {
	depths := make([]float64, len(records))
	for i, r := range records {
		pos, err := r.Position()
		if err != nil {
			return nil, stageErr(StageOrder, r.ID, err)
		}
		depths[i] = r3.Dot(normal, pos)
	}
	return depths, nil
}

// Order sorts the records by ascending depth along normal. The returned
// depths are parallel to the returned records. Equal depths keep their
// input order. The input slice is not modified.
func Order[T Sample](records []SliceRecord[T], normal r3.Vec) ([]SliceRecord[T], []float64, error) {
	if len(records) == 0 {
		return nil, nil, stageErr(StageOrder, "", fmt.Errorf("empty slice set: %w", ErrInsufficientData))
	}
	depths, err := Depths(records, normal)
	if err != nil {
		return nil, nil, err
	}

	perm := make([]int, len(records))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return cmp.Compare(depths[a], depths[b])
	})

	ordered := make([]SliceRecord[T], len(records))
	sorted := make([]float64, len(records))
	for i, p := range perm {
		ordered[i] = records[p]
		sorted[i] = depths[p]
	}
	return ordered, sorted, nil
}

// Select truncates the ordered records and their depths to rng. The range
// must satisfy 0 <= Start < End <= len(records); it is never clamped.
func Select[T Sample](records []SliceRecord[T], depths []float64, rng Range) ([]SliceRecord[T], []float64, error) {
	n := len(records)
	if rng.Start < 0 || rng.Start >= n || rng.End <= rng.Start || rng.End > n {
		return nil, nil, stageErr(StageOrder, "",
			fmt.Errorf("selection %s outside [0, %d): %w", rng, n, ErrIndexOutOfRange))
	}
	sel := records[rng.Start:rng.End]
	var selDepths []float64
	if depths != nil {
		selDepths = depths[rng.Start:rng.End]
	}
	return sel, selDepths, nil
}

// InstanceOrderAgrees reports whether InstanceNumber increases or decreases
// monotonically along the ordered records. Records without an instance
// number are ignored.
func InstanceOrderAgrees[T Sample](ordered []SliceRecord[T]) bool {
	var prev, dir int
	for _, r := range ordered {
		if r.Instance == 0 {
			continue
		}
		if prev != 0 {
			d := cmp.Compare(r.Instance, prev)
			if d == 0 || (dir != 0 && d != dir) {
				return false
			}
			dir = d
		}
		prev = r.Instance
	}
	return true
}
