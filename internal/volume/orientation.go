package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultOrientationTolerance is the per-cosine tolerance used by
// ValidateOrientation when none is configured.
const DefaultOrientationTolerance = 1e-4

// ResolveNormal returns the slice normal, the cross product of the first
// record's row and column direction cosines. Records are taken in the
// order given.
func ResolveNormal[T Sample](records []SliceRecord[T]) (r3.Vec, error) {
	if len(records) == 0 {
		return r3.Vec{}, stageErr(StageOrientation, "", fmt.Errorf("empty slice set: %w", ErrInsufficientData))
	}
	ref := records[0]
	row, col, err := ref.Orientation()
	if err != nil {
		return r3.Vec{}, stageErr(StageOrientation, ref.ID, err)
	}
	n := r3.Cross(row, col)
	if r3.Norm(n) < 1e-9 {
		return r3.Vec{}, stageErr(StageOrientation, ref.ID,
			fmt.Errorf("row and column cosines are parallel: %w", ErrMissingMetadata))
	}
	return n, nil
}

// ValidateOrientation checks that every record shares the first record's
// orientation within tol per cosine component.
func ValidateOrientation[T Sample](records []SliceRecord[T], tol float64) error {
	if len(records) == 0 {
		return nil
	}
	if tol <= 0 {
		tol = DefaultOrientationTolerance
	}
	refRow, refCol, err := records[0].Orientation()
	if err != nil {
		return stageErr(StageOrientation, records[0].ID, err)
	}
	for _, r := range records[1:] {
		row, col, err := r.Orientation()
		if err != nil {
			return stageErr(StageOrientation, r.ID, err)
		}
		if !near(row, refRow, tol) || !near(col, refCol, tol) {
			return stageErr(StageOrientation, r.ID,
				fmt.Errorf("orientation %v/%v differs from reference %v/%v: %w",
					row, col, refRow, refCol, ErrMismatchedOrientation))
		}
	}
	return nil
}

func near(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
