package volume

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultSpacingTolerance is the relative gap deviation above which the
// spacing is reported as irregular.
const DefaultSpacingTolerance = 0.01

// SpacingStats summarizes the gaps between consecutive ordered depths.
type SpacingStats struct {
	Gaps      int
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
	Irregular bool
	// Duplicates counts gaps of zero, i.e. slices sharing a depth.
	Duplicates int
}

// AnalyzeSpacing computes gap statistics over ascending depths. It is
// diagnostic only; thickness resolution does not use it.
func AnalyzeSpacing(depths []float64, tol float64) SpacingStats {
	if len(depths) < 2 {
		return SpacingStats{}
	}
	if tol <= 0 {
		tol = DefaultSpacingTolerance
	}
	gaps := make([]float64, len(depths)-1)
	floats.SubTo(gaps, depths[1:], depths[:len(depths)-1])

	s := SpacingStats{Gaps: len(gaps), Min: floats.Min(gaps), Max: floats.Max(gaps)}
	if len(gaps) == 1 {
		s.Mean = gaps[0]
	} else {
		s.Mean, s.StdDev = stat.MeanStdDev(gaps, nil)
	}
	for _, g := range gaps {
		if g == 0 {
			s.Duplicates++
		}
		if math.Abs(g-s.Mean) > tol*math.Abs(s.Mean) {
			s.Irregular = true
		}
	}
	return s
}
