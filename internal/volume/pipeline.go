package volume

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options controls Build.
type Options struct {
	// Range, when set, keeps only the ordered slices in [Start, End).
	Range *Range
	// OrientationTolerance is the per-cosine tolerance for orientation
	// validation. Zero selects DefaultOrientationTolerance.
	OrientationTolerance float64
	// SkipOrientationCheck trusts the first record's orientation for the
	// whole set without comparing the others.
	SkipOrientationCheck bool
	// SpacingTolerance is passed to AnalyzeSpacing.
	SpacingTolerance float64
	// MaxBytes caps the assembled sample data size. Zero means no limit.
	MaxBytes int64
	Logger   *log.Logger
}

// Result holds the ordered slices, the assembled volume and its scale.
type Result[T Sample] struct {
	Normal  r3.Vec
	Ordered []SliceRecord[T]
	Depths  []float64
	Volume  *Volume[T]

	Thickness       float64
	ThicknessSource ThicknessSource
	VoxelSize       [3]float64
	VolumeScale     [3]float64
	Shape           [3]int
	Bits            BitDepth
	Spacing         SpacingStats
}

// Build runs the full pipeline: normal resolution, orientation validation,
// depth ordering, optional range selection, and assembly. Any failure
// aborts the run and no partial volume is returned.
func Build[T Sample](records []SliceRecord[T], opts Options) (*Result[T], error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	normal, err := ResolveNormal(records)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved slice normal", "normal", normal, "reference", records[0].ID)

	if !opts.SkipOrientationCheck {
		if err := ValidateOrientation(records, opts.OrientationTolerance); err != nil {
			return nil, err
		}
	}

	ordered, depths, err := Order(records, normal)
	if err != nil {
		return nil, err
	}
	if !InstanceOrderAgrees(ordered) {
		logger.Debug("instance numbers disagree with geometric order")
	}
	if opts.Range != nil {
		ordered, depths, err = Select(ordered, depths, *opts.Range)
		if err != nil {
			return nil, err
		}
		logger.Info("selected slices", "range", opts.Range.String(), "count", len(ordered))
	}

	if err := CheckShapes(ordered); err != nil {
		return nil, err
	}
	if opts.MaxBytes > 0 {
		g := ordered[0].Pixels
		var zero T
		size := int64(g.Rows) * int64(g.Cols) * int64(len(ordered)) * int64(binary.Size(zero))
		if size > opts.MaxBytes {
			return nil, stageErr(StageAssemble, "",
				fmt.Errorf("volume needs %d bytes, limit is %d: %w", size, opts.MaxBytes, ErrVolumeTooLarge))
		}
	}
	thickness, source, err := ResolveThickness(ordered, depths)
	if err != nil {
		return nil, err
	}
	rowSpacing, colSpacing, err := ordered[0].Spacing()
	if err != nil {
		return nil, stageErr(StageAssemble, ordered[0].ID, err)
	}

	vol, err := Assemble(ordered)
	if err != nil {
		return nil, err
	}
	shape := vol.Shape()
	voxel, scale, err := ComputeScale(rowSpacing, colSpacing, thickness, shape)
	if err != nil {
		return nil, err
	}

	spacing := AnalyzeSpacing(depths, opts.SpacingTolerance)
	if spacing.Irregular {
		logger.Warn("irregular slice spacing",
			"mean", spacing.Mean, "min", spacing.Min, "max", spacing.Max, "duplicates", spacing.Duplicates)
	}

	return &Result[T]{
		Normal:          normal,
		Ordered:         ordered,
		Depths:          depths,
		Volume:          vol,
		Thickness:       thickness,
		ThicknessSource: source,
		VoxelSize:       voxel,
		VolumeScale:     scale,
		Shape:           shape,
		Bits:            ordered[0].Bits,
		Spacing:         spacing,
	}, nil
}
