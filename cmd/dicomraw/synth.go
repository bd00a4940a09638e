package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mrsinham/dicomraw/internal/dicom"
	"github.com/mrsinham/dicomraw/internal/dicom/edgecases"
	"github.com/mrsinham/dicomraw/internal/dicom/modalities"
	"github.com/mrsinham/dicomraw/internal/util"
)

// runSynth handles "dicomraw synth": it writes a synthetic single-series
// slice set for trying the converter.
func runSynth(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dicomraw synth", flag.ContinueOnError)
	fs.SetOutput(stderr)

	numSlices := fs.Int("num-slices", 0, "Number of slices to generate (required)")
	rows := fs.Int("rows", 0, "Rows per slice (default: derived from --total-size)")
	cols := fs.Int("cols", 0, "Columns per slice (default: derived from --total-size)")
	totalSize := fs.String("total-size", "", "Total size (e.g., '10MB') used when --rows/--cols are not given")
	outputDir := fs.String("output", "dicom_series", "Output directory")
	seed := fs.Int64("seed", 0, "Seed for reproducibility (optional, auto-generated if not specified)")
	modality := fs.String("modality", "MR", "Imaging modality: MR, CT, US")
	plane := fs.String("plane", "axial", "Acquisition plane: axial, sagittal, coronal, oblique")
	spacing := fs.Float64("spacing", 0, "Slice spacing in mm (default: modality default)")
	omitThickness := fs.Bool("omit-thickness", false, "Leave SliceThickness out of every file")
	shuffle := fs.Bool("shuffle", false, "Name files in an order unrelated to slice position")
	hierarchy := fs.Bool("hierarchy", false, "Move files into a PT000000/ST000000/SE000000 layout with a DICOMDIR")
	edgeCasePercentage := fs.Int("edge-cases", 0, "Percentage of slices (after the first) with a geometry defect (0-100)")
	edgeCaseTypes := fs.String("edge-case-types", "missing-tags,duplicate-positions,mixed-sizes,tilted-slices",
		"Comma-separated edge case types to enable")
	omitTags := fs.String("omit-tags", "", "Comma-separated tags dropped by missing-tags (default: random geometry tags)")
	workers := fs.Int("workers", 0, fmt.Sprintf("Number of parallel workers (default: %d = CPU cores)", runtime.NumCPU()))
	quiet := fs.Bool("quiet", false, "Only log errors")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *numSlices <= 0 {
		return fmt.Errorf("%w: --num-slices must be > 0", errUsage)
	}
	if (*rows <= 0 || *cols <= 0) && *totalSize == "" {
		return fmt.Errorf("%w: give --rows and --cols, or --total-size", errUsage)
	}

	modalityUpper := strings.ToUpper(*modality)
	if !modalities.IsValid(modalityUpper) {
		return fmt.Errorf("invalid modality %q, valid options: %v", *modality, modalities.AllModalities())
	}
	parsedPlane, err := dicom.ParsePlane(*plane)
	if err != nil {
		return err
	}
	var sizeBytes int64
	if *totalSize != "" {
		if sizeBytes, err = util.ParseSize(*totalSize); err != nil {
			return err
		}
	}

	var edgeCaseConfig edgecases.Config
	if *edgeCasePercentage > 0 {
		types, err := edgecases.ParseTypes(*edgeCaseTypes)
		if err != nil {
			return err
		}
		tags, err := util.ParseTagNames(*omitTags)
		if err != nil {
			return err
		}
		edgeCaseConfig = edgecases.Config{
			Percentage: *edgeCasePercentage,
			Types:      types,
			OmitTags:   tags,
		}
		if err := edgeCaseConfig.Validate(); err != nil {
			return err
		}
	} else if *edgeCasePercentage < 0 {
		return fmt.Errorf("%w: --edge-cases must be 0-100", errUsage)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	level := log.InfoLevel
	if *quiet {
		level = log.ErrorLevel
	}
	logger := newLogger(stderr, level)

	fmt.Fprintln(stdout, "dicomraw synth")
	fmt.Fprintln(stdout, "==============")
	fmt.Fprintln(stdout)

	prog := newProgress(logger)
	files, err := dicom.GenerateSeries(dicom.SynthOptions{
		NumSlices:     *numSlices,
		Rows:          *rows,
		Cols:          *cols,
		TotalSize:     sizeBytes,
		OutputDir:     *outputDir,
		Seed:          *seed,
		Modality:      modalities.Modality(modalityUpper),
		Plane:         parsedPlane,
		Spacing:       *spacing,
		OmitThickness: *omitThickness,
		Shuffle:       *shuffle,
		EdgeCases:     edgeCaseConfig,
		Workers:       *workers,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("generate series: %w", err)
	}
	if *hierarchy {
		if files, err = dicom.OrganizeHierarchy(*outputDir, files); err != nil {
			return err
		}
	}
	prog.done("generation complete")

	fmt.Fprintf(stdout, "✓ %d DICOM files created in: %s/\n", len(files), *outputDir)
	fmt.Fprintf(stdout, "  Series UID: %s\n", files[0].SeriesUID)
	if edgeCaseConfig.IsEnabled() {
		altered := 0
		for _, f := range files {
			if f.EdgeCase != "" {
				altered++
			}
		}
		fmt.Fprintf(stdout, "  Edge cases: %d slice(s) altered with types %v\n", altered, edgeCaseConfig.Types)
	}
	return nil
}
