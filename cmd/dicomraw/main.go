package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/mrsinham/dicomraw/internal/config"
	"github.com/mrsinham/dicomraw/internal/dicom"
	"github.com/mrsinham/dicomraw/internal/util"
	"github.com/mrsinham/dicomraw/internal/volume"
)

// version is set at build time via -ldflags
var version = "dev"

// errUsage marks command-line mistakes; usage is printed with them.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "synth" {
		err = runSynth(ctx, os.Args[2:], os.Stdout, os.Stderr)
	} else {
		err = run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "Run 'dicomraw --help' for usage.")
		}
		os.Exit(1)
	}
}

// convertOptions is the resolved configuration of one conversion.
type convertOptions struct {
	dir       string
	output    string
	header    bool
	preview   string
	depthPlot string
	dump      bool
	dumpTags  []string
	workers   int
	tileRows  int
	tileCols  int
	tileSize  int
	build     volume.Options
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dicomraw", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dir := fs.String("dir", "", "Directory holding the DICOM slices of one series (required)")
	output := fs.String("output", "", "Raw volume output file (required)")
	rangeSpec := fs.String("range", "", "Keep ordered slices START:END (half-open)")
	dump := fs.Bool("dump", false, "Print the header of the first ordered slice")
	dumpTags := fs.String("dump-tags", "", "Comma-separated tag names to print instead of the full header")
	saveImg := fs.String("saveimg", "", "Save a slice preview sheet (PNG)")
	depthPlot := fs.String("depth-plot", "", "Save a plot of slice depths (PNG)")
	header := fs.Bool("header", false, "Write a YAML description next to the raw file")
	configFile := fs.String("config", "", "Load settings from a YAML or TOML file")
	writeConfig := fs.String("write-config", "", "Write the effective settings to a YAML or TOML file and exit")
	listTags := fs.Bool("list-tags", false, "List the tag names --dump-tags accepts and exit")
	workers := fs.Int("workers", 0, fmt.Sprintf("Number of parallel readers (default: %d = CPU cores)", runtime.NumCPU()))
	maxSize := fs.String("max-size", "", "Refuse volumes larger than this (e.g., '2GB')")
	orientTol := fs.Float64("orientation-tolerance", volume.DefaultOrientationTolerance, "Per-cosine tolerance when comparing slice orientations")
	skipOrient := fs.Bool("skip-orientation-check", false, "Trust the first slice's orientation for all slices")
	spacingTol := fs.Float64("spacing-tolerance", volume.DefaultSpacingTolerance, "Relative gap deviation reported as irregular spacing")
	verbose := fs.Bool("verbose", false, "Debug logging")
	quiet := fs.Bool("quiet", false, "Only log errors")
	showVersion := fs.Bool("version", false, "Show version")
	fs.Usage = func() { printHelp(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "dicomraw %s\n", version)
		return nil
	}
	if *listTags {
		printTagList(stdout)
		return nil
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.Input.Dir = ""
	}

	// Flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Input.Dir = *dir
		case "workers":
			cfg.Input.Workers = *workers
		case "range":
			cfg.Selection.Range = *rangeSpec
		case "output":
			cfg.Output.Raw = *output
		case "header":
			cfg.Output.Header = *header
		case "saveimg":
			cfg.Output.Preview = *saveImg
		case "depth-plot":
			cfg.Output.DepthPlot = *depthPlot
		case "orientation-tolerance":
			cfg.Geometry.OrientationTolerance = *orientTol
		case "skip-orientation-check":
			cfg.Geometry.SkipOrientationCheck = *skipOrient
		case "spacing-tolerance":
			cfg.Geometry.SpacingTolerance = *spacingTol
		case "max-size":
			cfg.Limits.MaxVolumeSize = *maxSize
		}
	})

	if *writeConfig != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg, *writeConfig); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "config written to: %s\n", *writeConfig)
		return nil
	}

	if cfg.Input.Dir == "" {
		return fmt.Errorf("%w: no DICOM directory given (--dir)", errUsage)
	}
	if cfg.Output.Raw == "" {
		return fmt.Errorf("%w: no output file given (--output)", errUsage)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logLevel(cfg.Log.Level, *verbose, *quiet)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, level)

	rng, err := cfg.SelectionRange()
	if err != nil {
		return err
	}
	maxBytes, err := cfg.MaxVolumeBytes()
	if err != nil {
		return err
	}
	var tags []string
	if *dumpTags != "" {
		if tags, err = util.ParseTagNames(*dumpTags); err != nil {
			return err
		}
	}

	opts := convertOptions{
		dir:       cfg.Input.Dir,
		output:    cfg.Output.Raw,
		header:    cfg.Output.Header,
		preview:   cfg.Output.Preview,
		depthPlot: cfg.Output.DepthPlot,
		dump:      *dump || len(tags) > 0,
		dumpTags:  tags,
		workers:   cfg.Input.Workers,
		tileRows:  cfg.Preview.Rows,
		tileCols:  cfg.Preview.Cols,
		tileSize:  cfg.Preview.TileSize,
	}
	opts.build = volume.Options{
		Range:                rng,
		OrientationTolerance: cfg.Geometry.OrientationTolerance,
		SkipOrientationCheck: cfg.Geometry.SkipOrientationCheck,
		SpacingTolerance:     cfg.Geometry.SpacingTolerance,
		MaxBytes:             maxBytes,
		Logger:               logger,
	}

	fmt.Fprintln(stdout, "dicomraw")
	fmt.Fprintln(stdout, "========")
	fmt.Fprintln(stdout)

	paths, err := dicom.ListSliceFiles(opts.dir)
	if err != nil {
		return err
	}
	bits, err := dicom.ProbeBitsAllocated(paths[0])
	if err != nil {
		return err
	}
	logger.Debug("probed sample width", "file", paths[0], "bits", bits)

	switch bits {
	case 8:
		return convert[uint8](ctx, paths, opts, stdout, logger)
	case 16:
		return convert[uint16](ctx, paths, opts, stdout, logger)
	case 32:
		return convert[uint32](ctx, paths, opts, stdout, logger)
	}
	return fmt.Errorf("%d bits allocated: %w", bits, dicom.ErrUnsupportedPixelData)
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "dicomraw")
	fmt.Fprintln(w, "========")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sort the slices of a DICOM series in anatomical order and write them as")
	fmt.Fprintln(w, "one raw little-endian volume for volume renderers.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dicomraw --dir <DIR> --output <FILE> [options]")
	fmt.Fprintln(w, "  dicomraw synth --num-slices <N> --output <DIR> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  # Convert a series, keeping ordered slices 10 to 49")
	fmt.Fprintln(w, "  dicomraw --dir scans/head --output head.raw --range 10:50 --header")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Save the settings of a run for reuse with --config")
	fmt.Fprintln(w, "  dicomraw --dir scans/head --output head.raw --range 10:50 --write-config head.toml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Check the ordering by eye")
	fmt.Fprintln(w, "  dicomraw --dir scans/head --output head.raw --saveimg head.png --depth-plot depths.png")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Slices are ordered by their position along the slice normal. File names,")
	fmt.Fprintln(w, "InstanceNumber and SliceLocation are never used for ordering.")
}

// printTagList prints the registered tag names grouped by the level of the
// DICOM hierarchy they describe.
func printTagList(w io.Writer) {
	byScope := make(map[util.TagScope][]string)
	for _, name := range util.TagNames() {
		info, err := util.GetTagByName(name)
		if err != nil {
			continue
		}
		byScope[info.Scope] = append(byScope[info.Scope], info.Name)
	}
	for _, scope := range []util.TagScope{util.ScopePatient, util.ScopeStudy, util.ScopeSeries, util.ScopeImage} {
		fmt.Fprintf(w, "%s:\n", scope)
		for _, name := range byScope[scope] {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

// formatVec prints a vector the way the report shows shapes and sizes.
func formatVec[E int | float64](v [3]E) string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
