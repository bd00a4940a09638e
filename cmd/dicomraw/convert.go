package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mrsinham/dicomraw/internal/dicom"
	"github.com/mrsinham/dicomraw/internal/preview"
	"github.com/mrsinham/dicomraw/internal/raw"
	"github.com/mrsinham/dicomraw/internal/util"
	"github.com/mrsinham/dicomraw/internal/volume"
)

// convert loads, orders and writes one series of T samples, then prints
// the report. When any output fails, the files already written are removed.
func convert[T volume.Sample](ctx context.Context, paths []string, opts convertOptions, stdout io.Writer, logger *log.Logger) (err error) {
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range written {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warn("could not remove partial output", "path", path, "err", rmErr)
			}
		}
	}()

	prog := newProgress(logger)
	records, err := dicom.LoadSlices[T](ctx, paths, dicom.LoadOptions{
		Workers: opts.workers,
		Logger:  logger,
		ProgressCallback: func(current, total int) {
			if current%50 == 0 || current == total {
				logger.Debug("parsed slices", "done", current, "total", total)
			}
		},
	})
	if err != nil {
		return err
	}
	prog.done("loaded slices", "count", len(records))

	res, err := volume.Build(records, opts.build)
	if err != nil {
		return err
	}

	if opts.build.Range != nil {
		fmt.Fprintf(stdout, "selection: %s\n", opts.build.Range)
	}
	if opts.dump {
		fmt.Fprintln(stdout, "sample slice metadata")
		if err := dicom.DumpHeader(stdout, res.Ordered[0].ID, opts.dumpTags); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	fmt.Fprintf(stdout, "save to: %s\n", opts.output)
	prog = newProgress(logger)
	if err := raw.WriteVolume(opts.output, res.Volume); err != nil {
		return err
	}
	written = append(written, opts.output)
	prog.done("volume written", "size", util.FormatSize(res.Volume.SizeBytes()))

	if opts.header {
		path := raw.HeaderPath(opts.output)
		if err := raw.WriteHeader(path, raw.NewHeader(opts.output, res, opts.build.Range)); err != nil {
			return err
		}
		written = append(written, path)
		logger.Info("header written", "path", path)
	}

	fmt.Fprintf(stdout, "dataset shape: %s\n", formatVec(res.Shape))
	fmt.Fprintf(stdout, "voxel size: %s\n", formatVec(res.VoxelSize))
	fmt.Fprintf(stdout, "volume scale: %s\n", formatVec(res.VolumeScale))
	fmt.Fprintf(stdout, "bits (allocated, stored, high): %s\n", res.Bits)
	fmt.Fprintf(stdout, "slice thickness: %g (%s)\n", res.Thickness, res.ThicknessSource)
	if res.Spacing.Irregular {
		fmt.Fprintf(stdout, "spacing: irregular (mean %g, min %g, max %g, %d duplicate)\n",
			res.Spacing.Mean, res.Spacing.Min, res.Spacing.Max, res.Spacing.Duplicates)
	}

	if opts.preview != "" {
		sheet, err := preview.Sheet(res.Volume, preview.Options{
			Rows:     opts.tileRows,
			Cols:     opts.tileCols,
			TileSize: opts.tileSize,
			Gap:      4,
			Labels:   true,
		})
		if err != nil {
			return err
		}
		written = append(written, opts.preview)
		if err := preview.SavePNG(opts.preview, sheet); err != nil {
			return err
		}
		logger.Info("preview written", "path", opts.preview)
	}
	if opts.depthPlot != "" {
		written = append(written, opts.depthPlot)
		if err := preview.PlotDepths(opts.depthPlot, res.Depths); err != nil {
			return err
		}
		logger.Info("depth plot written", "path", opts.depthPlot)
	}
	return nil
}
