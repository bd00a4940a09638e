// Package dicom reads DICOM slice sets into volume records and writes
// synthetic single-series sets.
package dicom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mrsinham/dicomraw/internal/volume"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSlices reports a directory without slice files.
	ErrNoSlices = errors.New("no DICOM files found")
	// ErrMixedSeries reports slices from more than one series.
	ErrMixedSeries = errors.New("slices belong to more than one series")
	// ErrUnsupportedPixelData reports pixel data that is not a single native
	// frame of one sample per pixel.
	ErrUnsupportedPixelData = errors.New("unsupported pixel data")
)

// LoadOptions controls LoadSlices.
type LoadOptions struct {
	// Workers bounds concurrent file parsing (0 = CPU cores).
	Workers int
	Logger  *log.Logger
	// ProgressCallback is called after each parsed file.
	ProgressCallback func(current, total int)
}

// ListSliceFiles walks dir recursively and returns candidate slice files,
// skipping hidden entries and DICOMDIR index files. The lexical order of the
// result only makes loading deterministic; it says nothing about anatomy.
func ListSliceFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || strings.EqualFold(name, "DICOMDIR") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w: %w", dir, ErrNoSlices, volume.ErrInsufficientData)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadSlices parses every path into a slice record. Files are parsed in
// parallel; the first failure cancels the rest. Records keep the order of
// paths.
func LoadSlices[T volume.Sample](ctx context.Context, paths []string, opts LoadOptions) ([]volume.SliceRecord[T], error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoSlices, volume.ErrInsufficientData)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	logger.Debug("loading slices", "files", len(paths), "workers", workers)

	records := make([]volume.SliceRecord[T], len(paths))
	done := make(chan struct{}, len(paths))
	progressStopped := make(chan struct{})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	go func() {
		defer close(progressStopped)
		completed := 0
		for range done {
			completed++
			if opts.ProgressCallback != nil {
				opts.ProgressCallback(completed, len(paths))
			}
		}
	}()

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := ReadSlice[T](path)
			if err != nil {
				return err
			}
			records[i] = rec
			done <- struct{}{}
			return nil
		})
	}
	err := g.Wait()
	close(done)
	<-progressStopped
	if err != nil {
		return nil, err
	}

	if err := checkSingleSeries(records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadSlice parses one file into a slice record. Geometry attributes that
// are absent are left empty for the pipeline to reject; an unreadable
// SliceThickness is treated as absent.
func ReadSlice[T volume.Sample](path string) (volume.SliceRecord[T], error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return volume.SliceRecord[T]{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return recordFromDataset[T](path, ds)
}

func recordFromDataset[T volume.Sample](path string, ds dicom.Dataset) (volume.SliceRecord[T], error) {
	rec := volume.SliceRecord[T]{
		ID:        path,
		SeriesUID: stringValue(ds, tag.SeriesInstanceUID),
	}

	rec.ImageOrientation, _ = floatValues(ds, tag.ImageOrientationPatient)
	rec.ImagePosition, _ = floatValues(ds, tag.ImagePositionPatient)
	rec.PixelSpacing, _ = floatValues(ds, tag.PixelSpacing)
	if th, ok := floatValues(ds, tag.SliceThickness); ok && len(th) == 1 {
		rec.SliceThickness = &th[0]
	}
	if n, ok := intValue(ds, tag.InstanceNumber); ok {
		rec.Instance = n
	}

	rec.Bits.Allocated, _ = intValue(ds, tag.BitsAllocated)
	rec.Bits.Stored, _ = intValue(ds, tag.BitsStored)
	rec.Bits.High, _ = intValue(ds, tag.HighBit)

	grid, err := nativeGrid[T](ds)
	if err != nil {
		return volume.SliceRecord[T]{}, fmt.Errorf("%s: %w", path, err)
	}
	rec.Pixels = grid
	return rec, nil
}

// nativeGrid extracts the single native frame of a dataset as a grid of T.
func nativeGrid[T volume.Sample](ds dicom.Dataset) (volume.Grid[T], error) {
	rows, okRows := intValue(ds, tag.Rows)
	cols, okCols := intValue(ds, tag.Columns)
	if !okRows || !okCols {
		return volume.Grid[T]{}, fmt.Errorf("rows/columns: %w", volume.ErrMissingMetadata)
	}
	if spp, ok := intValue(ds, tag.SamplesPerPixel); ok && spp != 1 {
		return volume.Grid[T]{}, fmt.Errorf("%d samples per pixel: %w", spp, ErrUnsupportedPixelData)
	}

	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil || elem == nil {
		return volume.Grid[T]{}, fmt.Errorf("pixel data: %w", volume.ErrMissingMetadata)
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return volume.Grid[T]{}, fmt.Errorf("pixel data value: %w", ErrUnsupportedPixelData)
	}
	if info.IsEncapsulated {
		return volume.Grid[T]{}, fmt.Errorf("encapsulated pixel data: %w", ErrUnsupportedPixelData)
	}
	if len(info.Frames) != 1 {
		return volume.Grid[T]{}, fmt.Errorf("%d frames: %w", len(info.Frames), ErrUnsupportedPixelData)
	}

	f := info.Frames[0]
	if f.Encapsulated || f.NativeData == nil {
		return volume.Grid[T]{}, fmt.Errorf("non-native frame: %w", ErrUnsupportedPixelData)
	}
	nf, ok := f.NativeData.(*frame.NativeFrame[T])
	if !ok {
		var zero T
		return volume.Grid[T]{}, fmt.Errorf("frame samples are %T, want %T: %w", f.NativeData, zero, ErrUnsupportedPixelData)
	}
	if len(nf.RawData) != rows*cols {
		return volume.Grid[T]{}, fmt.Errorf("frame holds %d samples for %dx%d: %w",
			len(nf.RawData), rows, cols, volume.ErrShapeMismatch)
	}
	return volume.Grid[T]{Rows: rows, Cols: cols, Data: nf.RawData}, nil
}

func checkSingleSeries[T volume.Sample](records []volume.SliceRecord[T]) error {
	seen := make(map[string]string)
	for _, r := range records {
		if r.SeriesUID == "" {
			continue
		}
		if _, ok := seen[r.SeriesUID]; !ok {
			seen[r.SeriesUID] = r.ID
		}
	}
	if len(seen) <= 1 {
		return nil
	}
	uids := make([]string, 0, len(seen))
	for uid := range seen {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return fmt.Errorf("%d series found (%s): %w", len(uids), strings.Join(uids, ", "), ErrMixedSeries)
}
