package dicom

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"io"
	"math"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mrsinham/dicomraw/internal/dicom/edgecases"
	"github.com/mrsinham/dicomraw/internal/dicom/modalities"
	"github.com/mrsinham/dicomraw/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is the acquisition plane of a synthetic series.
type Plane string

const (
	PlaneAxial    Plane = "axial"
	PlaneSagittal Plane = "sagittal"
	PlaneCoronal  Plane = "coronal"
	// PlaneOblique is axial tilted 30 degrees about the patient x axis.
	PlaneOblique Plane = "oblique"
)

// ParsePlane parses a plane name, case-insensitively.
func ParsePlane(s string) (Plane, error) {
	p := Plane(strings.ToLower(s))
	switch p {
	case PlaneAxial, PlaneSagittal, PlaneCoronal, PlaneOblique:
		return p, nil
	}
	return "", fmt.Errorf("unknown plane %q (valid: axial, sagittal, coronal, oblique)", s)
}

// Cosines returns the row and column direction cosines of the plane.
func (p Plane) Cosines() (row, col r3.Vec) {
	switch p {
	case PlaneSagittal:
		return r3.Vec{Y: 1}, r3.Vec{Z: -1}
	case PlaneCoronal:
		return r3.Vec{X: 1}, r3.Vec{Z: -1}
	case PlaneOblique:
		a := math.Pi / 6
		return r3.Vec{X: 1}, r3.Vec{Y: math.Cos(a), Z: math.Sin(a)}
	default:
		return r3.Vec{X: 1}, r3.Vec{Y: 1}
	}
}

// Normal returns the unit slice normal of the plane.
func (p Plane) Normal() r3.Vec {
	row, col := p.Cosines()
	return r3.Unit(r3.Cross(row, col))
}

// SynthOptions configures GenerateSeries.
type SynthOptions struct {
	NumSlices int
	// Rows and Cols set the slice size; when zero they are derived from
	// TotalSize.
	Rows      int
	Cols      int
	TotalSize int64
	OutputDir string
	Seed      int64
	Modality  modalities.Modality
	Plane     Plane
	// Spacing overrides the modality's slice spacing in mm (0 = modality
	// default).
	Spacing float64
	// OmitThickness leaves SliceThickness out of every file.
	OmitThickness bool
	// Shuffle names files in an order unrelated to slice position.
	Shuffle bool
	// EdgeCases injects geometry defects into some slices.
	EdgeCases edgecases.Config
	// Workers bounds concurrent file writes (0 = CPU cores).
	Workers          int
	Logger           *log.Logger
	ProgressCallback func(current, total int)
}

// GeneratedFile describes one written slice.
type GeneratedFile struct {
	Path           string
	PatientID      string
	StudyUID       string
	SeriesUID      string
	SOPClassUID    string
	SOPInstanceUID string
	Modality       string
	InstanceNumber int
	// Depth is the slice position projected on the plane normal.
	Depth float64
	// EdgeCase is the defect injected into the slice, "" when intact.
	EdgeCase edgecases.EdgeCaseType
}

// sliceTask holds everything needed to write one slice file.
type sliceTask struct {
	index       int
	rows, cols  int
	filePath    string
	textOverlay string
	pixelSeed   uint64
	metadata    []*dicom.Element
	pixelConfig modalities.PixelConfig
}

// writeDatasetToFile writes a DICOM dataset to a file.
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}

func mustNewElement(t tag.Tag, data any) *dicom.Element {
	elem, err := dicom.NewElement(t, data)
	if err != nil {
		panic(fmt.Sprintf("create element %v: %v", t, err))
	}
	return elem
}

func formatDS(values ...float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%.6f", v)
	}
	return out
}

// CalculateDimensions derives a square slice size so that numImages slices
// of bytesPerSample samples fit in totalBytes.
func CalculateDimensions(totalBytes int64, numImages, bytesPerSample int) (width, height int, err error) {
	if totalBytes <= 0 {
		return 0, 0, fmt.Errorf("total bytes must be > 0")
	}
	if numImages <= 0 {
		return 0, 0, fmt.Errorf("number of images must be > 0")
	}
	if bytesPerSample <= 0 {
		bytesPerSample = 2
	}

	// Per-file header overhead estimate
	metadataOverhead := int64(numImages) * 2 * 1024
	availableBytes := totalBytes - metadataOverhead
	if availableBytes <= 0 {
		return 0, 0, fmt.Errorf("total size too small (need at least %s for metadata)", util.FormatSize(metadataOverhead))
	}

	pixelsPerFrame := availableBytes / int64(bytesPerSample) / int64(numImages)
	dimension := int(math.Sqrt(float64(pixelsPerFrame)))

	// Round down to a multiple of 64, minimum 64
	width = max((dimension/64)*64, 64)
	return width, width, nil
}

// GenerateSeries writes a synthetic single-series slice set to
// opts.OutputDir. Files are returned in spatial order along the plane
// normal, whatever their names.
func GenerateSeries(opts SynthOptions) ([]GeneratedFile, error) {
	if opts.NumSlices <= 0 {
		return nil, fmt.Errorf("number of slices must be > 0, got %d", opts.NumSlices)
	}
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if err := opts.EdgeCases.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	plane := opts.Plane
	if plane == "" {
		plane = PlaneAxial
	}

	modalityGen := modalities.GetGenerator(opts.Modality)
	pixelConfig := modalityGen.PixelConfig()
	bytesPerSample := int(pixelConfig.BitsAllocated / 8)

	rows, cols := opts.Rows, opts.Cols
	if rows <= 0 || cols <= 0 {
		if opts.TotalSize <= 0 {
			return nil, errors.New("either rows and columns or a total size is required")
		}
		w, h, err := CalculateDimensions(opts.TotalSize, opts.NumSlices, bytesPerSample)
		if err != nil {
			return nil, err
		}
		rows, cols = h, w
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := randv2.New(randv2.NewPCG(uint64(seed), uint64(seed)))

	scanners := modalityGen.Scanners()
	scanner := scanners[rng.IntN(len(scanners))]
	params := modalityGen.GenerateSeriesParams(scanner, rng)
	if opts.Spacing > 0 {
		params.SpacingBetweenSlices = opts.Spacing
	}

	studyUID := util.DeterministicUID(fmt.Sprintf("%d_study", seed))
	seriesUID := util.DeterministicUID(fmt.Sprintf("%d_series", seed))
	frameOfReferenceUID := util.DeterministicUID(fmt.Sprintf("%d_frame", seed))

	row, col := plane.Cosines()
	normal := plane.Normal()
	origin := r3.Vec{X: -100, Y: -100, Z: -100}
	orientation := formatDS(row.X, row.Y, row.Z, col.X, col.Y, col.Z)

	// File names follow a permutation of slice positions when shuffling.
	nameIndex := make([]int, opts.NumSlices)
	for i := range nameIndex {
		nameIndex[i] = i
	}
	if opts.Shuffle {
		rng.Shuffle(len(nameIndex), func(i, j int) { nameIndex[i], nameIndex[j] = nameIndex[j], nameIndex[i] })
	}

	edgeCaseApplicator := edgecases.NewApplicator(opts.EdgeCases, rng)
	plan := edgeCaseApplicator.Plan(opts.NumSlices)
	if opts.EdgeCases.IsEnabled() {
		logger.Info("injecting edge cases", "percentage", opts.EdgeCases.Percentage, "types", opts.EdgeCases.Types)
	}
	patientID := fmt.Sprintf("SYN%08d", uint32(seed))
	nominalPosition := func(k int) r3.Vec {
		return r3.Add(origin, r3.Scale(float64(k)*params.SpacingBetweenSlices, normal))
	}

	logger.Info("generating series",
		"slices", opts.NumSlices, "size", fmt.Sprintf("%dx%d", cols, rows),
		"modality", modalityGen.Modality(), "plane", plane,
		"spacing", params.SpacingBetweenSlices, "scanner", scanner.Model)

	tasks := make([]sliceTask, 0, opts.NumSlices)
	files := make([]GeneratedFile, 0, opts.NumSlices)
	for k := 0; k < opts.NumSlices; k++ {
		instance := k + 1
		sopInstanceUID := util.DeterministicUID(fmt.Sprintf("%d_series_instance_%d", seed, instance))
		position := nominalPosition(k)
		sliceRows, sliceOrientation := rows, orientation
		var omitTags []string
		switch plan[k] {
		case edgecases.DuplicatePositions:
			position = nominalPosition(k - 1)
		case edgecases.MixedSizes:
			sliceRows++
		case edgecases.TiltedSlices:
			tilted := tiltColumn(row, col, edgecases.TiltDegrees)
			sliceOrientation = formatDS(row.X, row.Y, row.Z, tilted.X, tilted.Y, tilted.Z)
		case edgecases.MissingTags:
			omitTags = edgeCaseApplicator.GetTagsToOmit()
		}
		if plan[k] != "" {
			logger.Debug("edge case", "slice", instance, "type", plan[k], "omit", omitTags)
		}
		depth := r3.Dot(normal, position)

		metadata := []*dicom.Element{
			mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
			mustNewElement(tag.SOPClassUID, []string{modalityGen.SOPClassUID()}),
			mustNewElement(tag.SOPInstanceUID, []string{sopInstanceUID}),
			mustNewElement(tag.Modality, []string{string(modalityGen.Modality())}),
			mustNewElement(tag.Manufacturer, []string{scanner.Manufacturer}),
			mustNewElement(tag.ManufacturerModelName, []string{scanner.Model}),
			mustNewElement(tag.PatientName, []string{"SYNTHETIC^PHANTOM"}),
			mustNewElement(tag.PatientID, []string{patientID}),
			mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
			mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
			mustNewElement(tag.SeriesNumber, []string{"1"}),
			mustNewElement(tag.SeriesDescription, []string{fmt.Sprintf("Synthetic %s %s", modalityGen.Modality(), plane)}),
			mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", instance)}),
			mustNewElement(tag.FrameOfReferenceUID, []string{frameOfReferenceUID}),
			mustNewElement(tag.ImagePositionPatient, formatDS(position.X, position.Y, position.Z)),
			mustNewElement(tag.ImageOrientationPatient, sliceOrientation),
			mustNewElement(tag.SliceLocation, formatDS(depth)),
			mustNewElement(tag.PixelSpacing, formatDS(params.PixelSpacing, params.PixelSpacing)),
			mustNewElement(tag.SpacingBetweenSlices, formatDS(params.SpacingBetweenSlices)),
			mustNewElement(tag.WindowCenter, []string{fmt.Sprintf("%.1f", params.WindowCenter)}),
			mustNewElement(tag.WindowWidth, []string{fmt.Sprintf("%.1f", params.WindowWidth)}),
			mustNewElement(tag.Rows, []int{sliceRows}),
			mustNewElement(tag.Columns, []int{cols}),
			mustNewElement(tag.BitsAllocated, []int{int(pixelConfig.BitsAllocated)}),
			mustNewElement(tag.BitsStored, []int{int(pixelConfig.BitsStored)}),
			mustNewElement(tag.HighBit, []int{int(pixelConfig.HighBit)}),
			mustNewElement(tag.PixelRepresentation, []int{int(pixelConfig.PixelRepresentation)}),
			mustNewElement(tag.SamplesPerPixel, []int{1}),
			mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		}
		if !opts.OmitThickness {
			metadata = append(metadata, mustNewElement(tag.SliceThickness, formatDS(params.SliceThickness)))
		}

		ds := &dicom.Dataset{Elements: metadata}
		if err := modalityGen.AppendModalityElements(ds, params); err != nil {
			return nil, fmt.Errorf("add modality elements for slice %d: %w", instance, err)
		}
		metadata, err := omitElements(ds.Elements, omitTags)
		if err != nil {
			return nil, fmt.Errorf("omit tags for slice %d: %w", instance, err)
		}
		sort.Slice(metadata, func(i, j int) bool {
			if metadata[i].Tag.Group != metadata[j].Tag.Group {
				return metadata[i].Tag.Group < metadata[j].Tag.Group
			}
			return metadata[i].Tag.Element < metadata[j].Tag.Element
		})

		pixelSeedHash := fnv.New64a()
		_, _ = fmt.Fprintf(pixelSeedHash, "%d_pixel_%d", seed, k)

		filePath := filepath.Join(opts.OutputDir, fmt.Sprintf("IMG%04d.dcm", nameIndex[k]+1))
		tasks = append(tasks, sliceTask{
			index:       k,
			rows:        sliceRows,
			cols:        cols,
			filePath:    filePath,
			textOverlay: fmt.Sprintf("Slice %d/%d", instance, opts.NumSlices),
			pixelSeed:   pixelSeedHash.Sum64(),
			metadata:    metadata,
			pixelConfig: pixelConfig,
		})
		files = append(files, GeneratedFile{
			Path:           filePath,
			PatientID:      patientID,
			StudyUID:       studyUID,
			SeriesUID:      seriesUID,
			SOPClassUID:    modalityGen.SOPClassUID(),
			SOPInstanceUID: sopInstanceUID,
			Modality:       string(modalityGen.Modality()),
			InstanceNumber: instance,
			Depth:          depth,
			EdgeCase:       plan[k],
		})
	}

	if err := runSliceTasks(tasks, opts.Workers, opts.ProgressCallback); err != nil {
		return nil, err
	}
	logger.Info("series written", "files", len(files), "dir", opts.OutputDir)
	return files, nil
}

// tiltColumn rotates col about row by degrees.
func tiltColumn(row, col r3.Vec, degrees float64) r3.Vec {
	a := degrees * math.Pi / 180
	return r3.Add(r3.Scale(math.Cos(a), col), r3.Scale(math.Sin(a), r3.Unit(r3.Cross(row, col))))
}

// omitElements drops the named tags from elements.
func omitElements(elements []*dicom.Element, names []string) ([]*dicom.Element, error) {
	if len(names) == 0 {
		return elements, nil
	}
	drop := make(map[tag.Tag]bool, len(names))
	for _, name := range names {
		info, err := util.GetTagByName(name)
		if err != nil {
			return nil, err
		}
		drop[info.Tag] = true
	}
	kept := elements[:0]
	for _, e := range elements {
		if !drop[e.Tag] {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// runSliceTasks writes tasks on a fixed pool of workers and returns the
// first failure.
func runSliceTasks(tasks []sliceTask, workers int, progress func(current, total int)) error {
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	taskChan := make(chan sliceTask, len(tasks))
	resultChan := make(chan struct {
		index int
		err   error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				err := writeSlice(task)
				resultChan <- struct {
					index int
					err   error
				}{task.index, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("generate slice %d: %w", result.index+1, result.err)
		}
		completed++
		if progress != nil {
			progress(completed, len(tasks))
		}
	}
	return firstErr
}

// writeSlice renders the pixel data of one task and writes the file.
func writeSlice(task sliceTask) error {
	var pixelData dicom.PixelDataInfo
	if task.pixelConfig.BitsAllocated == 8 {
		pixelData = renderFrame[uint8](task)
	} else {
		pixelData = renderFrame[uint16](task)
	}

	elements := make([]*dicom.Element, len(task.metadata)+1)
	copy(elements, task.metadata)
	elements[len(task.metadata)] = mustNewElement(tag.PixelData, pixelData)

	return writeDatasetToFile(task.filePath, dicom.Dataset{Elements: elements})
}

// renderFrame fills a native frame with a radial phantom plus noise and
// stamps the slice label on it.
func renderFrame[T uint8 | uint16](task sliceTask) dicom.PixelDataInfo {
	width, height := task.cols, task.rows
	cfg := task.pixelConfig
	rng := randv2.New(randv2.NewPCG(task.pixelSeed, task.pixelSeed))

	valueRange := float64(cfg.MaxValue - cfg.MinValue)
	baseValue := float64(cfg.BaseValue)
	maxVal := float64(cfg.MaxValue)
	centerX, centerY := float64(width)/2, float64(height)/2
	maxDist := math.Sqrt(centerX*centerX + centerY*centerY)

	nativeFrame := frame.NewNativeFrame[T](int(cfg.BitsAllocated), height, width, width*height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x) - centerX
			dy := float64(y) - centerY
			normalizedDist := math.Sqrt(dx*dx+dy*dy) / maxDist
			intensity := baseValue + (1.0-normalizedDist)*valueRange*0.3
			intensity += (rng.Float64() - 0.5) * valueRange * 0.2
			nativeFrame.RawData[y*width+x] = T(math.Max(float64(cfg.MinValue), math.Min(maxVal, intensity)))
		}
	}

	drawTextOnFrame(nativeFrame.RawData, width, height, cfg.MaxValue, task.textOverlay)

	return dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}
}

// drawTextOnFrame draws a large centred label with a black outline onto a
// grayscale sample buffer. White maps to maxValue.
func drawTextOnFrame[T uint8 | uint16](data []T, width, height, maxValue int, text string) {
	face := basicfont.Face7x13
	baseTextWidth := font.MeasureString(face, text).Ceil()
	baseTextHeight := 13
	if baseTextWidth == 0 {
		return
	}

	textImg := image.NewAlpha(image.Rect(0, 0, baseTextWidth, baseTextHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(baseTextHeight)},
	}
	drawer.DrawString(text)

	// Text spans 30% of the image width, never below 2x.
	scaleFactor := math.Max(2.0, float64(width)*0.3/float64(baseTextWidth))
	scaledWidth := int(float64(baseTextWidth) * scaleFactor)
	scaledHeight := int(float64(baseTextHeight) * scaleFactor)

	scaled := image.NewAlpha(image.Rect(0, 0, scaledWidth, scaledHeight))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)

	x0 := (width - scaledWidth) / 2
	y0 := (height - scaledHeight) / 2
	set := func(x, y int, v T) {
		if x >= 0 && x < width && y >= 0 && y < height {
			data[y*width+x] = v
		}
	}

	outline := max(3, scaledHeight/10)
	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			if scaled.AlphaAt(sx, sy).A == 0 {
				continue
			}
			for dy := -outline; dy <= outline; dy++ {
				for dx := -outline; dx <= outline; dx++ {
					if dx*dx+dy*dy <= outline*outline {
						set(x0+sx+dx, y0+sy+dy, 0)
					}
				}
			}
		}
	}

	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			a := scaled.AlphaAt(sx, sy).A
			if a == 0 {
				continue
			}
			set(x0+sx, y0+sy, T(int(a)*maxValue/255))
		}
	}
}
