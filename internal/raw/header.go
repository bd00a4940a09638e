package raw

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsinham/dicomraw/internal/volume"
	"gopkg.in/yaml.v3"
)

// Header describes a raw file so it can be read back without the DICOM
// input.
type Header struct {
	File       string `yaml:"file"`
	SampleType string `yaml:"sampleType"`
	ByteOrder  string `yaml:"byteOrder"`
	// Layout names the axis order from slowest to fastest.
	Layout string `yaml:"layout"`

	Shape       [3]int     `yaml:"shape"`
	VoxelSize   [3]float64 `yaml:"voxelSize"`
	VolumeScale [3]float64 `yaml:"volumeScale"`

	SliceThickness  float64 `yaml:"sliceThickness"`
	ThicknessSource string  `yaml:"thicknessSource"`

	BitsAllocated int `yaml:"bitsAllocated"`
	BitsStored    int `yaml:"bitsStored"`
	HighBit       int `yaml:"highBit"`

	Normal [3]float64 `yaml:"normal"`
	Depths []float64  `yaml:"depths"`
	// Range is the selected interval of the ordered slices, if any.
	Range  string   `yaml:"range,omitempty"`
	Slices []string `yaml:"slices"`
}

// NewHeader describes the result of a pipeline run written to rawPath.
func NewHeader[T volume.Sample](rawPath string, res *volume.Result[T], rng *volume.Range) Header {
	var zero T
	h := Header{
		File:            filepath.Base(rawPath),
		SampleType:      fmt.Sprintf("%T", zero),
		ByteOrder:       "little-endian",
		Layout:          "slice,row,column",
		Shape:           res.Shape,
		VoxelSize:       res.VoxelSize,
		VolumeScale:     res.VolumeScale,
		SliceThickness:  res.Thickness,
		ThicknessSource: res.ThicknessSource.String(),
		BitsAllocated:   res.Bits.Allocated,
		BitsStored:      res.Bits.Stored,
		HighBit:         res.Bits.High,
		Normal:          [3]float64{res.Normal.X, res.Normal.Y, res.Normal.Z},
		Depths:          res.Depths,
	}
	if rng != nil {
		h.Range = rng.String()
	}
	h.Slices = make([]string, len(res.Ordered))
	for i, rec := range res.Ordered {
		h.Slices[i] = rec.ID
	}
	return h
}

// HeaderPath returns the sidecar path for a raw file: its extension
// replaced by .yaml.
func HeaderPath(rawPath string) string {
	return strings.TrimSuffix(rawPath, filepath.Ext(rawPath)) + ".yaml"
}

// WriteHeader writes h as YAML to path.
func WriteHeader(path string, h Header) error {
	data, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	return nil
}

// ReadHeader reads a YAML header written by WriteHeader.
func ReadHeader(path string) (Header, error) {
	var h Header
	data, err := os.ReadFile(path)
	if err != nil {
		return h, err
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("parse header %s: %w", path, err)
	}
	return h, nil
}
