// Package modalities describes the per-modality acquisition parameters the
// synthetic series generator writes.
package modalities

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Modality represents a DICOM imaging modality type.
type Modality string

const (
	MR Modality = "MR" // Magnetic Resonance
	CT Modality = "CT" // Computed Tomography
	US Modality = "US" // Ultrasound (8-bit samples)
)

// AllModalities returns all supported modalities.
func AllModalities() []Modality {
	return []Modality{MR, CT, US}
}

// IsValid checks if a modality string is valid.
func IsValid(m string) bool {
	for _, valid := range AllModalities() {
		if string(valid) == m {
			return true
		}
	}
	return false
}

// Scanner represents an imaging device configuration.
type Scanner struct {
	Manufacturer string
	Model        string
}

// SeriesParams holds the acquisition geometry and display parameters of a
// series.
type SeriesParams struct {
	Modality     Modality
	Scanner      Scanner
	WindowCenter float64
	WindowWidth  float64

	// MR-specific
	EchoTime       float64
	RepetitionTime float64

	// CT-specific
	KVP              float64
	RescaleIntercept float64
	RescaleSlope     float64

	PixelSpacing         float64
	SliceThickness       float64
	SpacingBetweenSlices float64
}

// PixelConfig holds pixel data configuration for a modality.
type PixelConfig struct {
	BitsAllocated       uint16
	BitsStored          uint16
	HighBit             uint16
	PixelRepresentation uint16 // 0 = unsigned, 1 = signed
	MinValue            int
	MaxValue            int
	BaseValue           int
}

// Generator defines the interface for modality-specific parameters.
type Generator interface {
	Modality() Modality
	SOPClassUID() string
	Scanners() []Scanner
	GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams
	PixelConfig() PixelConfig
	// AppendModalityElements appends modality-specific elements to a dataset.
	AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error
}

// GetGenerator returns the generator for the specified modality, MR when
// the modality is unknown.
func GetGenerator(m Modality) Generator {
	switch m {
	case CT:
		return &CTGenerator{}
	case US:
		return &USGenerator{}
	default:
		return &MRGenerator{}
	}
}

// appendDS appends decimal string elements for every non-zero value.
func appendDS(ds *dicom.Dataset, values map[tag.Tag]float64) error {
	for t, v := range values {
		if v == 0 {
			continue
		}
		elem, err := dicom.NewElement(t, []string{fmt.Sprintf("%.6g", v)})
		if err != nil {
			return fmt.Errorf("element %v: %w", t, err)
		}
		ds.Elements = append(ds.Elements, elem)
	}
	return nil
}
