package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
)

// USGenerator describes 8-bit ultrasound sweeps stacked as parallel planes.
type USGenerator struct{}

func (g *USGenerator) Modality() Modality { return US }

// SOPClassUID returns the Ultrasound Image Storage SOP Class UID.
func (g *USGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.6.1"
}

func (g *USGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "GE HEALTHCARE", Model: "LOGIQ E10"},
		{Manufacturer: "PHILIPS", Model: "EPIQ 7"},
	}
}

func (g *USGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	params := SeriesParams{
		Modality:       US,
		Scanner:        scanner,
		PixelSpacing:   0.1 + rng.Float64()*0.2, // 0.1-0.3 mm
		SliceThickness: 0.5 + rng.Float64()*0.5,
		WindowCenter:   128,
		WindowWidth:    256,
	}
	params.SpacingBetweenSlices = params.SliceThickness
	return params
}

// PixelConfig returns full-range 8-bit samples.
func (g *USGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated: 8,
		BitsStored:    8,
		HighBit:       7,
		MinValue:      0,
		MaxValue:      255,
		BaseValue:     64,
	}
}

func (g *USGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	return nil
}
