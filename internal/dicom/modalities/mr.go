package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MRGenerator describes MR acquisitions.
type MRGenerator struct{}

func (g *MRGenerator) Modality() Modality { return MR }

// SOPClassUID returns the MR Image Storage SOP Class UID.
func (g *MRGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.4"
}

func (g *MRGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "SIEMENS", Model: "Skyra"},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Discovery MR750"},
		{Manufacturer: "PHILIPS", Model: "Ingenia"},
	}
}

func (g *MRGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	params := SeriesParams{
		Modality:       MR,
		Scanner:        scanner,
		PixelSpacing:   0.5 + rng.Float64()*1.5,     // 0.5-2.0 mm
		SliceThickness: 1.0 + rng.Float64()*4.0,     // 1.0-5.0 mm
		EchoTime:       10.0 + rng.Float64()*20.0,   // 10-30 ms
		RepetitionTime: 400.0 + rng.Float64()*400.0, // 400-800 ms
		WindowCenter:   500.0 + rng.Float64()*1000.0,
		WindowWidth:    1000.0 + rng.Float64()*1000.0,
	}
	params.SpacingBetweenSlices = params.SliceThickness + rng.Float64()*0.5
	return params
}

// PixelConfig returns 12-bit unsigned samples in 16-bit containers.
func (g *MRGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated: 16,
		BitsStored:    12,
		HighBit:       11,
		MinValue:      0,
		MaxValue:      4095,
		BaseValue:     2048,
	}
}

func (g *MRGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	return appendDS(ds, map[tag.Tag]float64{
		tag.EchoTime:       params.EchoTime,
		tag.RepetitionTime: params.RepetitionTime,
	})
}
