package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// CTGenerator describes CT acquisitions.
type CTGenerator struct{}

func (g *CTGenerator) Modality() Modality { return CT }

// SOPClassUID returns the CT Image Storage SOP Class UID.
func (g *CTGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.2"
}

func (g *CTGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "SIEMENS", Model: "SOMATOM Force"},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Revolution CT"},
		{Manufacturer: "CANON", Model: "Aquilion ONE"},
	}
}

func (g *CTGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	kvpOptions := []float64{80, 100, 120, 140}
	params := SeriesParams{
		Modality:         CT,
		Scanner:          scanner,
		PixelSpacing:     0.5 + rng.Float64()*0.5, // 0.5-1.0 mm
		SliceThickness:   0.5 + rng.Float64()*2.5, // 0.5-3.0 mm
		KVP:              kvpOptions[rng.IntN(len(kvpOptions))],
		RescaleIntercept: -1024,
		RescaleSlope:     1,
		WindowCenter:     40,
		WindowWidth:      400,
	}
	params.SpacingBetweenSlices = params.SliceThickness
	return params
}

// PixelConfig returns 16-bit stored values, water at 1024 before rescale.
func (g *CTGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated: 16,
		BitsStored:    16,
		HighBit:       15,
		MinValue:      0,
		MaxValue:      4095,
		BaseValue:     1024,
	}
}

func (g *CTGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	return appendDS(ds, map[tag.Tag]float64{
		tag.KVP:              params.KVP,
		tag.RescaleIntercept: params.RescaleIntercept,
		tag.RescaleSlope:     params.RescaleSlope,
	})
}
