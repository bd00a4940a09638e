package edgecases

import "math/rand/v2"

// GeometryTags lists the attributes slice ordering and scaling depend on.
var GeometryTags = []string{
	"ImageOrientationPatient",
	"ImagePositionPatient",
	"PixelSpacing",
}

// OptionalTags lists the tags MissingTags may drop. The pixel description
// tags are never dropped since the pixel data could not be written without
// them.
var OptionalTags = []string{
	"ImageOrientationPatient",
	"ImagePositionPatient",
	"PixelSpacing",
	"SliceThickness",
	"SpacingBetweenSlices",
	"SliceLocation",
	"InstanceNumber",
}

// SelectTagsToOmit randomly selects count geometry tags to omit
func SelectTagsToOmit(rng *rand.Rand, count int) []string {
	if count >= len(GeometryTags) {
		return append([]string(nil), GeometryTags...)
	}
	// Fisher-Yates shuffle and take first count
	indices := make([]int, len(GeometryTags))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	result := make([]string, count)
	for i := 0; i < count; i++ {
		result[i] = GeometryTags[indices[i]]
	}
	return result
}
