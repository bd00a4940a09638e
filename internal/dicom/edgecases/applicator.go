package edgecases

import "math/rand/v2"

// Applicator decides which slices of a series get which defect
type Applicator struct {
	config Config
	rng    *rand.Rand
}

// NewApplicator creates a new edge case applicator
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng}
}

// ShouldApply returns true if a defect should apply to the next slice
func (a *Applicator) ShouldApply() bool {
	return a.rng.IntN(100) < a.config.Percentage
}

// SelectEdgeCaseType randomly selects which edge case type to apply
func (a *Applicator) SelectEdgeCaseType() EdgeCaseType {
	return a.config.Types[a.rng.IntN(len(a.config.Types))]
}

// Plan returns the defect of every slice of a series, in spatial order, with
// "" for an intact slice. The first slice is always intact so the series
// keeps a reference; when edge cases are enabled and there are at least two
// slices, at least one slice is altered. A disabled config draws nothing
// from the random source.
func (a *Applicator) Plan(numSlices int) []EdgeCaseType {
	plan := make([]EdgeCaseType, numSlices)
	if !a.config.IsEnabled() || numSlices < 2 {
		return plan
	}
	applied := false
	for k := 1; k < numSlices; k++ {
		if a.ShouldApply() {
			plan[k] = a.SelectEdgeCaseType()
			applied = true
		}
	}
	if !applied {
		plan[1+a.rng.IntN(numSlices-1)] = a.SelectEdgeCaseType()
	}
	return plan
}

// GetTagsToOmit returns the tags a MissingTags slice drops
func (a *Applicator) GetTagsToOmit() []string {
	if !a.config.HasType(MissingTags) {
		return nil
	}
	if len(a.config.OmitTags) > 0 {
		return a.config.OmitTags
	}
	count := 1 + a.rng.IntN(len(GeometryTags))
	return SelectTagsToOmit(a.rng, count)
}
