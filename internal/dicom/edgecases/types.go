// Package edgecases injects geometry defects into synthetic series so that
// the converter's failure paths can be reached through real files.
package edgecases

import (
	"fmt"
	"slices"
	"strings"
)

// EdgeCaseType represents a category of geometry defect
type EdgeCaseType string

const (
	// MissingTags drops geometry attributes from a slice.
	MissingTags EdgeCaseType = "missing-tags"
	// DuplicatePositions places a slice at its predecessor's position.
	DuplicatePositions EdgeCaseType = "duplicate-positions"
	// MixedSizes gives a slice one extra row.
	MixedSizes EdgeCaseType = "mixed-sizes"
	// TiltedSlices rotates a slice's column direction about its row direction.
	TiltedSlices EdgeCaseType = "tilted-slices"
)

// TiltDegrees is the rotation applied to a TiltedSlices slice.
const TiltDegrees = 2.0

// AllEdgeCaseTypes returns all valid edge case types
func AllEdgeCaseTypes() []EdgeCaseType {
	return []EdgeCaseType{MissingTags, DuplicatePositions, MixedSizes, TiltedSlices}
}

// Config holds edge case generation settings
type Config struct {
	Percentage int            // 0-100, share of slices after the first that get a defect
	Types      []EdgeCaseType // Which edge case types to enable
	// OmitTags names the tags MissingTags drops. When empty, a random
	// subset of GeometryTags is dropped per slice.
	OmitTags []string
}

// ParseTypes parses comma-separated edge case types
func ParseTypes(input string) ([]EdgeCaseType, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	parts := strings.Split(input, ",")
	result := make([]EdgeCaseType, 0, len(parts))
	for _, p := range parts {
		t := EdgeCaseType(strings.ToLower(strings.TrimSpace(p)))
		if !slices.Contains(AllEdgeCaseTypes(), t) {
			return nil, fmt.Errorf("unknown edge case type %q, valid types: %v", p, AllEdgeCaseTypes())
		}
		result = append(result, t)
	}
	return result, nil
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	if c.Percentage < 0 || c.Percentage > 100 {
		return fmt.Errorf("edge-cases percentage must be 0-100, got %d", c.Percentage)
	}
	if c.Percentage > 0 && len(c.Types) == 0 {
		return fmt.Errorf("edge-cases enabled but no types specified")
	}
	for _, name := range c.OmitTags {
		if !slices.Contains(OptionalTags, name) {
			return fmt.Errorf("tag %s cannot be omitted, choose from %v", name, OptionalTags)
		}
	}
	return nil
}

// IsEnabled returns true if edge cases are enabled
func (c *Config) IsEnabled() bool {
	return c.Percentage > 0 && len(c.Types) > 0
}

// HasType checks if a specific edge case type is enabled
func (c *Config) HasType(t EdgeCaseType) bool {
	return slices.Contains(c.Types, t)
}
