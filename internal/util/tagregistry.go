// Package util provides parsing and lookup helpers shared by the dicomraw
// commands.
package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagScope represents the DICOM hierarchy level a tag describes.
type TagScope int

const (
	// ScopePatient indicates tags shared by every image of a patient.
	ScopePatient TagScope = iota
	// ScopeStudy indicates tags shared within a study.
	ScopeStudy
	// ScopeSeries indicates tags shared within a series.
	ScopeSeries
	// ScopeImage indicates tags that vary per image.
	ScopeImage
)

// String returns the string representation of a TagScope.
func (s TagScope) String() string {
	switch s {
	case ScopePatient:
		return "Patient"
	case ScopeStudy:
		return "Study"
	case ScopeSeries:
		return "Series"
	case ScopeImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// TagInfo describes a tag that can be requested in a header dump.
type TagInfo struct {
	Name  string
	Tag   tag.Tag
	Scope TagScope
}

// tagRegistry maps lowercase tag names to their TagInfo.
var tagRegistry = map[string]TagInfo{
	"patientname": {Name: "PatientName", Tag: tag.PatientName, Scope: ScopePatient},
	"patientid":   {Name: "PatientID", Tag: tag.PatientID, Scope: ScopePatient},

	"studyinstanceuid": {Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID, Scope: ScopeStudy},
	"studydescription": {Name: "StudyDescription", Tag: tag.StudyDescription, Scope: ScopeStudy},
	"studydate":        {Name: "StudyDate", Tag: tag.StudyDate, Scope: ScopeStudy},

	"seriesinstanceuid":       {Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID, Scope: ScopeSeries},
	"seriesnumber":            {Name: "SeriesNumber", Tag: tag.SeriesNumber, Scope: ScopeSeries},
	"seriesdescription":       {Name: "SeriesDescription", Tag: tag.SeriesDescription, Scope: ScopeSeries},
	"modality":                {Name: "Modality", Tag: tag.Modality, Scope: ScopeSeries},
	"manufacturer":            {Name: "Manufacturer", Tag: tag.Manufacturer, Scope: ScopeSeries},
	"frameofreferenceuid":     {Name: "FrameOfReferenceUID", Tag: tag.FrameOfReferenceUID, Scope: ScopeSeries},
	"imageorientationpatient": {Name: "ImageOrientationPatient", Tag: tag.ImageOrientationPatient, Scope: ScopeSeries},
	"pixelspacing":            {Name: "PixelSpacing", Tag: tag.PixelSpacing, Scope: ScopeSeries},
	"slicethickness":          {Name: "SliceThickness", Tag: tag.SliceThickness, Scope: ScopeSeries},
	"spacingbetweenslices":    {Name: "SpacingBetweenSlices", Tag: tag.SpacingBetweenSlices, Scope: ScopeSeries},
	"rows":                    {Name: "Rows", Tag: tag.Rows, Scope: ScopeSeries},
	"columns":                 {Name: "Columns", Tag: tag.Columns, Scope: ScopeSeries},
	"bitsallocated":           {Name: "BitsAllocated", Tag: tag.BitsAllocated, Scope: ScopeSeries},
	"bitsstored":              {Name: "BitsStored", Tag: tag.BitsStored, Scope: ScopeSeries},
	"highbit":                 {Name: "HighBit", Tag: tag.HighBit, Scope: ScopeSeries},
	"pixelrepresentation":     {Name: "PixelRepresentation", Tag: tag.PixelRepresentation, Scope: ScopeSeries},

	"sopinstanceuid":       {Name: "SOPInstanceUID", Tag: tag.SOPInstanceUID, Scope: ScopeImage},
	"instancenumber":       {Name: "InstanceNumber", Tag: tag.InstanceNumber, Scope: ScopeImage},
	"imagepositionpatient": {Name: "ImagePositionPatient", Tag: tag.ImagePositionPatient, Scope: ScopeImage},
	"slicelocation":        {Name: "SliceLocation", Tag: tag.SliceLocation, Scope: ScopeImage},
	"windowcenter":         {Name: "WindowCenter", Tag: tag.WindowCenter, Scope: ScopeImage},
	"windowwidth":          {Name: "WindowWidth", Tag: tag.WindowWidth, Scope: ScopeImage},
}

// GetTagByName returns TagInfo for a given tag name.
// The lookup is case-insensitive. Unknown names produce an error that
// suggests the closest registered name when one is near enough.
func GetTagByName(name string) (TagInfo, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if info, ok := tagRegistry[normalized]; ok {
		return info, nil
	}

	if suggestion := closestTagName(normalized); suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
	}
	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// ParseTagNames splits a comma-separated list of tag names and validates
// each against the registry.
func ParseTagNames(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var names []string
	for _, part := range strings.Split(list, ",") {
		info, err := GetTagByName(part)
		if err != nil {
			return nil, err
		}
		names = append(names, info.Name)
	}
	return names, nil
}

// TagNames returns the registered tag names in alphabetical order.
func TagNames() []string {
	names := make([]string, 0, len(tagRegistry))
	for _, info := range tagRegistry {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}

// closestTagName returns the registered name nearest to input, or "" when
// every name is more than five edits away. Keys are scanned in sorted order
// so ties resolve the same way every run.
func closestTagName(input string) string {
	const maxDistance = 5

	keys := make([]string, 0, len(tagRegistry))
	for k := range tagRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestDistance := "", maxDistance+1
	for _, k := range keys {
		if d := levenshteinDistance(input, k); d < bestDistance {
			best, bestDistance = tagRegistry[k].Name, d
		}
	}
	return best
}

// levenshteinDistance is the minimum number of single-character insertions,
// deletions or substitutions turning a into b.
func levenshteinDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
