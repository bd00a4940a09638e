package util

import (
	"strings"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestGetTagByName_Valid(t *testing.T) {
	tests := []struct {
		name          string
		expectedTag   tag.Tag
		expectedScope TagScope
	}{
		{"PatientName", tag.PatientName, ScopePatient},
		{"StudyInstanceUID", tag.StudyInstanceUID, ScopeStudy},
		{"SeriesInstanceUID", tag.SeriesInstanceUID, ScopeSeries},
		{"ImageOrientationPatient", tag.ImageOrientationPatient, ScopeSeries},
		{"PixelSpacing", tag.PixelSpacing, ScopeSeries},
		{"SliceThickness", tag.SliceThickness, ScopeSeries},
		{"BitsAllocated", tag.BitsAllocated, ScopeSeries},
		{"BitsStored", tag.BitsStored, ScopeSeries},
		{"HighBit", tag.HighBit, ScopeSeries},
		{"ImagePositionPatient", tag.ImagePositionPatient, ScopeImage},
		{"InstanceNumber", tag.InstanceNumber, ScopeImage},
		{"SliceLocation", tag.SliceLocation, ScopeImage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := GetTagByName(tc.name)
			if err != nil {
				t.Fatalf("GetTagByName(%q) returned error: %v", tc.name, err)
			}
			if info.Tag != tc.expectedTag {
				t.Errorf("GetTagByName(%q).Tag = %v, want %v", tc.name, info.Tag, tc.expectedTag)
			}
			if info.Scope != tc.expectedScope {
				t.Errorf("GetTagByName(%q).Scope = %v, want %v", tc.name, info.Scope, tc.expectedScope)
			}
			if info.Name != tc.name {
				t.Errorf("GetTagByName(%q).Name = %q, want %q", tc.name, info.Name, tc.name)
			}
		})
	}
}

func TestGetTagByName_Invalid(t *testing.T) {
	for _, name := range []string{"InvalidTagName", "NotATag", "", "   "} {
		t.Run(name, func(t *testing.T) {
			if _, err := GetTagByName(name); err == nil {
				t.Errorf("GetTagByName(%q) should return error for invalid tag", name)
			}
		})
	}
}

func TestGetTagByName_Suggestion(t *testing.T) {
	tests := []struct {
		typo       string
		suggestion string
	}{
		{"SliceThicknes", "SliceThickness"},
		{"PixelSpacng", "PixelSpacing"},
		{"ImagePositonPatient", "ImagePositionPatient"},
		{"ImageOrientationPatinet", "ImageOrientationPatient"},
		{"BitsAlocated", "BitsAllocated"},
		{"WindowCentre", "WindowCenter"},
	}

	for _, tc := range tests {
		t.Run(tc.typo, func(t *testing.T) {
			_, err := GetTagByName(tc.typo)
			if err == nil {
				t.Fatalf("GetTagByName(%q) should return error", tc.typo)
			}
			if !strings.Contains(err.Error(), tc.suggestion) {
				t.Errorf("Error for %q should suggest %q, got: %v", tc.typo, tc.suggestion, err)
			}
		})
	}
}

func TestGetTagByName_CaseInsensitive(t *testing.T) {
	for _, input := range []string{"slicethickness", "SLICETHICKNESS", " SliceThickness "} {
		info, err := GetTagByName(input)
		if err != nil {
			t.Fatalf("GetTagByName(%q) returned error: %v", input, err)
		}
		if info.Name != "SliceThickness" {
			t.Errorf("GetTagByName(%q).Name = %q, want SliceThickness", input, info.Name)
		}
	}
}

func TestParseTagNames(t *testing.T) {
	names, err := ParseTagNames("pixelspacing, SliceThickness,ROWS")
	if err != nil {
		t.Fatalf("ParseTagNames returned error: %v", err)
	}
	want := []string{"PixelSpacing", "SliceThickness", "Rows"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("ParseTagNames = %v, want %v", names, want)
	}

	if names, err := ParseTagNames(""); err != nil || names != nil {
		t.Errorf("ParseTagNames(\"\") = %v, %v; want nil, nil", names, err)
	}
	if _, err := ParseTagNames("Rows,Nope"); err == nil {
		t.Error("ParseTagNames with unknown tag should fail")
	}
}

func TestTagNames_Sorted(t *testing.T) {
	names := TagNames()
	if len(names) != len(tagRegistry) {
		t.Fatalf("TagNames returned %d names, registry has %d", len(names), len(tagRegistry))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("TagNames not sorted at %d: %q > %q", i, names[i-1], names[i])
		}
	}
}

func TestTagScope_String(t *testing.T) {
	tests := []struct {
		scope    TagScope
		expected string
	}{
		{ScopePatient, "Patient"},
		{ScopeStudy, "Study"},
		{ScopeSeries, "Series"},
		{ScopeImage, "Image"},
		{TagScope(42), "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if tc.scope.String() != tc.expected {
				t.Errorf("TagScope.String() = %q, want %q", tc.scope.String(), tc.expected)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"SliceThickness", "SliceThicknes", 1},
	}

	for _, tc := range tests {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			if got := levenshteinDistance(tc.a, tc.b); got != tc.expected {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}
