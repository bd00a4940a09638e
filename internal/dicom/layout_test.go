package dicom

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrsinham/dicomraw/internal/volume"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestOrganizeHierarchy(t *testing.T) {
	dir := t.TempDir()
	files := generateForTest(t, SynthOptions{NumSlices: 4, OutputDir: dir, Seed: 8, Shuffle: true})

	moved, err := OrganizeHierarchy(dir, files)
	if err != nil {
		t.Fatalf("OrganizeHierarchy failed: %v", err)
	}
	for i, f := range moved {
		if !strings.Contains(f.Path, filepath.Join("PT000000", "ST000000", "SE000000", "IM")) {
			t.Errorf("file %d not moved into hierarchy: %s", i, f.Path)
		}
		if f.InstanceNumber != files[i].InstanceNumber {
			t.Errorf("file %d lost its instance number", i)
		}
	}

	paths, err := ListSliceFiles(dir)
	if err != nil {
		t.Fatalf("ListSliceFiles failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("listed %d files, want 4", len(paths))
	}
	records, err := LoadSlices[uint16](context.Background(), paths, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadSlices failed: %v", err)
	}
	res, err := volume.Build(records, volume.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for k, rec := range res.Ordered {
		if rec.ID != moved[k].Path {
			t.Errorf("ordered slice %d = %s, want %s", k, rec.ID, moved[k].Path)
		}
	}
}

func TestOrganizeHierarchy_DICOMDIR(t *testing.T) {
	dir := t.TempDir()
	files := generateForTest(t, SynthOptions{NumSlices: 3, OutputDir: dir, Seed: 15, Modality: "CT"})
	if _, err := OrganizeHierarchy(dir, files); err != nil {
		t.Fatalf("OrganizeHierarchy failed: %v", err)
	}

	ds, err := dicom.ParseFile(filepath.Join(dir, "DICOMDIR"), nil)
	if err != nil {
		t.Fatalf("parse DICOMDIR: %v", err)
	}
	if got := stringValue(ds, tag.MediaStorageSOPClassUID); got != dicomdirSOPClassUID {
		t.Errorf("MediaStorageSOPClassUID = %q, want %q", got, dicomdirSOPClassUID)
	}
	seq, err := ds.FindElementByTag(tag.DirectoryRecordSequence)
	if err != nil {
		t.Fatalf("DirectoryRecordSequence missing: %v", err)
	}
	items, ok := seq.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		t.Fatalf("DirectoryRecordSequence value is %T", seq.Value.GetValue())
	}

	want := []string{"PATIENT", "STUDY", "SERIES", "IMAGE", "IMAGE", "IMAGE"}
	if len(items) != len(want) {
		t.Fatalf("got %d directory records, want %d", len(items), len(want))
	}
	for i, item := range items {
		record := dicom.Dataset{Elements: item.GetValue().([]*dicom.Element)}
		if got := stringValue(record, tag.DirectoryRecordType); got != want[i] {
			t.Errorf("record %d type = %q, want %q", i, got, want[i])
		}
	}
	image := dicom.Dataset{Elements: items[3].GetValue().([]*dicom.Element)}
	fileID, err := image.FindElementByTag(tag.ReferencedFileID)
	if err != nil {
		t.Fatalf("ReferencedFileID missing: %v", err)
	}
	ids, ok := fileID.Value.GetValue().([]string)
	if !ok {
		t.Fatalf("ReferencedFileID value is %T", fileID.Value.GetValue())
	}
	var parts []string
	for _, part := range ids {
		parts = append(parts, strings.TrimSpace(part))
	}
	if got := strings.Join(parts, "/"); got != "PT000000/ST000000/SE000000/IM000001" {
		t.Errorf("ReferencedFileID = %q", got)
	}
	if got := stringValue(image, tag.ReferencedSOPInstanceUIDInFile); got != files[0].SOPInstanceUID {
		t.Errorf("first image references %q, want %q", got, files[0].SOPInstanceUID)
	}

	paths, err := ListSliceFiles(dir)
	if err != nil {
		t.Fatalf("ListSliceFiles failed: %v", err)
	}
	for _, p := range paths {
		if filepath.Base(p) == "DICOMDIR" {
			t.Errorf("DICOMDIR listed as a slice: %s", p)
		}
	}
	if len(paths) != 3 {
		t.Errorf("listed %d files, want 3", len(paths))
	}
}

func TestOrganizeHierarchy_MixedSeries(t *testing.T) {
	files := []GeneratedFile{{Path: "a", SeriesUID: "1.2"}, {Path: "b", SeriesUID: "1.3"}}
	if _, err := OrganizeHierarchy(t.TempDir(), files); err == nil {
		t.Error("expected error for files of two series")
	}
}

func TestOrganizeHierarchy_Empty(t *testing.T) {
	if _, err := OrganizeHierarchy(t.TempDir(), nil); err == nil {
		t.Error("expected error for no files")
	}
}
