package dicom

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrsinham/dicomraw/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Media Storage Directory Storage
const dicomdirSOPClassUID = "1.2.840.10008.1.3.10"

// OrganizeHierarchy moves a generated series into the PT000000/ST000000/
// SE000000 directory layout used by removable media, naming files
// IM000001, IM000002, ... in the order of their current names, and indexes
// them in a DICOMDIR at outputDir. The returned files carry the new paths,
// in the input order.
func OrganizeHierarchy(outputDir string, files []GeneratedFile) ([]GeneratedFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to organize")
	}
	for _, f := range files[1:] {
		if f.SeriesUID != files[0].SeriesUID {
			return nil, fmt.Errorf("files span series %s and %s, one series per hierarchy", files[0].SeriesUID, f.SeriesUID)
		}
	}

	seriesPath := filepath.Join(outputDir, "PT000000", "ST000000", "SE000000")
	if err := os.MkdirAll(seriesPath, 0o755); err != nil {
		return nil, fmt.Errorf("create series directory: %w", err)
	}

	byName := make([]int, len(files))
	for i := range byName {
		byName[i] = i
	}
	sort.Slice(byName, func(a, b int) bool {
		return files[byName[a]].Path < files[byName[b]].Path
	})

	moved := make([]GeneratedFile, len(files))
	copy(moved, files)
	images := make([]GeneratedFile, 0, len(files))
	for imageIdx, i := range byName {
		destPath := filepath.Join(seriesPath, fmt.Sprintf("IM%06d", imageIdx+1))
		if err := os.Rename(files[i].Path, destPath); err != nil {
			return nil, fmt.Errorf("move file %s to %s: %w", files[i].Path, destPath, err)
		}
		moved[i].Path = destPath
		images = append(images, moved[i])
	}

	if err := writeDICOMDIR(outputDir, images); err != nil {
		return nil, err
	}
	return moved, nil
}

// writeDICOMDIR writes the PATIENT, STUDY, SERIES and IMAGE records of one
// series, images in the given order. Record offsets are left at zero; the
// slice loader walks the directory tree and never follows them.
func writeDICOMDIR(outputDir string, images []GeneratedFile) error {
	first := images[0]
	records := [][]*dicom.Element{
		directoryRecord("PATIENT",
			mustNewElement(tag.PatientID, []string{first.PatientID}),
			mustNewElement(tag.PatientName, []string{"SYNTHETIC^PHANTOM"}),
		),
		directoryRecord("STUDY",
			mustNewElement(tag.StudyInstanceUID, []string{first.StudyUID}),
		),
		directoryRecord("SERIES",
			mustNewElement(tag.Modality, []string{first.Modality}),
			mustNewElement(tag.SeriesInstanceUID, []string{first.SeriesUID}),
			mustNewElement(tag.SeriesNumber, []string{"1"}),
		),
	}
	for _, img := range images {
		relPath, err := filepath.Rel(outputDir, img.Path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", img.Path, err)
		}
		records = append(records, directoryRecord("IMAGE",
			mustNewElement(tag.ReferencedFileID, strings.Split(filepath.ToSlash(relPath), "/")),
			mustNewElement(tag.ReferencedSOPClassUIDInFile, []string{img.SOPClassUID}),
			mustNewElement(tag.ReferencedSOPInstanceUIDInFile, []string{img.SOPInstanceUID}),
			mustNewElement(tag.ReferencedTransferSyntaxUIDInFile, []string{"1.2.840.10008.1.2.1"}),
			mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", img.InstanceNumber)}),
		))
	}

	filesetID := filepath.Base(outputDir)
	if len(filesetID) > 16 {
		filesetID = filesetID[:16]
	}
	seq, err := dicom.NewElement(tag.DirectoryRecordSequence, records)
	if err != nil {
		return fmt.Errorf("create directory record sequence: %w", err)
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{dicomdirSOPClassUID}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{util.NewUID()}),
		mustNewElement(tag.FileSetID, []string{filesetID}),
		mustNewElement(tag.OffsetOfTheFirstDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.OffsetOfTheLastDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.FileSetConsistencyFlag, []int{0}),
		seq,
	}}

	if err := writeDatasetToFile(filepath.Join(outputDir, "DICOMDIR"), ds); err != nil {
		return fmt.Errorf("write DICOMDIR: %w", err)
	}
	return nil
}

func directoryRecord(recordType string, elements ...*dicom.Element) []*dicom.Element {
	return append([]*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{recordType}),
	}, elements...)
}
