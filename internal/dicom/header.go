package dicom

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mrsinham/dicomraw/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ReadHeader parses a DICOM file element-by-element without its pixel data,
// tolerating errors in trailing elements. It returns what could be parsed,
// including the file meta elements.
func ReadHeader(path string) (dicom.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return dicom.Dataset{}, err
	}

	p, err := dicom.NewParser(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("parse header %s: %w", path, err)
	}

	var elements []*dicom.Element
	for {
		elem, err := p.Next()
		if err != nil {
			// io.EOF or a malformed element: keep what we have
			break
		}
		elements = append(elements, elem)
	}

	if len(elements) == 0 {
		return dicom.Dataset{}, fmt.Errorf("parse header %s: no elements parsed", path)
	}

	meta := p.GetMetadata()
	return dicom.Dataset{Elements: append(meta.Elements, elements...)}, nil
}

// ProbeBitsAllocated reads BitsAllocated from a file header.
func ProbeBitsAllocated(path string) (int, error) {
	ds, err := ReadHeader(path)
	if err != nil {
		return 0, err
	}
	bits, ok := intValue(ds, tag.BitsAllocated)
	if !ok {
		return 0, fmt.Errorf("%s: BitsAllocated: %w", path, ErrUnsupportedPixelData)
	}
	return bits, nil
}

// DumpHeader writes the header elements of path to w. When names is not
// empty only those tags are written, looked up in the tag registry.
func DumpHeader(w io.Writer, path string, names []string) error {
	ds, err := ReadHeader(path)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		for _, elem := range ds.Elements {
			if _, err := fmt.Fprintln(w, elem.String()); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range names {
		info, err := util.GetTagByName(name)
		if err != nil {
			return err
		}
		value := "<absent>"
		if elem, err := ds.FindElementByTag(info.Tag); err == nil && elem != nil {
			value = strings.Trim(elem.Value.String(), " []")
		}
		if _, err := fmt.Fprintf(w, "%-28s %s\n", info.Name+":", value); err != nil {
			return err
		}
	}
	return nil
}

// stringValues returns the string values of a tag, or nil when absent or
// not string valued.
func stringValues(ds dicom.Dataset, t tag.Tag) []string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return nil
	}
	vals, ok := elem.Value.GetValue().([]string)
	if !ok {
		return nil
	}
	return vals
}

func stringValue(ds dicom.Dataset, t tag.Tag) string {
	vals := stringValues(ds, t)
	if len(vals) == 0 {
		return ""
	}
	return strings.Trim(vals[0], " \x00")
}

// floatValues parses a decimal string attribute. ok is false when the tag is
// absent or any component fails to parse.
func floatValues(ds dicom.Dataset, t tag.Tag) ([]float64, bool) {
	vals := stringValues(ds, t)
	if len(vals) == 0 {
		return nil, false
	}
	out := make([]float64, len(vals))
	for i, s := range vals {
		f, err := strconv.ParseFloat(strings.Trim(s, " \x00"), 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// intValue reads an unsigned short attribute, falling back to an integer
// string.
func intValue(ds dicom.Dataset, t tag.Tag) (int, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return 0, false
	}
	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			i, err := strconv.Atoi(strings.Trim(v[0], " \x00"))
			if err == nil {
				return i, true
			}
		}
	}
	return 0, false
}
