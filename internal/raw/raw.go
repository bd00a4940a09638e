// Package raw writes assembled volumes as headerless little-endian sample
// files with an optional YAML description alongside.
package raw

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrsinham/dicomraw/internal/volume"
)

// ByteOrder is the byte order of every raw file written by this package.
var ByteOrder binary.ByteOrder = binary.LittleEndian

// WriteVolume writes the samples of v to path, slice after slice, each slice
// row-major. The file is written to a temporary name in the same directory
// and renamed into place, so a failed run leaves no partial output.
func WriteVolume[T volume.Sample](path string, v *volume.Volume[T]) (err error) {
	if v == nil {
		return errors.New("nil volume")
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriterSize(tmp, 1<<20)
	if err = Encode(w, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Encode writes the samples of v to w in the raw layout.
func Encode[T volume.Sample](w io.Writer, v *volume.Volume[T]) error {
	return binary.Write(w, ByteOrder, v.Data)
}

// Decode reads a raw volume of the given shape (rows, cols, slices).
func Decode[T volume.Sample](r io.Reader, shape [3]int) (*volume.Volume[T], error) {
	n := shape[0] * shape[1] * shape[2]
	if n <= 0 {
		return nil, fmt.Errorf("invalid shape %v", shape)
	}
	data := make([]T, n)
	if err := binary.Read(r, ByteOrder, data); err != nil {
		return nil, fmt.Errorf("read %d samples: %w", n, err)
	}
	return &volume.Volume[T]{Rows: shape[0], Cols: shape[1], Slices: shape[2], Data: data}, nil
}

// ReadVolume reads a raw file written by WriteVolume.
func ReadVolume[T volume.Sample](path string, shape [3]int) (*volume.Volume[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode[T](bufio.NewReader(f), shape)
}
