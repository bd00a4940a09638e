package volume

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingMetadata reports absent or malformed geometry attributes.
	ErrMissingMetadata = errors.New("missing metadata")
	// ErrShapeMismatch reports pixel grids of differing dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInsufficientData reports an empty set, or a single slice when
	// thickness must be derived.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrIndexOutOfRange reports a selection range outside the ordered sequence.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrMismatchedOrientation reports a slice whose orientation differs from
	// the reference slice.
	ErrMismatchedOrientation = errors.New("mismatched orientation")
	// ErrVolumeTooLarge reports a volume exceeding the configured size limit.
	ErrVolumeTooLarge = errors.New("volume too large")
)

// Stage names used in StageError.
const (
	StageOrientation = "orientation"
	StageOrder       = "order"
	StageAssemble    = "assemble"
)

// StageError names the pipeline stage and, when known, the record that failed.
type StageError struct {
	Stage  string
	Record string
	Err    error
}

func (e *StageError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("%s: record %s: %v", e.Stage, e.Record, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage, record string, err error) error {
	return &StageError{Stage: stage, Record: record, Err: err}
}
