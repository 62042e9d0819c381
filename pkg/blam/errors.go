package blam

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds reports a mandatory field whose offset or length falls
	// outside its window.
	ErrOutOfBounds = errors.New("blam: out of bounds")
	// ErrMissingBackingFile reports a normalized offset addressing a data
	// file that was not supplied to the loader.
	ErrMissingBackingFile = errors.New("blam: missing backing file")
	// ErrTypeMismatch reports a tag reference whose target has a different
	// label than the one expected.
	ErrTypeMismatch = errors.New("blam: type mismatch")
	// ErrNotFound reports a tag identifier with no matching index entry.
	ErrNotFound     = errors.New("blam: tag not found")
	ErrDuplicateTag = errors.New("blam: duplicate tag id")
	ErrUnknownLabel = errors.New("blam: no layout registered for label")
)

// Reason codes reported in diagnostics.
const (
	ReasonOutOfBounds        = "out_of_bounds"
	ReasonMissingBackingFile = "missing_backing_file"
	ReasonTypeMismatch       = "type_mismatch"
	ReasonNotFound           = "not_found"
	ReasonUnknown            = "unknown"
)

// ReasonOf maps an error to its diagnostic reason code.
func ReasonOf(err error) string {
	switch {
	case errors.Is(err, ErrOutOfBounds):
		return ReasonOutOfBounds
	case errors.Is(err, ErrMissingBackingFile):
		return ReasonMissingBackingFile
	case errors.Is(err, ErrTypeMismatch):
		return ReasonTypeMismatch
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	default:
		return ReasonUnknown
	}
}

// FieldError is a structural failure while materializing one tag.
type FieldError struct {
	ID     TagID
	Label  Label
	Field  string
	Offset int
	Length int
	Window int
	Err    error
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Reason() string {
	return ReasonOf(e.Err)
}

func (e *FieldError) Error() string {
	where := fmt.Sprintf("tag %s (%s) field %s", e.ID, e.Label, e.Field)
	if e.Length > 0 || e.Window > 0 {
		return fmt.Sprintf("%s: offset %d length %d window %d: %v", where, e.Offset, e.Length, e.Window, e.Err)
	}
	return fmt.Sprintf("%s: offset %d: %v", where, e.Offset, e.Err)
}

// RefError reports a failed tag reference resolution.
type RefError struct {
	ID     TagID
	Expect Label
	Actual Label
	Err    error
}

func (e *RefError) Unwrap() error {
	return e.Err
}

func (e *RefError) Error() string {
	if errors.Is(e.Err, ErrTypeMismatch) {
		return fmt.Sprintf("tag %s: expected %s, found %s: %v", e.ID, e.Expect, e.Actual, e.Err)
	}
	return fmt.Sprintf("tag %s: %v", e.ID, e.Err)
}
