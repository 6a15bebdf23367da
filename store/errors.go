package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a single-record lookup matches nothing.
	ErrNotFound = errors.New("docket: entity not found")

	// ErrNotUnique is returned when a lookup that assumes a unique field matched
	// more than one document. This signals corrupted data or a caller querying
	// a field that is not actually unique.
	ErrNotUnique = errors.New("docket: query was not unique")

	// ErrMapping is returned when a document cannot be converted to or from an
	// entity (unknown field, bad enum ordinal, setter rejection, bad schema).
	ErrMapping = errors.New("docket: mapping failed")

	// ErrNotReplaced is returned by Store when the previous document with the
	// same identifier survives its removal.
	ErrNotReplaced = errors.New("docket: existing document was not replaced")

	// ErrUnsupportedFilter is returned by a collection that cannot evaluate a
	// filter, typically a raw filter written for a different backend.
	ErrUnsupportedFilter = errors.New("docket: unsupported filter")
)

// MappingError describes a mapping failure for a specific type and field.
// It matches ErrMapping with errors.Is.
type MappingError struct {
	Type  TypeTag
	Field string
	Err   error
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("docket: mapping %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("docket: mapping %s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// Is reports ErrMapping so callers can test the failure kind without
// unwrapping the typed error.
func (e *MappingError) Is(target error) bool { return target == ErrMapping }

func mappingErr(t TypeTag, field string, format string, args ...any) error {
	return &MappingError{Type: t, Field: field, Err: fmt.Errorf(format, args...)}
}
