package store

import (
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// NewID generates a random (version 4) UUID string.
func NewID() string {
	return uuid.NewString()
}

// EnsureID assigns a new identifier to e if its current one is blank.
// It reports whether an identifier was assigned.
func EnsureID(e Entity) bool {
	if isNil(e) {
		return false
	}
	if strings.TrimSpace(e.GetID()) != "" {
		return false
	}
	e.SetID(NewID())
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// isNil reports whether v is nil or a nil pointer held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
