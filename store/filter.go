package store

import (
	"fmt"
	"reflect"
)

// FilterOp is the kind of a Filter.
type FilterOp int

const (
	// OpAll matches every document.
	OpAll FilterOp = iota
	// OpEq matches documents whose field equals a value.
	OpEq
	// OpIn matches documents whose field equals any of a set of values.
	OpIn
	// OpExists matches documents where a field is present.
	OpExists
	// OpRaw passes a backend-native filter through unchanged.
	OpRaw
)

func (op FilterOp) String() string {
	switch op {
	case OpAll:
		return "all"
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpExists:
		return "exists"
	case OpRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Filter selects documents in a collection.
type Filter struct {
	Op     FilterOp
	Field  string
	Values []any
	Native any
}

// All matches every document.
func All() Filter { return Filter{Op: OpAll} }

// Eq matches documents where field equals value.
func Eq(field string, value any) Filter {
	return Filter{Op: OpEq, Field: field, Values: []any{value}}
}

// In matches documents where field equals any of values.
func In(field string, values ...any) Filter {
	return Filter{Op: OpIn, Field: field, Values: values}
}

// InStrings is In for string values.
func InStrings(field string, values []string) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return In(field, vs...)
}

// Exists matches documents where field is present.
func Exists(field string) Filter {
	return Filter{Op: OpExists, Field: field}
}

// Raw wraps a backend-native filter. Each backend documents the native
// types it accepts; the in-memory backend accepts func(*Document) bool.
func Raw(native any) Filter {
	return Filter{Op: OpRaw, Native: native}
}

func (f Filter) String() string {
	switch f.Op {
	case OpAll:
		return "all"
	case OpEq:
		return fmt.Sprintf("%s = %v", f.Field, f.Values[0])
	case OpIn:
		return fmt.Sprintf("%s in %v", f.Field, f.Values)
	case OpExists:
		return fmt.Sprintf("exists(%s)", f.Field)
	default:
		return fmt.Sprintf("raw(%T)", f.Native)
	}
}

// Matches evaluates the filter against a document. Raw filters are only
// understood when they are a func(*Document) bool.
func (f Filter) Matches(d *Document) (bool, error) {
	switch f.Op {
	case OpAll:
		return true, nil
	case OpExists:
		return d.Has(f.Field), nil
	case OpEq, OpIn:
		v, ok := d.Get(f.Field)
		if !ok {
			return false, nil
		}
		for _, want := range f.Values {
			if ValuesEqual(v, want) {
				return true, nil
			}
		}
		return false, nil
	case OpRaw:
		if fn, ok := f.Native.(func(*Document) bool); ok {
			return fn(d), nil
		}
		return false, fmt.Errorf("%w: %T", ErrUnsupportedFilter, f.Native)
	}
	return false, fmt.Errorf("%w: op %d", ErrUnsupportedFilter, f.Op)
}

// FindOptions narrows a Find call.
type FindOptions struct {
	// Projection limits returned documents to the named fields.
	// Empty returns whole documents.
	Projection []string

	// Limit caps the number of returned documents (0 = no limit).
	Limit int
}

// ValuesEqual compares two document values, treating numbers of different
// Go types as equal when their values are.
func ValuesEqual(a, b any) bool {
	if af, ok := numeric(a); ok {
		if bf, ok := numeric(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func numeric(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		f, err := AsFloat64(v)
		return f, err == nil
	}
	return 0, false
}
