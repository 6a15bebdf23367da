package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Coercion helpers for Field.Set implementations. Backends decode numbers
// differently (DynamoDB yields float64, Mongo int32/int64/float64), so
// setters should convert through these instead of asserting concrete types.

// AsString converts a decoded value to a string.
func AsString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", v)
}

// AsInt64 converts a decoded numeric value to an int64. Floats must be whole.
func AsInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", t)
		}
		return int64(t), nil
	case float32:
		return wholeFloat(float64(t))
	case float64:
		return wholeFloat(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return wholeFloat(f)
	case string:
		return strconv.ParseInt(t, 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func wholeFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("value %v is not a whole number", f)
	}
	if f < -(1<<63) || f >= 1<<63 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(f), nil
}

// AsInt converts a decoded numeric value to an int.
func AsInt(v any) (int, error) {
	i, err := AsInt64(v)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt || i < math.MinInt {
		return 0, fmt.Errorf("value %d overflows int", i)
	}
	return int(i), nil
}

// AsFloat64 converts a decoded numeric value to a float64.
func AsFloat64(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(t, 64)
	}
	i, err := AsInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
	return float64(i), nil
}

// AsBool converts a decoded value to a bool.
func AsBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	}
	return false, fmt.Errorf("cannot convert %T to bool", v)
}

// AsTime converts a decoded value to a time.Time. RFC 3339 strings and Unix
// milliseconds are accepted for backends without a native time type.
func AsTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	}
	ms, err := AsInt64(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// ListOf converts a typed slice for Field.Get. A nil slice yields nil so the
// field is omitted.
func ListOf[E any](s []E) any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, e := range s {
		out[i] = e
	}
	return out
}

// ListAs converts a decoded list back to a typed slice for Field.Set.
// Elements are converted with conv; pass nil to use a type assertion.
func ListAs[E any](v any, conv func(any) (E, error)) ([]E, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to list", v)
	}
	out := make([]E, 0, len(list))
	for i, e := range list {
		if conv != nil {
			c, err := conv(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, c)
			continue
		}
		c, ok := e.(E)
		if !ok {
			return nil, fmt.Errorf("element %d: unexpected type %T", i, e)
		}
		out = append(out, c)
	}
	return out, nil
}

// AsEntity asserts a decoded nested entity to its concrete type.
func AsEntity[E Entity](v any) (E, error) {
	e, ok := v.(E)
	if !ok {
		var zero E
		return zero, fmt.Errorf("cannot convert %T to %T", v, zero)
	}
	return e, nil
}
