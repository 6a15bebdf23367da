package store

import (
	"sort"
)

// Document is an ordered mapping from field name to value.
//
// Values are scalars, nested *Document values or []any lists. The zero value
// is not usable; create documents with NewDocument or DocumentFromMap.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// DocumentFromMap builds a document from a generic map, as produced by
// backend decoders. Keys are ordered lexically since maps carry no order.
// Nested maps become nested documents and slices become []any.
func DocumentFromMap(m map[string]any) *Document {
	d := NewDocument()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, fromGeneric(m[k]))
	}
	return d
}

func fromGeneric(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DocumentFromMap(t)
	case *Document:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromGeneric(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DocumentFromMap(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// Set assigns a field, appending it if new and keeping its position otherwise.
func (d *Document) Set(key string, value any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns a field value.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// String returns a field as a string, or "" if absent or not a string.
func (d *Document) String(key string) string {
	s, _ := d.values[key].(string)
	return s
}

// Has reports whether a field is present.
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Delete removes a field.
func (d *Document) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of fields.
func (d *Document) Len() int { return len(d.keys) }

// Range calls fn for each field in order until fn returns false.
func (d *Document) Range(fn func(key string, value any) bool) {
	for _, k := range d.keys {
		if !fn(k, d.values[k]) {
			return
		}
	}
}

// TypeTag returns the canonical type tag, or "" if the document has none.
func (d *Document) TypeTag() TypeTag {
	return TypeTag(d.String(TypeField))
}

// ID returns the identifier field, or "" if absent.
func (d *Document) ID() string {
	return d.String(IDField)
}

// Map converts the document to a generic map, recursively. Used by
// backends whose encoders work on maps.
func (d *Document) Map() map[string]any {
	m := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		m[k] = toGeneric(d.values[k])
	}
	return m
}

func toGeneric(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toGeneric(e)
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of the document structure. Scalar values are
// shared.
func (d *Document) Clone() *Document {
	c := &Document{
		keys:   make([]string, len(d.keys)),
		values: make(map[string]any, len(d.values)),
	}
	copy(c.keys, d.keys)
	for k, v := range d.values {
		c.values[k] = cloneValue(v)
	}
	return c
}

// Project returns a copy holding only the named fields, in the document's
// own order.
func (d *Document) Project(fields []string) *Document {
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	p := NewDocument()
	for _, k := range d.keys {
		if want[k] {
			p.Set(k, cloneValue(d.values[k]))
		}
	}
	return p
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
