package store

import (
	"strings"
)

// EnumEncoding selects how enumeration values are written to documents.
type EnumEncoding int

const (
	// EnumByOrdinal stores the constant's position. This is compact and
	// compatible with existing data, but reordering constants silently
	// changes the meaning of stored values.
	EnumByOrdinal EnumEncoding = iota

	// EnumByName stores the constant's name.
	EnumByName
)

// MapperOption configures a Mapper.
type MapperOption func(*mapperOptions)

type mapperOptions struct {
	enums EnumEncoding
}

// WithEnumEncoding sets the encoding used when writing enumeration fields.
// Reads accept both encodings regardless of this setting.
func WithEnumEncoding(enc EnumEncoding) MapperOption {
	return func(o *mapperOptions) { o.enums = enc }
}

// Mapper converts entities of type T to documents and back, delegating
// nested entities to the adapters in its registry.
type Mapper[T Entity] struct {
	schema   Schema[T]
	fields   map[string]*Field[T]
	enums    EnumEncoding
	registry *Registry
}

// NewMapper validates schema and returns a Mapper for it.
func NewMapper[T Entity](schema Schema[T], opts ...MapperOption) (*Mapper[T], error) {
	var o mapperOptions
	for _, opt := range opts {
		opt(&o)
	}

	if schema.Type == "" {
		return nil, mappingErr("", "", "schema has no type")
	}
	if schema.New == nil {
		return nil, mappingErr(schema.Type, "", "schema has no constructor")
	}
	if got := schema.New().EntityType(); got != schema.Type {
		return nil, mappingErr(schema.Type, "", "constructor produces type %q", got)
	}

	fields := make(map[string]*Field[T], len(schema.Fields))
	for i := range schema.Fields {
		f := &schema.Fields[i]
		switch {
		case f.Name == "":
			return nil, mappingErr(schema.Type, "", "field %d has no name", i)
		case f.Name == IDField:
			return nil, mappingErr(schema.Type, f.Name, "identifier is mapped implicitly")
		case strings.HasPrefix(f.Name, ReservedPrefix):
			return nil, mappingErr(schema.Type, f.Name, "reserved field name")
		case f.Get == nil || f.Set == nil:
			return nil, mappingErr(schema.Type, f.Name, "field needs both Get and Set")
		}
		if _, dup := fields[f.Name]; dup {
			return nil, mappingErr(schema.Type, f.Name, "duplicate field")
		}
		fields[f.Name] = f
	}

	return &Mapper[T]{
		schema:   schema,
		fields:   fields,
		enums:    o.enums,
		registry: NewRegistry(),
	}, nil
}

// Type returns the entity type handled by the mapper.
func (m *Mapper[T]) Type() TypeTag {
	return m.schema.Type
}

// Register adds an adapter for nested values of another type.
func (m *Mapper[T]) Register(tag TypeTag, a Adapter) {
	m.registry.Register(tag, a)
}

// Unregister removes the adapter for a type.
func (m *Mapper[T]) Unregister(tag TypeTag) {
	m.registry.Unregister(tag)
}

// Registered returns the types with a registered adapter, in lexical order.
// The mapper's own type is not included.
func (m *Mapper[T]) Registered() []TypeTag {
	return m.registry.Types()
}

// Adapter returns the adapter for a type: the mapper itself for its own
// type, otherwise whatever was registered. A missing adapter means values of
// that type are stored as opaque scalars.
func (m *Mapper[T]) Adapter(tag TypeTag) (Adapter, bool) {
	if tag == m.schema.Type {
		return m, true
	}
	return m.registry.Lookup(tag)
}

// Marshal converts e to a document. A blank identifier is replaced by a new
// one on e before marshalling.
func (m *Mapper[T]) Marshal(e T) (*Document, error) {
	if isNil(e) {
		return nil, mappingErr(m.schema.Type, "", "nil entity")
	}
	EnsureID(e)

	doc := NewDocument()
	doc.Set(TypeField, string(e.EntityType()))
	doc.Set(IDField, e.GetID())

	for _, f := range m.schema.Fields {
		v, err := m.marshalValue(f.Name, f.Get(e), f.Enum)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		doc.Set(f.Name, v)
	}
	return doc, nil
}

// marshalValue treats nil pointers as absent values, so they are left out
// of documents and dropped from lists.
func (m *Mapper[T]) marshalValue(field string, v any, enum *EnumType) (any, error) {
	if isNil(v) {
		return nil, nil
	}

	if e, ok := v.(Entity); ok {
		if a, ok := m.Adapter(e.EntityType()); ok {
			return a.MarshalEntity(e)
		}
	}

	if list, ok := v.([]any); ok {
		out := make([]any, 0, len(list))
		for _, elem := range list {
			mv, err := m.marshalValue(field, elem, enum)
			if err != nil {
				return nil, err
			}
			if mv != nil {
				out = append(out, mv)
			}
		}
		return out, nil
	}

	if enum != nil {
		ordinal, err := AsInt(v)
		if err != nil {
			return nil, mappingErr(m.schema.Type, field, "enum value: %v", err)
		}
		name, ok := enum.Name(ordinal)
		if !ok {
			return nil, mappingErr(m.schema.Type, field, "enum ordinal %d out of range", ordinal)
		}
		if m.enums == EnumByName {
			return name, nil
		}
		return ordinal, nil
	}

	return v, nil
}

// Unmarshal converts a document to a new T. On error the zero T is
// returned; a partially populated instance never escapes.
func (m *Mapper[T]) Unmarshal(d *Document) (T, error) {
	var zero T
	if d == nil {
		return zero, mappingErr(m.schema.Type, "", "nil document")
	}
	if tag := d.TypeTag(); tag != "" && tag != m.schema.Type {
		return zero, mappingErr(m.schema.Type, "", "document has type %q", tag)
	}

	result := m.schema.New()
	for _, key := range d.keys {
		if key == TypeField || strings.HasPrefix(key, ReservedPrefix) {
			continue
		}
		raw := d.values[key]
		if raw == nil {
			continue
		}

		if key == IDField {
			id, err := AsString(raw)
			if err != nil {
				return zero, mappingErr(m.schema.Type, key, "%v", err)
			}
			result.SetID(id)
			continue
		}

		f, ok := m.fields[key]
		if !ok {
			return zero, mappingErr(m.schema.Type, key, "unknown field")
		}
		v, err := m.unmarshalValue(f, raw)
		if err != nil {
			return zero, err
		}
		if err := f.Set(result, v); err != nil {
			return zero, mappingErr(m.schema.Type, key, "%v", err)
		}
	}
	return result, nil
}

func (m *Mapper[T]) unmarshalValue(f *Field[T], v any) (any, error) {
	switch t := v.(type) {
	case *Document:
		tag := t.TypeTag()
		if tag == "" {
			tag = f.Type
		}
		if tag != "" {
			if a, ok := m.Adapter(tag); ok {
				return a.UnmarshalEntity(t)
			}
		}
		return t, nil

	case []any:
		out := make([]any, 0, len(t))
		for _, elem := range t {
			if elem == nil {
				continue
			}
			uv, err := m.unmarshalValue(f, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, uv)
		}
		return out, nil
	}

	if f.Enum != nil {
		ordinal, err := m.decodeEnum(f, v)
		if err != nil {
			return nil, err
		}
		return ordinal, nil
	}
	return v, nil
}

func (m *Mapper[T]) decodeEnum(f *Field[T], v any) (int, error) {
	if name, ok := v.(string); ok {
		ordinal, ok := f.Enum.Ordinal(name)
		if !ok {
			return 0, mappingErr(m.schema.Type, f.Name, "unknown enum constant %q", name)
		}
		return ordinal, nil
	}
	ordinal, err := AsInt(v)
	if err != nil {
		return 0, mappingErr(m.schema.Type, f.Name, "enum value: %v", err)
	}
	if _, ok := f.Enum.Name(ordinal); !ok {
		return 0, mappingErr(m.schema.Type, f.Name, "enum ordinal %d out of range", ordinal)
	}
	return ordinal, nil
}

// MarshalEntity implements Adapter.
func (m *Mapper[T]) MarshalEntity(e Entity) (*Document, error) {
	t, ok := e.(T)
	if !ok {
		return nil, mappingErr(m.schema.Type, "", "unexpected entity %T", e)
	}
	return m.Marshal(t)
}

// UnmarshalEntity implements Adapter.
func (m *Mapper[T]) UnmarshalEntity(d *Document) (Entity, error) {
	t, err := m.Unmarshal(d)
	if err != nil {
		return nil, err
	}
	return t, nil
}
