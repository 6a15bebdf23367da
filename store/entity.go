package store

// TypeTag identifies a concrete entity type. It is written into every
// top-level document as the canonical type tag and keys the adapter registry.
type TypeTag string

const (
	// IDField is the document field holding the entity identifier.
	IDField = "id"

	// TypeField is the document field holding the canonical type tag.
	TypeField = "_class"

	// ReservedPrefix marks bookkeeping fields that are never mapped back onto
	// an entity (this also covers backend fields such as Mongo's "_id").
	ReservedPrefix = "_"
)

// Entity is the base interface for all storable types.
type Entity interface {
	// GetID returns the identifier, or an empty string if none was assigned.
	GetID() string

	// SetID assigns the identifier. It is called once, at first persistence.
	SetID(id string)

	// EntityType returns the canonical type tag (e.g., "customer").
	EntityType() TypeTag
}

// Schema declares how a type maps to a document. It replaces runtime
// introspection with an explicit table built at registration time.
type Schema[T Entity] struct {
	// Type is the canonical type tag of T. It must equal T's EntityType().
	Type TypeTag

	// New returns a fresh, empty instance to unmarshal into.
	New func() T

	// Fields lists the persistable fields. The identifier is handled
	// implicitly through GetID/SetID and must not be listed.
	Fields []Field[T]
}

// Field describes one persistable field of T.
type Field[T any] struct {
	// Name is the document field name.
	Name string

	// Get returns the field value, or nil if the field is absent.
	// Lists are returned as []any (see ListOf), nested entities as Entity,
	// enumerations as their ordinal.
	Get func(T) any

	// Set assigns a decoded value. Nested entities arrive as Entity, lists as
	// []any, enumerations as their ordinal (int). Returning an error fails the
	// whole unmarshal.
	Set func(T, any) error

	// Enum marks an enumeration field, or a list whose leaf elements are
	// enumeration values.
	Enum *EnumType

	// Type is the nested entity type used when a stored sub-document carries
	// no type tag of its own.
	Type TypeTag
}

// EnumType is the ordered list of constant names of an enumeration.
// The position of a name is its ordinal.
type EnumType struct {
	names []string
	index map[string]int
}

// Enum declares an enumeration by its constant names, in ordinal order.
func Enum(names ...string) *EnumType {
	e := &EnumType{names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		e.index[n] = i
	}
	return e
}

// Len returns the number of constants.
func (e *EnumType) Len() int { return len(e.names) }

// Name returns the constant name for an ordinal.
func (e *EnumType) Name(ordinal int) (string, bool) {
	if ordinal < 0 || ordinal >= len(e.names) {
		return "", false
	}
	return e.names[ordinal], true
}

// Ordinal returns the ordinal for a constant name.
func (e *EnumType) Ordinal(name string) (int, bool) {
	i, ok := e.index[name]
	return i, ok
}
