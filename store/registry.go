package store

import (
	"sort"
	"sync"
)

// Adapter marshals and unmarshals one entity type. Every Mapper (and so
// every Store) is an Adapter for its own type.
type Adapter interface {
	// Type returns the entity type this adapter handles.
	Type() TypeTag

	// MarshalEntity converts an entity of the adapter's type to a document.
	MarshalEntity(e Entity) (*Document, error)

	// UnmarshalEntity converts a document back to an entity of the adapter's type.
	UnmarshalEntity(d *Document) (Entity, error)
}

// Registry maps entity types to the adapters used for nested values.
// A registry belongs to a single Mapper; it is never shared implicitly.
type Registry struct {
	mu       sync.RWMutex
	adapters map[TypeTag]Adapter
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[TypeTag]Adapter),
	}
}

// Register adds or replaces the adapter for a type.
func (r *Registry) Register(tag TypeTag, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[tag] = a
}

// Unregister removes the adapter for a type.
func (r *Registry) Unregister(tag TypeTag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, tag)
}

// Lookup returns the adapter registered for a type.
func (r *Registry) Lookup(tag TypeTag) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[tag]
	return a, ok
}

// Types returns the registered types in lexical order.
func (r *Registry) Types() []TypeTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]TypeTag, 0, len(r.adapters))
	for t := range r.adapters {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
