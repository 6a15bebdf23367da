package store

import "context"

// Collection is the narrow view of a document store collection that the
// Store needs. Backends implement it; creating collections is the job of
// the connection layer.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Insert adds a document.
	Insert(ctx context.Context, doc *Document) error

	// Find returns the documents matching filter.
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]*Document, error)

	// Remove deletes the documents matching filter and returns how many
	// were removed.
	Remove(ctx context.Context, filter Filter) (int64, error)
}
