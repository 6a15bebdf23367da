package store

import (
	"context"
	"fmt"
)

// Store provides identity-based CRUD operations for one entity type over a
// Collection. It embeds the Mapper, so adapter registration methods are
// available directly on the Store.
type Store[T Entity] struct {
	*Mapper[T]
	coll Collection
}

// New creates a Store for schema over coll.
func New[T Entity](coll Collection, schema Schema[T], opts ...MapperOption) (*Store[T], error) {
	m, err := NewMapper(schema, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithMapper(coll, m), nil
}

// NewWithMapper creates a Store over coll using an existing Mapper.
func NewWithMapper[T Entity](coll Collection, m *Mapper[T]) *Store[T] {
	return &Store[T]{
		Mapper: m,
		coll:   coll,
	}
}

// Collection returns the underlying collection.
func (s *Store[T]) Collection() Collection {
	return s.coll
}

// Store persists e and returns its identifier, generating one if blank.
//
// The entity is mapped before the collection is touched, so a mapping
// failure leaves any stored document as it was. An existing document with
// the same identifier is then deleted before the new one is inserted. This
// is a replace, not a partial update, and it is not atomic: a concurrent
// reader can observe neither the old nor the new document between the two
// steps. Callers that need stronger guarantees must serialise writers for
// the same identifier.
func (s *Store[T]) Store(ctx context.Context, e T) (string, error) {
	generated := !isNil(e) && isBlank(e.GetID())
	doc, err := s.Marshal(e)
	if err != nil {
		return "", err
	}
	id := doc.ID()

	exists := false
	if !generated {
		if exists, err = s.Exists(ctx, id); err != nil {
			return "", err
		}
	}
	if exists {
		removed, err := s.Delete(ctx, id)
		if err != nil {
			return "", err
		}
		if !removed {
			return "", fmt.Errorf("%w: %s", ErrNotReplaced, id)
		}
	}

	if err := s.coll.Insert(ctx, doc); err != nil {
		return "", fmt.Errorf("insert %s: %w", id, err)
	}
	return id, nil
}

// Retrieve returns the entity with the given identifier.
func (s *Store[T]) Retrieve(ctx context.Context, id string) (T, error) {
	return s.RetrieveBy(ctx, IDField, id)
}

// RetrieveBy returns the single entity whose field equals value. It fails
// with ErrNotFound when nothing matches and ErrNotUnique when more than one
// document does.
func (s *Store[T]) RetrieveBy(ctx context.Context, field string, value any) (T, error) {
	var zero T
	result, err := s.find(ctx, Eq(field, value), FindOptions{})
	if err != nil {
		return zero, err
	}
	switch len(result) {
	case 0:
		return zero, ErrNotFound
	case 1:
		return result[0], nil
	default:
		return zero, fmt.Errorf("%w: %s = %v matched %d documents", ErrNotUnique, field, value, len(result))
	}
}

// RetrieveMany returns the entities with the given identifiers. Identifiers
// with no document are omitted without error.
func (s *Store[T]) RetrieveMany(ctx context.Context, ids []string) ([]T, error) {
	return s.RetrieveManyBy(ctx, IDField, ids)
}

// RetrieveManyBy returns the entities whose field is one of values.
// Values with no matching document are omitted without error.
func (s *Store[T]) RetrieveManyBy(ctx context.Context, field string, values []string) ([]T, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return s.find(ctx, InStrings(field, values), FindOptions{})
}

// RetrieveAllMatching returns every entity whose field equals value, without
// the uniqueness check of RetrieveBy.
func (s *Store[T]) RetrieveAllMatching(ctx context.Context, field string, value string) ([]T, error) {
	return s.RetrieveManyBy(ctx, field, []string{value})
}

// RetrieveWhere returns every entity whose field equals value, for fields
// of any scalar type (for example boolean flags).
func (s *Store[T]) RetrieveWhere(ctx context.Context, field string, value any) ([]T, error) {
	return s.find(ctx, Eq(field, value), FindOptions{})
}

// RetrieveAll returns every entity of this store's type. Documents of other
// types sharing the collection are skipped.
func (s *Store[T]) RetrieveAll(ctx context.Context) ([]T, error) {
	return s.find(ctx, Eq(TypeField, string(s.Type())), FindOptions{})
}

// Search returns the entities matching an arbitrary filter, including
// backend-native filters built with Raw.
func (s *Store[T]) Search(ctx context.Context, filter Filter) ([]T, error) {
	return s.find(ctx, filter, FindOptions{})
}

// Exists reports whether a document with the identifier exists.
func (s *Store[T]) Exists(ctx context.Context, id string) (bool, error) {
	return s.ExistsBy(ctx, IDField, id)
}

// ExistsBy reports whether any document's field equals value.
func (s *Store[T]) ExistsBy(ctx context.Context, field string, value string) (bool, error) {
	return s.ExistsAny(ctx, field, []string{value})
}

// ExistsAny reports whether any document's field is one of values. Only the
// identifier of at most one document is fetched.
func (s *Store[T]) ExistsAny(ctx context.Context, field string, values []string) (bool, error) {
	if len(values) == 0 {
		return false, nil
	}
	docs, err := s.coll.Find(ctx, InStrings(field, values), FindOptions{
		Projection: []string{IDField},
		Limit:      1,
	})
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", field, err)
	}
	return len(docs) > 0, nil
}

// Delete removes the document with the identifier. See DeleteManyBy for
// the meaning of the result.
func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	return s.DeleteManyBy(ctx, IDField, []string{id})
}

// DeleteBy removes every document whose field equals value.
func (s *Store[T]) DeleteBy(ctx context.Context, field string, value string) (bool, error) {
	return s.DeleteManyBy(ctx, field, []string{value})
}

// DeleteMany removes the documents with the given identifiers.
func (s *Store[T]) DeleteMany(ctx context.Context, ids []string) (bool, error) {
	return s.DeleteManyBy(ctx, IDField, ids)
}

// DeleteManyBy removes every document whose field is one of values.
// It returns true only if at least one document matched beforehand and none
// match afterwards; a removal that leaves matches behind reports false.
func (s *Store[T]) DeleteManyBy(ctx context.Context, field string, values []string) (bool, error) {
	existed, err := s.ExistsAny(ctx, field, values)
	if err != nil || !existed {
		return false, err
	}

	if _, err := s.coll.Remove(ctx, InStrings(field, values)); err != nil {
		return false, fmt.Errorf("remove %s: %w", field, err)
	}

	remaining, err := s.ExistsAny(ctx, field, values)
	if err != nil {
		return false, err
	}
	return !remaining, nil
}

// DeleteAll removes every document in the collection, whatever its type.
// It reports whether anything was removed.
func (s *Store[T]) DeleteAll(ctx context.Context) (bool, error) {
	n, err := s.coll.Remove(ctx, All())
	if err != nil {
		return false, fmt.Errorf("remove all: %w", err)
	}
	return n > 0, nil
}

// IDs returns the identifier of every document in the collection.
func (s *Store[T]) IDs(ctx context.Context) ([]string, error) {
	return s.Strings(ctx, IDField)
}

// Strings returns the value of field, as a string, for every document where
// the field is present. Only that field is fetched.
func (s *Store[T]) Strings(ctx context.Context, field string) ([]string, error) {
	docs, err := s.coll.Find(ctx, Exists(field), FindOptions{Projection: []string{field}})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", field, err)
	}
	result := make([]string, 0, len(docs))
	for _, d := range docs {
		v, ok := d.Get(field)
		if !ok || v == nil {
			continue
		}
		result = append(result, fmt.Sprint(v))
	}
	return result, nil
}

func (s *Store[T]) find(ctx context.Context, filter Filter, opts FindOptions) ([]T, error) {
	docs, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", filter, err)
	}
	result := make([]T, 0, len(docs))
	for _, d := range docs {
		e, err := s.Unmarshal(d)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}
