// Package store maps application entities to schemaless documents and
// provides identity-based CRUD over a document collection.
//
// Docket is designed for applications that keep plain domain objects in a
// document store (MongoDB, DynamoDB, or the in-memory store used in tests)
// without writing per-type persistence code.
//
// # Key Features
//
//   - Automatic identifier assignment (random UUIDs)
//   - Schema-driven mapping with nested entities, lists and enumerations
//   - Per-type adapters for nested values, looked up by type tag
//   - Store, retrieve, exists and delete by identifier or any field
//   - Backend-independent filters with a raw escape hatch
//
// # Entity Interfaces
//
// All entities must implement the [Entity] interface:
//
//	type Entity interface {
//	    GetID() string
//	    SetID(id string)
//	    EntityType() TypeTag
//	}
//
// The persisted fields of an entity are described by a [Schema]: one
// [Field] per field, each with a getter and a setter. Setters receive the
// decoded document value and should convert it with the helpers in this
// package ([AsString], [AsInt], [ListAs], [AsEntity], ...), since backends
// decode numbers to different Go types.
//
// # Documents
//
// Every document carries its identifier under [IDField] and its type tag
// under [TypeField]. Fields whose names start with [ReservedPrefix] belong
// to the backend and are ignored when reading. Absent values are omitted
// rather than stored as nulls.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - no document matched a single-entity lookup
//   - [ErrNotUnique] - more than one document matched a single-entity lookup
//   - [ErrMapping] - a document could not be converted to or from an entity
//   - [ErrUnsupportedFilter] - a backend cannot evaluate a filter
package store
