package connect

import (
	"context"

	"github.com/jacentio/docket/store"
)

// Driver dials a document store.
type Driver interface {
	// Name identifies the backend (e.g., "mongo").
	Name() string

	// Connect opens a client. Transport failures should wrap ErrConnectivity.
	Connect(ctx context.Context, cfg Config) (Client, error)
}

// Client is an open connection to a store.
type Client interface {
	// Database returns a handle for a logical database. It does not touch
	// the network.
	Database(name string) Database

	// Close releases the connection.
	Close(ctx context.Context) error
}

// Database is a logical database within a store.
type Database interface {
	// Authenticate verifies credentials. A rejection is returned as a plain
	// error; transport failures should wrap ErrConnectivity.
	Authenticate(ctx context.Context, user, password string) error

	// CollectionExists reports whether a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection.
	CreateCollection(ctx context.Context, name string) error

	// Collection returns a handle for a collection. It does not create it.
	Collection(name string) store.Collection
}
