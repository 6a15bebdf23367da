// Package mongo is a MongoDB backend for docket. Collections map to native
// MongoDB collections; documents keep their field order.
//
// Raw filters must be a bson.D, bson.M or map[string]any query document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jacentio/docket/connect"
	"github.com/jacentio/docket/store"
)

// codeNamespaceExists is returned by create on an existing collection.
const codeNamespaceExists = 48

// Driver implements connect.Driver for MongoDB.
type Driver struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver creates a MongoDB driver.
func NewDriver(cfg Config, opts ...Option) *Driver {
	cfg.validate()
	d := &Driver{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements connect.Driver.
func (d *Driver) Name() string { return "mongo" }

// URI returns the connection string for a host and port.
func URI(host string, port int) string {
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}

func (d *Driver) clientOptions(cfg connect.Config) *options.ClientOptions {
	return options.Client().
		ApplyURI(URI(cfg.Host, cfg.Port)).
		SetAppName(d.cfg.AppName).
		SetConnectTimeout(d.cfg.ConnectTimeout).
		SetServerSelectionTimeout(d.cfg.ServerSelectionTimeout)
}

// Connect implements connect.Driver. The server is pinged so an
// unreachable store fails here with connect.ErrConnectivity.
func (d *Driver) Connect(ctx context.Context, cfg connect.Config) (connect.Client, error) {
	c, err := mdb.Connect(ctx, d.clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", connect.ErrConnectivity, err)
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("%w: ping: %w", connect.ErrConnectivity, err)
	}
	return &client{driver: d, cfg: cfg, base: c}, nil
}

type client struct {
	driver *Driver
	cfg    connect.Config
	base   *mdb.Client

	mu     sync.Mutex
	authed []*mdb.Client
}

func (c *client) Database(name string) connect.Database {
	return &database{client: c, name: name, conn: c.base}
}

// Close disconnects the base client and every authenticated one.
func (c *client) Close(ctx context.Context) error {
	c.mu.Lock()
	clients := append([]*mdb.Client{c.base}, c.authed...)
	c.authed = nil
	c.mu.Unlock()

	var errs []error
	for _, mc := range clients {
		if err := mc.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type database struct {
	client *client
	name   string

	mu   sync.RWMutex
	conn *mdb.Client
}

func (db *database) handle() *mdb.Database {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Database(db.name)
}

// Authenticate opens a client logged in against this database (the
// database is the auth source) and uses it for every later operation.
func (db *database) Authenticate(ctx context.Context, user, password string) error {
	opts := db.client.driver.clientOptions(db.client.cfg).SetAuth(options.Credential{
		Username:   user,
		Password:   password,
		AuthSource: db.name,
	})
	c, err := mdb.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", connect.ErrConnectivity, err)
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.WithoutCancel(ctx))
		return classify(err)
	}

	db.client.mu.Lock()
	db.client.authed = append(db.client.authed, c)
	db.client.mu.Unlock()

	db.mu.Lock()
	db.conn = c
	db.mu.Unlock()
	return nil
}

func (db *database) CollectionExists(ctx context.Context, name string) (bool, error) {
	names, err := db.handle().ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, classify(err)
	}
	return len(names) > 0, nil
}

func (db *database) CreateCollection(ctx context.Context, name string) error {
	err := db.handle().CreateCollection(ctx, name)
	var cmdErr mdb.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
		return nil
	}
	if err != nil {
		return classify(err)
	}
	db.client.driver.logger.Info("created mongo collection",
		"database", db.name,
		"collection", name,
	)
	return nil
}

func (db *database) Collection(name string) store.Collection {
	return &Collection{db: db, name: name}
}

// classify marks network failures with connect.ErrConnectivity. Timeouts
// caused by a failed handshake are left alone since they report rejected
// credentials.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mdb.IsNetworkError(err) || (mdb.IsTimeout(err) && !strings.Contains(err.Error(), "auth")) {
		return fmt.Errorf("%w: %w", connect.ErrConnectivity, err)
	}
	return err
}

var (
	_ connect.Driver   = (*Driver)(nil)
	_ connect.Client   = (*client)(nil)
	_ connect.Database = (*database)(nil)
)
