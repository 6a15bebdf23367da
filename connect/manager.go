// Package connect lazily establishes client, database and collection handles
// against a document store and caches them for the life of a Manager.
package connect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jacentio/docket/internal/lazy"
	"github.com/jacentio/docket/retry"
	"github.com/jacentio/docket/store"
)

// Manager owns the connection to one logical database.
//
// Handles move one way: unconnected, client-connected, database-connected,
// collection-ready. Each transition has its own guard, so concurrent callers
// race to perform it exactly once and the others wait for the winner.
// Failed transitions are not cached and are retried by the next caller.
type Manager struct {
	driver Driver
	logger *slog.Logger

	cfgMu sync.RWMutex
	cfg   Config

	client lazy.Value[Client]
	db     lazy.Value[Database]

	collMu sync.Mutex
	colls  map[string]*lazy.Value[store.Collection]
	wrap   func(store.Collection) store.Collection

	closed atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCollectionWrapper decorates every collection handle before it is
// cached, e.g. with instrument.Metrics.Wrap.
func WithCollectionWrapper(fn func(store.Collection) store.Collection) Option {
	return func(m *Manager) { m.wrap = fn }
}

// NewManager creates a Manager. Nothing is dialled until a handle is requested.
func NewManager(driver Driver, cfg Config, opts ...Option) *Manager {
	cfg.validate()
	m := &Manager{
		driver: driver,
		logger: slog.Default(),
		cfg:    cfg,
		colls:  make(map[string]*lazy.Value[store.Collection]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the current connection settings.
func (m *Manager) Config() Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg
}

// SetCredentials replaces the credentials used by the next database
// transition. An already connected database handle is not affected.
func (m *Manager) SetCredentials(user, password string) {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	m.cfg.User = user
	m.cfg.Password = password
}

// Client returns the client handle, connecting on first use.
func (m *Manager) Client(ctx context.Context) (Client, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.client.Get(ctx, func(ctx context.Context) (Client, error) {
		cfg := m.Config()
		c, err := m.driver.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect %s %s:%d: %w", m.driver.Name(), cfg.Host, cfg.Port, err)
		}
		m.logger.Info("connected to store",
			"driver", m.driver.Name(),
			"host", cfg.Host,
			"port", cfg.Port,
		)
		return c, nil
	})
}

// Database returns the database handle, authenticating once if credentials
// are configured. A rejected login returns an *AuthError and leaves the
// database unconnected.
func (m *Manager) Database(ctx context.Context) (Database, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.db.Get(ctx, func(ctx context.Context) (Database, error) {
		c, err := m.Client(ctx)
		if err != nil {
			return nil, err
		}

		cfg := m.Config()
		db := c.Database(cfg.Database)
		if cfg.HasCredentials() {
			if err := db.Authenticate(ctx, cfg.User, cfg.Password); err != nil {
				if errors.Is(err, ErrConnectivity) {
					return nil, fmt.Errorf("authenticate: %w", err)
				}
				return nil, &AuthError{
					Host:     cfg.Host,
					Port:     cfg.Port,
					Database: cfg.Database,
					User:     cfg.User,
					Err:      err,
				}
			}
		}
		return db, nil
	})
}

// Collection returns the named collection, creating it if it does not exist.
func (m *Manager) Collection(ctx context.Context, name string) (store.Collection, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.collectionSlot(name).Get(ctx, func(ctx context.Context) (store.Collection, error) {
		db, err := m.Database(ctx)
		if err != nil {
			return nil, err
		}

		exists, err := db.CollectionExists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check collection %s: %w", name, err)
		}
		if !exists {
			if err := db.CreateCollection(ctx, name); err != nil {
				return nil, fmt.Errorf("create collection %s: %w", name, err)
			}
			m.logger.Info("created collection", "collection", name)
		}
		coll := db.Collection(name)
		if m.wrap != nil {
			coll = m.wrap(coll)
		}
		return coll, nil
	})
}

// AwaitCollection is Collection retried on schedule until the store answers.
// Exhausting the schedule returns an error matching retry.ErrUnavailable.
func (m *Manager) AwaitCollection(ctx context.Context, name string, schedule retry.Schedule, opts ...retry.Option) (store.Collection, error) {
	opts = append([]retry.Option{retry.WithLogger(m.logger)}, opts...)
	return retry.Await(ctx, "collection "+name, func(ctx context.Context) (store.Collection, error) {
		return m.Collection(ctx, name)
	}, schedule, opts...)
}

func (m *Manager) collectionSlot(name string) *lazy.Value[store.Collection] {
	m.collMu.Lock()
	defer m.collMu.Unlock()
	slot, ok := m.colls[name]
	if !ok {
		slot = &lazy.Value[store.Collection]{}
		m.colls[name] = slot
	}
	return slot
}

// Close releases the client. The Manager cannot be used afterwards.
func (m *Manager) Close(ctx context.Context) error {
	if m.closed.Swap(true) {
		return nil
	}
	m.collMu.Lock()
	m.colls = make(map[string]*lazy.Value[store.Collection])
	m.collMu.Unlock()
	m.db.Reset()

	c, ok := m.client.Reset()
	if !ok {
		return nil
	}
	return c.Close(ctx)
}
