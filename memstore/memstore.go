// Package memstore is an in-memory document store implementing the
// connect.Driver and store.Collection interfaces. It is intended for tests
// and local tooling.
//
// Raw filters must be func(*store.Document) bool.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jacentio/docket/connect"
	"github.com/jacentio/docket/store"
)

// ErrInvalidCredentials is returned by Authenticate on a password mismatch.
var ErrInvalidCredentials = errors.New("memstore: invalid credentials")

// Server is an in-memory store holding any number of databases.
type Server struct {
	mu          sync.Mutex
	users       map[string]string
	unavailable int
	connects    int
	dbs         map[string]map[string]*Collection
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials adds a user. A server with no users accepts any login.
func WithCredentials(user, password string) Option {
	return func(s *Server) { s.users[user] = password }
}

// WithUnavailable makes the first n Connect calls fail as if the store were
// unreachable.
func WithUnavailable(n int) Option {
	return func(s *Server) { s.unavailable = n }
}

// NewServer creates an empty server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		users: make(map[string]string),
		dbs:   make(map[string]map[string]*Collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements connect.Driver.
func (s *Server) Name() string { return "memory" }

// Connect implements connect.Driver.
func (s *Server) Connect(ctx context.Context, cfg connect.Config) (connect.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable > 0 {
		s.unavailable--
		return nil, fmt.Errorf("%w: memstore %s:%d is not accepting connections", connect.ErrConnectivity, cfg.Host, cfg.Port)
	}
	s.connects++
	return &client{srv: s}, nil
}

// Connects returns the number of successful Connect calls.
func (s *Server) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// SetUnavailable makes the next n Connect calls fail.
func (s *Server) SetUnavailable(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = n
}

// CollectionNames returns the collections of a database in lexical order.
func (s *Server) CollectionNames(db string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.dbs[db]))
	for n := range s.dbs[db] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Server) collection(db, name string, create bool) (*Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	colls, ok := s.dbs[db]
	if !ok {
		if !create {
			return nil, false
		}
		colls = make(map[string]*Collection)
		s.dbs[db] = colls
	}
	c, ok := colls[name]
	if !ok && create {
		c = NewCollection(name)
		colls[name] = c
		ok = true
	}
	return c, ok
}

type client struct {
	srv *Server
}

func (c *client) Database(name string) connect.Database {
	return &database{srv: c.srv, name: name}
}

func (c *client) Close(context.Context) error { return nil }

type database struct {
	srv  *Server
	name string
}

func (d *database) Authenticate(_ context.Context, user, password string) error {
	d.srv.mu.Lock()
	defer d.srv.mu.Unlock()
	if len(d.srv.users) == 0 {
		return nil
	}
	if want, ok := d.srv.users[user]; !ok || want != password {
		return ErrInvalidCredentials
	}
	return nil
}

func (d *database) CollectionExists(_ context.Context, name string) (bool, error) {
	_, ok := d.srv.collection(d.name, name, false)
	return ok, nil
}

func (d *database) CreateCollection(_ context.Context, name string) error {
	d.srv.collection(d.name, name, true)
	return nil
}

func (d *database) Collection(name string) store.Collection {
	return &lazyCollection{db: d, name: name}
}

// lazyCollection resolves the backing collection on each call so a handle
// taken before CreateCollection still works, as with real drivers.
type lazyCollection struct {
	db   *database
	name string
}

func (l *lazyCollection) target() *Collection {
	c, _ := l.db.srv.collection(l.db.name, l.name, true)
	return c
}

func (l *lazyCollection) Name() string { return l.name }

func (l *lazyCollection) Insert(ctx context.Context, doc *store.Document) error {
	return l.target().Insert(ctx, doc)
}

func (l *lazyCollection) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*store.Document, error) {
	return l.target().Find(ctx, filter, opts)
}

func (l *lazyCollection) Remove(ctx context.Context, filter store.Filter) (int64, error) {
	return l.target().Remove(ctx, filter)
}

// Collection is an in-memory collection. Documents are copied on the way in
// and out, so callers never share state with the store.
type Collection struct {
	name string
	mu   sync.RWMutex
	docs []*store.Document
}

// NewCollection returns a standalone empty collection.
func NewCollection(name string) *Collection {
	return &Collection{name: name}
}

// Name implements store.Collection.
func (c *Collection) Name() string { return c.name }

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Insert implements store.Collection.
func (c *Collection) Insert(ctx context.Context, doc *store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("memstore: nil document")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, doc.Clone())
	return nil
}

// Find implements store.Collection.
func (c *Collection) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*store.Document
	for _, d := range c.docs {
		ok, err := filter.Matches(d)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if len(opts.Projection) > 0 {
			out = append(out, d.Project(opts.Projection))
		} else {
			out = append(out, d.Clone())
		}
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// Remove implements store.Collection.
func (c *Collection) Remove(ctx context.Context, filter store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := make([]bool, len(c.docs))
	for i, d := range c.docs {
		ok, err := filter.Matches(d)
		if err != nil {
			return 0, err
		}
		matched[i] = ok
	}

	kept := make([]*store.Document, 0, len(c.docs))
	var removed int64
	for i, d := range c.docs {
		if matched[i] {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	c.docs = kept
	return removed, nil
}

var (
	_ connect.Driver   = (*Server)(nil)
	_ store.Collection = (*Collection)(nil)
	_ store.Collection = (*lazyCollection)(nil)
)
