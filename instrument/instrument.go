// Package instrument records Prometheus metrics for collection operations.
package instrument

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/docket/store"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors shared by every wrapped collection.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused, so several Metrics may
// share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docket",
			Subsystem: "collection",
			Name:      "operations_total",
			Help:      "Total number of collection operations.",
		},
		[]string{"collection", "op", "result"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docket",
			Subsystem: "collection",
			Name:      "operation_duration_seconds",
			Help:      "Duration of collection operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collection", "op"},
	)

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if dur, err = register(reg, dur); err != nil {
		return nil, err
	}
	return &Metrics{operations: ops, duration: dur}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Wrap returns coll with every operation counted and timed.
func (m *Metrics) Wrap(coll store.Collection) store.Collection {
	return &Collection{next: coll, metrics: m}
}

// Wrap registers metrics with reg and wraps coll.
func Wrap(coll store.Collection, reg prometheus.Registerer) (store.Collection, error) {
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return m.Wrap(coll), nil
}

// Collection is an instrumented store.Collection.
type Collection struct {
	next    store.Collection
	metrics *Metrics
}

// Unwrap returns the underlying collection.
func (c *Collection) Unwrap() store.Collection { return c.next }

// Name implements store.Collection.
func (c *Collection) Name() string { return c.next.Name() }

// Insert implements store.Collection.
func (c *Collection) Insert(ctx context.Context, doc *store.Document) error {
	start := time.Now()
	err := c.next.Insert(ctx, doc)
	c.observe("insert", start, err)
	return err
}

// Find implements store.Collection.
func (c *Collection) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*store.Document, error) {
	start := time.Now()
	docs, err := c.next.Find(ctx, filter, opts)
	c.observe("find", start, err)
	return docs, err
}

// Remove implements store.Collection.
func (c *Collection) Remove(ctx context.Context, filter store.Filter) (int64, error) {
	start := time.Now()
	n, err := c.next.Remove(ctx, filter)
	c.observe("remove", start, err)
	return n, err
}

func (c *Collection) observe(op string, start time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	name := c.next.Name()
	c.metrics.operations.WithLabelValues(name, op, result).Inc()
	c.metrics.duration.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
}
