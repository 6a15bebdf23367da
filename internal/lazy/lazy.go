// Package lazy provides a one-time initialisation guard whose failures are
// not cached.
package lazy

import (
	"context"
	"sync"
	"sync/atomic"
)

// Value holds a lazily created handle. Init runs at most once successfully;
// concurrent callers block until the winner finishes and then observe its
// result. A failed Init leaves the Value empty so a later call can retry.
//
// The zero Value is ready to use.
type Value[T any] struct {
	done atomic.Bool
	mu   sync.Mutex
	v    T
}

// Get returns the held value, calling init to create it if needed.
func (l *Value[T]) Get(ctx context.Context, init func(context.Context) (T, error)) (T, error) {
	if l.done.Load() {
		return l.v, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done.Load() {
		return l.v, nil
	}

	v, err := init(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.v = v
	l.done.Store(true)
	return v, nil
}

// Peek returns the held value without initialising it.
func (l *Value[T]) Peek() (T, bool) {
	if l.done.Load() {
		return l.v, true
	}
	var zero T
	return zero, false
}

// Reset drops the held value, returning it if there was one.
// It must not be called concurrently with Get.
func (l *Value[T]) Reset() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	if !l.done.Load() {
		return zero, false
	}
	l.done.Store(false)
	v := l.v
	l.v = zero
	return v, true
}
