// Package retry waits for a store resource to become available, probing it on
// a caller-supplied backoff schedule.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// ErrUnavailable is returned when a schedule is exhausted without the
// resource ever becoming available.
var ErrUnavailable = errors.New("docket: resource never became available")

// errNilHandle marks a probe that succeeded without producing a handle.
var errNilHandle = errors.New("accessor returned a nil handle")

// UnavailableError reports an exhausted schedule. It matches ErrUnavailable
// with errors.Is and unwraps to the last probe failure.
type UnavailableError struct {
	Resource string
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("docket: %s never became available after %d attempts: %v", e.Resource, e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }

// Is reports ErrUnavailable.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Schedule is the ordered list of waits between attempts. A schedule of N
// waits allows N+1 attempts.
type Schedule []time.Duration

// DefaultSchedule returns an immediate retry followed by thirty retries one
// second apart.
func DefaultSchedule() Schedule {
	s := Schedule{0}
	return append(s, Fixed(30, time.Second)...)
}

// Fixed returns n waits of d each.
func Fixed(n int, d time.Duration) Schedule {
	if n < 0 {
		n = 0
	}
	s := make(Schedule, n)
	for i := range s {
		s[i] = d
	}
	return s
}

// Total returns the sum of all waits, the longest Await can sleep.
func (s Schedule) Total() time.Duration {
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total
}

// Option configures Await.
type Option func(*options)

type options struct {
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// WithLogger sets the logger for probe results. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSleep replaces the wait between attempts. The function must return
// early with an error when ctx is done.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(o *options) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// Await calls accessor until it returns without error, sleeping for each
// duration in schedule between attempts. Errors, panics and nil handles
// returned by accessor mean "not yet available" and are never returned directly; once
// the schedule is exhausted an *UnavailableError is returned. Cancelling
// ctx aborts the wait.
func Await[T any](ctx context.Context, resource string, accessor func(context.Context) (T, error), schedule Schedule, opts ...Option) (T, error) {
	o := options{
		logger: slog.Default(),
		sleep:  sleep,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	attempts := 0
	var last error

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("await %s: %w", resource, err)
		}

		attempts++
		v, err := probe(ctx, accessor)
		if err == nil {
			o.logger.Info("resource is available",
				"resource", resource,
				"attempts", attempts,
			)
			return v, nil
		}
		last = err

		if i >= len(schedule) {
			break
		}
		wait := schedule[i]
		o.logger.Info("resource is not available; sleeping",
			"resource", resource,
			"attempt", attempts,
			"wait", wait,
			"error", err,
		)
		if err := o.sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("await %s: %w", resource, err)
		}
	}

	return zero, &UnavailableError{Resource: resource, Attempts: attempts, Last: last}
}

func probe[T any](ctx context.Context, accessor func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	v, err = accessor(ctx)
	if err == nil && isNil(v) {
		err = errNilHandle
	}
	return v, err
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
