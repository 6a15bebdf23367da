package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestValue_InitOnce(t *testing.T) {
	var l Value[int]
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get(context.Background(), func(context.Context) (int, error) {
				calls.Add(1)
				return 42, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if v != 42 {
				t.Errorf("expected 42, got %d", v)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected init to run once, ran %d times", calls.Load())
	}
}

func TestValue_FailureNotCached(t *testing.T) {
	var l Value[string]
	boom := errors.New("boom")

	_, err := l.Get(context.Background(), func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := l.Peek(); ok {
		t.Error("expected no value after failed init")
	}

	v, err := l.Get(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Errorf("expected 'ok', got %q", v)
	}
}

func TestValue_Reset(t *testing.T) {
	var l Value[int]
	if _, ok := l.Reset(); ok {
		t.Error("expected Reset on empty value to report false")
	}

	_, _ = l.Get(context.Background(), func(context.Context) (int, error) { return 7, nil })
	v, ok := l.Reset()
	if !ok || v != 7 {
		t.Errorf("expected (7, true), got (%d, %v)", v, ok)
	}
	if _, ok := l.Peek(); ok {
		t.Error("expected empty value after Reset")
	}
}
