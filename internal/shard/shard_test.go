package shard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		in       int
		expected int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{16, 16},
		{256, 256},
		{500, 256},
	}

	for _, tt := range tests {
		if got := Count(tt.in); got != tt.expected {
			t.Errorf("Count(%d) = %d, want %d", tt.in, got, tt.expected)
		}
	}
}

func TestEach_SingleSegment(t *testing.T) {
	var calls int
	err := Each(context.Background(), 0, func(_ context.Context, segment, total int32) error {
		calls++
		if segment != 0 || total != 1 {
			t.Errorf("expected segment 0 of 1, got %d of %d", segment, total)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestEach_CoversEverySegment(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	err := Each(context.Background(), 8, func(_ context.Context, segment, total int32) error {
		if total != 8 {
			t.Errorf("expected total 8, got %d", total)
		}
		mu.Lock()
		seen = append(seen, int(segment))
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Ints(seen)
	for i := 0; i < 8; i++ {
		if i >= len(seen) || seen[i] != i {
			t.Fatalf("expected segments 0..7 exactly once, got %v", seen)
		}
	}
}

func TestEach_FirstErrorCancelsOthers(t *testing.T) {
	boom := errors.New("boom")

	err := Each(context.Background(), 4, func(ctx context.Context, segment, _ int32) error {
		if segment == 2 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
