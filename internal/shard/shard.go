// Package shard fans work out over DynamoDB parallel scan segments.
package shard

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MaxSegments caps the number of parallel scan segments.
const MaxSegments = 256

// Count normalises a requested segment count to the range [1, MaxSegments].
func Count(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxSegments {
		return MaxSegments
	}
	return n
}

// Each calls fn once per segment and returns the first error. With more than
// one segment the calls run concurrently and the context passed to fn is
// cancelled as soon as any of them fails.
func Each(ctx context.Context, n int, fn func(ctx context.Context, segment, total int32) error) error {
	total := Count(n)
	if total == 1 {
		return fn(ctx, 0, 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < total; i++ {
		segment := int32(i)
		g.Go(func() error {
			return fn(gctx, segment, int32(total))
		})
	}
	return g.Wait()
}
