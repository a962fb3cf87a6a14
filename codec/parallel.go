package codec

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn(ctx, i) for i in [0, n) on at most workers goroutines
// (GOMAXPROCS when workers < 1). The first error cancels the remaining work
// and is returned; a cancelled parent context yields ctx.Err().
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
