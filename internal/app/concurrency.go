package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parallel2 runs a and b concurrently. If either fails the other's context
// is canceled and only the first error is returned, with zero results.
func Parallel2[A, B any](
	ctx context.Context,
	a func(context.Context) (A, error),
	b func(context.Context) (B, error),
) (A, B, error) {
	var (
		ra A
		rb B
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ra, err = a(gctx)
		return err
	})
	g.Go(func() (err error) {
		rb, err = b(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			za A
			zb B
		)

		return za, zb, err
	}

	return ra, rb, nil
}
