package etl

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkersConsumeContext creates a pool of workers that call fn for every
// iteration value, the first error cancels ctx for every worker and is
// returned. The consumed Iter is closed upon finish.
func WorkersConsumeContext[Ti any](ctx context.Context, it Iter, workers int, fn func(context.Context, Ti) error) error {
	defer it.Close()
	if workers < 1 {
		workers = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	itval := make(chan Ti)
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for {
				select {
				case v, ok := <-itval:
					if !ok {
						return nil
					}
					if err := fn(ctx, v); err != nil {
						return err
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
	eg.Go(func() error {
		defer close(itval)
		return ConsumeContext(ctx, it, func(v Ti) error {
			select {
			case itval <- v:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	})
	return eg.Wait()
}
