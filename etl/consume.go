package etl

import (
	"context"
	"fmt"
	"io"
)

// CollectContext collects all iterator values into a slice.
func CollectContext[T any](ctx context.Context, it Iter) ([]T, error) {
	var xs []T
	err := ConsumeContext(ctx, it, func(v T) error {
		xs = append(xs, v)
		return nil
	})
	return xs, err
}

// Collect collects all iterator values into a slice.
func Collect[T any](it Iter) ([]T, error) {
	return CollectContext[T](context.Background(), it)
}

// ConsumeContext iterates over the given iterator and calls fn for each value,
// values that are not a T are reported as an error and nil values are passed
// as the zero T.
func ConsumeContext[T any](ctx context.Context, it Iter, fn func(T) error) error {
	for {
		vv, err := it.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var v T
		if vv != nil {
			var ok bool
			if v, ok = vv.(T); !ok {
				return fmt.Errorf("Consume: type mismatch: %T", vv)
			}
		}

		// Do nothing if nil but still consume.
		if fn == nil {
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// Consume iterates over the given iterator and calls fn for each value.
func Consume[T any](it Iter, fn func(T) error) error {
	return ConsumeContext(context.Background(), it, fn)
}

// Count consumes the iterator and return the number of iterations.
func Count(it Iter) (int, error) {
	ctx := context.Background()
	var n int
	for {
		_, err := it.Next(ctx)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}
