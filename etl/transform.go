package etl

import (
	"context"
	"fmt"
)

// FlatMap returns an iterator that yields every value of the slices produced
// by fn for each source value.
func FlatMap[Ti, To any](it Iter, fn func(Ti) ([]To, error)) Iter {
	var t []To
	return MakeIter(Custom[To]{
		Next: func(ctx context.Context) (To, error) {
			var z To
			for len(t) == 0 {
				vv, err := it.Next(ctx)
				if err != nil {
					return z, err
				}
				v, ok := vv.(Ti)
				if !ok {
					return z, fmt.Errorf("iter.FlatMap: type mismatch: %T", vv)
				}
				if t, err = fn(v); err != nil {
					return z, err
				}
			}

			v := t[0]
			t = t[1:]
			return v, nil
		},
		Close: it.Close,
	})
}

// Map returns an interator that transforms the values of the source
// iterator using the func fn.
func Map[Ti, To any](it Iter, fn func(Ti) To) Iter {
	return MapE(it, func(v Ti) (To, error) {
		return fn(v), nil
	})
}

// MapE is like Map but fn can fail.
func MapE[Ti, To any](it Iter, fn func(Ti) (To, error)) Iter {
	return MakeIter(Custom[To]{
		Next: func(ctx context.Context) (To, error) {
			var z To
			vv, err := it.Next(ctx)
			if err != nil {
				return z, err
			}
			v, ok := vv.(Ti)
			if !ok {
				return z, fmt.Errorf("iter.Map: type mismatch: %T", vv)
			}

			return fn(v)
		},
		Close: it.Close,
	})
}

type FilterFunc[T any] func(T) bool

// Filter returns an iterator that filters the values of the source given the func fn
// if fn returns true the value is passed through
func Filter[T any](it Iter, fn FilterFunc[T]) Iter {
	return MakeIter(Custom[T]{
		Next: func(ctx context.Context) (T, error) {
			var z T
			for {
				vv, err := it.Next(ctx)
				if err != nil {
					return z, err
				}
				v, ok := vv.(T)
				if !ok {
					return z, fmt.Errorf("iter.Filter: type mismatch: %T", vv)
				}
				if fn(v) {
					return v, nil
				}
			}
		},
		Close: it.Close,
	})
}
