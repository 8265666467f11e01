package etl

import "context"

// ErrIter is an iterator that always returns an error.
func ErrIter(err error) Iter {
	return MakeIter(Custom[any]{
		Next: func(context.Context) (any, error) { return nil, err },
	})
}

// Values returns an iterator that iterates over the variadic arguments.
func Values[T any](vs ...T) Iter {
	return MakeIter(Custom[T]{
		Next: func(context.Context) (T, error) {
			var z T
			if len(vs) == 0 {
				return z, EOI
			}
			v := vs[0]
			vs = vs[1:]
			return v, nil
		},
	})
}

// Concat returns an iterator that consumes each iterator in sequence,
// closing it closes every iterator.
func Concat(its ...Iter) Iter {
	rest := its
	return MakeIter(Custom[any]{
		Next: func(ctx context.Context) (any, error) {
			for len(rest) > 0 {
				v, err := rest[0].Next(ctx)
				if err == EOI {
					rest = rest[1:]
					continue
				}
				return v, err
			}
			return nil, EOI
		},
		Close: func() error {
			var first error
			for _, it := range its {
				if err := it.Close(); err != nil && first == nil {
					first = err
				}
			}
			return first
		},
	})
}
