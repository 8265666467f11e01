// Package etl provides a simple iterator interface used as the record
// collection consumed by the group reducer.
package etl

import (
	"context"
	"io"
)

// EOI is returned when iterator doesn't have more data.
var EOI = io.EOF

// Iter iterator interface.
type Iter interface {
	Next(context.Context) (any, error)
	Close() error
}

// Custom describes an iterator by its funcs, nil funcs are valid.
type Custom[T any] struct {
	Next  func(context.Context) (T, error)
	Close func() error
}

// MakeIter creates an Iter from the custom funcs.
func MakeIter[T any](c Custom[T]) Iter {
	return &iter[T]{
		nextfn:  c.Next,
		closefn: c.Close,
	}
}

type iter[T any] struct {
	nextfn  func(context.Context) (T, error)
	closefn func() error
}

func (it *iter[T]) Next(ctx context.Context) (any, error) {
	if it.nextfn == nil {
		return nil, EOI
	}
	return it.nextfn(ctx)
}

func (it *iter[T]) Close() error {
	if it.closefn == nil {
		return nil
	}
	return it.closefn()
}
