// Package dagg provides a simple interface for aggregating data.
package dagg

import (
	"errors"
	"fmt"

	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/util/set"
)

type (
	// Row is a drow.Row
	Row = drow.Row
	// Field is a drow.Field
	Field = drow.Field
)

// ErrNoGroupFunc is returned when values are added before GroupBy is set.
var ErrNoGroupFunc = errors.New("missing group func")

// GroupFn type of function that will produce the key for the data to be
// grouped.
type GroupFn[K comparable, T any] func(T) (K, error)

// optField field to be reduced and aggregated.
type optField[T any] struct {
	name    string
	valueFn func(T) any
	reducer Reducer
}

// Agg is an aggregation struct with methods to perform aggregations.
type Agg[K comparable, T any] struct {
	groups set.Keyed[K]

	grpFn GroupFn[K, T]
	aggs  []optField[T]

	// accumulators per group, per reduction
	accs [][]any
}

// GroupBy sets the group function for the aggregation.
func (o *Agg[K, T]) GroupBy(fn GroupFn[K, T]) {
	o.grpFn = fn
}

// Reduce adds a named reduction of the value produced by valueFn.
func (o *Agg[K, T]) Reduce(name string, valueFn func(T) any, r Reducer) {
	o.aggs = append(o.aggs, optField[T]{name, valueFn, r})
}

// Identity returns true if every reduction has an identity value, meaning
// that aggregating nothing is well defined.
func (o *Agg[K, T]) Identity() bool {
	for _, a := range o.aggs {
		if !a.reducer.Identity {
			return false
		}
	}
	return true
}

// Len returns the number of groups.
func (o *Agg[K, T]) Len() int {
	return o.groups.Len()
}

// Add adds a value to be processed and aggregated.
func (o *Agg[K, T]) Add(value T) error {
	if o.grpFn == nil {
		return ErrNoGroupFunc
	}
	gv, err := o.grpFn(value)
	if err != nil {
		return err
	}

	gi, ok := o.groups.IndexOrAdd(gv)
	if !ok {
		acc := make([]any, len(o.aggs))
		for i, a := range o.aggs {
			acc[i] = a.reducer.init()
		}
		o.accs = append(o.accs, acc)
	}

	acc := o.accs[gi]
	for i, a := range o.aggs {
		acc[i] = a.reducer.Step(acc[i], a.valueFn(value))
	}
	return nil
}

// Each passes every group key and its reduced row to fn, in the order
// groups were first seen.
func (o *Agg[K, T]) Each(fn func(K, Row) error) error {
	for gi, k := range o.groups.Data {
		row := make(Row, len(o.aggs))
		for i, a := range o.aggs {
			row[i] = Field{Name: a.name, Value: a.reducer.final(o.accs[gi][i])}
		}
		if err := fn(k, row); err != nil {
			return fmt.Errorf("group %v: %w", k, err)
		}
	}
	return nil
}
