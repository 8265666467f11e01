// Package etldrow contains functions to manipulate iterators of drow.Row.
package etldrow

import (
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
)

// Iter is an etl.Iter.
type Iter = etl.Iter

// Row is a drow.Row.
type Row = drow.Row

// Select returns an iterator that yields rows with only the fields in names.
func Select(it Iter, names ...string) Iter {
	return etl.Map(it, func(row Row) Row {
		return row.Select(names...)
	})
}

// Drop returns an iterator that yields rows without the fields in names.
func Drop(it Iter, names ...string) Iter {
	if len(names) == 0 {
		return it
	}
	return etl.Map(it, func(row Row) Row {
		return row.Drop(names...)
	})
}

// Rename returns an iterator that yields rows with the field o renamed to n.
func Rename(it Iter, o, n string) Iter {
	return etl.Map(it, func(row Row) Row {
		return row.Rename(o, n)
	})
}
