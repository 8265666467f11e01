package dtree

import (
	"fmt"

	"github.com/stdiopt/rollup/drow"
	"golang.org/x/exp/slices"
)

// Rebuild merges the reduced rows into t, creating the groups missing along
// each path and merging attributes into the existing buckets. A nil t starts
// a new tree.
//
// Every row is checked before t is modified, on error t is left untouched.
func Rebuild(rows []ReducedRow, keys []string, t *Tree) (*Tree, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no group keys", ErrShapeMismatch)
	}
	switch {
	case t == nil:
		t = NewTree(keys...)
	case t.keys == nil && len(t.nodes) == 0:
		t.keys = append([]string(nil), keys...)
	case !slices.Equal(t.keys, keys):
		return nil, fmt.Errorf("%w: tree keys %q, rebuild keys %q", ErrShapeMismatch, t.keys, keys)
	}

	for i, r := range rows {
		if r.Path.Len() != len(keys) {
			return nil, fmt.Errorf("%w: row %d path %q has %d levels, want %d",
				ErrShapeMismatch, i, r.Path.String(), r.Path.Len(), len(keys))
		}
	}
	for _, r := range rows {
		t.upsert(r.Path, r.Row)
	}
	return t, nil
}

// RebuildEncoded decodes rows produced by ReducedRow.Encode and rebuilds
// them into t.
func RebuildEncoded(rows []drow.Row, keys []string, t *Tree) (*Tree, error) {
	reduced := make([]ReducedRow, len(rows))
	for i, row := range rows {
		r, err := DecodeReducedRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		reduced[i] = r
	}
	return Rebuild(reduced, keys, t)
}

// FromRow loads a tree from its nested record form, as produced by Tree.Row.
func FromRow(row drow.Row, keys []string) (*Tree, error) {
	leaves, err := Flatten(row, keys)
	if err != nil {
		return nil, err
	}
	rows := make([]ReducedRow, len(leaves))
	for i, l := range leaves {
		rows[i] = ReducedRow(l)
	}
	return Rebuild(rows, keys, nil)
}
