package dtree

import (
	"context"
	"fmt"

	"github.com/stdiopt/rollup/dpath"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/util/conv"
)

// Leaf is a terminal group tagged with its path, the row only holds the
// payload attributes.
type Leaf struct {
	Path dpath.Path
	Row  drow.Row
}

// pending is a group waiting for the key of the current level.
type pending struct {
	parent dpath.Path
	row    drow.Row
}

// Flatten walks the nested groups of record and returns one leaf per
// terminal group.
//
// Groups are consumed one key per level, outermost first. A record without
// groups is its own single group, a record with an empty groups list has no
// leaves. A group without nested groups that still carries the next key
// continues to the next level by itself, otherwise it ends there and the
// leaf path is shorter than keys.
func Flatten(record drow.Row, keys []string) ([]Leaf, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no group keys", ErrShapeMismatch)
	}

	top, present, err := nestedGroups(record)
	if err != nil {
		return nil, err
	}
	// An explicit empty top level means nothing was grouped.
	if present && len(top) == 0 {
		return nil, nil
	}
	var live []pending
	if !present {
		live = []pending{{row: record}}
	}
	for _, g := range top {
		live = append(live, pending{row: g})
	}

	var leaves []Leaf
	for depth, key := range keys {
		var next []pending
		for _, g := range live {
			f, ok := g.row.Lookup(key)
			if !ok {
				return nil, fmt.Errorf("%w: group key %q at level %d under path %q",
					ErrMissingAttribute, key, depth, g.parent.String())
			}
			v, ok := conv.Integer(f.Value)
			if !ok {
				return nil, fmt.Errorf("%w: group key %q has non integer value %v (%T)",
					ErrFormat, key, f.Value, f.Value)
			}
			path := g.parent.Append(int(v))

			children, _, err := nestedGroups(g.row)
			if err != nil {
				return nil, err
			}
			if len(children) > 0 {
				if depth == len(keys)-1 {
					return nil, fmt.Errorf("%w: groups under path %q are nested deeper than %d keys",
						ErrShapeMismatch, path.String(), len(keys))
				}
				for _, c := range children {
					next = append(next, pending{parent: path, row: c})
				}
				continue
			}

			rest := g.row.Drop(key, drow.KeyGroups.String())
			if depth < len(keys)-1 && rest.Has(keys[depth+1]) {
				next = append(next, pending{parent: path, row: rest})
				continue
			}
			leaves = append(leaves, Leaf{Path: path, Row: rest.Payload()})
		}
		live = next
	}
	return leaves, nil
}

// FlattenAll flattens every record, leaves are returned in record order.
func FlattenAll(records []drow.Row, keys []string) ([]Leaf, error) {
	var leaves []Leaf
	for i, r := range records {
		ls, err := Flatten(r, keys)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		leaves = append(leaves, ls...)
	}
	return leaves, nil
}

// FlattenIter consumes an iterator of drow.Row and flattens every record.
// It returns the leaves and the number of records consumed.
func FlattenIter(ctx context.Context, it etl.Iter, keys []string) ([]Leaf, int, error) {
	var leaves []Leaf
	n := 0
	err := etl.ConsumeContext(ctx, it, func(r drow.Row) error {
		ls, err := Flatten(r, keys)
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		n++
		leaves = append(leaves, ls...)
		return nil
	})
	if err != nil {
		return nil, n, err
	}
	return leaves, n, nil
}

// nestedGroups returns the nested groups of r and whether the attribute is
// present.
func nestedGroups(r drow.Row) ([]drow.Row, bool, error) {
	groups, ok := r.Groups()
	if ok {
		return groups, true, nil
	}
	if !r.Has(drow.KeyGroups.String()) {
		return nil, false, nil
	}
	return nil, true, fmt.Errorf("%w: %q attribute is %T, want a list of records",
		ErrFormat, drow.KeyGroups.String(), r.Value(drow.KeyGroups.String()))
}
