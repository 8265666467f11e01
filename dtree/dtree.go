// Package dtree reduces records with nested groups into an aggregate tree.
//
// Records are flattened into leaves tagged with the path of their group
// values, leaves sharing a path are reduced together and the reduced rows
// are rebuilt into a tree with one level per group key. A tree can be
// threaded through several calls, later reductions are merged into it.
package dtree

import (
	"context"
	"fmt"

	"github.com/stdiopt/rollup/etl"
	"go.uber.org/zap"
)

// ReduceGroups consumes the records of it, reduces them by group path and
// returns the aggregate tree. WithTree merges into an existing tree, which is
// only modified if every step succeeded.
func ReduceGroups(ctx context.Context, it etl.Iter, r Reducer, keys []string, opts ...OptFunc) (*Tree, error) {
	o := makeOptions(opts...)
	log := o.logger.With(zap.Strings("keys", keys))

	leaves, n, err := FlattenIter(ctx, it, keys)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	log.Debug("flattened records", zap.Int("records", n), zap.Int("leaves", len(leaves)))

	rows, err := Reduce(ctx, leaves, r, opts...)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}

	t, err := Rebuild(rows, keys, o.tree)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	log.Debug("rebuilt tree", zap.Int("rows", len(rows)), zap.Int("buckets", t.Len()))
	return t, nil
}
