package dtree

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/stdiopt/rollup/dpath"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/util/dagg"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// ReducedRow is the reduction of every leaf sharing a path.
type ReducedRow struct {
	Path dpath.Path
	Row  drow.Row
}

// Encode returns the row with the encoded path in the __path__ attribute.
func (r ReducedRow) Encode() drow.Row {
	return append(drow.Row{drow.F(drow.KeyPath.String(), r.Path.String())}, r.Row...)
}

// DecodeReducedRow reads a row produced by ReducedRow.Encode.
func DecodeReducedRow(row drow.Row) (ReducedRow, error) {
	f, ok := row.Lookup(drow.KeyPath.String())
	if !ok {
		return ReducedRow{}, fmt.Errorf("%w: %q", ErrMissingAttribute, drow.KeyPath.String())
	}
	s, ok := f.Value.(string)
	if !ok {
		return ReducedRow{}, fmt.Errorf("%w: path is %T, want string", ErrFormat, f.Value)
	}
	p, err := dpath.Decode(s)
	if err != nil {
		return ReducedRow{}, err
	}
	return ReducedRow{Path: p, Row: row.Payload()}, nil
}

// Spec describes the reduction of one payload attribute.
type Spec struct {
	// Field is the payload attribute to reduce.
	Field string
	// As is the name of the reduced attribute, Field if empty.
	As string
	// Kind is a builtin reducer, ignored if Custom is set.
	Kind dagg.Kind
	// Custom is a caller supplied reducer.
	Custom *dagg.Reducer
}

func (s Spec) name() string {
	if s.As != "" {
		return s.As
	}
	return s.Field
}

func (s Spec) reducer() dagg.Reducer {
	if s.Custom != nil {
		return *s.Custom
	}
	return s.Kind.Reducer()
}

func spec(kind dagg.Kind, field string, as []string) Spec {
	s := Spec{Field: field, Kind: kind}
	if len(as) > 0 {
		s.As = as[0]
	}
	return s
}

// Sum returns a spec that sums the field.
func Sum(field string, as ...string) Spec { return spec(dagg.KindSum, field, as) }

// Count returns a spec that counts the non nil values of the field.
func Count(field string, as ...string) Spec { return spec(dagg.KindCount, field, as) }

// Mean returns a spec that averages the field.
func Mean(field string, as ...string) Spec { return spec(dagg.KindMean, field, as) }

// Min returns a spec with the smallest value of the field.
func Min(field string, as ...string) Spec { return spec(dagg.KindMin, field, as) }

// Max returns a spec with the biggest value of the field.
func Max(field string, as ...string) Spec { return spec(dagg.KindMax, field, as) }

// First returns a spec with the first non nil value of the field.
func First(field string, as ...string) Spec { return spec(dagg.KindFirst, field, as) }

// DecimalSum returns a spec that sums the field as exact decimals.
func DecimalSum(field string, as ...string) Spec { return spec(dagg.KindDecimalSum, field, as) }

// Custom returns a spec using a caller supplied reducer.
func Custom(field string, r dagg.Reducer, as ...string) Spec {
	s := spec(0, field, as)
	s.Custom = &r
	return s
}

// Reducer is an ordered set of attribute reductions.
type Reducer struct {
	specs []Spec
	all   dagg.Kind
}

// NewReducer returns a reducer applying specs in order.
func NewReducer(specs ...Spec) Reducer {
	return Reducer{specs: specs}
}

// All returns a reducer that applies kind to every payload attribute found
// in the leaves, in name order.
func All(kind dagg.Kind) Reducer {
	return Reducer{all: kind}
}

// ParseReducer builds a reducer from an attribute to reducer kind mapping,
// attributes are reduced in name order.
func ParseReducer(m map[string]string) (Reducer, error) {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	r := Reducer{}
	for _, f := range fields {
		k, err := dagg.ParseKind(m[f])
		if err != nil {
			return Reducer{}, fmt.Errorf("attribute %q: %w", f, err)
		}
		r.specs = append(r.specs, Spec{Field: f, Kind: k})
	}
	return r, nil
}

// Specs returns the reductions applied to leaves.
func (r Reducer) Specs(leaves []Leaf) []Spec {
	if r.all == 0 {
		return r.specs
	}
	var specs []Spec
	for _, c := range payloadColumns(leaves) {
		specs = append(specs, Spec{Field: c, Kind: r.all})
	}
	return specs
}

// payloadColumns returns the union of leaf attributes sorted by name, so the
// reduced rows have the same layout whatever the leaf order.
func payloadColumns(leaves []Leaf) []string {
	var cols []string
	for _, l := range leaves {
		for _, f := range l.Row {
			if !slices.Contains(cols, f.Name) {
				cols = append(cols, f.Name)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Reduce groups leaves by path and applies the reducer to each group. Rows
// are returned sorted by path so the result doesn't depend on leaf order.
func Reduce(ctx context.Context, leaves []Leaf, r Reducer, opts ...OptFunc) ([]ReducedRow, error) {
	o := makeOptions(opts...)

	specs := r.Specs(leaves)
	for _, s := range specs {
		if s.Custom == nil && !s.Kind.Valid() {
			return nil, fmt.Errorf("attribute %q: invalid reducer kind %v", s.Field, s.Kind)
		}
	}
	if o.carry {
		specs = append(specs, carrySpecs(leaves, specs)...)
	}
	if len(leaves) == 0 {
		for _, s := range specs {
			if !s.reducer().Identity {
				return nil, fmt.Errorf("%w: reducer %q has no identity value", ErrEmptyInput, s.name())
			}
		}
		if r.all != 0 && (!r.all.Valid() || !r.all.Reducer().Identity) {
			return nil, fmt.Errorf("%w: reducer %v has no identity value", ErrEmptyInput, r.all)
		}
		return nil, nil
	}

	var rows []ReducedRow
	if o.workers <= 1 || len(leaves) < o.workers {
		rows = reduceShard(leaves, specs)
	} else {
		var err error
		rows, err = reduceSharded(ctx, leaves, specs, o.workers)
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Path.Compare(rows[j].Path) < 0
	})

	o.logger.Debug("reduced leaves",
		zap.Int("leaves", len(leaves)),
		zap.Int("paths", len(rows)),
		zap.Int("workers", o.workers),
	)
	return rows, nil
}

// carrySpecs returns a First spec for every payload attribute not reduced by
// specs.
func carrySpecs(leaves []Leaf, specs []Spec) []Spec {
	used := map[string]bool{}
	for _, s := range specs {
		used[s.Field] = true
		used[s.name()] = true
	}
	var carry []Spec
	for _, c := range payloadColumns(leaves) {
		if used[c] {
			continue
		}
		carry = append(carry, First(c))
	}
	return carry
}

func reduceShard(leaves []Leaf, specs []Spec) []ReducedRow {
	a := &dagg.Agg[string, Leaf]{}
	paths := map[string]dpath.Path{}
	a.GroupBy(func(l Leaf) (string, error) {
		k := l.Path.String()
		if _, ok := paths[k]; !ok {
			paths[k] = l.Path
		}
		return k, nil
	})
	for _, s := range specs {
		field := s.Field
		a.Reduce(s.name(), func(l Leaf) any {
			return l.Row.Value(field)
		}, s.reducer())
	}
	for _, l := range leaves {
		// group func never fails
		_ = a.Add(l)
	}

	rows := make([]ReducedRow, 0, a.Len())
	_ = a.Each(func(k string, row drow.Row) error {
		rows = append(rows, ReducedRow{Path: paths[k], Row: row})
		return nil
	})
	return rows
}

// reduceSharded partitions leaves by path so every path is reduced by a
// single worker.
func reduceSharded(ctx context.Context, leaves []Leaf, specs []Spec, workers int) ([]ReducedRow, error) {
	shards := make([][]Leaf, workers)
	for _, l := range leaves {
		h := fnv.New32a()
		h.Write([]byte(l.Path.String()))
		i := int(h.Sum32() % uint32(workers))
		shards[i] = append(shards[i], l)
	}

	results := make([][]ReducedRow, workers)
	idx := make([]int, workers)
	for i := range idx {
		idx[i] = i
	}
	err := etl.WorkersConsumeContext(ctx, etl.Values(idx...), workers, func(_ context.Context, i int) error {
		results[i] = reduceShard(shards[i], specs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var rows []ReducedRow
	for _, r := range results {
		rows = append(rows, r...)
	}
	return rows, nil
}
