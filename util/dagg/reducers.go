package dagg

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd"
	"github.com/stdiopt/rollup/util/conv"
)

// Reducer folds values into an accumulator.
type Reducer struct {
	// Init returns the starting accumulator, nil if not set.
	Init func() any
	// Step folds a value into the accumulator.
	Step func(acc any, v any) any
	// Final transforms the accumulator into the reduced value, the
	// accumulator is used as is if not set.
	Final func(acc any) any
	// Identity is true if reducing no values has a meaningful result.
	Identity bool
}

func (r Reducer) init() any {
	if r.Init == nil {
		return nil
	}
	return r.Init()
}

func (r Reducer) final(acc any) any {
	if r.Final == nil {
		return acc
	}
	return r.Final(acc)
}

// Kind names a builtin reducer.
type Kind int

const (
	KindSum Kind = iota + 1
	KindCount
	KindMean
	KindMin
	KindMax
	KindFirst
	KindLast
	KindDecimalSum
)

var kindNames = map[Kind]string{
	KindSum:        "sum",
	KindCount:      "count",
	KindMean:       "mean",
	KindMin:        "min",
	KindMax:        "max",
	KindFirst:      "first",
	KindLast:       "last",
	KindDecimalSum: "decimal_sum",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid returns true if k is a builtin reducer.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind returns the Kind named s, "avg" is accepted as mean.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "avg" {
		return KindMean, nil
	}
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown reducer kind %q", s)
}

// Reducer returns the builtin reducer for the kind.
func (k Kind) Reducer() Reducer {
	switch k {
	case KindSum:
		return Sum()
	case KindCount:
		return Count()
	case KindMean:
		return Mean()
	case KindMin:
		return Min()
	case KindMax:
		return Max()
	case KindFirst:
		return First()
	case KindLast:
		return Last()
	case KindDecimalSum:
		return DecimalSum()
	}
	panic(fmt.Sprintf("invalid reducer kind: %v", k))
}

// Sum sums numeric values into a float64, non numeric values are ignored.
// Values are added as decimals so the result does not depend on the order
// they were added in.
func Sum() Reducer {
	return Reducer{
		Init:     func() any { return apd.New(0, 0) },
		Step:     addDecimal,
		Final:    func(acc any) any { return decimalFloat(acc.(*apd.Decimal)) },
		Identity: true,
	}
}

// Count counts the non nil values.
func Count() Reducer {
	return Reducer{
		Init: func() any { return 0 },
		Step: func(acc, v any) any {
			if v == nil {
				return acc
			}
			return acc.(int) + 1
		},
		Identity: true,
	}
}

type meanData struct {
	count int
	sum   *apd.Decimal
}

// Mean returns the average of numeric values, nil if there were none.
func Mean() Reducer {
	return Reducer{
		Init: func() any { return meanData{sum: apd.New(0, 0)} },
		Step: func(acc, v any) any {
			d, ok := conv.Decimal(v)
			if !ok {
				return acc
			}
			m := acc.(meanData)
			sum := new(apd.Decimal)
			if _, err := decimalContext.Add(sum, m.sum, d); err != nil {
				return acc
			}
			return meanData{count: m.count + 1, sum: sum}
		},
		Final: func(acc any) any {
			m := acc.(meanData)
			if m.count == 0 {
				return nil
			}
			q := new(apd.Decimal)
			if _, err := decimalContext.Quo(q, m.sum, apd.New(int64(m.count), 0)); err != nil {
				return decimalFloat(m.sum) / float64(m.count)
			}
			return decimalFloat(q)
		},
	}
}

// Min returns the smallest numeric value, nil if there were none.
func Min() Reducer {
	return extreme(func(a, b float64) bool { return a < b })
}

// Max returns the biggest numeric value, nil if there were none.
func Max() Reducer {
	return extreme(func(a, b float64) bool { return a > b })
}

func extreme(better func(a, b float64) bool) Reducer {
	return Reducer{
		Step: func(acc, v any) any {
			f, ok := conv.Float(v)
			if !ok {
				return acc
			}
			if cur, ok := acc.(float64); ok && !better(f, cur) {
				return acc
			}
			return f
		},
	}
}

// First returns the first non nil value.
func First() Reducer {
	return Reducer{
		Step: func(acc, v any) any {
			if acc != nil {
				return acc
			}
			return v
		},
	}
}

// Last returns the last non nil value.
func Last() Reducer {
	return Reducer{
		Step: func(acc, v any) any {
			if v == nil {
				return acc
			}
			return v
		},
	}
}

// decimalContext is used for exact sums, 34 digits like decimal128.
var decimalContext = apd.Context{
	Precision:   34,
	MaxExponent: apd.MaxExponent,
	MinExponent: apd.MinExponent,
	Traps:       apd.DefaultTraps,
}

// DecimalSum sums values as arbitrary precision decimals, the result is an
// *apd.Decimal and does not depend on the order values were added.
func DecimalSum() Reducer {
	return Reducer{
		Init:     func() any { return apd.New(0, 0) },
		Step:     addDecimal,
		Identity: true,
	}
}

// addDecimal returns a new *apd.Decimal with acc + v, acc itself if v is not
// numeric.
func addDecimal(acc, v any) any {
	d, ok := conv.Decimal(v)
	if !ok {
		return acc
	}
	sum := new(apd.Decimal)
	if _, err := decimalContext.Add(sum, acc.(*apd.Decimal), d); err != nil {
		return acc
	}
	return sum
}

func decimalFloat(d *apd.Decimal) float64 {
	// out of range sums parse as +-Inf along with the error
	f, _ := d.Float64()
	return f
}
