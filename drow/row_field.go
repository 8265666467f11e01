package drow

import (
	"github.com/stdiopt/rollup/util/conv"
)

// Field is a single field in a row
type Field struct {
	Name  string
	Value any
}

// F creates a new field.
func F(name string, v any) Field {
	return Field{
		Name:  name,
		Value: v,
	}
}

// String returns the string representation of the field
func (f Field) String() string { return conv.ToString(f.Value) }

// Int returns the int representation of the field or zero if it can't be converted
func (f Field) Int() int { return conv.Conv(0, f.Value) }

// Int64 returns the int64 representation of the field or zero if it can't be converted
func (f Field) Int64() int64 { return conv.Conv(int64(0), f.Value) }

// Float64 returns the float64 representation of the field or zero if it can't be converted
func (f Field) Float64() float64 { return conv.Conv(float64(0), f.Value) }
