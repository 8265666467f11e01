// Package conv provides a simple way to convert between types.
package conv

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd"
	"golang.org/x/exp/constraints"
)

type Numbers interface {
	constraints.Integer | constraints.Float
}

// Conv converts v to T, returning def if no conversion is possible.
// This can lose data i.e converting int32 to int8 or float to int.
func Conv[T Numbers](def T, v any) T {
	var z T
	switch v := v.(type) {
	case nil:
		return def
	case []byte:
		return Conv(def, string(v))
	case json.Number:
		return Conv(def, string(v))
	case string:
		v = strings.TrimSpace(v)
		switch any(z).(type) {
		case uint, uint8, uint16, uint32, uint64:
			r, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return z
			}
			return T(r)
		case int, int8, int16, int32, int64:
			r, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return z
			}
			return T(r)
		case float32, float64:
			r, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return z
			}
			return T(r)
		}
		return z
	case int8:
		return T(v)
	case int16:
		return T(v)
	case int32:
		return T(v)
	case int64:
		return T(v)
	case int:
		return T(v)
	case float32:
		return T(v)
	case float64:
		return T(v)
	case uint:
		return T(v)
	case uint8:
		return T(v)
	case uint16:
		return T(v)
	case uint32:
		return T(v)
	case uint64:
		return T(v)
	case *apd.Decimal:
		if v == nil {
			return def
		}
		f, err := v.Float64()
		if err != nil {
			return def
		}
		return T(f)
	case apd.Decimal:
		return Conv(def, &v)
	default:
		// Dereference pointers and try again
		val := reflect.ValueOf(v)
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return def
			}
			return Conv(def, val.Elem().Interface())
		}
		return def
	}
}

// Integer returns v as an int64 if v holds an integral number, floats with a
// fractional part and non numeric values return false.
func Integer(v any) (int64, bool) {
	switch v := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return Integer(float64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		if v > math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		return Integer(string(v))
	case []byte:
		return Integer(string(v))
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return Integer(f)
	case *apd.Decimal:
		if v == nil {
			return 0, false
		}
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case apd.Decimal:
		return Integer(&v)
	default:
		val := reflect.ValueOf(v)
		if val.Kind() == reflect.Ptr && !val.IsNil() {
			return Integer(val.Elem().Interface())
		}
		return 0, false
	}
}

// Float returns v as a float64, false if v is not numeric.
func Float(v any) (float64, bool) {
	switch v := v.(type) {
	case nil:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		return Float(string(v))
	case json.Number:
		return Float(string(v))
	case bool:
		return 0, false
	}
	if i, ok := Integer(v); ok {
		return float64(i), true
	}
	f := Conv(math.NaN(), v)
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Decimal returns v as a new apd.Decimal, false if v is not numeric.
func Decimal(v any) (*apd.Decimal, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false
	case *apd.Decimal:
		if v == nil {
			return nil, false
		}
		return new(apd.Decimal).Set(v), true
	case apd.Decimal:
		return new(apd.Decimal).Set(&v), true
	case string:
		d, _, err := apd.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, false
		}
		return d, true
	case []byte:
		return Decimal(string(v))
	case json.Number:
		return Decimal(string(v))
	case float32, float64:
		f, ok := Float(v)
		if !ok {
			return nil, false
		}
		d, err := new(apd.Decimal).SetFloat64(f)
		if err != nil {
			return nil, false
		}
		return d, true
	}
	if i, ok := Integer(v); ok {
		return apd.New(i, 0), true
	}
	return nil, false
}
