package conv

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/apd"
)

// ToString returns a string representation of v, nil and nil pointers
// return an empty string.
func ToString(v any) string {
	if v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case *apd.Decimal:
		if v == nil {
			return ""
		}
		return v.String()
	default:
		val := reflect.ValueOf(v)
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return ""
			}
			return fmt.Sprint(val.Elem())
		}
		return fmt.Sprint(v)
	}
}
