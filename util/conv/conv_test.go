package conv

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/cockroachdb/apd"
)

func convtest[T Numbers]() func(any) any {
	return func(v any) any {
		return Conv[T](0, v)
	}
}

func TestConv(t *testing.T) {
	type args struct {
		v any
	}

	type test struct {
		args args
		fn   func(any) any
		want any
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			if got := tt.fn(tt.args.v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("conv() = %v, want %v", got, tt.want)
			}
		})
	}

	numbers := []any{
		int(73),
		int8(73),
		int16(73),
		int32(73),
		int64(73),
		uint(73),
		uint8(73),
		uint16(73),
		uint32(73),
		uint64(73),
		float32(73),
		float64(73),
		"73",
		[]byte("73"),
	}
	for _, n := range numbers {
		run(fmt.Sprintf("%T_to_int", n), test{args{v: n}, convtest[int](), 73})
		run(fmt.Sprintf("%T_to_int8", n), test{args{v: n}, convtest[int8](), int8(73)})
		run(fmt.Sprintf("%T_to_int16", n), test{args{v: n}, convtest[int16](), int16(73)})
		run(fmt.Sprintf("%T_to_int32", n), test{args{v: n}, convtest[int32](), int32(73)})
		run(fmt.Sprintf("%T_to_int64", n), test{args{v: n}, convtest[int64](), int64(73)})
		run(fmt.Sprintf("%T_to_uint", n), test{args{v: n}, convtest[uint](), uint(73)})
		run(fmt.Sprintf("%T_to_uint8", n), test{args{v: n}, convtest[uint8](), uint8(73)})
		run(fmt.Sprintf("%T_to_uint16", n), test{args{v: n}, convtest[uint16](), uint16(73)})
		run(fmt.Sprintf("%T_to_uint32", n), test{args{v: n}, convtest[uint32](), uint32(73)})
		run(fmt.Sprintf("%T_to_uint64", n), test{args{v: n}, convtest[uint64](), uint64(73)})
		run(fmt.Sprintf("%T_to_float32", n), test{args{v: n}, convtest[float32](), float32(73)})
		run(fmt.Sprintf("%T_to_float64", n), test{args{v: n}, convtest[float64](), float64(73)})
	}
	run("decimal_to_float64", test{args{v: apd.New(7357, -2)}, convtest[float64](), float64(73.57)})
	run("json_number_to_int", test{args{v: json.Number("73")}, convtest[int](), 73})
	run("nil_uses_default", test{args{v: nil}, func(v any) any { return Conv(-1, v) }, -1})
	run("allow overflow", test{args{v: uint32(0xFFFF1010)}, convtest[uint8](), uint8(0x10)})
	run("floatstring_to_float32", test{args{v: "73.57"}, convtest[float64](), float64(73.57)})
	run("floatstring_to_float64", test{args{v: "73.57"}, convtest[float64](), float64(73.57)})
}

func TestInteger(t *testing.T) {
	type test struct {
		v      any
		want   int64
		wantOK bool
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, ok := Integer(tt.v)
			if ok != tt.wantOK {
				t.Fatalf("Integer() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Integer() = %v, want %v", got, tt.want)
			}
		})
	}

	run("int", test{v: 3, want: 3, wantOK: true})
	run("negative int64", test{v: int64(-4), want: -4, wantOK: true})
	run("integral float", test{v: float64(2), want: 2, wantOK: true})
	run("fractional float", test{v: 2.5, wantOK: false})
	run("numeric string", test{v: "12", want: 12, wantOK: true})
	run("float string", test{v: "12.0", want: 12, wantOK: true})
	run("json number", test{v: json.Number("7"), want: 7, wantOK: true})
	run("decimal", test{v: apd.New(42, 0), want: 42, wantOK: true})
	run("word", test{v: "belt", wantOK: false})
	run("nil", test{v: nil, wantOK: false})
	run("bool", test{v: true, wantOK: false})
}

func TestDecimal(t *testing.T) {
	run := func(name string, v any, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			d, ok := Decimal(v)
			if !ok {
				t.Fatalf("Decimal(%v) failed", v)
			}
			if got := d.String(); got != want {
				t.Errorf("Decimal() = %v, want %v", got, want)
			}
		})
	}

	run("int", 10, "10")
	run("string", "0.10", "0.10")
	run("float", 0.5, "0.5")
	run("decimal copy", apd.New(15, -1), "1.5")

	for _, v := range []any{math.NaN(), "n/a", nil, true} {
		if d, ok := Decimal(v); ok {
			t.Errorf("Decimal(%v) = %v, want not numeric", v, d)
		}
	}
}
