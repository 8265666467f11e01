package etl

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTransform(t *testing.T) {
	type test struct {
		iter func() Iter
		want []int
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, err := Collect[int](tt.iter())
			if err != nil {
				t.Fatalf("Collect() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	run("values", test{
		iter: func() Iter { return Values(1, 2, 3) },
		want: []int{1, 2, 3},
	})
	run("map", test{
		iter: func() Iter {
			return Map(Values(1, 2, 3), func(v int) int { return v * 2 })
		},
		want: []int{2, 4, 6},
	})
	run("flatmap skips empty results", test{
		iter: func() Iter {
			return FlatMap(Values(1, 0, 2), func(v int) ([]int, error) {
				ret := []int{}
				for i := 0; i < v; i++ {
					ret = append(ret, v)
				}
				return ret, nil
			})
		},
		want: []int{1, 2, 2},
	})
	run("filter", test{
		iter: func() Iter {
			return Filter(Values(1, 2, 3, 4), func(v int) bool { return v%2 == 0 })
		},
		want: []int{2, 4},
	})
	run("concat", test{
		iter: func() Iter { return Concat(Values(1), Values[int](), Values(2, 3)) },
		want: []int{1, 2, 3},
	})
	run("gen", test{
		iter: func() Iter {
			return MakeGen(Gen[int]{
				Run: func(_ context.Context, yield Y[int]) error {
					for i := 0; i < 3; i++ {
						if err := yield(i); err != nil {
							return err
						}
					}
					return nil
				},
			})
		},
		want: []int{0, 1, 2},
	})
}

func TestConsume_Errors(t *testing.T) {
	errBoom := errors.New("boom")
	if err := Consume(ErrIter(errBoom), func(any) error { return nil }); !errors.Is(err, errBoom) {
		t.Errorf("Consume(ErrIter) error = %v", err)
	}
	if err := Consume(Values("a"), func(int) error { return nil }); err == nil {
		t.Errorf("Consume() with mismatched type should fail")
	}
	it := MapE(Values(1), func(int) (int, error) { return 0, errBoom })
	if _, err := Collect[int](it); !errors.Is(err, errBoom) {
		t.Errorf("MapE error = %v", err)
	}
}

func TestConsume_Nil(t *testing.T) {
	var got []any
	err := Consume(Values[any](1, nil, "a"), func(v any) error {
		got = append(got, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	if diff := cmp.Diff([]any{1, nil, "a"}, got); diff != "" {
		t.Errorf("Consume() mismatch (-want +got):\n%s", diff)
	}

	rows, err := Collect[[]int](Values[any](nil, []int{1}))
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if diff := cmp.Diff([][]int{nil, {1}}, rows); diff != "" {
		t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
	}
}

func TestCount(t *testing.T) {
	n, err := Count(Values(1, 2, 3, 4))
	if err != nil || n != 4 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}

func TestWorkersConsume(t *testing.T) {
	var mu sync.Mutex
	var got []int
	err := WorkersConsumeContext(context.Background(), Values(1, 2, 3, 4, 5), 3, func(_ context.Context, v int) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v*10)
		return nil
	})
	if err != nil {
		t.Fatalf("WorkersConsumeContext() error: %v", err)
	}
	sort.Ints(got)
	if diff := cmp.Diff([]int{10, 20, 30, 40, 50}, got); diff != "" {
		t.Errorf("WorkersConsumeContext() mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkersConsume_Error(t *testing.T) {
	errBoom := errors.New("boom")
	err := WorkersConsumeContext(context.Background(), Values(1, 2, 3), 2, func(_ context.Context, v int) error {
		if v == 2 {
			return errBoom
		}
		return nil
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("WorkersConsumeContext() error = %v, want %v", err, errBoom)
	}
}
