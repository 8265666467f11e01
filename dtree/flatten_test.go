package dtree

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stdiopt/rollup/dpath"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
)

type Row = drow.Row

var F = drow.F

var beltKeys = []string{"belt", "type_group"}

// nestedRecord is shaped like a grouped reduce regions feature.
func nestedRecord() Row {
	return Row{
		F("system:index", "0"),
		F("groups", []Row{
			{F("belt", 1), F("groups", []Row{
				{F("type_group", 1), F("sum", 10.0)},
				{F("type_group", 2), F("sum", 20.0)},
			})},
			{F("belt", 2), F("groups", []Row{
				{F("type_group", 1), F("sum", 5.0)},
			})},
		}),
	}
}

func TestFlatten(t *testing.T) {
	type test struct {
		record  Row
		keys    []string
		want    []Leaf
		wantErr error
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			keys := tt.keys
			if keys == nil {
				keys = beltKeys
			}
			got, err := Flatten(tt.record, keys)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Flatten() error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	run("nested groups", test{
		record: nestedRecord(),
		want: []Leaf{
			{dpath.Path{1, 1}, Row{F("sum", 10.0)}},
			{dpath.Path{1, 2}, Row{F("sum", 20.0)}},
			{dpath.Path{2, 1}, Row{F("sum", 5.0)}},
		},
	})
	run("flat record carries every key", test{
		record: Row{F("belt", 1), F("type_group", 2), F("value", 3)},
		want: []Leaf{
			{dpath.Path{1, 2}, Row{F("value", 3)}},
		},
	})
	run("nested deeper than keys", test{
		record:  nestedRecord(),
		keys:    []string{"belt"},
		wantErr: ErrShapeMismatch,
	})
	run("group without nested groups ends early", test{
		record: Row{F("groups", []Row{
			{F("belt", 3), F("groups", []Row{}), F("area", 1.5)},
			{F("belt", 4), F("groups", []Row{{F("type_group", 1), F("area", 2.5)}})},
		})},
		want: []Leaf{
			{dpath.Path{3}, Row{F("area", 1.5)}},
			{dpath.Path{4, 1}, Row{F("area", 2.5)}},
		},
	})
	run("empty top level groups", test{
		record: Row{F("groups", []Row{})},
	})
	run("strips bookkeeping attributes", test{
		record: Row{F("groups", []Row{
			{F("belt", 1), F("__parentPath__", "x"), F("type_group", 1), F("__path__", "1_1"), F("v", 1)},
		})},
		want: []Leaf{
			{dpath.Path{1, 1}, Row{F("v", 1)}},
		},
	})
	run("negative group values", test{
		record: Row{F("belt", -1), F("type_group", 0), F("v", 1)},
		want: []Leaf{
			{dpath.Path{-1, 0}, Row{F("v", 1)}},
		},
	})
	run("missing key in nested group", test{
		record: Row{F("groups", []Row{
			{F("belt", 1), F("groups", []Row{{F("other", 1)}})},
		})},
		wantErr: ErrMissingAttribute,
	})
	run("missing key at top", test{
		record:  Row{F("value", 1)},
		wantErr: ErrMissingAttribute,
	})
	run("non integer group value", test{
		record:  Row{F("belt", 1.5), F("type_group", 1)},
		wantErr: ErrFormat,
	})
	run("non numeric group value", test{
		record:  Row{F("belt", "north"), F("type_group", 1)},
		wantErr: ErrFormat,
	})
	run("malformed groups attribute", test{
		record:  Row{F("groups", "nope")},
		wantErr: ErrFormat,
	})
	run("no keys", test{
		record:  Row{F("belt", 1)},
		keys:    []string{},
		wantErr: ErrShapeMismatch,
	})
}

func TestFlatten_DoesNotMutate(t *testing.T) {
	rec := nestedRecord()
	before := rec.Clone()
	if _, err := Flatten(rec, beltKeys); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, rec); diff != "" {
		t.Errorf("Flatten() mutated the record (-want +got):\n%s", diff)
	}
}

func TestFlatten_JSONRecord(t *testing.T) {
	data := `{"type_group_area":1,"groups":[{"belt":1,"groups":[{"type_group":2,"sum":7.5}]}]}`
	var rec Row
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		t.Fatal(err)
	}
	got, err := Flatten(rec, beltKeys)
	if err != nil {
		t.Fatal(err)
	}
	want := []Leaf{{dpath.Path{1, 2}, Row{F("sum", 7.5)}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenIter(t *testing.T) {
	it := etl.Values(
		Row{F("belt", 1), F("type_group", 1), F("v", 1)},
		nestedRecord(),
	)
	leaves, n, err := FlattenIter(context.Background(), it, beltKeys)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(leaves) != 4 {
		t.Errorf("FlattenIter() = %d records %d leaves, want 2 and 4", n, len(leaves))
	}

	it = etl.Values(Row{F("belt", 1), F("type_group", 1)}, Row{F("v", 1)})
	if _, _, err := FlattenIter(context.Background(), it, beltKeys); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("FlattenIter() error = %v, want %v", err, ErrMissingAttribute)
	}
}

func TestFlattenAll(t *testing.T) {
	leaves, err := FlattenAll([]Row{nestedRecord(), nestedRecord()}, beltKeys)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 6 {
		t.Errorf("FlattenAll() = %d leaves, want 6", len(leaves))
	}
	if _, err := FlattenAll([]Row{nestedRecord(), {F("x", 1)}}, beltKeys); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("FlattenAll() error = %v", err)
	}
}
