package dpath

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode(t *testing.T) {
	type test struct {
		indices []int
		want    string
	}
	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			if got := Encode(tt.indices); got != tt.want {
				t.Errorf("Encode()\nwant: %q\n got: %q", tt.want, got)
			}
		})
	}

	run("single", test{indices: []int{1}, want: "1"})
	run("nested", test{indices: []int{1, 2, 30}, want: "1_2_30"})
	run("no padding", test{indices: []int{0, 7}, want: "0_7"})
	run("negative", test{indices: []int{-1, 2}, want: "-1_2"})
	run("empty", test{want: ""})
}

func TestDecode(t *testing.T) {
	type test struct {
		s       string
		want    Path
		wantErr error
	}
	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, err := Decode(tt.s)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	run("single", test{s: "3", want: Path{3}})
	run("nested", test{s: "1_2_30", want: Path{1, 2, 30}})
	run("negative", test{s: "-1_2", want: Path{-1, 2}})
	run("empty", test{s: "", wantErr: ErrFormat})
	run("empty segment", test{s: "1__2", wantErr: ErrFormat})
	run("trailing delimiter", test{s: "1_", wantErr: ErrFormat})
	run("not a number", test{s: "1_a", wantErr: ErrFormat})
	run("float segment", test{s: "1.5", wantErr: ErrFormat})
	run("plus sign", test{s: "+1_2", wantErr: ErrFormat})
	run("zero padded", test{s: "1_02", wantErr: ErrFormat})
	run("negative zero", test{s: "-0", wantErr: ErrFormat})
	run("zero", test{s: "0_0", want: Path{0, 0}})
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		xs := make([]int, 1+rnd.Intn(6))
		for j := range xs {
			xs[j] = rnd.Intn(1 << 20)
		}
		got, err := Decode(Encode(xs))
		if err != nil {
			t.Fatalf("Decode(Encode(%v)) error: %v", xs, err)
		}
		if diff := cmp.Diff(Path(xs), got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestPath_Compare(t *testing.T) {
	type test struct {
		a, b Path
		want int
	}
	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}

	run("equal", test{a: Path{1, 2}, b: Path{1, 2}, want: 0})
	run("numeric not lexical", test{a: Path{2}, b: Path{10}, want: -1})
	run("outer level first", test{a: Path{2, 1}, b: Path{1, 9}, want: 1})
	run("prefix sorts first", test{a: Path{1}, b: Path{1, 0}, want: -1})
}

func TestPath_Append(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = 1
	a := base.Append(2)
	b := base.Append(3)
	if diff := cmp.Diff(Path{1, 2}, a); diff != "" {
		t.Errorf("Append() shares backing array (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Path{1, 3}, b); diff != "" {
		t.Errorf("Append() mismatch (-want +got):\n%s", diff)
	}
}
