package set

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeyed(t *testing.T) {
	type test struct {
		add       []string
		wantData  []string
		wantIndex map[string]int
	}
	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			s := Keyed[string]{}
			for _, k := range tt.add {
				s.IndexOrAdd(k)
			}
			if diff := cmp.Diff(tt.wantData, s.Data); diff != "" {
				t.Errorf("Keyed.Data mismatch (-want +got):\n%s", diff)
			}
			for k, want := range tt.wantIndex {
				if got := s.Index(k); got != want {
					t.Errorf("Keyed.Index(%q) = %d, want %d", k, got, want)
				}
			}
		})
	}

	run("keeps insertion order", test{
		add:       []string{"1_2", "1_1", "2_1"},
		wantData:  []string{"1_2", "1_1", "2_1"},
		wantIndex: map[string]int{"1_2": 0, "1_1": 1, "2_1": 2},
	})
	run("ignores duplicates", test{
		add:       []string{"1", "2", "1", "2"},
		wantData:  []string{"1", "2"},
		wantIndex: map[string]int{"1": 0, "2": 1, "3": -1},
	})
	run("empty set", test{
		wantIndex: map[string]int{"1": -1},
	})
}

func TestKeyed_Clone(t *testing.T) {
	s := Keyed[int]{}
	s.IndexOrAdd(1)
	c := s.Clone()
	c.IndexOrAdd(2)
	if s.Len() != 1 || c.Len() != 2 {
		t.Fatalf("Clone shares state: %d %d", s.Len(), c.Len())
	}
	if s.Index(2) != -1 {
		t.Errorf("original set sees cloned key")
	}
}
