package etlio

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stdiopt/rollup/etl"
)

func TestFromReader(t *testing.T) {
	type test struct {
		input   string
		bufSize int
		want    []string
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			it := FromReader(strings.NewReader(tt.input), WithBufSize(tt.bufSize))
			defer it.Close()

			chunks, err := etl.Collect[[]byte](it)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, c := range chunks {
				got = append(got, string(c))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromReader() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	run("chunked", test{
		input:   "abcdefg",
		bufSize: 3,
		want:    []string{"abc", "def", "g"},
	})
	run("single chunk", test{
		input:   "abc",
		bufSize: 0,
		want:    []string{"abc"},
	})
	run("empty", test{
		input:   "",
		bufSize: 3,
		want:    nil,
	})
}

func TestAsReader(t *testing.T) {
	ctx := context.Background()
	it := etl.Values([]byte("hello "), []byte{}, []byte("world"))
	rd := AsReader(ctx, it)
	defer rd.Close()

	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(rd); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "hello world" {
		t.Errorf("AsReader() = %q, want %q", got, "hello world")
	}

	_, err := AsReader(ctx, etl.Values(1)).Read(make([]byte, 4))
	if err == nil {
		t.Errorf("AsReader() expected error on non []byte values")
	}
}

func TestReadAll_WriteTo(t *testing.T) {
	ctx := context.Background()
	data, err := ReadAll(ctx, FromReader(strings.NewReader("rollup"), WithBufSize(2)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rollup" {
		t.Errorf("ReadAll() = %q, want %q", data, "rollup")
	}

	var got [][]byte
	w := YieldWriter(func(b []byte) error {
		got = append(got, b)
		return nil
	})
	if err := WriteTo(ctx, etl.Values([]byte("ab"), []byte("cd")), w); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]byte{[]byte("ab"), []byte("cd")}, got); diff != "" {
		t.Errorf("WriteTo() mismatch (-want +got):\n%s", diff)
	}
}
