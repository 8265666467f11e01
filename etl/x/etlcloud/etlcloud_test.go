package etlcloud

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
)

func TestSplitURL(t *testing.T) {
	type test struct {
		url        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			b, k, err := SplitURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if b != tt.wantBucket || k != tt.wantKey {
				t.Errorf("SplitURL() = %q, %q, want %q, %q", b, k, tt.wantBucket, tt.wantKey)
			}
		})
	}

	run("s3", test{
		url:        "s3://exports/regions/part-0.json?region=eu-west-1",
		wantBucket: "s3://exports?region=eu-west-1",
		wantKey:    "regions/part-0.json",
	})
	run("file", test{
		url:        "file:///tmp/exports/part-0.json",
		wantBucket: "file:///tmp/exports",
		wantKey:    "part-0.json",
	})
	run("no scheme", test{
		url:     "part-0.json",
		wantErr: true,
	})
}

func TestGetObject(t *testing.T) {
	ctx := context.Background()
	b := memblob.OpenBucket(nil)
	defer b.Close()

	if err := b.WriteAll(ctx, "regions/a.json", []byte(`{"belt":1}`), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteAll(ctx, "regions/b.json", []byte(`{"belt":2}`), nil); err != nil {
		t.Fatal(err)
	}

	data, err := etlio.ReadAll(ctx, GetObject(ctx, b, "regions/a.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"belt":1}` {
		t.Errorf("GetObject() = %q", data)
	}

	if _, err := etlio.ReadAll(ctx, GetObject(ctx, b, "missing")); err == nil {
		t.Errorf("GetObject() expected error for missing key")
	}

	objs, err := etl.Collect[*blob.ListObject](ListObjects(b, "regions/"))
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	if diff := cmp.Diff([]string{"regions/a.json", "regions/b.json"}, keys); diff != "" {
		t.Errorf("ListObjects() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlobGetObject_File(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := filepath.Join(dir, "part-0.json")
	if err := os.WriteFile(p, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	it := BlobGetObject(ctx, "file://"+filepath.ToSlash(p))
	defer it.Close()
	data, err := etlio.ReadAll(ctx, it)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}\n" {
		t.Errorf("BlobGetObject() = %q", data)
	}
}

func TestObjectURL(t *testing.T) {
	type test struct {
		prefix string
		key    string
		want   string
	}

	run := func(name string, tt test) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, err := ObjectURL(tt.prefix, tt.key)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ObjectURL() = %q, want %q", got, tt.want)
			}
		})
	}

	run("s3", test{
		prefix: "s3://exports/regions/?region=eu-west-1",
		key:    "regions/part-0.json",
		want:   "s3://exports/regions/part-0.json?region=eu-west-1",
	})
	run("file", test{
		prefix: "file:///tmp/exports/",
		key:    "sub/part-0.json",
		want:   "file:///tmp/exports/sub/part-0.json",
	})
}

func TestBlobListObjects_File(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for name, content := range map[string]string{"a.json": "{}", "b.json": "[]"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	prefix := "file://" + filepath.ToSlash(dir) + "/"
	it := BlobListObjects(ctx, prefix)
	defer it.Close()
	objs, err := etl.Collect[*blob.ListObject](it)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, o := range objs {
		objURL, err := ObjectURL(prefix, o.Key)
		if err != nil {
			t.Fatal(err)
		}
		data, err := etlio.ReadAll(ctx, BlobGetObject(ctx, objURL))
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, o.Key+"="+string(data))
	}
	if diff := cmp.Diff([]string{"a.json={}", "b.json=[]"}, got); diff != "" {
		t.Errorf("BlobListObjects() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlobListObjects_BadURL(t *testing.T) {
	it := BlobListObjects(context.Background(), "nope://bucket/")
	defer it.Close()
	if _, err := etl.Collect[*blob.ListObject](it); err == nil {
		t.Errorf("BlobListObjects() expected error for unknown scheme")
	}
}
