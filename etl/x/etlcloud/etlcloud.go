// Package etlcloud provides etl iters based on gocloud.dev buckets.
package etlcloud

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
	"gocloud.dev/blob"
)

type listOptions struct {
	delimiter string
}

// ListOptFunc configures ListObjects.
type ListOptFunc func(*listOptions)

// WithDelimiter lists a single level of the prefix, using d as separator.
func WithDelimiter(d string) ListOptFunc {
	return func(o *listOptions) {
		o.delimiter = d
	}
}

func makeListOptions(opts ...ListOptFunc) listOptions {
	o := listOptions{}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// SplitURL splits an object url in the form '{scheme}://{host}/{key}?{query}'
// into the bucket url and the key.
func SplitURL(objURL string) (bucketURL, key string, err error) {
	u, err := url.Parse(objURL)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" {
		return "", "", fmt.Errorf("etlcloud: %q has no scheme", objURL)
	}
	bucketURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	key = strings.Trim(u.Path, "/")
	// fileblob keys are relative to the bucket directory
	if u.Scheme == "file" {
		dir, base := splitDir(u.Path)
		bucketURL = "file://" + dir
		key = base
	}
	if u.RawQuery != "" {
		bucketURL += "?" + u.RawQuery
	}
	return bucketURL, key, nil
}

func splitDir(p string) (string, string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ".", p
	}
	if i == 0 {
		return "/", p[1:]
	}
	return p[:i], p[i+1:]
}

// ListObjects returns an iterator of *blob.ListObject under prefix.
func ListObjects(b *blob.Bucket, prefix string, opts ...ListOptFunc) etl.Iter {
	o := makeListOptions(opts...)
	bit := b.List(&blob.ListOptions{Prefix: prefix, Delimiter: o.delimiter})
	return etl.MakeIter(etl.Custom[*blob.ListObject]{
		Next: bit.Next,
	})
}

// GetObject returns a []byte iterator over the object content.
func GetObject(ctx context.Context, b *blob.Bucket, key string) etl.Iter {
	rd, err := b.NewReader(ctx, key, nil)
	if err != nil {
		return etl.ErrIter(fmt.Errorf("etlcloud: %w", err))
	}
	return etlio.FromReadCloser(rd)
}

// BlobGetObject opens the bucket of objURL and returns a []byte iterator
// over the object content, closing the iterator closes the bucket.
func BlobGetObject(ctx context.Context, objURL string) etl.Iter {
	bucketURL, key, err := SplitURL(objURL)
	if err != nil {
		return etl.ErrIter(err)
	}
	b, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return etl.ErrIter(fmt.Errorf("etlcloud: %w", err))
	}
	rd, err := b.NewReader(ctx, key, nil)
	if err != nil {
		b.Close()
		return etl.ErrIter(fmt.Errorf("etlcloud: %w", err))
	}
	return etlio.FromReadCloser(&bucketReader{ReadCloser: rd, bucket: b})
}

// BlobListObjects lists the objects of a bucket url, the url path is used as
// prefix.
func BlobListObjects(ctx context.Context, bucketURL string, opts ...ListOptFunc) etl.Iter {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return etl.ErrIter(err)
	}
	var prefix string
	if u.Path != "" && u.Scheme != "file" {
		prefix = strings.Trim(u.Path, "/") + "/"
		u.Path = ""
	}
	b, err := blob.OpenBucket(ctx, u.String())
	if err != nil {
		return etl.ErrIter(fmt.Errorf("etlcloud: %w", err))
	}
	it := ListObjects(b, prefix, opts...)
	return etl.MakeIter(etl.Custom[any]{
		Next:  it.Next,
		Close: b.Close,
	})
}

// ObjectURL returns the url of an object listed by BlobListObjects from
// prefixURL.
func ObjectURL(prefixURL, key string) (string, error) {
	u, err := url.Parse(prefixURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "file" {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + key
	} else {
		u.Path = "/" + key
	}
	return u.String(), nil
}

type bucketReader struct {
	io.ReadCloser
	bucket *blob.Bucket
}

func (r *bucketReader) Close() error {
	err := r.ReadCloser.Close()
	if berr := r.bucket.Close(); err == nil {
		err = berr
	}
	return err
}
