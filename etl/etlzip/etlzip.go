// Package etlzip iterates over the files of a zip stream.
package etlzip

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/krolaw/zipstream"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
	"github.com/stdiopt/rollup/etl/etljson"
)

// Iter alias to etl.Iter.
type Iter = etl.Iter

// Entry is a file of the zip stream, Iter yields its uncompressed []byte
// chunks and is only valid during the EachFile callback.
type Entry struct {
	Iter
	Name           string
	CompressedSize uint32
	Size           uint64
}

// EachFile consumes a []byte iterator holding a zip archive and calls fn
// for every file whose base name matches pattern, values yielded by fn are
// the values of the returned iterator.
func EachFile[T any](it Iter, pattern string, fn func(context.Context, Entry, etl.Y[T]) error) Iter {
	return etl.MakeGen(etl.Gen[T]{
		Run: func(ctx context.Context, yield etl.Y[T]) error {
			zs := zipstream.NewReader(etlio.AsReader(ctx, it))
			for {
				hdr, err := zs.Next()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return fmt.Errorf("etlzip.EachFile: failed to read entry: %w", err)
				}

				ok, err := filepath.Match(pattern, filepath.Base(hdr.Name))
				if err != nil {
					return fmt.Errorf("etlzip.EachFile: failed to match pattern '%s': %w", pattern, err)
				}
				if !ok {
					continue
				}

				e := Entry{
					Iter:           etlio.FromReader(zs),
					Name:           hdr.Name,
					CompressedSize: hdr.CompressedSize,
					Size:           hdr.UncompressedSize64,
				}
				if err := fn(ctx, e, yield); err != nil {
					return fmt.Errorf("etlzip.EachFile: %s: %w", hdr.Name, err)
				}
			}
		},
		Close: it.Close,
	})
}

// DecodeRows yields the json records of every file matching pattern, as
// etljson.DecodeRows does for a single stream.
func DecodeRows(it Iter, pattern string) Iter {
	return EachFile(it, pattern, func(ctx context.Context, e Entry, yield etl.Y[drow.Row]) error {
		rows := etljson.DecodeRows(ctx, e)
		return etl.ConsumeContext(ctx, rows, func(r drow.Row) error {
			return yield(r)
		})
	})
}
