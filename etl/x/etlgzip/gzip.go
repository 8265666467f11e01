// Package etlgzip decompresses gzip []byte iterators.
package etlgzip

import (
	"compress/gzip"
	"context"
	"io"

	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
)

// Gunzip consumes gzip compressed chunks and yields uncompressed chunks.
func Gunzip(it etl.Iter, opts ...etlio.ReaderOptFunc) etl.Iter {
	var next etl.Iter
	return etl.MakeIter(etl.Custom[any]{
		Next: func(ctx context.Context) (any, error) {
			if next == nil {
				gr, err := gzip.NewReader(etlio.AsReader(ctx, it))
				if err == io.EOF {
					return nil, etl.EOI
				}
				if err != nil {
					return nil, err
				}
				next = etlio.FromReader(gr, opts...)
			}
			return next.Next(ctx)
		},
		Close: it.Close,
	})
}

// Gzip compresses the chunks of it.
func Gzip(it etl.Iter) etl.Iter {
	return etl.MakeGen(etl.Gen[[]byte]{
		Run: func(ctx context.Context, yield etl.Y[[]byte]) error {
			gw := gzip.NewWriter(etlio.YieldWriter(yield))
			if err := etlio.WriteTo(ctx, it, gw); err != nil {
				return err
			}
			return gw.Close()
		},
		Close: it.Close,
	})
}
