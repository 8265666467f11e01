package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/stdiopt/rollup/cmd/rollup/config"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlcsv"
	"github.com/stdiopt/rollup/etl/etlfs"
	"github.com/stdiopt/rollup/etl/etlio"
	"github.com/stdiopt/rollup/etl/etljson"
	"github.com/stdiopt/rollup/etl/etlzip"
	"github.com/stdiopt/rollup/etl/x/etlcloud"
	"github.com/stdiopt/rollup/etl/x/etlgzip"
	"github.com/stdiopt/rollup/etl/x/etlparquet"
	"go.uber.org/zap"

	"gocloud.dev/blob"

	_ "gocloud.dev/blob/fileblob"
)

// openBytes returns a []byte iterator over the content of p, gzip files are
// decompressed.
func (a *app) openBytes(ctx context.Context, p string) (etl.Iter, error) {
	var it etl.Iter
	switch {
	case p == "-":
		it = etlio.FromReader(a.in)
	case strings.Contains(p, "://"):
		it = etlcloud.BlobGetObject(ctx, p)
	default:
		it = etlfs.ReadFile(p)
	}
	if strings.HasSuffix(p, ".gz") {
		it = etlgzip.Gunzip(it)
	}
	return it, nil
}

// openRows returns a drow.Row iterator over the records of input, a local
// directory or a bucket url ending in / yields the records of every file
// matching pattern.
func (a *app) openRows(ctx context.Context, input, format, pattern string) (etl.Iter, error) {
	if strings.Contains(input, "://") && strings.HasSuffix(input, "/") {
		objs := etlcloud.BlobListObjects(ctx, input)
		return etl.MakeGen(etl.Gen[drow.Row]{
			Run: func(ctx context.Context, yield etl.Y[drow.Row]) error {
				return etl.ConsumeContext(ctx, objs, func(o *blob.ListObject) error {
					if o.IsDir {
						return nil
					}
					if ok, _ := path.Match(pattern, path.Base(o.Key)); !ok {
						return nil
					}
					objURL, err := etlcloud.ObjectURL(input, o.Key)
					if err != nil {
						return err
					}
					a.logger.Debug("reading", zap.String("object", objURL))
					it, err := a.openRows(ctx, objURL, format, pattern)
					if err != nil {
						return err
					}
					defer it.Close()
					return etl.ConsumeContext[drow.Row](ctx, it, yield)
				})
			},
			Close: objs.Close,
		}), nil
	}
	if st, err := os.Stat(input); err == nil && st.IsDir() {
		files := etlfs.Find(input, pattern)
		return etl.MakeGen(etl.Gen[drow.Row]{
			Run: func(ctx context.Context, yield etl.Y[drow.Row]) error {
				return etl.ConsumeContext(ctx, files, func(p string) error {
					a.logger.Debug("reading", zap.String("file", p))
					it, err := a.openRows(ctx, p, format, pattern)
					if err != nil {
						return err
					}
					defer it.Close()
					return etl.ConsumeContext[drow.Row](ctx, it, yield)
				})
			},
			Close: files.Close,
		}), nil
	}

	it, err := a.openBytes(ctx, input)
	if err != nil {
		return nil, err
	}
	switch f := inputFormat(input, format); f {
	case config.FormatZip:
		return etlzip.DecodeRows(it, pattern), nil
	case config.FormatParquet:
		return etlparquet.DecodeRows(it), nil
	case config.FormatCSV:
		return etlcsv.Decode(ctx, it, etlcsv.WithNumbers()), nil
	case config.FormatJSON:
		return etljson.DecodeRows(ctx, it), nil
	default:
		it.Close()
		return nil, fmt.Errorf("unknown input format: %s", f)
	}
}

func inputFormat(input, format string) string {
	if format != "" && format != config.FormatAuto {
		return format
	}
	switch filepath.Ext(strings.TrimSuffix(input, ".gz")) {
	case ".zip":
		return config.FormatZip
	case ".parquet":
		return config.FormatParquet
	case ".csv":
		return config.FormatCSV
	default:
		return config.FormatJSON
	}
}

// writeOutput writes the []byte chunks of it to the configured output, "-"
// is stdout and a .gz suffix compresses the output.
func (a *app) writeOutput(ctx context.Context, it etl.Iter) error {
	p := a.cfg.Output
	defer it.Close()
	if strings.HasSuffix(p, ".gz") {
		it = etlgzip.Gzip(it)
		defer it.Close()
	}
	if p == "" || p == "-" {
		return etlio.WriteTo(ctx, it, a.out)
	}
	return etlfs.WriteFile(ctx, it, p)
}
