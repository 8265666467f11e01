// Package etlparquet reads and writes parquet files as drow.Row iterators.
package etlparquet

import (
	"bytes"
	"context"
	"fmt"
	"io"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/floor"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
)

type (
	Iter = etl.Iter
	Row  = drow.Row
)

// DecodeRows consumes a []byte iterator holding a parquet file and yields a
// drow.Row per record, with the columns in schema order.
func DecodeRows(it Iter) Iter {
	return etl.MakeGen(etl.Gen[Row]{
		Run: func(ctx context.Context, yield etl.Y[Row]) error {
			data, err := etlio.ReadAll(ctx, it)
			if err != nil {
				return err
			}
			// an empty stream is an empty file
			if len(data) == 0 {
				return nil
			}
			return ReadRows(bytes.NewReader(data), yield)
		},
		Close: it.Close,
	})
}

// ReadRows reads every record of the parquet file in rd and calls fn with it.
func ReadRows(rd io.ReadSeeker, fn func(Row) error) error {
	pr, err := goparquet.NewFileReader(rd)
	if err != nil {
		return fmt.Errorf("etlparquet: %w", err)
	}
	fr := floor.NewReader(pr)
	defer fr.Close()

	def := pr.GetSchemaDefinition()
	for fr.Next() {
		du := &drowUnmarshaler{schema: def}
		if err := fr.Scan(du); err != nil {
			return fmt.Errorf("etlparquet: %w", err)
		}
		if err := fn(du.row); err != nil {
			return err
		}
	}
	return fr.Err()
}

// EncodeRows consumes a drow.Row iterator and yields the []byte chunks of a
// parquet file, the schema is inferred from the first row.
func EncodeRows(it Iter) Iter {
	return etl.MakeGen(etl.Gen[[]byte]{
		Run: func(ctx context.Context, yield etl.Y[[]byte]) error {
			first, err := it.Next(ctx)
			if err == etl.EOI {
				return nil
			}
			if err != nil {
				return err
			}
			row, ok := first.(Row)
			if !ok {
				return fmt.Errorf("etlparquet.EncodeRows: expected drow.Row, got %T", first)
			}
			def, err := schemaFrom(row)
			if err != nil {
				return fmt.Errorf("etlparquet.EncodeRows: %w", err)
			}

			pw := goparquet.NewFileWriter(etlio.YieldWriter(yield),
				goparquet.WithSchemaDefinition(def),
				goparquet.WithCompressionCodec(parquet.CompressionCodec_SNAPPY),
			)
			fw := floor.NewWriter(pw)
			write := func(r Row) error {
				return fw.Write(&drowMarshaler{schema: def, row: r})
			}
			if err := write(row); err != nil {
				return err
			}
			if err := etl.ConsumeContext(ctx, it, write); err != nil {
				return err
			}
			return fw.Close()
		},
		Close: it.Close,
	})
}
