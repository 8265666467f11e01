// Package etlcsv contains iterators that handle csv data.
package etlcsv

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
)

type (
	// Row is a drow.Row
	Row = drow.Row
	// Iter is an etl.Iter
	Iter = etl.Iter
)

type decodeOptions struct {
	comma       rune
	header      bool
	jsonColumns []string
	numbers     bool
}

// DecodeOptFunc configures Decode.
type DecodeOptFunc func(*decodeOptions)

// WithDecodeComma sets the field delimiter.
func WithDecodeComma(c rune) DecodeOptFunc {
	return func(o *decodeOptions) {
		o.comma = c
	}
}

// WithDecodeHeader tells if the first record is a header, when false the
// columns are named col1, col2...
func WithDecodeHeader(v bool) DecodeOptFunc {
	return func(o *decodeOptions) {
		o.header = v
	}
}

// WithJSONColumns decodes the cells of the named columns as json, exports
// hold nested groups as a json encoded column. Defaults to "groups".
func WithJSONColumns(names ...string) DecodeOptFunc {
	return func(o *decodeOptions) {
		o.jsonColumns = names
	}
}

// WithNumbers decodes plain decimal cells as int64 or float64, reserved
// columns such as __path__ are kept as strings.
func WithNumbers() DecodeOptFunc {
	return func(o *decodeOptions) {
		o.numbers = true
	}
}

func makeDecodeOptions(opts ...DecodeOptFunc) decodeOptions {
	o := decodeOptions{
		comma:       ',',
		header:      true,
		jsonColumns: []string{drow.KeyGroups.String()},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Decode returns an iterator that reads csv from a []byte iterator and
// yields a Row per record, cells are kept as strings.
// Close will close the underlying iterator.
func Decode(ctx context.Context, it Iter, opts ...DecodeOptFunc) Iter {
	o := makeDecodeOptions(opts...)

	var cr *csv.Reader
	var cols []string
	var isJSON []bool
	makeRow := func(rec []string) (Row, error) {
		if len(rec) != len(cols) {
			return nil, fmt.Errorf("etlcsv: record has %d fields, header has %d", len(rec), len(cols))
		}
		row := make(Row, len(cols))
		for i, s := range rec {
			s = strings.TrimSpace(s)
			var v any = s
			if o.numbers && !drow.IsReserved(cols[i]) {
				v = parseNumber(s)
			}
			if isJSON[i] && s != "" {
				var err error
				if v, err = decodeJSON(s); err != nil {
					return nil, fmt.Errorf("etlcsv: column %q: %w", cols[i], err)
				}
			}
			row[i] = drow.F(cols[i], v)
		}
		return row, nil
	}
	setCols := func(c []string) {
		cols = c
		isJSON = make([]bool, len(c))
		for i, name := range c {
			for _, j := range o.jsonColumns {
				isJSON[i] = isJSON[i] || name == j
			}
		}
	}

	return etl.MakeIter(etl.Custom[Row]{
		Next: func(context.Context) (Row, error) {
			if cr == nil {
				cr = csv.NewReader(etlio.AsReader(ctx, it))
				cr.Comma = o.comma
				cr.FieldsPerRecord = -1
				c, err := cr.Read()
				if err != nil {
					return nil, err
				}
				if !o.header {
					names := make([]string, len(c))
					for i := range c {
						names[i] = fmt.Sprintf("col%d", i+1)
					}
					setCols(names)
					return makeRow(c)
				}
				setCols(c)
			}
			for {
				rec, err := cr.Read()
				if err != nil {
					return nil, err
				}
				if len(rec) == 0 {
					continue
				}
				return makeRow(rec)
			}
		},
		Close: it.Close,
	})
}

func parseNumber(s string) any {
	if s == "" || strings.IndexFunc(s, notDecimal) >= 0 {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// notDecimal excludes digit separators and the inf, nan and hex forms
// strconv would accept.
func notDecimal(r rune) bool {
	return (r < '0' || r > '9') && !strings.ContainsRune("+-.eE", r)
}

func decodeJSON(s string) (any, error) {
	if strings.HasPrefix(s, "[") {
		var rows []Row
		if err := json.Unmarshal([]byte(s), &rows); err == nil {
			return rows, nil
		}
		var vs []any
		err := json.Unmarshal([]byte(s), &vs)
		return vs, err
	}
	var r Row
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return r, nil
}

type encodeOptions struct {
	comma  rune
	header bool
}

// EncodeOptFunc configures Encode.
type EncodeOptFunc func(*encodeOptions)

// WithEncodeComma sets the field delimiter.
func WithEncodeComma(c rune) EncodeOptFunc {
	return func(o *encodeOptions) {
		o.comma = c
	}
}

// WithEncodeHeader tells if the column names are written first.
func WithEncodeHeader(v bool) EncodeOptFunc {
	return func(o *encodeOptions) {
		o.header = v
	}
}

func makeEncodeOptions(opts ...EncodeOptFunc) encodeOptions {
	o := encodeOptions{
		comma:  ',',
		header: true,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Encode consumes a Row iterator and produces csv []byte chunks, the columns
// are the ones of the first row. Nested rows are written as json.
func Encode(it Iter, opts ...EncodeOptFunc) Iter {
	o := makeEncodeOptions(opts...)
	return etl.MakeGen(etl.Gen[[]byte]{
		Run: func(ctx context.Context, yield etl.Y[[]byte]) error {
			cw := csv.NewWriter(etlio.YieldWriter(yield))
			cw.Comma = o.comma

			var cols []string
			err := etl.ConsumeContext(ctx, it, func(r Row) error {
				if cols == nil {
					cols = r.Columns()
					if o.header {
						if err := cw.Write(cols); err != nil {
							return err
						}
					}
				}
				vals := make([]string, len(cols))
				for i, c := range cols {
					s, err := cell(r.Value(c))
					if err != nil {
						return fmt.Errorf("etlcsv: column %q: %w", c, err)
					}
					vals[i] = s
				}
				return cw.Write(vals)
			})
			if err != nil {
				return err
			}
			cw.Flush()
			return cw.Error()
		},
		Close: it.Close,
	})
}

func cell(v any) (string, error) {
	switch v.(type) {
	case Row, []Row, []any, map[string]any:
		b, err := json.Marshal(v)
		return string(b), err
	default:
		return drow.F("", v).String(), nil
	}
}
