// Package etljson provides iterators to handle json.
package etljson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/etl"
	"github.com/stdiopt/rollup/etl/etlio"
)

// Iter alias to etl.Iter.
type Iter = etl.Iter

// Decode returns an iterator that consumes bytes from a source iterator,
// unmarshals a stream of json values and yields them as T.
func Decode[T any](ctx context.Context, it Iter) Iter {
	dec := json.NewDecoder(etlio.AsReader(ctx, it))
	return etl.MakeIter(etl.Custom[T]{
		Next: func(context.Context) (T, error) {
			var v T
			if err := dec.Decode(&v); err != nil {
				if errors.Is(err, io.EOF) {
					return v, etl.EOI
				}
				return v, fmt.Errorf("etljson: %w", err)
			}
			return v, nil
		},
		Close: it.Close,
	})
}

// Encode returns an iterator that yields the json encoding of every value
// of it, one per line.
func Encode(it Iter) Iter {
	return etl.MakeIter(etl.Custom[[]byte]{
		Next: func(ctx context.Context) ([]byte, error) {
			v, err := it.Next(ctx)
			if err != nil {
				return nil, err
			}
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return append(data, '\n'), nil
		},
		Close: it.Close,
	})
}

// DecodeRows returns an iterator of drow.Row from a stream of json values.
//
// Each value can be an object, an array of objects or a GeoJSON
// FeatureCollection, in which case the properties of every feature are
// yielded.
func DecodeRows(ctx context.Context, it Iter) Iter {
	return etl.FlatMap(Decode[json.RawMessage](ctx, it), rawRecords)
}

func rawRecords(raw json.RawMessage) ([]drow.Row, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var rows []drow.Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("etljson: %w", err)
		}
		return rows, nil
	}
	var r drow.Row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("etljson: %w", err)
	}
	return Records(r)
}

// Records returns the records held by a decoded json object, the feature
// properties of a FeatureCollection or the object itself.
func Records(r drow.Row) ([]drow.Row, error) {
	if r.Value("type") != "FeatureCollection" {
		return []drow.Row{r}, nil
	}
	features, ok := r.Value("features").([]drow.Row)
	if !ok {
		if v := r.Value("features"); v != nil {
			if arr, ok := v.([]any); !ok || len(arr) > 0 {
				return nil, fmt.Errorf("etljson: features is %T, want array of objects", v)
			}
		}
		return nil, nil
	}
	rows := make([]drow.Row, 0, len(features))
	for i, f := range features {
		props, ok := f.Value("properties").(drow.Row)
		if !ok {
			return nil, fmt.Errorf("etljson: feature %d has no properties object", i)
		}
		rows = append(rows, props)
	}
	return rows, nil
}
