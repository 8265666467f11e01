// Package etlio converts between byte iterators and io readers and writers.
package etlio

import (
	"context"
	"fmt"
	"io"

	"github.com/stdiopt/rollup/etl"
)

// Iter is an etl.Iter.
type Iter = etl.Iter

type readerOptions struct {
	bufSize int
}

// ReaderOptFunc configures FromReader.
type ReaderOptFunc func(*readerOptions)

// WithBufSize sets the maximum size of each chunk, defaults to 4096.
func WithBufSize(size int) ReaderOptFunc {
	return func(o *readerOptions) {
		o.bufSize = size
	}
}

func makeReaderOptions(opts ...ReaderOptFunc) readerOptions {
	o := readerOptions{
		bufSize: 4096,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.bufSize <= 0 {
		o.bufSize = 4096
	}
	return o
}

// FromReadCloser returns an iterator of []byte chunks read from rd, closing
// the iterator closes rd.
func FromReadCloser(rd io.ReadCloser, opts ...ReaderOptFunc) Iter {
	o := makeReaderOptions(opts...)
	eof := false
	return etl.MakeIter(etl.Custom[[]byte]{
		Next: func(ctx context.Context) ([]byte, error) {
			if eof {
				return nil, etl.EOI
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			buf := make([]byte, o.bufSize)
			n, err := rd.Read(buf)
			switch {
			case err == io.EOF:
				eof = true
				if n == 0 {
					return nil, etl.EOI
				}
			case err != nil:
				return nil, err
			}
			return buf[:n], nil
		},
		Close: rd.Close,
	})
}

// FromReader returns an iterator of []byte chunks read from rd.
func FromReader(rd io.Reader, opts ...ReaderOptFunc) Iter {
	return FromReadCloser(io.NopCloser(rd), opts...)
}

// AsReader returns a reader over the chunks of a []byte iterator, closing
// the reader closes the iterator.
func AsReader(ctx context.Context, it Iter) io.ReadCloser {
	return &iterReadCloser{ctx: ctx, it: it}
}

// ReadAll consumes a []byte iterator into a single slice.
func ReadAll(ctx context.Context, it Iter) ([]byte, error) {
	ret := []byte{}
	err := etl.ConsumeContext(ctx, it, func(b []byte) error {
		ret = append(ret, b...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("etlio.ReadAll: %w", err)
	}
	return ret, nil
}

// WriteTo writes every chunk of a []byte iterator to w.
func WriteTo(ctx context.Context, it Iter, w io.Writer) error {
	return etl.ConsumeContext(ctx, it, func(b []byte) error {
		_, err := w.Write(b)
		return err
	})
}

// YieldWriter is an io.Writer that yields a copy of every written chunk.
type YieldWriter etl.Y[[]byte]

func (yield YieldWriter) Write(data []byte) (int, error) {
	cp := append([]byte{}, data...)
	if err := yield(cp); err != nil {
		return 0, err
	}
	return len(data), nil
}

type iterReadCloser struct {
	ctx context.Context
	it  Iter
	buf []byte
}

func (r *iterReadCloser) Read(data []byte) (int, error) {
	for len(r.buf) == 0 {
		v, err := r.it.Next(r.ctx)
		if err != nil {
			return 0, err
		}
		vb, ok := v.([]byte)
		if !ok {
			return 0, fmt.Errorf("etlio: expected []byte, got %T", v)
		}
		r.buf = vb
	}
	n := copy(data, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *iterReadCloser) Close() error {
	return r.it.Close()
}
