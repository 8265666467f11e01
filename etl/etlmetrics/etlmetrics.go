// Package etlmetrics measures iterators.
package etlmetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/stdiopt/rollup/etl"
	"go.uber.org/zap"
)

// Iter alias of etl.Iter.
type Iter = etl.Iter

type options struct {
	interval time.Duration
	now      func() time.Time
}

// OptFunc configures Progress.
type OptFunc func(*options)

// WithInterval sets the minimum time between progress logs, defaults to 5s.
func WithInterval(d time.Duration) OptFunc {
	return func(o *options) {
		o.interval = d
	}
}

// Counts holds the values fetched from an iterator, per value type.
type Counts struct {
	Total int
	Types map[string]int
}

// Progress returns an iterator that logs the number of values fetched from
// it every interval and a summary when closed. The counts are available
// through the returned Counts once the iterator is consumed.
func Progress(it Iter, log *zap.Logger, name string, opts ...OptFunc) (Iter, *Counts) {
	o := options{interval: 5 * time.Second, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	log = log.With(zap.String("iter", name))

	c := &Counts{Types: map[string]int{}}
	start := o.now()
	mark := start
	last := 0
	return etl.MakeIter(etl.Custom[any]{
		Next: func(ctx context.Context) (any, error) {
			v, err := it.Next(ctx)
			if err != nil {
				return v, err
			}
			c.Total++
			c.Types[fmt.Sprintf("%T", v)]++
			if now := o.now(); now.Sub(mark) >= o.interval {
				rate := float64(c.Total-last) / now.Sub(mark).Seconds()
				log.Info("progress", zap.Int("processed", c.Total), zap.Float64("per_second", rate))
				mark, last = now, c.Total
			}
			return v, nil
		},
		Close: func() error {
			log.Debug("done",
				zap.Int("processed", c.Total),
				zap.Any("types", c.Types),
				zap.Duration("elapsed", o.now().Sub(start)),
			)
			return it.Close()
		},
	}), c
}
