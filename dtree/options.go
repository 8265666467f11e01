package dtree

import "go.uber.org/zap"

type options struct {
	logger  *zap.Logger
	workers int
	carry   bool
	tree    *Tree
}

// OptFunc configures Reduce and ReduceGroups.
type OptFunc func(*options)

// WithLogger sets the logger used to report progress, defaults to a no-op
// logger.
func WithLogger(l *zap.Logger) OptFunc {
	return func(o *options) {
		o.logger = l
	}
}

// WithWorkers reduces paths in n concurrent shards.
func WithWorkers(n int) OptFunc {
	return func(o *options) {
		o.workers = n
	}
}

// WithCarry keeps payload attributes that are not reduced, using the first
// non nil value seen for each path.
func WithCarry() OptFunc {
	return func(o *options) {
		o.carry = true
	}
}

// WithTree makes ReduceGroups merge into t instead of a new tree.
func WithTree(t *Tree) OptFunc {
	return func(o *options) {
		o.tree = t
	}
}

func makeOptions(opts ...OptFunc) options {
	o := options{
		logger:  zap.NewNop(),
		workers: 1,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
