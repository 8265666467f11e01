package dtree

import (
	"errors"

	"github.com/stdiopt/rollup/dpath"
)

var (
	// ErrFormat is returned when a path segment or a group value can't be
	// read as an integer.
	ErrFormat = dpath.ErrFormat
	// ErrEmptyInput is returned when reducing no leaves with a reducer that
	// has no identity value.
	ErrEmptyInput = errors.New("empty input")
	// ErrShapeMismatch is returned when a path or a record nesting doesn't
	// match the group keys.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrMissingAttribute is returned when a group lacks the group key
	// expected at its level.
	ErrMissingAttribute = errors.New("missing attribute")
)
