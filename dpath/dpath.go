// Package dpath encodes the position of a leaf in a group tree as a
// delimited string of group values, outermost group first.
package dpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates the group values of an encoded path.
const Delimiter = "_"

// ErrFormat is returned when an encoded path has a segment that is not a
// base 10 integer.
var ErrFormat = errors.New("malformed path")

// Path is an ordered sequence of group values, outermost first.
type Path []int

// Encode joins the indices as base 10 integers separated by Delimiter.
func Encode(indices []int) string {
	sb := strings.Builder{}
	for i, v := range indices {
		if i > 0 {
			sb.WriteString(Delimiter)
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// Decode parses an encoded path. Only the form Encode produces is accepted,
// signs other than a leading minus and zero padding are rejected.
func Decode(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrFormat)
	}
	parts := strings.Split(s, Delimiter)
	p := make(Path, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || strconv.Itoa(v) != part {
			return nil, fmt.Errorf("%w: segment %d %q of %q", ErrFormat, i, part, s)
		}
		p[i] = v
	}
	return p, nil
}

// String returns the encoded path.
func (p Path) String() string {
	return Encode(p)
}

// Len returns the number of group levels in the path.
func (p Path) Len() int {
	return len(p)
}

// Append returns a new path with v added as the innermost group, p is left
// untouched.
func (p Path) Append(v int) Path {
	ret := make(Path, len(p), len(p)+1)
	copy(ret, p)
	return append(ret, v)
}

// Compare orders paths level by level, a shorter path sorts before any path
// it prefixes.
func (p Path) Compare(o Path) int {
	for i := 0; i < len(p) && i < len(o); i++ {
		switch {
		case p[i] < o[i]:
			return -1
		case p[i] > o[i]:
			return 1
		}
	}
	switch {
	case len(p) < len(o):
		return -1
	case len(p) > len(o):
		return 1
	}
	return 0
}

// Equal returns true if both paths have the same values.
func (p Path) Equal(o Path) bool {
	return p.Compare(o) == 0
}
