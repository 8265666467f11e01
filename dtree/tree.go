package dtree

import (
	"github.com/stdiopt/rollup/dpath"
	"github.com/stdiopt/rollup/drow"
	"github.com/stdiopt/rollup/util/set"
)

// Node is a tree node, either a *Group with child nodes or a *Bucket with
// reduced attributes at the innermost level.
type Node interface {
	// Key returns the group key name of the node level.
	Key() string
	// Value returns the group value of the node.
	Value() int
	// Row renders the node as a nested record.
	Row() drow.Row

	clone() Node
}

// children is an ordered list of nodes indexed by group value.
type children struct {
	nodes []Node
	index set.Keyed[int]
}

// Groups returns the child nodes in insertion order.
func (c *children) Groups() []Node {
	return c.nodes
}

// Child returns the child with the group value v, nil if there isn't one.
func (c *children) Child(v int) Node {
	i := c.index.Index(v)
	if i < 0 {
		return nil
	}
	return c.nodes[i]
}

func (c *children) rows() []drow.Row {
	rows := make([]drow.Row, len(c.nodes))
	for i, n := range c.nodes {
		rows[i] = n.Row()
	}
	return rows
}

func (c *children) clone() children {
	ret := children{
		nodes: make([]Node, len(c.nodes)),
		index: c.index.Clone(),
	}
	for i, n := range c.nodes {
		ret.nodes[i] = n.clone()
	}
	return ret
}

// Group is an inner node.
type Group struct {
	key   string
	value int
	children
}

func (g *Group) Key() string { return g.key }
func (g *Group) Value() int  { return g.value }

func (g *Group) Row() drow.Row {
	return drow.Row{
		drow.F(g.key, g.value),
		drow.F(drow.KeyGroups.String(), g.rows()),
	}
}

func (g *Group) clone() Node {
	return &Group{key: g.key, value: g.value, children: g.children.clone()}
}

// Bucket is an innermost node holding the reduced attributes of a path.
type Bucket struct {
	key   string
	value int
	Attrs drow.Row
}

func (b *Bucket) Key() string { return b.key }
func (b *Bucket) Value() int  { return b.value }

func (b *Bucket) Row() drow.Row {
	return append(drow.Row{drow.F(b.key, b.value)}, b.Attrs.Drop(b.key)...)
}

func (b *Bucket) clone() Node {
	return &Bucket{key: b.key, value: b.value, Attrs: b.Attrs.Clone()}
}

// Tree is an aggregate tree, one level per group key.
type Tree struct {
	keys []string
	children
}

// NewTree returns an empty tree for the group keys.
func NewTree(keys ...string) *Tree {
	return &Tree{keys: append([]string(nil), keys...)}
}

// Keys returns the group keys of the tree levels, outermost first.
func (t *Tree) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len returns the number of buckets in the tree.
func (t *Tree) Len() int {
	n := 0
	_ = t.Walk(func(_ dpath.Path, nd Node) error {
		if _, ok := nd.(*Bucket); ok {
			n++
		}
		return nil
	})
	return n
}

// Row renders the tree as a nested record with a groups attribute per level,
// the same shape Flatten consumes.
func (t *Tree) Row() drow.Row {
	return drow.Row{drow.F(drow.KeyGroups.String(), t.rows())}
}

// MarshalJSON implements json.Marshaler.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return t.Row().MarshalJSON()
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{keys: t.Keys(), children: t.children.clone()}
}

// Walk visits every node depth first with its path, a non nil error from fn
// stops the walk and is returned.
func (t *Tree) Walk(fn func(dpath.Path, Node) error) error {
	var walk func(dpath.Path, *children) error
	walk = func(parent dpath.Path, c *children) error {
		for _, n := range c.nodes {
			p := parent.Append(n.Value())
			if err := fn(p, n); err != nil {
				return err
			}
			if g, ok := n.(*Group); ok {
				if err := walk(p, &g.children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(nil, &t.children)
}

// Leaves returns the reduced rows of every bucket in tree order.
func (t *Tree) Leaves() []ReducedRow {
	var rows []ReducedRow
	_ = t.Walk(func(p dpath.Path, n Node) error {
		if b, ok := n.(*Bucket); ok {
			rows = append(rows, ReducedRow{Path: p, Row: b.Attrs.Clone()})
		}
		return nil
	})
	return rows
}

// upsert walks p creating missing nodes and merges attrs into the bucket.
func (t *Tree) upsert(p dpath.Path, attrs drow.Row) {
	cur := &t.children
	last := len(t.keys) - 1
	for depth, v := range p {
		key := t.keys[depth]
		i, exists := cur.index.IndexOrAdd(v)
		if depth == last {
			if !exists {
				cur.nodes = append(cur.nodes, &Bucket{key: key, value: v, Attrs: attrs.Clone()})
				return
			}
			b := cur.nodes[i].(*Bucket)
			b.Attrs = b.Attrs.Merge(attrs.Clone())
			return
		}
		if !exists {
			cur.nodes = append(cur.nodes, &Group{key: key, value: v})
		}
		cur = &cur.nodes[i].(*Group).children
	}
}
