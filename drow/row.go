// Package drow provides a dynamic ordered record type.
package drow

import (
	"bytes"
	"fmt"
)

// Row is a slice of fields with a defined sequence.
type Row []Field

// FromMap creates a row from a map[string]any, the fields might not be in
// the same order as the map. Nested maps become nested rows.
func FromMap(m map[string]any) Row {
	r := Row{}
	for k, v := range m {
		switch v := v.(type) {
		case map[string]any:
			r = append(r, F(k, FromMap(v)))
		case []map[string]any:
			rows := make([]Row, len(v))
			for i, m := range v {
				rows[i] = FromMap(m)
			}
			r = append(r, F(k, rows))
		default:
			r = append(r, F(k, v))
		}
	}
	return r
}

// ToMap converts a row to map[string]any, nested rows and groups are
// converted as well.
func (r Row) ToMap() map[string]any {
	m := map[string]any{}
	for _, f := range r {
		switch v := f.Value.(type) {
		case Row:
			m[f.Name] = v.ToMap()
		case []Row:
			sub := make([]map[string]any, len(v))
			for i, r := range v {
				sub[i] = r.ToMap()
			}
			m[f.Name] = sub
		default:
			m[f.Name] = f.Value
		}
	}
	return m
}

func (r Row) String() string {
	buf := bytes.NewBuffer(nil)
	fmt.Fprintf(buf, "{")
	for i, f := range r {
		if i > 0 {
			fmt.Fprint(buf, ", ")
		}
		fmt.Fprintf(buf, "%s: %v", f.Name, f.Value)
	}
	fmt.Fprintf(buf, "}")
	return buf.String()
}

// Clone returns a copy of the row, nested rows and groups are copied too.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	ret := make(Row, len(r))
	for i, f := range r {
		switch v := f.Value.(type) {
		case Row:
			f.Value = v.Clone()
		case []Row:
			sub := make([]Row, len(v))
			for j, s := range v {
				sub[j] = s.Clone()
			}
			f.Value = sub
		}
		ret[i] = f
	}
	return ret
}

// Columns returns the names of the fields.
func (r Row) Columns() []string {
	ret := make([]string, len(r))
	for i, f := range r {
		ret[i] = f.Name
	}
	return ret
}

// Values return a []any of the values of the row fields.
func (r Row) Values() []any {
	ret := make([]any, len(r))
	for i, f := range r {
		ret[i] = f.Value
	}
	return ret
}

// Value returns the value of the field named s, nil if it doesn't exist.
func (r Row) Value(s string) any {
	if i := r.Index(s); i >= 0 {
		return r[i].Value
	}
	return nil
}

// At returns the field named s, the zero Field if it doesn't exist.
func (r Row) At(s string) Field {
	if i := r.Index(s); i >= 0 {
		return r[i]
	}
	return Field{}
}

// Lookup returns the field named s and true if it exists.
func (r Row) Lookup(s string) (Field, bool) {
	if i := r.Index(s); i >= 0 {
		return r[i], true
	}
	return Field{}, false
}

// Has returns true if the row has a field named s, false otherwise.
func (r Row) Has(s string) bool {
	return r.Index(s) >= 0
}

// Index returns the index of a field by name.
func (r Row) Index(s string) int {
	for i, c := range r {
		if c.Name == s {
			return i
		}
	}
	return -1
}

// Merge returns a new row with the fields of r2 set in r, existing fields
// are replaced in place and new ones appended.
func (r Row) Merge(r2 Row) Row {
	nr := append(Row{}, r...)
	for _, f := range r2 {
		nr.set(f.Name, f.Value)
	}
	return nr
}

// Drop returns a new row without the fields identified by names.
func (r Row) Drop(names ...string) Row {
	ret := Row{}
	for _, f := range r {
		if sliceIndex(names, f.Name) != -1 {
			continue
		}
		ret = append(ret, f)
	}
	return ret
}

// WithField returns a copy of the row with the field s set to v.
func (r Row) WithField(s string, v any) Row {
	nr := append(Row{}, r...)
	nr.set(s, v)
	return nr
}

// Select returns a new row with the named fields, missing names are skipped.
func (r Row) Select(names ...string) Row {
	ret := Row{}
	for _, n := range names {
		if i := r.Index(n); i >= 0 {
			ret = append(ret, r[i])
		}
	}
	return ret
}

// Rename returns a new row with the field old renamed.
func (r Row) Rename(old, name string) Row {
	ret := append(Row{}, r...)
	for i, c := range ret {
		if c.Name == old {
			ret[i].Name = name
		}
	}
	return ret
}

func (r *Row) set(key string, val any) {
	i := r.Index(key)
	if i < 0 {
		*r = append(*r, F(key, val))
		return
	}
	(*r)[i].Value = val
}

func sliceIndex[T comparable](hay []T, needle T) int {
	for i := range hay {
		if hay[i] == needle {
			return i
		}
	}
	return -1
}
