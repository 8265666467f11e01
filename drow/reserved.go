package drow

// Reserved identifies the bookkeeping attributes a row might carry while it
// travels through a group reduction.
type Reserved int

const (
	// KeyGroups holds the nested rows of the next grouping level.
	KeyGroups Reserved = iota
	// KeyPath holds the encoded path of a flattened leaf.
	KeyPath
	// KeyParentPath holds the path composed by the ancestors of a group.
	KeyParentPath
)

var reservedNames = [...]string{
	KeyGroups:     "groups",
	KeyPath:       "__path__",
	KeyParentPath: "__parentPath__",
}

func (k Reserved) String() string {
	if k < 0 || int(k) >= len(reservedNames) {
		return ""
	}
	return reservedNames[k]
}

// IsReserved returns true if name is one of the bookkeeping attributes.
func IsReserved(name string) bool {
	for _, n := range reservedNames {
		if n == name {
			return true
		}
	}
	return false
}

// Groups returns the nested rows stored under the groups attribute.
// The second return is false if the attribute is absent or isn't a sequence
// of rows.
func (r Row) Groups() ([]Row, bool) {
	v, ok := r.Lookup(KeyGroups.String())
	if !ok {
		return nil, false
	}
	switch v := v.Value.(type) {
	case []Row:
		return v, true
	case []any:
		rows := make([]Row, 0, len(v))
		for _, e := range v {
			switch e := e.(type) {
			case Row:
				rows = append(rows, e)
			case map[string]any:
				rows = append(rows, FromMap(e))
			default:
				return nil, false
			}
		}
		return rows, true
	case []map[string]any:
		rows := make([]Row, len(v))
		for i, m := range v {
			rows[i] = FromMap(m)
		}
		return rows, true
	case nil:
		return nil, true
	}
	return nil, false
}

// WithGroups returns a copy of the row with the groups attribute set.
func (r Row) WithGroups(groups []Row) Row {
	return r.WithField(KeyGroups.String(), groups)
}

// Payload returns a new row without any bookkeeping attribute.
func (r Row) Payload() Row {
	ret := Row{}
	for _, f := range r {
		if IsReserved(f.Name) {
			continue
		}
		ret = append(ret, f)
	}
	return ret
}
