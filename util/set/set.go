// Package set implements an insertion ordered set.
package set

// Keyed is an insertion ordered set of comparable keys with constant time
// lookups.
type Keyed[K comparable] struct {
	Data  []K
	index map[K]int
}

// Len returns the number of keys in the set.
func (m *Keyed[K]) Len() int {
	return len(m.Data)
}

// Index returns the index of the key, -1 if not found.
func (m *Keyed[K]) Index(k K) int {
	if i, ok := m.index[k]; ok {
		return i
	}
	return -1
}

// IndexOrAdd returns the existing or the new index of the key, it returns
// true if the key existed, false if new.
func (m *Keyed[K]) IndexOrAdd(k K) (int, bool) {
	if i, ok := m.index[k]; ok {
		return i, true
	}
	if m.index == nil {
		m.index = map[K]int{}
	}
	i := len(m.Data)
	m.Data = append(m.Data, k)
	m.index[k] = i
	return i, false
}

// Clone returns an independent copy of the set.
func (m *Keyed[K]) Clone() Keyed[K] {
	ret := Keyed[K]{
		Data:  append([]K(nil), m.Data...),
		index: make(map[K]int, len(m.index)),
	}
	for k, v := range m.index {
		ret.index[k] = v
	}
	return ret
}
