// Package orderedmap provides a map that iterates in key insertion order.
//
// Overwriting an existing key replaces its value but keeps the key's
// original position. Aggregations rely on this to produce stable,
// reproducible group orderings before any explicit sort.
package orderedmap

import "iter"

// Map is an insertion-ordered map. The zero value is not usable; call New.
type Map[K comparable, V any] struct {
	index map[K]int
	keys  []K
	vals  []V
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{index: make(map[K]int)}
}

// Set stores v under k. A new key is appended; an existing key keeps its slot.
func (m *Map[K, V]) Set(k K, v V) {
	if i, ok := m.index[k]; ok {
		m.vals[i] = v
		return
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *Map[K, V]) Get(k K) (V, bool) {
	i, ok := m.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

// GetOrInsert returns the value under k, inserting mk() first if absent.
func (m *Map[K, V]) GetOrInsert(k K, mk func() V) V {
	if i, ok := m.index[k]; ok {
		return m.vals[i]
	}
	v := mk()
	m.Set(k, v)
	return v
}

func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.index[k]
	return ok
}

func (m *Map[K, V]) Len() int { return len(m.keys) }

// Keys returns a copy of the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns a copy of the values in key insertion order.
func (m *Map[K, V]) Values() []V {
	out := make([]V, len(m.vals))
	copy(out, m.vals)
	return out
}

// All iterates key/value pairs in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}
