// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

// OrderedMap is the wire format's "ordered" key-value mapping (spec §3/§8
// scenario 4): encoded exactly like an unordered mapping (count-prefixed
// run of pairs), but it preserves insertion order on both sides of the
// wire. A plain Go map[K]V stands in for the unordered variant, since map
// iteration order already carries no guarantee.
type OrderedMap[K comparable, V any] struct {
	keys []K
	vals map[K]V
}

// NewOrderedMap constructs an empty OrderedMap.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{vals: make(map[K]V)}
}

// Set inserts or updates the value for k, appending k to the key order on
// first insertion.
func (m *OrderedMap[K, V]) Set(k K, v V) {
	if m.vals == nil {
		m.vals = make(map[K]V)
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get returns the value for k and whether it is present.
func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m OrderedMap[K, V]) encodeInto(w *Writer) error {
	w.putCount(uint64(len(m.keys)))
	for _, k := range m.keys {
		if err := w.Append(k); err != nil {
			return err
		}
		if err := w.Append(m.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *OrderedMap[K, V]) decodeFrom(r *Reader) error {
	// Bounded the same way values.go bounds a plain map: a pair needs at
	// least two bytes, so reject a count the remaining payload could not
	// possibly back before using it as a map size hint.
	n, err := r.takeBoundedCount(2)
	if err != nil {
		return err
	}
	m.keys = nil
	m.vals = make(map[K]V, n)
	for i := uint64(0); i < n; i++ {
		var k K
		if err := r.Take(&k); err != nil {
			return err
		}
		var v V
		if err := r.Take(&v); err != nil {
			return err
		}
		m.Set(k, v)
	}
	return nil
}
