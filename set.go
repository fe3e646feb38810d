// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"cmp"
	"slices"
)

// Set is the wire format's "dynamic sequence of T, deduplicated" kind (spec
// §3/§8 scenario 3): encoded as a count-prefixed run like any other dynamic
// sequence, but it maintains element order sorted ascending so a round trip
// always iterates in sorted order regardless of insertion order. Go has no
// builtin set type, so this stands in for the original's std::set<T>.
type Set[T cmp.Ordered] struct {
	items []T
}

// NewSet constructs a Set containing items, deduplicated and sorted.
func NewSet[T cmp.Ordered](items ...T) *Set[T] {
	s := &Set[T]{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts v, maintaining sorted order; a duplicate is a no-op.
func (s *Set[T]) Add(v T) {
	i, found := slices.BinarySearch(s.items, v)
	if found {
		return
	}
	s.items = slices.Insert(s.items, i, v)
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	_, found := slices.BinarySearch(s.items, v)
	return found
}

// Len returns the number of elements.
func (s *Set[T]) Len() int { return len(s.items) }

// Slice returns the set's elements in sorted order.
func (s *Set[T]) Slice() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s Set[T]) encodeInto(w *Writer) error {
	w.putCount(uint64(len(s.items)))
	for _, v := range s.items {
		if err := w.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set[T]) decodeFrom(r *Reader) error {
	n, err := r.takeCount()
	if err != nil {
		return err
	}
	s.items = s.items[:0]
	for i := uint64(0); i < n; i++ {
		var v T
		if err := r.Take(&v); err != nil {
			return err
		}
		s.Add(v)
	}
	return nil
}
