// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

// Pair is the wire format's pair(U,V) kind (spec §3): the encoding of U
// followed by the encoding of V, nothing more.
type Pair[U, V any] struct {
	First  U
	Second V
}

// NewPair constructs a Pair from its two components.
func NewPair[U, V any](first U, second V) Pair[U, V] {
	return Pair[U, V]{First: first, Second: second}
}

func (p Pair[U, V]) encodeInto(w *Writer) error {
	if err := w.Append(p.First); err != nil {
		return err
	}
	return w.Append(p.Second)
}

func (p *Pair[U, V]) decodeFrom(r *Reader) error {
	if err := r.Take(&p.First); err != nil {
		return err
	}
	return r.Take(&p.Second)
}
