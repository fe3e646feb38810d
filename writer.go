// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"encoding/binary"
	"reflect"
)

// Writer is an append-only payload builder (spec §4.A). It reserves an
// 8-byte header placeholder at construction and grows as values are
// appended; Finalize fills the header and returns the complete frame.
//
// A Writer is sticky-failed: once Append encounters an unsupported shape,
// the error is recorded and every subsequent Append is a no-op. Finalize
// remains safe to call on a failed Writer — it returns whatever bytes were
// written before the fault, per spec §4.A; callers are expected to check
// Failed before sending the result anywhere.
type Writer struct {
	buf []byte
	err error
}

// NewWriter constructs a Writer with an 8-byte header placeholder and an
// empty payload.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, HeaderLength, HeaderLength+64)}
}

func (w *Writer) putBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *Writer) putCount(n uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	w.putBytes(b[:])
}

// Append appends the encoding of v. It fails with ErrUnsupportedType if v's
// shape is not one of the supported kinds (spec §4.A), notably raw pointers
// and types with no well-defined wire shape.
func (w *Writer) Append(v any) error {
	if w.err != nil {
		return w.err
	}
	if err := encodeValue(w, reflect.ValueOf(v)); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Finalize fills the header (Magic, length = payload bytes) and returns the
// complete frame. Idempotent: calling it again just recomputes the same
// header over the same buffer.
func (w *Writer) Finalize() []byte {
	binary.LittleEndian.PutUint32(w.buf[0:4], Magic)
	binary.LittleEndian.PutUint32(w.buf[4:8], uint32(len(w.buf)-HeaderLength))
	return w.buf
}

// Failed reports whether the Writer has entered the error state.
func (w *Writer) Failed() bool { return w.err != nil }

// Error returns the message recorded when the Writer entered the error
// state, or nil.
func (w *Writer) Error() error { return w.err }
