// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"encoding/binary"
	"reflect"
)

// Reader is a single-pass cursor over a payload (spec §4.A): once a value is
// consumed its bytes are no longer available. Like Writer, it is
// sticky-failed — once Take fails, the error is recorded and every
// subsequent Take is a no-op.
type Reader struct {
	length uint32 // declared payload length (from the header, or len(payload) when headerless)
	data   []byte // remaining unconsumed payload bytes
	err    error
}

// NewReader constructs a Reader over data. When containsHeader is true, the
// first HeaderLength bytes are parsed as a frame header: Magic is validated
// (ErrUnsupportedMessage on mismatch) and the declared length is checked
// against the bytes that actually follow (ErrFrameLengthMismatch on
// disagreement). When containsHeader is false, data is treated as a raw
// payload — the shape server and client transports use once they have
// already peeled off the header themselves (frame.go).
func NewReader(data []byte, containsHeader bool) *Reader {
	r := &Reader{}
	if !containsHeader {
		r.length = uint32(len(data))
		r.data = data
		return r
	}
	if len(data) < HeaderLength {
		r.err = ErrUnsupportedMessage
		return r
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != Magic {
		r.err = ErrUnsupportedMessage
		return r
	}
	length := binary.LittleEndian.Uint32(data[4:8])
	payload := data[HeaderLength:]
	if uint32(len(payload)) != length {
		r.err = ErrFrameLengthMismatch
		return r
	}
	r.length = length
	r.data = payload
	return r
}

func (r *Reader) takeBytes(n int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if n < 0 || len(r.data) < n {
		r.err = ErrShortRead
		return nil, r.err
	}
	b := r.data[:n]
	r.data = r.data[n:]
	return b, nil
}

func (r *Reader) takeCount() (uint64, error) {
	b, err := r.takeBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// takeBoundedCount reads a count prefix and rejects it outright when it
// could not possibly be satisfied by the bytes left in the payload, given
// that each element takes at least minElemBytes. This must happen before a
// caller sizes an allocation (reflect.MakeSlice/MakeMapWithSize, make) from
// the count: the count is attacker-controlled and unrelated to the frame's
// own (already-checked) length, so an unbounded value can overflow int on
// conversion or drive an allocation far larger than the payload that will
// ever back it.
func (r *Reader) takeBoundedCount(minElemBytes int) (uint64, error) {
	n, err := r.takeCount()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(r.data))/uint64(minElemBytes) {
		r.err = ErrShortRead
		return 0, r.err
	}
	return n, nil
}

// Take decodes one value into slot, which must be a non-nil pointer. It
// fails with ErrShortRead when the remaining cursor is smaller than the
// requested type needs, or ErrUnsupportedType on unsupported shapes.
func (r *Reader) Take(slot any) error {
	if r.err != nil {
		return r.err
	}
	v := reflect.ValueOf(slot)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		r.err = ErrUnsupportedType
		return r.err
	}
	if err := decodeValue(r, v.Elem()); err != nil {
		r.err = err
		return err
	}
	return nil
}

// PayloadLength returns the length field parsed from the header (or
// len(data) when the Reader was constructed headerless).
func (r *Reader) PayloadLength() uint32 { return r.length }

// Failed reports whether the Reader has entered the error state.
func (r *Reader) Failed() bool { return r.err != nil }

// Error returns the message recorded when the Reader entered the error
// state, or nil.
func (r *Reader) Error() error { return r.err }
