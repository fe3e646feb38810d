// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"encoding/binary"
	"math"
	"reflect"
	"unsafe"

	"code.hybscloud.com/tinyrpc/internal/bo"
)

// wireEncoder is implemented by container types (Pair, Set, OrderedMap) that
// need to drive their own field-by-field encoding instead of going through
// the plain-aggregate or builtin-container paths below.
type wireEncoder interface {
	encodeInto(w *Writer) error
}

// wireDecoder is the read-side counterpart of wireEncoder. It is satisfied
// by a pointer receiver since decoding mutates the value in place.
type wireDecoder interface {
	decodeFrom(r *Reader) error
}

var (
	wireEncoderType = reflect.TypeOf((*wireEncoder)(nil)).Elem()
	wireDecoderType = reflect.TypeOf((*wireDecoder)(nil)).Elem()
)

// isFixedWidthKind reports whether k is one of the fixed-width primitive
// kinds the wire format supports natively. Platform-width int/uint are
// deliberately excluded: the wire format has no portable way to size them,
// mirroring spec §3's requirement that every primitive have a fixed byte
// image.
func isFixedWidthKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// isPlainAggregateType reports whether t is a "plain aggregate" (spec §3):
// a non-empty struct built only of fixed-width fields and nested plain
// aggregates, or a fixed array thereof. Slices, maps, strings, pointers,
// interfaces, chans and funcs disqualify a struct from this path. Field
// layout is not inspected: a struct with padding qualifies, and its padding
// bytes are copied onto the wire with the rest of its memory image.
func isPlainAggregateType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return isPlainAggregateType(t.Elem())
	case reflect.Struct:
		if t.Implements(wireEncoderType) {
			return false
		}
		for i := 0; i < t.NumField(); i++ {
			if !isPlainAggregateType(t.Field(i).Type) {
				return false
			}
		}
		return t.NumField() > 0
	default:
		return isFixedWidthKind(t.Kind())
	}
}

// aggregateNeedsLittleEndianHost reports whether t has any field wider than
// one byte. A plain aggregate is copied onto the wire as a raw memory image
// with no per-field byte swap (aggregateBytes/setAggregateBytes below), so
// it is only portable byte-for-byte when the host's native order already
// matches the wire format's little-endian primitives (spec §9's aggregate
// hazard). Single-byte fields are immune, since there is nothing to swap.
func aggregateNeedsLittleEndianHost(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return t.Len() > 0 && aggregateNeedsLittleEndianHost(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if aggregateNeedsLittleEndianHost(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return t.Size() > 1
	}
}

// checkAggregatePortable guards the raw-memory-image path against running
// on a big-endian host, where copying an aggregate's bytes verbatim would
// silently reverse every multi-byte field relative to the wire format.
func checkAggregatePortable(t reflect.Type) error {
	if aggregateNeedsLittleEndianHost(t) && bo.Native() != binary.LittleEndian {
		return ErrNonPortableAggregate
	}
	return nil
}

func writeFixedWidth(w *Writer, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		w.putBytes([]byte{b})
	case reflect.Int8:
		w.putBytes([]byte{byte(v.Int())})
	case reflect.Int16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v.Int()))
		w.putBytes(b[:])
	case reflect.Int32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.Int()))
		w.putBytes(b[:])
	case reflect.Int64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.Int()))
		w.putBytes(b[:])
	case reflect.Uint8:
		w.putBytes([]byte{byte(v.Uint())})
	case reflect.Uint16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v.Uint()))
		w.putBytes(b[:])
	case reflect.Uint32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.Uint()))
		w.putBytes(b[:])
	case reflect.Uint64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v.Uint())
		w.putBytes(b[:])
	case reflect.Float32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v.Float())))
		w.putBytes(b[:])
	case reflect.Float64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Float()))
		w.putBytes(b[:])
	default:
		return ErrUnsupportedType
	}
	return nil
}

func readFixedWidth(r *Reader, v reflect.Value) error {
	var size int
	switch v.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		size = 1
	case reflect.Int16, reflect.Uint16:
		size = 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		size = 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		size = 8
	default:
		return ErrUnsupportedType
	}
	b, err := r.takeBytes(size)
	if err != nil {
		return err
	}
	switch v.Kind() {
	case reflect.Bool:
		v.SetBool(b[0] != 0)
	case reflect.Int8:
		v.SetInt(int64(int8(b[0])))
	case reflect.Int16:
		v.SetInt(int64(int16(binary.LittleEndian.Uint16(b))))
	case reflect.Int32:
		v.SetInt(int64(int32(binary.LittleEndian.Uint32(b))))
	case reflect.Int64:
		v.SetInt(int64(binary.LittleEndian.Uint64(b)))
	case reflect.Uint8:
		v.SetUint(uint64(b[0]))
	case reflect.Uint16:
		v.SetUint(uint64(binary.LittleEndian.Uint16(b)))
	case reflect.Uint32:
		v.SetUint(uint64(binary.LittleEndian.Uint32(b)))
	case reflect.Uint64:
		v.SetUint(binary.LittleEndian.Uint64(b))
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
	return nil
}

// aggregateBytes returns the raw memory image of an addressable plain
// aggregate value: no per-field encoding, no endian swap (spec §4.B, §9).
// This is the direct analogue of the original implementation's
// memcpy(&obj, sizeof(T)) and is the one place this codec reaches for
// unsafe: reflect alone cannot expose a value's memory image.
func aggregateBytes(v reflect.Value) []byte {
	if !v.CanAddr() {
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		v = tmp
	}
	size := int(v.Type().Size())
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(v.UnsafeAddr())), size)
}

func setAggregateBytes(v reflect.Value, data []byte) {
	if len(data) == 0 {
		return
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(v.UnsafeAddr())), len(data))
	copy(dst, data)
}

// encodeValue dispatches a value to exactly one encoding based on its static
// shape: fixed-width primitive, plain aggregate, fixed array, dynamic
// sequence, or a container that drives its own encoding (wireEncoder).
// Anything else is ErrUnsupportedType. This mirrors the compile-time shape
// dispatch described in spec §9, expressed here with reflect.Kind in place
// of the original's type-detection predicates.
func encodeValue(w *Writer, v reflect.Value) error {
	if !v.IsValid() {
		return ErrUnsupportedType
	}
	t := v.Type()

	if t.Implements(wireEncoderType) {
		return v.Interface().(wireEncoder).encodeInto(w)
	}

	switch v.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return writeFixedWidth(w, v)

	case reflect.Array:
		if isPlainAggregateType(t) {
			if err := checkAggregatePortable(t); err != nil {
				return err
			}
			w.putBytes(aggregateBytes(v))
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(w, v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			w.putCount(uint64(v.Len()))
			w.putBytes(v.Bytes())
			return nil
		}
		w.putCount(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(w, v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.String:
		w.putCount(uint64(v.Len()))
		w.putBytes([]byte(v.String()))
		return nil

	case reflect.Map:
		w.putCount(uint64(v.Len()))
		iter := v.MapRange()
		for iter.Next() {
			if err := encodeValue(w, iter.Key()); err != nil {
				return err
			}
			if err := encodeValue(w, iter.Value()); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		if isPlainAggregateType(t) {
			if err := checkAggregatePortable(t); err != nil {
				return err
			}
			w.putBytes(aggregateBytes(v))
			return nil
		}
		return ErrUnsupportedType

	default:
		// Pointers, interfaces, channels, funcs, and unsafe.Pointer never
		// have a well-defined wire shape.
		return ErrUnsupportedType
	}
}

// decodeValue is the read-side counterpart of encodeValue. v must be
// addressable (the caller always arrives here via Reader.Take, which starts
// from a pointer's Elem()).
func decodeValue(r *Reader, v reflect.Value) error {
	if !v.IsValid() || !v.CanSet() {
		return ErrUnsupportedType
	}
	t := v.Type()

	if v.CanAddr() && reflect.PtrTo(t).Implements(wireDecoderType) {
		return v.Addr().Interface().(wireDecoder).decodeFrom(r)
	}

	switch v.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return readFixedWidth(r, v)

	case reflect.Array:
		if isPlainAggregateType(t) {
			if err := checkAggregatePortable(t); err != nil {
				return err
			}
			size := int(t.Size())
			data, err := r.takeBytes(size)
			if err != nil {
				return err
			}
			setAggregateBytes(v, data)
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := decodeValue(r, v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		// Bound the count against the remaining payload before using it to
		// size anything: it is an attacker-controlled 8-byte field, and
		// every element consumes at least one byte (message.hpp's
		// ReadDynamicArray grows incrementally for the same reason rather
		// than pre-sizing from the wire count).
		n, err := r.takeBoundedCount(1)
		if err != nil {
			return err
		}
		if t.Elem().Kind() == reflect.Uint8 {
			data, err := r.takeBytes(int(n))
			if err != nil {
				return err
			}
			buf := make([]byte, len(data))
			copy(buf, data)
			v.SetBytes(buf)
			return nil
		}
		out := reflect.MakeSlice(t, int(n), int(n))
		for i := uint64(0); i < n; i++ {
			if err := decodeValue(r, out.Index(int(i))); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil

	case reflect.String:
		n, err := r.takeCount()
		if err != nil {
			return err
		}
		data, err := r.takeBytes(int(n))
		if err != nil {
			return err
		}
		v.SetString(string(data))
		return nil

	case reflect.Map:
		// Same reasoning as the slice case above: a pair needs at least two
		// bytes (one per key and value), so bound n against what is
		// actually left before sizing the map.
		n, err := r.takeBoundedCount(2)
		if err != nil {
			return err
		}
		out := reflect.MakeMapWithSize(t, int(n))
		for i := uint64(0); i < n; i++ {
			key := reflect.New(t.Key()).Elem()
			if err := decodeValue(r, key); err != nil {
				return err
			}
			val := reflect.New(t.Elem()).Elem()
			if err := decodeValue(r, val); err != nil {
				return err
			}
			out.SetMapIndex(key, val)
		}
		v.Set(out)
		return nil

	case reflect.Struct:
		if isPlainAggregateType(t) {
			if err := checkAggregatePortable(t); err != nil {
				return err
			}
			size := int(t.Size())
			data, err := r.takeBytes(size)
			if err != nil {
				return err
			}
			setAggregateBytes(v, data)
			return nil
		}
		return ErrUnsupportedType

	default:
		return ErrUnsupportedType
	}
}
