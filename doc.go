// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tinyrpc implements a minimal, self-describing RPC runtime: a
// binary message codec, a name-based handler dispatcher, and a TCP server
// and client built on top of them.
//
// # Wire format
//
// Every message is a frame: an 8-byte header (a little-endian uint32
// magic, Magic, followed by a little-endian uint32 payload length) and the
// payload bytes it declares. Within a payload, values are encoded in
// declaration order with no type tags — both ends must agree on the shape
// out of band, the same way the handler table agrees on argument types by
// registration.
//
// Supported value shapes:
//
//   - Fixed-width primitives (bool, int8..64, uint8..64, float32/64) as
//     their little-endian byte image.
//   - Plain aggregates — structs and fixed arrays built entirely out of
//     fixed-width fields — as a single raw memory copy, with no per-field
//     encoding and no byte swap. This is fast but only portable between
//     peers that share a byte order; see ErrNonPortableAggregate.
//   - Dynamic sequences (slices, strings) as a little-endian uint64 count
//     followed by that many encoded elements (or raw bytes, for []byte and
//     string).
//   - Pair as the back-to-back encoding of its two components, nothing
//     else.
//   - Mappings (map, OrderedMap) as a count followed by that many
//     key/value pairs; a plain Go map carries no ordering guarantee, while
//     OrderedMap preserves insertion order on both sides of the wire.
//   - Set as a count followed by its elements in sorted order.
//
// Writer and Reader build and consume one payload at a time in memory;
// frameIO (frame.go) moves whole frames on and off a live connection.
// Server and Client compose these into a name-dispatched RPC runtime.
package tinyrpc
