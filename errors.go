// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"errors"

	"code.hybscloud.com/iox"
)

var (
	// ErrUnsupportedType reports that a value's shape is not one of the
	// supported codec kinds (primitive, fixed array, dynamic sequence,
	// pair, mapping, or plain aggregate).
	ErrUnsupportedType = errors.New("tinyrpc: unsupported type")

	// ErrUnsupportedMessage reports that a frame header's magic does not
	// match Magic.
	ErrUnsupportedMessage = errors.New("tinyrpc: unsupported message")

	// ErrFrameLengthMismatch reports that the bytes received for a frame's
	// payload disagree with the length the header declared.
	ErrFrameLengthMismatch = errors.New("tinyrpc: frame length mismatch")

	// ErrShortRead reports that a Reader's remaining cursor is smaller than
	// the value being taken requires.
	ErrShortRead = errors.New("tinyrpc: short read")

	// ErrUnknownMethod reports a dispatch lookup miss.
	ErrUnknownMethod = errors.New("tinyrpc: unknown method")

	// ErrDecodeFailed reports that a dispatched handler's argument reader
	// entered its error state mid-decode.
	ErrDecodeFailed = errors.New("tinyrpc: argument decode failed")

	// ErrHandlerFault reports that a panic was raised on the dispatcher's
	// goroutine, either by a registered handler or while decoding its
	// arguments.
	ErrHandlerFault = errors.New("tinyrpc: handler fault")

	// ErrInvalidArgument reports an unusable argument, such as a handler
	// passed to Register that is not a non-variadic function with at most
	// one result, mirroring the teacher package's own sentinel.
	ErrInvalidArgument = errors.New("tinyrpc: invalid argument")

	// ErrTooLong reports that a frame's payload exceeds MaxLength.
	ErrTooLong = errors.New("tinyrpc: message too long")

	// ErrNonPortableAggregate reports that a plain aggregate with
	// multi-byte fields was about to be copied onto (or off) the wire as a
	// raw memory image on a host whose native byte order is not
	// little-endian, which would silently reverse those fields relative to
	// every other peer.
	ErrNonPortableAggregate = errors.New("tinyrpc: plain aggregate is not portable on this host's byte order")
)

// These are re-exported so callers of the frame-level retry loop (frame.go)
// can recognize them without importing iox directly, the same way the
// teacher's framer package aliases them in framer.go.
var (
	// ErrWouldBlock means "no further progress without waiting". A transport
	// that signals backpressure this way (instead of blocking the caller)
	// causes the frame reader/writer to yield and retry rather than fail.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means the current operation is still active and the caller
	// should call again for the next chunk; not io.EOF and not "try later".
	ErrMore = iox.ErrMore
)
