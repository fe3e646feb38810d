// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"encoding/binary"
	"errors"
	"io"
	"runtime"
	"time"
)

// Wire constants (spec §3, §6).
const (
	// Magic is the fixed 32-bit constant identifying a valid frame.
	Magic uint32 = 0xC2A9C9A7

	// HeaderLength is the size in bytes of a frame header: magic (u32 LE)
	// followed by length (u32 LE).
	HeaderLength = 8

	// MaxLength is the reply payload ceiling enforced by the client, and the
	// default read limit used everywhere else when none is configured.
	MaxLength = 4096
)

// frameIO reads and writes length-framed messages over a live io.Reader/
// io.Writer pair, one message at a time. It is the stream-plumbing half of
// the codec: it knows nothing about the shape of the payload, only how many
// bytes to pull off (or push onto) the wire. This is adapted from the
// teacher's framer.framer read/write state machine (internal.go), simplified
// from the teacher's variable-length multi-protocol header down to this
// wire format's fixed 8-byte magic+length header.
type frameIO struct {
	rd io.Reader
	wr io.Writer

	readLimit  int64
	retryDelay time.Duration
}

func newFrameIO(rd io.Reader, wr io.Writer, opts ...Option) *frameIO {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &frameIO{
		rd:         rd,
		wr:         wr,
		readLimit:  int64(o.ReadLimit),
		retryDelay: o.RetryDelay,
	}
}

func (f *frameIO) waitOnceOnWouldBlock() bool {
	if f.retryDelay < 0 {
		return false
	}
	if f.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(f.retryDelay)
	return true
}

// readOnce guards against readers that violate the io.Reader contract by
// returning (0, nil) on a non-empty buffer, and retries on ErrWouldBlock
// per the configured retry policy.
func (f *frameIO) readOnce(p []byte) (int, error) {
	for {
		n, err := f.rd.Read(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrNoProgress
		}
		if n > 0 {
			return n, err
		}
		if !errors.Is(err, ErrWouldBlock) {
			return n, err
		}
		if !f.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

func (f *frameIO) writeOnce(p []byte) (int, error) {
	for {
		n, err := f.wr.Write(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrShortWrite
		}
		if n > 0 {
			return n, err
		}
		if !errors.Is(err, ErrWouldBlock) {
			return n, err
		}
		if !f.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

func (f *frameIO) readFull(p []byte) error {
	got := 0
	for got < len(p) {
		n, err := f.readOnce(p[got:])
		got += n
		if err != nil {
			if errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrMore) {
				return err
			}
			if err == io.EOF && got > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

func (f *frameIO) writeFull(p []byte) error {
	got := 0
	for got < len(p) {
		n, err := f.writeOnce(p[got:])
		got += n
		if err != nil {
			if errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrMore) {
				return err
			}
			return err
		}
	}
	return nil
}

// readLimitOrDefault returns the configured read limit, or MaxLength when
// none was set.
func (f *frameIO) readLimitOrDefault() int64 {
	if f.readLimit > 0 {
		return f.readLimit
	}
	return MaxLength
}

// readFrame reads exactly one framed message from the underlying reader and
// returns its payload bytes (header stripped). A retry (ErrWouldBlock/
// ErrMore) surfaces unchanged so the caller can call readFrame again.
func (f *frameIO) readFrame() ([]byte, error) {
	var header [HeaderLength]byte
	if err := f.readFull(header[:]); err != nil {
		return nil, err
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != Magic {
		return nil, ErrUnsupportedMessage
	}
	length := binary.LittleEndian.Uint32(header[4:8])
	if int64(length) > f.readLimitOrDefault() {
		return nil, ErrTooLong
	}
	if length == 0 {
		return nil, nil
	}
	payload := make([]byte, length)
	if err := f.readFull(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// writeFrame writes a complete, already-finalized frame (as produced by
// Writer.Finalize, header and all) to the underlying writer, handling
// partial writes and retries. Unlike readFrame, there is no separate
// header-then-payload step on the write side: the caller already built a
// self-describing frame, so this is just a reliable bulk write.
func (f *frameIO) writeFrame(frame []byte) error {
	return f.writeFull(frame)
}
