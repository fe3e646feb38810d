// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import "time"

// Options configures the frame-level read/write loop (frame.go). Unlike the
// teacher's framer.Options, byte order is not configurable: the wire format
// fixes header and primitive fields to little-endian (spec §3), so there is
// nothing here to parametrize beyond size limits and retry policy.
type Options struct {
	// ReadLimit caps the maximum accepted frame payload size in bytes. Zero
	// means MaxLength is used.
	ReadLimit int

	// RetryDelay controls how the frame reader/writer reacts to ErrWouldBlock
	// from the underlying io.Reader/io.Writer:
	//   - negative: nonblocking, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration
}

var defaultOptions = Options{
	ReadLimit:  0,
	RetryDelay: 0, // default: cooperative blocking, matching the transport's "only I/O suspends" model
}

// Option configures Options.
type Option func(*Options)

// WithReadLimit caps the maximum accepted frame payload size in bytes.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

// WithRetryDelay sets the retry/wait policy used when the underlying
// transport returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return ErrWouldBlock immediately).
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}
