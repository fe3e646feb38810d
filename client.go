// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"fmt"
	"net"
	"sync"
)

// Client issues RPC calls over a single TCP connection (spec §4.D, §4.E).
// Calls are serialized: Call blocks the caller until any prior call's
// reply has been received and its callback has run, matching the single
// client-side mutex in the original implementation (rpcclient.hpp) rather
// than allowing concurrent in-flight calls to interleave on the wire. Call
// itself does not block for the reply — it hands the request to the
// connection and returns; the reply is decoded and the callback invoked on
// a background goroutine, which then releases the next caller.
type Client struct {
	host string
	port int

	mu   sync.Mutex // held from Call() until the reply callback returns
	conn net.Conn
	fr   *frameIO

	pendMu  sync.Mutex            // guards pending only, independent of mu's longer hold
	pending func(r *Reader) error // set by call(), consumed by readLoop/failPending

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// NewClient constructs a Client that will dial host:port once Start is
// called.
func NewClient(host string, port int) *Client {
	return &Client{host: host, port: port, closed: make(chan struct{})}
}

// Start dials the server and launches the background reply reader. Start
// must complete before the first Call.
func (c *Client) Start() error {
	conn, err := net.Dial("tcp4", fmt.Sprintf("%s:%d", c.host, c.port))
	if err != nil {
		return err
	}
	c.conn = conn
	c.fr = newFrameIO(conn, conn)

	c.wg.Add(1)
	go c.readLoop()
	return nil
}

// Stop closes the connection and waits for the reply reader to exit.
// Any call awaiting a reply at the time of Stop never has its callback
// invoked; that Call has already returned nil, and a Call made or still
// waiting for its turn after Stop returns net.ErrClosed. Safe to call more
// than once.
func (c *Client) Stop() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	c.wg.Wait()
	return err
}

// CallVoid invokes the remote handler name with args and does not wait for
// or decode a reply value. It still participates in the same call
// serialization as Call.
func (c *Client) CallVoid(name string, args ...any) error {
	// A non-nil no-op decode marks the call as pending, so readLoop and
	// failPending release the mutex for it like for any other call.
	return c.call(name, args, func(*Reader) error { return nil })
}

// Call invokes the remote handler name with args; once the reply arrives,
// it is decoded into an R and passed to onResult on the background reader
// goroutine. Call returns once the request has been written, not once the
// reply has arrived — onResult may run after Call has already returned.
func Call[R any](c *Client, name string, onResult func(R), args ...any) error {
	return c.call(name, args, func(r *Reader) error {
		var result R
		if err := r.Take(&result); err != nil {
			return err
		}
		if onResult != nil {
			onResult(result)
		}
		return nil
	})
}

func (c *Client) call(name string, args []any, decode func(r *Reader) error) error {
	w := NewWriter()
	if err := w.Append(name); err != nil {
		return err
	}
	for _, a := range args {
		if err := w.Append(a); err != nil {
			return err
		}
	}
	if w.Failed() {
		return w.Error()
	}
	frame := w.Finalize()

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return net.ErrClosed
	default:
	}

	c.pendMu.Lock()
	c.pending = decode
	c.pendMu.Unlock()

	if err := c.fr.writeFrame(frame); err != nil {
		c.pendMu.Lock()
		c.pending = nil
		c.pendMu.Unlock()
		c.mu.Unlock()
		return err
	}
	// The mutex is released by readLoop once the matching reply has been
	// decoded and the callback has run, not here: this is what serializes
	// calls without the caller blocking on I/O twice.
	return nil
}

// readLoop continuously reads reply frames and completes the
// currently-pending call, if any, releasing the client mutex so the next
// Call can proceed.
func (c *Client) readLoop() {
	defer c.wg.Done()
	for {
		payload, err := c.fr.readFrame()
		if err != nil {
			c.failPending()
			return
		}

		r := NewReader(payload, false)
		c.pendMu.Lock()
		decode := c.pending
		c.pending = nil
		c.pendMu.Unlock()
		if decode != nil {
			_ = decode(r)
		}
		c.mu.Unlock()
	}
}

// failPending releases a caller blocked in Call when the connection dies
// before a reply arrives, rather than leaving it stuck holding the mutex
// forever.
func (c *Client) failPending() {
	c.pendMu.Lock()
	decode := c.pending
	c.pending = nil
	c.pendMu.Unlock()
	if decode != nil {
		c.mu.Unlock()
	}
}
