// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc_test

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/tinyrpc"
)

type remoteSuber struct {
	bias int32
}

func (s *remoteSuber) sub(x, y int32) int32 { return x - y - s.bias }

// vec is a plain-aggregate struct, used to exercise the struct-returning RPC
// case (spec §8 scenario 6: a handler taking and returning a plain
// aggregate) end to end, not just at the dispatcher level.
type vec struct {
	X, Y int32
}

func shift(v vec, dx, dy int32) vec {
	return vec{X: v.X + dx, Y: v.Y + dy}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServerClientRoundTrip(t *testing.T) {
	port := freePort(t)

	srv := tinyrpc.NewServer(port)
	sub := &remoteSuber{bias: 10}
	handlers := map[string]any{
		"add":     func(x, y int32) int32 { return x + y + 10 },
		"echo":    func(s string) string { return s },
		"sub":     sub.sub,
		"nothing": func() {},
		"shift":   shift,
	}
	for name, fn := range handlers {
		if err := srv.Register(name, fn); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	client := tinyrpc.NewClient("127.0.0.1", port)
	if err := waitForDial(client); err != nil {
		t.Fatalf("client Start: %v", err)
	}
	defer client.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	message := "hello rpc"
	if err := tinyrpc.Call(client, "echo", func(got string) {
		defer wg.Done()
		if got != message {
			t.Errorf("echo = %q, want %q", got, message)
		}
	}, message); err != nil {
		t.Fatalf("Call(echo): %v", err)
	}
	wg.Wait()

	wg.Add(1)
	if err := tinyrpc.Call(client, "sub", func(got int32) {
		defer wg.Done()
		if want := int32(1 - 2 - 10); got != want {
			t.Errorf("sub = %d, want %d", got, want)
		}
	}, int32(1), int32(2)); err != nil {
		t.Fatalf("Call(sub): %v", err)
	}
	wg.Wait()

	wg.Add(1)
	if err := tinyrpc.Call(client, "add", func(got int32) {
		defer wg.Done()
		if want := int32(1 + 2 + 10); got != want {
			t.Errorf("add = %d, want %d", got, want)
		}
	}, int32(1), int32(2)); err != nil {
		t.Fatalf("Call(add): %v", err)
	}
	wg.Wait()

	if err := client.CallVoid("nothing"); err != nil {
		t.Fatalf("CallVoid(nothing): %v", err)
	}

	wg.Add(1)
	if err := tinyrpc.Call(client, "shift", func(got vec) {
		defer wg.Done()
		if want := (vec{X: 4, Y: 6}); got != want {
			t.Errorf("shift = %+v, want %+v", got, want)
		}
	}, vec{X: 1, Y: 2}, int32(3), int32(4)); err != nil {
		t.Fatalf("Call(shift): %v", err)
	}
	wg.Wait()
}

func TestServerClosesConnectionOnUnknownMethod(t *testing.T) {
	port := freePort(t)
	srv := tinyrpc.NewServer(port)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	conn, err := net.DialTimeout("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	w := tinyrpc.NewWriter()
	if err := w.Append("no-such-method"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := conn.Write(w.Finalize()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if n, err := conn.Read(buf); n != 0 || err == nil {
		t.Fatalf("expected the server to close the connection on unknown method, got n=%d err=%v", n, err)
	}
}

// waitForDial retries Start briefly, so that a transient dial failure under
// test load does not fail the test outright. The server's Start has already
// bound the listener before this runs.
func waitForDial(c *tinyrpc.Client) error {
	var err error
	for i := 0; i < 10; i++ {
		if err = c.Start(); err == nil {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return err
}
