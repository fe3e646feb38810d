// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"errors"
	"testing"
)

func add(x, y int32) int32 { return x + y + 10 }

func echo(s string) string { return s }

func nothing() {}

type suber struct {
	bias int32
}

func (s *suber) sub(x, y int32) int32 { return x - y - s.bias }

type point struct {
	X, Y int32
}

func translate(p point, dx, dy int32) point {
	return point{X: p.X + dx, Y: p.Y + dy}
}

func callRequest(t *testing.T, d *dispatcher, name string, args ...any) []byte {
	t.Helper()
	w := NewWriter()
	for _, a := range args {
		if err := w.Append(a); err != nil {
			t.Fatalf("Append(%v): %v", a, err)
		}
	}
	r := NewReader(w.Finalize(), true)
	reply, err := d.call(name, r)
	if err != nil {
		t.Fatalf("call(%q): %v", name, err)
	}
	return reply
}

func TestDispatcherFreeFunction(t *testing.T) {
	d := newDispatcher()
	if err := d.register("add", add); err != nil {
		t.Fatalf("register: %v", err)
	}

	reply := callRequest(t, d, "add", int32(1), int32(2))
	r := NewReader(reply, true)
	var got int32
	if err := r.Take(&got); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if want := int32(1 + 2 + 10); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestDispatcherBoundMethod(t *testing.T) {
	d := newDispatcher()
	s := &suber{bias: 10}
	if err := d.register("sub", s.sub); err != nil {
		t.Fatalf("register: %v", err)
	}

	reply := callRequest(t, d, "sub", int32(1), int32(2))
	r := NewReader(reply, true)
	var got int32
	if err := r.Take(&got); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if want := int32(1 - 2 - 10); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestDispatcherVoidHandler(t *testing.T) {
	d := newDispatcher()
	if err := d.register("nothing", nothing); err != nil {
		t.Fatalf("register: %v", err)
	}
	reply := callRequest(t, d, "nothing")
	if len(reply) != HeaderLength {
		t.Errorf("void reply carries %d payload bytes, want 0", len(reply)-HeaderLength)
	}
}

func TestDispatcherStructReturningHandler(t *testing.T) {
	d := newDispatcher()
	if err := d.register("translate", translate); err != nil {
		t.Fatalf("register: %v", err)
	}

	reply := callRequest(t, d, "translate", point{X: 1, Y: 2}, int32(3), int32(4))
	r := NewReader(reply, true)
	var got point
	if err := r.Take(&got); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if want := (point{X: 4, Y: 6}); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDispatcherUnknownMethod(t *testing.T) {
	d := newDispatcher()
	r := NewReader(NewWriter().Finalize(), true)
	if _, err := d.call("missing", r); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("call(missing) = %v, want ErrUnknownMethod", err)
	}
}

func TestDispatcherDecodeFailure(t *testing.T) {
	d := newDispatcher()
	if err := d.register("add", add); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Only one argument where add wants two.
	w := NewWriter()
	_ = w.Append(int32(1))
	r := NewReader(w.Finalize(), true)
	if _, err := d.call("add", r); !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("call(add) = %v, want ErrDecodeFailed", err)
	}
}

func TestDispatcherHandlerPanicBecomesFault(t *testing.T) {
	d := newDispatcher()
	if err := d.register("boom", func() { panic("kaboom") }); err != nil {
		t.Fatalf("register: %v", err)
	}
	r := NewReader(NewWriter().Finalize(), true)
	if _, err := d.call("boom", r); !errors.Is(err, ErrHandlerFault) {
		t.Fatalf("call(boom) = %v, want ErrHandlerFault", err)
	}
}

func TestDispatcherRejectsVariadic(t *testing.T) {
	d := newDispatcher()
	err := d.register("variadic", func(xs ...int32) int32 { return 0 })
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("register(variadic) = %v, want ErrInvalidArgument", err)
	}
}

func TestDispatcherUnregister(t *testing.T) {
	d := newDispatcher()
	_ = d.register("add", add)
	d.unregister("add")
	r := NewReader(NewWriter().Finalize(), true)
	if _, err := d.call("add", r); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("call(add) after unregister = %v, want ErrUnknownMethod", err)
	}
}
