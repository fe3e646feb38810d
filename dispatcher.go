// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"fmt"
	"reflect"
	"sync"
)

// methodAdapter bridges a Reader and a typed handler (spec §3 GLOSSARY,
// §4.B): it knows the handler's declared parameter types so it can decode
// exactly that many arguments, in order, before invoking it.
type methodAdapter struct {
	fn     reflect.Value
	in     []reflect.Type
	hasOut bool
}

// dispatcher is the process-wide-per-server handler table: name → adapter
// (spec §3). Free functions and bound methods register the same way — a Go
// method value (obj.Method) already captures its receiver as a closure, so
// spec §4.B's "bound method with a borrowed receiver" needs no separate
// receiver parameter or API shape here; the receiver's storage must simply
// outlive the server, same as spec §9's lifetime note.
type dispatcher struct {
	mu      sync.RWMutex
	methods map[string]methodAdapter
}

func newDispatcher() *dispatcher {
	return &dispatcher{methods: make(map[string]methodAdapter)}
}

// register stores an adapter for name, replacing any prior binding.
func (d *dispatcher) register(name string, handler any) error {
	v := reflect.ValueOf(handler)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return fmt.Errorf("tinyrpc: register %q: %w: handler is not a function", name, ErrInvalidArgument)
	}
	t := v.Type()
	if t.IsVariadic() {
		return fmt.Errorf("tinyrpc: register %q: %w: variadic handlers are not supported", name, ErrInvalidArgument)
	}
	if t.NumOut() > 1 {
		return fmt.Errorf("tinyrpc: register %q: %w: at most one return value is supported", name, ErrInvalidArgument)
	}

	in := make([]reflect.Type, t.NumIn())
	for i := range in {
		in[i] = t.In(i)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.methods[name] = methodAdapter{fn: v, in: in, hasOut: t.NumOut() == 1}
	return nil
}

// unregister removes the adapter for name, if any.
func (d *dispatcher) unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.methods, name)
}

// call looks up name, decodes arguments from r strictly left to right in
// declared order (spec §4.B), invokes the handler, and returns the
// finalized reply frame. A lookup miss is ErrUnknownMethod; a mid-decode
// reader failure is ErrDecodeFailed; any panic raised while decoding
// arguments or while running the handler is recovered and reported as
// ErrHandlerFault — spec §7 closes the connection for all of these, so the
// caller need not distinguish further once it has the error.
func (d *dispatcher) call(name string, r *Reader) (reply []byte, err error) {
	d.mu.RLock()
	a, ok := d.methods[name]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownMethod
	}

	// Installed before argument decoding, not just around the call: a
	// malformed request can make decodeValue panic (e.g. a reflect
	// allocation driven by bad input) just as easily as a handler can, and
	// either one must close only this connection, never the process.
	defer func() {
		if rec := recover(); rec != nil {
			reply = nil
			err = fmt.Errorf("%w: %v", ErrHandlerFault, rec)
		}
	}()

	args := make([]reflect.Value, len(a.in))
	for i, in := range a.in {
		argp := reflect.New(in)
		if takeErr := r.Take(argp.Interface()); takeErr != nil {
			return nil, ErrDecodeFailed
		}
		args[i] = argp.Elem()
	}

	out := a.fn.Call(args)
	w := NewWriter()
	if a.hasOut {
		if appErr := w.Append(out[0].Interface()); appErr != nil {
			return nil, appErr
		}
	}
	return w.Finalize(), nil
}
