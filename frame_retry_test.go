// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyrpc

import (
	"bytes"
	"testing"

	"code.hybscloud.com/iox"
)

// wouldBlockOnceReader returns ErrWouldBlock on its first call, then serves
// real bytes, proving frameIO actually retries instead of just aliasing the
// sentinel for show.
type wouldBlockOnceReader struct {
	data   []byte
	tripped bool
}

func (r *wouldBlockOnceReader) Read(p []byte) (int, error) {
	if !r.tripped {
		r.tripped = true
		return 0, iox.ErrWouldBlock
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	if n == 0 {
		return 0, bytes.ErrTooLarge // unreachable in this test, readFull stops once satisfied
	}
	return n, nil
}

type wouldBlockOnceWriter struct {
	buf     bytes.Buffer
	tripped bool
}

func (w *wouldBlockOnceWriter) Write(p []byte) (int, error) {
	if !w.tripped {
		w.tripped = true
		return 0, iox.ErrWouldBlock
	}
	return w.buf.Write(p)
}

func TestFrameIOReadRetriesOnWouldBlock(t *testing.T) {
	wr := NewWriter()
	if err := wr.Append(int32(42)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	frame := wr.Finalize()

	rd := &wouldBlockOnceReader{data: frame}
	fr := newFrameIO(rd, nil, WithBlock())

	payload, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if !rd.tripped {
		t.Fatalf("reader never hit the ErrWouldBlock branch")
	}

	r := NewReader(payload, false)
	var got int32
	if err := r.Take(&got); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestFrameIOWriteRetriesOnWouldBlock(t *testing.T) {
	wr := NewWriter()
	if err := wr.Append(int32(7)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	frame := wr.Finalize()

	wrt := &wouldBlockOnceWriter{}
	fr := newFrameIO(nil, wrt, WithBlock())

	if err := fr.writeFrame(frame); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	if !wrt.tripped {
		t.Fatalf("writer never hit the ErrWouldBlock branch")
	}
	if !bytes.Equal(wrt.buf.Bytes(), frame) {
		t.Errorf("written bytes mismatch")
	}
}

func TestFrameIONonblockGivesUpOnWouldBlock(t *testing.T) {
	rd := &wouldBlockOnceReader{data: []byte{1, 2, 3}}
	fr := newFrameIO(rd, nil, WithNonblock())

	_, err := fr.readFrame()
	if err != iox.ErrWouldBlock {
		t.Fatalf("readFrame() = %v, want ErrWouldBlock", err)
	}
}
