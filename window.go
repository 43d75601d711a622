package pack

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrWindowFull is returned by Window.Reserve when a request cannot be
// satisfied even after discarding all history beyond the window size.
var ErrWindowFull = errors.New("pack: window full")

// A Window is a sliding history buffer. Its storage is allocated once, with
// room for size bytes of history plus extra bytes of new data; when new data
// does not fit, the oldest bytes are discarded so that size bytes of history
// remain.
//
// Bytes are addressed by absolute stream position. Positions are never
// renumbered when the window slides, so a position recorded earlier is
// either still inside [Start, End) or refers to data that is gone.
type Window struct {
	buf  []byte
	base int // absolute position of buf[0]
	size int
}

// NewWindow returns a Window that keeps size bytes of history and accepts up
// to extra bytes of new data before it has to slide.
func NewWindow(size, extra int) *Window {
	if size < 0 {
		size = 0
	}
	if extra < 0 {
		extra = 0
	}
	return &Window{
		buf:  make([]byte, 0, size+extra),
		size: size,
	}
}

// Size returns the amount of history the window keeps when it slides.
func (w *Window) Size() int { return w.size }

// Start returns the position of the oldest byte in the window.
func (w *Window) Start() int { return w.base }

// End returns the position just after the newest byte in the window.
func (w *Window) End() int { return w.base + len(w.buf) }

// Len returns the number of bytes in the window.
func (w *Window) Len() int { return len(w.buf) }

// Free returns how many bytes can be written before the window must slide.
func (w *Window) Free() int { return cap(w.buf) - len(w.buf) }

// Contains reports whether the byte at pos is still held by the window.
func (w *Window) Contains(pos int) bool {
	return pos >= w.base && pos < w.base+len(w.buf)
}

// Bytes returns the window contents. The slice is only valid until the
// next call that modifies the window.
func (w *Window) Bytes() []byte { return w.buf }

// Slice returns the bytes between the absolute positions from and to.
func (w *Window) Slice(from, to int) []byte {
	if from < w.base || to < from || to > w.End() {
		panic(fmt.Sprintf("pack: window slice [%d:%d] out of range [%d:%d]", from, to, w.base, w.End()))
	}
	return w.buf[from-w.base : to-w.base]
}

// Reserve makes room for n more bytes, sliding the window if necessary.
func (w *Window) Reserve(n int) error {
	if n <= w.Free() {
		return nil
	}
	keep := w.size
	if keep > len(w.buf) {
		keep = len(w.buf)
	}
	if keep+n > cap(w.buf) {
		return fmt.Errorf("%w: need %d bytes, capacity %d with %d kept", ErrWindowFull, n, cap(w.buf), keep)
	}
	delta := len(w.buf) - keep
	copy(w.buf, w.buf[delta:])
	w.buf = w.buf[:keep]
	w.base += delta
	return nil
}

// Write appends as much of p as fits without sliding the window, and
// returns the number of bytes written.
func (w *Window) Write(p []byte) (int, error) {
	n := len(p)
	if free := w.Free(); n > free {
		n = free
	}
	w.buf = append(w.buf, p[:n]...)
	if n < len(p) {
		return n, ErrWindowFull
	}
	return n, nil
}

// Buffer returns the window contents with the free space as spare capacity,
// for decoders that append their output directly to the history. The result
// must be handed back with Commit.
func (w *Window) Buffer() []byte { return w.buf }

// Commit adopts buf, which must be an extension of the slice returned by
// Buffer, as the new window contents.
func (w *Window) Commit(buf []byte) error {
	if cap(buf) != cap(w.buf) || len(buf) < len(w.buf) {
		return errors.New("pack: committed buffer does not extend the window")
	}
	w.buf = buf
	return nil
}

// Reset discards all history. The next byte written is at the current End,
// so positions recorded before the reset fall outside the window.
func (w *Window) Reset() {
	w.base += len(w.buf)
	w.buf = w.buf[:0]
}

// Load discards all history and replaces it with the last Size bytes of dict.
func (w *Window) Load(dict []byte) {
	w.Reset()
	if len(dict) > w.size {
		dict = dict[len(dict)-w.size:]
	}
	w.buf = append(w.buf, dict...)
}

// Release drops the window's storage. The window must not be used afterwards.
func (w *Window) Release() {
	w.base += len(w.buf)
	w.buf = nil
	w.size = 0
}

func (w *Window) load32(pos int) uint32 {
	return binary.LittleEndian.Uint32(w.buf[pos-w.base:])
}

func (w *Window) load64(pos int) uint64 {
	return binary.LittleEndian.Uint64(w.buf[pos-w.base:])
}
