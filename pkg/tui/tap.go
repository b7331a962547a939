package tui

import (
	"io"
	"sync"
)

// Tap passes writes through to an underlying sink and keeps the most recent
// bytes for display. Write is called by the generator, Snapshot by the UI.
type Tap struct {
	w io.Writer

	mu   sync.Mutex
	ring []byte
	pos  int
	full bool
	skip int // Bytes still to pass through unrecorded
}

// NewTap wraps w, remembering the last size bytes written
func NewTap(w io.Writer, size int) *Tap {
	if size < 1 {
		size = 1
	}
	return &Tap{w: w, ring: make([]byte, size)}
}

func (t *Tap) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)

	t.mu.Lock()
	recorded := p[:n]
	if t.skip > 0 {
		k := min(t.skip, len(recorded))
		t.skip -= k
		recorded = recorded[k:]
	}
	for _, b := range recorded {
		t.ring[t.pos] = b
		t.pos++
		if t.pos == len(t.ring) {
			t.pos = 0
			t.full = true
		}
	}
	t.mu.Unlock()

	return n, err
}

// Skip passes the next n bytes through without recording them, for a
// container header written ahead of the samples
func (t *Tap) Skip(n int) {
	t.mu.Lock()
	t.skip = n
	t.mu.Unlock()
}

// Snapshot returns the remembered bytes, oldest first
func (t *Tap) Snapshot() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full {
		return append([]byte(nil), t.ring[:t.pos]...)
	}
	out := make([]byte, 0, len(t.ring))
	out = append(out, t.ring[t.pos:]...)
	return append(out, t.ring[:t.pos]...)
}
