package pty

import "sync"

// DefaultRingSize bounds the in-memory scrollback of a live session
const DefaultRingSize = 1 << 20

// Ring keeps the most recent bytes written to it
type Ring struct {
	mu  sync.Mutex
	buf []byte
	max int
}

// NewRing creates a ring holding at most max bytes
func NewRing(max int) *Ring {
	if max <= 0 {
		max = DefaultRingSize
	}
	return &Ring{max: max}
}

// Write appends p, dropping the oldest bytes past the limit
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(p) >= r.max {
		r.buf = append(r.buf[:0], p[len(p)-r.max:]...)
		return len(p), nil
	}
	if over := len(r.buf) + len(p) - r.max; over > 0 {
		n := copy(r.buf, r.buf[over:])
		r.buf = r.buf[:n]
	}
	r.buf = append(r.buf, p...)
	return len(p), nil
}

// Bytes returns a copy of the buffered bytes
func (r *Ring) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.buf...)
}

// Len returns the number of buffered bytes
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
