package terminal

import (
	"io"
	"os"

	"golang.org/x/term"
)

// TTYSurface renders into a terminal file descriptor, usually stdout
type TTYSurface struct {
	out *os.File
}

// NewTTYSurface wraps out as a render surface
func NewTTYSurface(out *os.File) *TTYSurface {
	return &TTYSurface{out: out}
}

// Write passes bytes straight through to the terminal
func (s *TTYSurface) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// Size reports the terminal's current columns and rows
func (s *TTYSurface) Size() (int, int, error) {
	return term.GetSize(int(s.out.Fd()))
}

// Close leaves the underlying file open; the terminal outlives the bridge
func (s *TTYSurface) Close() error {
	return nil
}

// WriterSurface renders into any writer at a fixed size
type WriterSurface struct {
	W    io.Writer
	Cols int
	Rows int
}

// Write passes bytes through to W
func (s *WriterSurface) Write(p []byte) (int, error) {
	return s.W.Write(p)
}

// Size returns the fixed size
func (s *WriterSurface) Size() (int, int, error) {
	return s.Cols, s.Rows, nil
}

// Close closes W when it is an io.Closer
func (s *WriterSurface) Close() error {
	if c, ok := s.W.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
