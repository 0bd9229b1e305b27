// Package terminal moves raw pty bytes between a session backend and a local
// render surface.
package terminal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Benbentwo/aim/internal/events"
)

// ErrDetached is returned when a detached bridge is used
var ErrDetached = errors.New("terminal bridge detached")

// Backend is the subset of session operations the bridge needs
type Backend interface {
	Resize(ctx context.Context, sessionID string, cols, rows int) error
	Write(ctx context.Context, sessionID string, text string) error
	Scrollback(ctx context.Context, sessionID string) (string, error)
}

// Surface renders raw bytes and reports the size it can display
type Surface interface {
	Write(p []byte) (int, error)
	Size() (cols, rows int, err error)
	Close() error
}

// Opener opens a URL outside the terminal
type Opener interface {
	Open(url string) error
}

// Bridge is the transport for one open session. It is not reused after Detach.
type Bridge struct {
	sessionID string
	backend   Backend
	bus       *events.Bus
	surface   Surface
	logger    *slog.Logger

	mu       sync.Mutex
	sub      *events.Subscription
	attached bool
	detached bool
	cols     int
	rows     int
}

// NewBridge creates a bridge for sessionID rendering into surface
func NewBridge(sessionID string, backend Backend, bus *events.Bus, surface Surface, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		sessionID: sessionID,
		backend:   backend,
		bus:       bus,
		surface:   surface,
		logger:    logger.With("sessionID", sessionID),
	}
}

// SessionID returns the session this bridge serves
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// Attach sizes the backend pty, renders the scrollback once, then subscribes
// to live output. Backend failures are logged and returned joined; the bridge
// is subscribed either way.
func (b *Bridge) Attach(ctx context.Context) error {
	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		return ErrDetached
	}
	if b.attached {
		b.mu.Unlock()
		return nil
	}
	b.attached = true
	b.mu.Unlock()

	var errs []error

	if err := b.Fit(ctx); err != nil {
		errs = append(errs, err)
	}

	scrollback, err := b.backend.Scrollback(ctx, b.sessionID)
	if err != nil {
		b.logger.Warn("failed to fetch scrollback", "error", err)
		errs = append(errs, fmt.Errorf("scrollback: %w", err))
	} else if scrollback != "" {
		b.render(scrollback)
	}

	sub := b.bus.Subscribe(events.SessionData, b.sessionID, b.onData)

	b.mu.Lock()
	if b.detached {
		// Detached while attaching
		b.mu.Unlock()
		sub.Unsubscribe()
		return ErrDetached
	}
	b.sub = sub
	b.mu.Unlock()

	return errors.Join(errs...)
}

// Input forwards local input verbatim to the session
func (b *Bridge) Input(ctx context.Context, text string) error {
	if b.isDetached() {
		return ErrDetached
	}
	if err := b.backend.Write(ctx, b.sessionID, text); err != nil {
		b.logger.Warn("failed to write to session", "error", err)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Fit recomputes the surface size and pushes it to the backend when it changed
func (b *Bridge) Fit(ctx context.Context) error {
	if b.isDetached() {
		return ErrDetached
	}

	cols, rows, err := b.surface.Size()
	if err != nil {
		b.logger.Debug("failed to measure surface", "error", err)
		return fmt.Errorf("measure: %w", err)
	}
	if cols <= 0 || rows <= 0 {
		return nil
	}

	b.mu.Lock()
	if cols == b.cols && rows == b.rows {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.backend.Resize(ctx, b.sessionID, cols, rows); err != nil {
		b.logger.Warn("failed to resize session", "cols", cols, "rows", rows, "error", err)
		return fmt.Errorf("resize: %w", err)
	}

	b.mu.Lock()
	b.cols, b.rows = cols, rows
	b.mu.Unlock()
	return nil
}

// Size returns the last size pushed to the backend
func (b *Bridge) Size() (cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cols, b.rows
}

// Detach cancels the output subscription and then disposes the surface.
// Calling it more than once is a no-op.
func (b *Bridge) Detach() {
	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		return
	}
	b.detached = true
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	sub.Unsubscribe()

	// Wait for an in-flight render before disposing
	b.mu.Lock()
	err := b.surface.Close()
	b.mu.Unlock()
	if err != nil {
		b.logger.Debug("failed to close surface", "error", err)
	}
}

// Detached reports whether Detach has been called
func (b *Bridge) Detached() bool {
	return b.isDetached()
}

func (b *Bridge) isDetached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detached
}

func (b *Bridge) onData(payload any) {
	encoded, ok := payload.(string)
	if !ok {
		b.logger.Debug("ignoring non-string data payload", "payload", payload)
		return
	}
	b.render(encoded)
}

// render decodes a base64 blob and writes the raw bytes. The bytes are never
// converted to text: a multi-byte sequence split across frames must reach the
// surface unchanged.
func (b *Bridge) render(encoded string) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		b.logger.Debug("ignoring malformed data payload", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return
	}
	if _, err := b.surface.Write(raw); err != nil {
		b.logger.Debug("failed to render output", "error", err)
	}
}
