package status

import (
	"testing"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    domain.Status
		ok      bool
	}{
		{"idle", "idle", domain.StatusIdle, true},
		{"thinking", "thinking", domain.StatusThinking, true},
		{"typed", domain.StatusWaiting, domain.StatusWaiting, true},
		{"unknown string", "busy", "", false},
		{"empty", "", "", false},
		{"number", 42, "", false},
		{"nil", nil, "", false},
		{"bytes", []byte("idle"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustParse(t *testing.T) {
	_, err := MustParse("sleeping")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	s, err := MustParse("stopped")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, s)
}

func TestFromExit(t *testing.T) {
	assert.Equal(t, domain.StatusStopped, FromExit(0))
	assert.Equal(t, domain.StatusErrored, FromExit(1))
	assert.Equal(t, domain.StatusErrored, FromExit(-1))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		current domain.Status
		chunk   string
		want    domain.Status
	}{
		{"prompt box", domain.StatusThinking, "╭──────╮", domain.StatusIdle},
		{"input cursor", domain.StatusThinking, "> ", domain.StatusIdle},
		{"thinking banner", domain.StatusIdle, "✻ Thinking…", domain.StatusThinking},
		{"spinner", domain.StatusWaiting, "◓ reading files", domain.StatusThinking},
		{"plain output while idle", domain.StatusIdle, "compiling", domain.StatusThinking},
		{"plain output while stopped", domain.StatusStopped, "hello", domain.StatusThinking},
		{"whitespace while idle", domain.StatusIdle, "\r\n  ", domain.StatusIdle},
		{"plain output while waiting", domain.StatusWaiting, "more", domain.StatusWaiting},
		{"escape sequences only", domain.StatusIdle, "\x1b[2J\x1b[H", domain.StatusIdle},
		{"colored marker", domain.StatusIdle, "\x1b[33mThinking\x1b[0m", domain.StatusThinking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.current, []byte(tt.chunk)))
		})
	}
}

func TestClock(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(domain.StatusIdle, start, 5*time.Second)

	s, changed := c.Observe([]byte("working on it"), start.Add(time.Second))
	assert.True(t, changed)
	assert.Equal(t, domain.StatusThinking, s)

	_, changed = c.Observe([]byte("still working"), start.Add(2*time.Second))
	assert.False(t, changed)

	// Silent for exactly the threshold: not yet waiting
	_, changed = c.Tick(start.Add(7 * time.Second))
	assert.False(t, changed)

	s, changed = c.Tick(start.Add(8 * time.Second))
	assert.True(t, changed)
	assert.Equal(t, domain.StatusWaiting, s)

	// Waiting does not tick further
	_, changed = c.Tick(start.Add(time.Minute))
	assert.False(t, changed)

	assert.True(t, c.Set(domain.StatusStopped))
	assert.False(t, c.Set(domain.StatusStopped))
	assert.Equal(t, domain.StatusStopped, c.Status())
}

func TestClock_IdleNeverWaits(t *testing.T) {
	start := time.Now()
	c := NewClock(domain.StatusIdle, start, 0)

	_, changed := c.Tick(start.Add(time.Hour))
	assert.False(t, changed)
	assert.Equal(t, domain.StatusIdle, c.Status())
}
