package status

import (
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
)

// DefaultWaitAfter is how long a thinking agent may stay silent before it is
// considered to be waiting on the user.
const DefaultWaitAfter = 5 * time.Second

// Clock tracks one session's status from its output stream over time
type Clock struct {
	mu         sync.Mutex
	status     domain.Status
	lastOutput time.Time
	waitAfter  time.Duration
}

// NewClock creates a clock starting in the given status
func NewClock(initial domain.Status, now time.Time, waitAfter time.Duration) *Clock {
	if waitAfter <= 0 {
		waitAfter = DefaultWaitAfter
	}
	return &Clock{
		status:     initial,
		lastOutput: now,
		waitAfter:  waitAfter,
	}
}

// Status returns the current status
func (c *Clock) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Observe records an output chunk and returns the new status and whether it changed
func (c *Clock) Observe(chunk []byte, now time.Time) (domain.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastOutput = now
	next := Detect(c.status, chunk)
	if next == c.status {
		return c.status, false
	}
	c.status = next
	return next, true
}

// Tick promotes a silent thinking session to waiting
func (c *Clock) Tick(now time.Time) (domain.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == domain.StatusThinking && now.Sub(c.lastOutput) > c.waitAfter {
		c.status = domain.StatusWaiting
		return c.status, true
	}
	return c.status, false
}

// Set forces a status, as on process exit. It reports whether the status changed.
func (c *Clock) Set(s domain.Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == s {
		return false
	}
	c.status = s
	return true
}
