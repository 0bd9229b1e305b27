// Package monitor watches running sessions for silence. A thinking agent that
// stops producing output is promoted to waiting.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/status"
)

// DefaultInterval is how often clocks are checked
const DefaultInterval = time.Second

// StateChangeCallback is called when a session's status changes
type StateChangeCallback func(sessionID string, s domain.Status)

// SessionMonitor ticks the status clock of every monitored session
type SessionMonitor struct {
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*monitoredSession
	wg       sync.WaitGroup
}

// monitoredSession represents a session being monitored
type monitoredSession struct {
	cancel context.CancelFunc
	clock  *status.Clock
}

// NewSessionMonitor creates a new session monitor
func NewSessionMonitor(interval time.Duration, now func() time.Time, logger *slog.Logger) *SessionMonitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMonitor{
		interval: interval,
		now:      now,
		logger:   logger,
		sessions: make(map[string]*monitoredSession),
	}
}

// Start begins monitoring a session, replacing any existing monitor for it.
// callback runs on the monitor goroutine whenever the clock changes status.
func (m *SessionMonitor) Start(ctx context.Context, sessionID string, clock *status.Clock, callback StateChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sessionID]; ok {
		m.logger.Debug("stopping existing monitor", "sessionID", sessionID)
		existing.cancel()
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	m.sessions[sessionID] = &monitoredSession{cancel: cancel, clock: clock}

	m.wg.Add(1)
	go m.monitor(monitorCtx, sessionID, clock, callback)
}

// Stop stops monitoring a session
func (m *SessionMonitor) Stop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[sessionID]; ok {
		session.cancel()
		delete(m.sessions, sessionID)
	}
}

// Monitoring reports whether a session is being monitored
func (m *SessionMonitor) Monitoring(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// StopAll stops monitoring all sessions and waits for the goroutines to finish
func (m *SessionMonitor) StopAll() {
	m.mu.Lock()
	for id, session := range m.sessions {
		session.cancel()
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// Check ticks one session's clock immediately
func (m *SessionMonitor) Check(sessionID string) (domain.Status, bool) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return "", false
	}
	return session.clock.Tick(m.now())
}

func (m *SessionMonitor) monitor(ctx context.Context, sessionID string, clock *status.Clock, callback StateChangeCallback) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, changed := clock.Tick(m.now())
			if changed && callback != nil {
				m.logger.Debug("session went quiet", "sessionID", sessionID, "status", s)
				callback(sessionID, s)
			}
		}
	}
}
