// Package dashboard rolls session status into per-session time counters,
// a bounded history of status counts, and stuck-agent detection.
//
// The aggregator only reads the store.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

// Defaults
const (
	DefaultSampleInterval = 10 * time.Second
	DefaultHistorySize    = 180
	DefaultStuckThreshold = 60 * time.Second
)

// SessionSource lists the sessions to sample
type SessionSource interface {
	Sessions() []domain.Session
}

// SessionMetrics holds the accumulated metrics for one session
type SessionMetrics struct {
	SessionID    string           `json:"sessionId"`
	SessionName  string           `json:"sessionName"`
	Agent        domain.AgentKind `json:"agent"`
	Status       domain.Status    `json:"status"`
	ThinkingTime time.Duration    `json:"thinkingTime"`
	WaitingTime  time.Duration    `json:"waitingTime"`
	IdleTime     time.Duration    `json:"idleTime"`
	TotalTime    time.Duration    `json:"totalTime"`
	WaitingSince time.Time        `json:"waitingSince"`
	LastActivity time.Time        `json:"lastActivity"`
	Stuck        bool             `json:"stuck"`
}

// Snapshot is a point-in-time count of sessions per status
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Active    int       `json:"activeCount"`
	Thinking  int       `json:"thinkingCount"`
	Waiting   int       `json:"waitingCount"`
	Idle      int       `json:"idleCount"`
}

// Data is the payload published on metrics:updated
type Data struct {
	Sessions []SessionMetrics `json:"sessions"`
	History  []Snapshot       `json:"history"`
	Stuck    []SessionMetrics `json:"stuckAgents"`
}

// Options configures an Aggregator. Zero values fall back to the defaults.
type Options struct {
	SampleInterval time.Duration
	HistorySize    int
	StuckThreshold time.Duration
	Now            func() time.Time
	Registerer     prometheus.Registerer
}

// Aggregator samples the store on a fixed interval
type Aggregator struct {
	source  SessionSource
	bus     *events.Bus
	opts    Options
	metrics *Metrics
	logger  *slog.Logger

	mu         sync.RWMutex
	sessions   map[string]*SessionMetrics
	history    []Snapshot
	lastSample time.Time
}

// New creates an aggregator
func New(source SessionSource, bus *events.Bus, opts Options, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.StuckThreshold <= 0 {
		opts.StuckThreshold = DefaultStuckThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}

	return &Aggregator{
		source:   source,
		bus:      bus,
		opts:     opts,
		metrics:  NewMetrics(opts.Registerer),
		logger:   logger,
		sessions: make(map[string]*SessionMetrics),
	}
}

// Run samples every interval until ctx is done
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.opts.SampleInterval)
	defer ticker.Stop()

	a.logger.Debug("dashboard sampling started", "interval", a.opts.SampleInterval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("dashboard sampling stopped")
			return
		case <-ticker.C:
			a.Sample()
		}
	}
}

// Sample takes one snapshot, publishes it, and returns the resulting data
func (a *Aggregator) Sample() Data {
	sessions := a.source.Sessions()
	now := a.opts.Now()

	a.mu.Lock()

	elapsed := a.opts.SampleInterval
	if !a.lastSample.IsZero() {
		elapsed = now.Sub(a.lastSample)
	}
	a.lastSample = now

	counts := make(map[domain.Status]int)
	snap := Snapshot{Timestamp: now}
	seen := make(map[string]bool, len(sessions))
	stuck := 0

	for _, s := range sessions {
		if s.Archived {
			continue
		}
		seen[s.ID] = true

		m, ok := a.sessions[s.ID]
		if !ok {
			m = &SessionMetrics{SessionID: s.ID}
			a.sessions[s.ID] = m
		}
		prev := m.Status
		m.SessionName = s.Name
		m.Agent = s.Agent
		m.Status = s.Status
		counts[s.Status]++

		switch s.Status {
		case domain.StatusThinking:
			m.ThinkingTime += elapsed
			m.LastActivity = now
			snap.Thinking++
		case domain.StatusWaiting:
			m.WaitingTime += elapsed
			snap.Waiting++
		case domain.StatusIdle:
			m.IdleTime += elapsed
			m.LastActivity = now
			snap.Idle++
		}
		if s.Status.Live() {
			snap.Active++
		}
		if s.Status != domain.StatusStopped && s.Status != domain.StatusErrored {
			m.TotalTime += elapsed
		}

		if s.Status == domain.StatusWaiting {
			if prev != domain.StatusWaiting || m.WaitingSince.IsZero() {
				m.WaitingSince = now
			}
		} else {
			m.WaitingSince = time.Time{}
		}
		m.Stuck = !m.WaitingSince.IsZero() && now.Sub(m.WaitingSince) > a.opts.StuckThreshold
		if m.Stuck {
			stuck++
		}
	}

	for id := range a.sessions {
		if !seen[id] {
			delete(a.sessions, id)
		}
	}

	a.history = append(a.history, snap)
	if len(a.history) > a.opts.HistorySize {
		a.history = a.history[len(a.history)-a.opts.HistorySize:]
	}

	data := a.dataLocked()
	a.mu.Unlock()

	a.metrics.observe(counts, stuck)
	if a.bus != nil {
		a.bus.Publish(events.MetricsUpdated, "", data)
	}
	return data
}

// Data returns the current metrics without sampling
func (a *Aggregator) Data() Data {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataLocked()
}

// Metrics exposes the Prometheus collectors
func (a *Aggregator) Metrics() *Metrics {
	return a.metrics
}

func (a *Aggregator) dataLocked() Data {
	sessions := make([]SessionMetrics, 0, len(a.sessions))
	stuck := make([]SessionMetrics, 0)
	for _, m := range a.sessions {
		sessions = append(sessions, *m)
		if m.Stuck {
			stuck = append(stuck, *m)
		}
	}
	byName := func(list []SessionMetrics) {
		sort.Slice(list, func(i, j int) bool {
			if list[i].SessionName != list[j].SessionName {
				return list[i].SessionName < list[j].SessionName
			}
			return list[i].SessionID < list[j].SessionID
		})
	}
	byName(sessions)
	byName(stuck)

	history := make([]Snapshot, len(a.history))
	copy(history, a.history)

	return Data{Sessions: sessions, History: history, Stuck: stuck}
}
