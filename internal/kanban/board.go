package kanban

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
)

// Mode selects which issues the board shows
type Mode string

const (
	ModeMyIssues Mode = "my-issues"
	ModeCycle    Mode = "cycle"
)

// Board owns the current issue snapshot and the single polling loop feeding it
type Board struct {
	tracker  backend.Tracker
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	mode     Mode
	teamID   string
	me       domain.User
	snapshot domain.IssueSnapshot
	query    Query
	sub      *events.Subscription
	polling  bool
	onChange func()
}

// NewBoard creates a board. Nothing is fetched until Open is called.
func NewBoard(tracker backend.Tracker, bus *events.Bus, interval time.Duration, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		tracker:  tracker,
		bus:      bus,
		interval: interval,
		logger:   logger,
		mode:     ModeMyIssues,
		query:    Query{Sort: SortByPriority},
	}
}

// OnChange sets a callback invoked after the snapshot is replaced
func (b *Board) OnChange(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Open switches the board to mode (teamID is used in cycle mode), fetches a
// fresh snapshot and starts polling. Any previous polling loop is stopped first.
func (b *Board) Open(ctx context.Context, mode Mode, teamID string) error {
	if !b.tracker.IsConnected() {
		return domain.ErrNotConnected
	}

	b.stopPolling()

	b.mu.Lock()
	b.mode = mode
	b.teamID = teamID
	if b.sub == nil {
		b.sub = b.bus.Subscribe(events.IssuesUpdated, "", b.onIssues)
	}
	b.mu.Unlock()

	if me, err := b.tracker.Me(ctx); err != nil {
		b.logger.Warn("failed to fetch current user", "error", err)
	} else {
		b.mu.Lock()
		b.me = me
		b.query.MeID = me.ID
		b.mu.Unlock()
	}

	if err := b.Refresh(ctx); err != nil {
		return err
	}

	pollTeam := ""
	if mode == ModeCycle {
		pollTeam = teamID
	}
	b.tracker.StartPolling(pollTeam, b.interval)

	b.mu.Lock()
	b.polling = true
	b.mu.Unlock()
	return nil
}

// Refresh fetches a snapshot for the current mode and replaces the board's state
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.RLock()
	mode, teamID := b.mode, b.teamID
	b.mu.RUnlock()

	var (
		snap domain.IssueSnapshot
		err  error
	)
	switch mode {
	case ModeCycle:
		if teamID == "" {
			return fmt.Errorf("cycle view requires a team")
		}
		snap, err = b.tracker.CycleIssues(ctx, teamID)
	default:
		snap, err = b.tracker.MyIssues(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch issues: %w", err)
	}

	b.replace(snap)
	return nil
}

// Close stops polling and unsubscribes from issue updates
func (b *Board) Close() {
	b.stopPolling()

	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	sub.Unsubscribe()
}

func (b *Board) stopPolling() {
	b.mu.Lock()
	wasPolling := b.polling
	b.polling = false
	b.mu.Unlock()

	if wasPolling {
		b.tracker.StopPolling()
	}
}

func (b *Board) onIssues(payload any) {
	var snap domain.IssueSnapshot
	switch p := payload.(type) {
	case domain.IssueSnapshot:
		snap = p
	case *domain.IssueSnapshot:
		if p == nil {
			return
		}
		snap = *p
	default:
		b.logger.Debug("ignoring malformed issues payload", "type", fmt.Sprintf("%T", payload))
		return
	}
	b.replace(snap)
}

func (b *Board) replace(snap domain.IssueSnapshot) {
	if len(snap.States) == 0 {
		snap.States = domain.StatesFromIssues(snap.Issues)
	}

	b.mu.Lock()
	b.snapshot = snap
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Columns projects the current snapshot
func (b *Board) Columns() []Column {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Project(b.snapshot.Issues, b.snapshot.States, b.query)
}

// Snapshot returns the last snapshot received
func (b *Board) Snapshot() domain.IssueSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

// Issue looks up an issue in the current snapshot
func (b *Board) Issue(id string) (domain.Issue, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, issue := range b.snapshot.Issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return domain.Issue{}, false
}

// Mode returns the current mode and team
func (b *Board) Mode() (Mode, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mode, b.teamID
}

// Me returns the current tracker user, if known
func (b *Board) Me() domain.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.me
}

// Query returns the current filter and sort
func (b *Board) Query() Query {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.query
}

// UpdateQuery applies fn to the filter and sort. The current user id is preserved.
func (b *Board) UpdateQuery(fn func(q *Query)) {
	b.mu.Lock()
	meID := b.query.MeID
	fn(&b.query)
	b.query.MeID = meID
	cb := b.onChange
	b.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Polling reports whether this board currently owns the polling loop
func (b *Board) Polling() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.polling
}
