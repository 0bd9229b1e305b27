package worktree

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/charmbracelet/x/ansi"
)

// BranchRenamer renames a session's branch in the backend
type BranchRenamer interface {
	RenameBranch(ctx context.Context, id string, branch string) error
}

// SessionStore is the subset of the store the lifecycle reads and writes
type SessionStore interface {
	Session(id string) (domain.Session, bool)
	UpdateBranch(id, branch string)
}

// Lifecycle renames temporary branches once a session's first message is known.
// The transition fires at most once per session: a failed rename is logged and
// the session keeps its temporary branch.
type Lifecycle struct {
	renamer BranchRenamer
	store   SessionStore
	logger  *slog.Logger

	mu        sync.Mutex
	submitted map[string]bool
	lines     map[string]*lineBuffer
}

// NewLifecycle creates a lifecycle
func NewLifecycle(renamer BranchRenamer, store SessionStore, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		renamer:   renamer,
		store:     store,
		logger:    logger,
		submitted: make(map[string]bool),
		lines:     make(map[string]*lineBuffer),
	}
}

// ObserveInput feeds raw keystrokes for a session. When they complete the
// session's first non-empty line, that line is submitted. It reports whether
// a rename was attempted.
func (l *Lifecycle) ObserveInput(ctx context.Context, sessionID, input string) bool {
	l.mu.Lock()
	if l.submitted[sessionID] {
		l.mu.Unlock()
		return false
	}
	buf, ok := l.lines[sessionID]
	if !ok {
		buf = &lineBuffer{}
		l.lines[sessionID] = buf
	}
	line, done := buf.feed(input)
	l.mu.Unlock()

	if !done {
		return false
	}
	return l.Submit(ctx, sessionID, line)
}

// Submit handles a submitted message. Only the first submission per session is
// considered, and only sessions still on a temporary branch are renamed.
func (l *Lifecycle) Submit(ctx context.Context, sessionID, message string) bool {
	l.mu.Lock()
	if l.submitted[sessionID] {
		l.mu.Unlock()
		return false
	}
	l.submitted[sessionID] = true
	delete(l.lines, sessionID)
	l.mu.Unlock()

	session, ok := l.store.Session(sessionID)
	if !ok || !session.HasWorktree() || !IsTempBranch(session.Branch) {
		return false
	}

	branch := BranchName(message)
	l.logger.Info("renaming session branch", "sessionID", sessionID, "from", session.Branch, "to", branch)

	if err := l.renamer.RenameBranch(ctx, sessionID, branch); err != nil {
		l.logger.Error("failed to rename session branch", "sessionID", sessionID, "branch", branch, "error", err)
		return true
	}

	l.store.UpdateBranch(sessionID, branch)
	return true
}

// Forget drops all state for a session
func (l *Lifecycle) Forget(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.submitted, sessionID)
	delete(l.lines, sessionID)
}

// Submitted reports whether the session's first message has been seen
func (l *Lifecycle) Submitted(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submitted[sessionID]
}

// lineBuffer accumulates keystrokes until a carriage return or newline
type lineBuffer struct {
	runes []rune
}

// feed appends input and returns the first non-empty completed line, if any
func (b *lineBuffer) feed(input string) (string, bool) {
	for _, r := range input {
		switch r {
		case '\r', '\n':
			line := strings.TrimSpace(ansi.Strip(string(b.runes)))
			b.runes = b.runes[:0]
			if line != "" {
				return line, true
			}
		case 0x7f, '\b':
			if len(b.runes) > 0 {
				b.runes = b.runes[:len(b.runes)-1]
			}
		case 0x03, 0x15:
			// ctrl+c and ctrl+u discard the line
			b.runes = b.runes[:0]
		default:
			b.runes = append(b.runes, r)
		}
	}
	return "", false
}
