// Package pty hosts agent sessions locally: it spawns each agent under a
// pseudo-terminal, streams its output onto the event bus, derives status from
// that output, and persists session records and scrollback between runs.
package pty

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/services/monitor"
	"github.com/Benbentwo/aim/internal/status"
	"github.com/google/uuid"
)

// Worktrees is the git surface the host needs
type Worktrees interface {
	Create(ctx context.Context, repoPath, branch string) (string, error)
	Remove(ctx context.Context, repoPath, worktreePath string) error
	RenameBranch(ctx context.Context, worktreePath, branch string) error
}

// Options configures a Host
type Options struct {
	DataDir      string
	Shell        string
	RingSize     int
	WaitAfter    time.Duration
	TickInterval time.Duration
	Launcher     Launcher
	Now          func() time.Time
	NewID        func() string
}

// Host runs sessions as local processes
type Host struct {
	bus       *events.Bus
	worktrees Worktrees
	persister *Persister
	monitor   *monitor.SessionMonitor
	opts      Options
	logger    *slog.Logger

	mu       sync.RWMutex
	order    []string
	sessions map[string]*entry
}

type entry struct {
	session domain.Session
	run     *running
}

type running struct {
	proc     Process
	clock    *status.Clock
	ring     *Ring
	stopping bool
	read     chan struct{}
	done     chan struct{}
}

// NewHost creates a host. Call Load to restore persisted sessions.
func NewHost(bus *events.Bus, worktrees Worktrees, opts Options, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Launcher == nil {
		opts.Launcher = PTYLauncher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.RingSize <= 0 {
		opts.RingSize = DefaultRingSize
	}

	return &Host{
		bus:       bus,
		worktrees: worktrees,
		persister: NewPersister(opts.DataDir),
		monitor:   monitor.NewSessionMonitor(opts.TickInterval, opts.Now, logger),
		opts:      opts,
		logger:    logger,
		sessions:  make(map[string]*entry),
	}
}

// Load restores persisted sessions. Every restored session is stopped until resumed.
func (h *Host) Load() error {
	records, err := h.persister.Load()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range records {
		if _, exists := h.sessions[s.ID]; exists {
			continue
		}
		s.Status = domain.StatusStopped
		h.sessions[s.ID] = &entry{session: s}
		h.order = append(h.order, s.ID)
	}

	h.logger.Info("restored sessions", "count", len(records))
	return nil
}

// List returns every session in creation order
func (h *Host) List() []domain.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]domain.Session, 0, len(h.order))
	for _, id := range h.order {
		result = append(result, h.sessions[id].session.Clone())
	}
	return result
}

// Get returns one session
func (h *Host) Get(id string) (domain.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return e.session.Clone(), true
}

// Create starts a new session, creating its worktree first when requested
func (h *Host) Create(ctx context.Context, cfg backend.SessionConfig) (domain.Session, error) {
	if cfg.Directory == "" {
		return domain.Session{}, &domain.BackendError{Op: "create", Err: fmt.Errorf("directory is required")}
	}
	agent := cfg.Agent
	if !agent.Valid() {
		agent = domain.AgentClaude
	}

	s := domain.Session{
		ID:          h.opts.NewID(),
		WorkspaceID: cfg.WorkspaceID,
		Name:        cfg.Name,
		Agent:       agent,
		Directory:   cfg.Directory,
		Branch:      cfg.Branch,
		Status:      domain.StatusIdle,
	}
	if s.Name == "" {
		s.Name = filepath.Base(cfg.Directory)
	}

	if cfg.UseWorktree {
		if cfg.Branch == "" {
			return domain.Session{}, &domain.BackendError{Op: "create", Err: fmt.Errorf("worktree session needs a branch")}
		}
		path, err := h.worktrees.Create(ctx, cfg.Directory, cfg.Branch)
		if err != nil {
			return domain.Session{}, &domain.BackendError{Op: "create", Err: err}
		}
		s.WorktreePath = path
	}

	h.logger.Info("creating session", "sessionID", s.ID, "agent", s.Agent, "dir", s.WorkDir(), "branch", s.Branch)

	h.mu.Lock()
	h.sessions[s.ID] = &entry{session: s}
	h.order = append(h.order, s.ID)
	h.mu.Unlock()

	if err := h.start(s.ID); err != nil {
		h.drop(s.ID)
		if s.WorktreePath != "" {
			if rmErr := h.worktrees.Remove(ctx, s.Directory, s.WorktreePath); rmErr != nil {
				h.logger.Error("failed to clean up worktree after spawn error", "sessionID", s.ID, "error", rmErr)
			}
		}
		return domain.Session{}, &domain.BackendError{Op: "create", ID: s.ID, Err: err}
	}

	h.persist()
	return s, nil
}

// Write sends input to a live session
func (h *Host) Write(ctx context.Context, id string, text string) error {
	run := h.live(id)
	if run == nil {
		return &domain.BackendError{Op: "write", ID: id, Err: domain.ErrNotFound}
	}
	if _, err := run.proc.Write([]byte(text)); err != nil {
		return &domain.BackendError{Op: "write", ID: id, Err: err}
	}
	return nil
}

// Resize sets the terminal size of a live session. Inactive sessions are ignored.
func (h *Host) Resize(ctx context.Context, id string, cols, rows int) error {
	run := h.live(id)
	if run == nil {
		return nil
	}
	if err := run.proc.Resize(cols, rows); err != nil {
		return &domain.BackendError{Op: "resize", ID: id, Err: err}
	}
	return nil
}

// Scrollback returns the session's recent output, base64 encoded. Live
// sessions answer from memory; stopped sessions from their log.
func (h *Host) Scrollback(ctx context.Context, id string) (string, error) {
	h.mu.RLock()
	e, ok := h.sessions[id]
	var run *running
	if ok {
		run = e.run
	}
	h.mu.RUnlock()

	if !ok {
		return "", &domain.BackendError{Op: "scrollback", ID: id, Err: domain.ErrNotFound}
	}
	if run != nil {
		return base64.StdEncoding.EncodeToString(run.ring.Bytes()), nil
	}

	data, err := h.persister.LoadScrollback(id, int64(h.opts.RingSize))
	if err != nil {
		return "", &domain.BackendError{Op: "scrollback", ID: id, Err: err}
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Resume respawns a stopped session in its recorded working directory
func (h *Host) Resume(ctx context.Context, id string) error {
	h.mu.RLock()
	e, ok := h.sessions[id]
	live := ok && e.run != nil
	archived := ok && e.session.Archived
	h.mu.RUnlock()

	switch {
	case !ok:
		return &domain.BackendError{Op: "resume", ID: id, Err: domain.ErrNotFound}
	case archived:
		return &domain.BackendError{Op: "resume", ID: id, Err: fmt.Errorf("session is archived: %w", domain.ErrConflict)}
	case live:
		return nil
	}

	if err := h.start(id); err != nil {
		return &domain.BackendError{Op: "resume", ID: id, Err: err}
	}
	h.setStatus(id, domain.StatusIdle)
	return nil
}

// Close stops a session and forgets it. The worktree is left in place.
func (h *Host) Close(ctx context.Context, id string) error {
	h.stop(id)
	if !h.drop(id) {
		return nil
	}
	if err := h.persister.Remove(id); err != nil {
		h.logger.Warn("failed to remove session files", "sessionID", id, "error", err)
	}
	h.persist()
	return nil
}

// RenameBranch renames a worktree session's branch. Sessions without a
// worktree have nothing to rename.
func (h *Host) RenameBranch(ctx context.Context, id string, branch string) error {
	s, ok := h.Get(id)
	if !ok {
		return &domain.BackendError{Op: "rename-branch", ID: id, Err: domain.ErrNotFound}
	}
	if s.WorktreePath == "" {
		return nil
	}

	if err := h.worktrees.RenameBranch(ctx, s.WorktreePath, branch); err != nil {
		return &domain.BackendError{Op: "rename-branch", ID: id, Err: err}
	}

	h.update(id, func(s *domain.Session) {
		s.Branch = branch
		s.Name = branch
	})
	h.persist()
	h.bus.Publish(events.SessionBranch, id, branch)
	return nil
}

// Archive stops a session and marks it archived. Its worktree is kept.
func (h *Host) Archive(ctx context.Context, id string) error {
	if _, ok := h.Get(id); !ok {
		return &domain.BackendError{Op: "archive", ID: id, Err: domain.ErrNotFound}
	}

	h.stop(id)
	now := h.opts.Now()
	h.update(id, func(s *domain.Session) {
		s.Archived = true
		s.ArchivedAt = &now
	})
	h.setStatus(id, domain.StatusStopped)
	h.persist()
	return nil
}

// Unarchive restores an archived session as stopped
func (h *Host) Unarchive(ctx context.Context, id string) error {
	if _, ok := h.Get(id); !ok {
		return &domain.BackendError{Op: "unarchive", ID: id, Err: domain.ErrNotFound}
	}

	h.update(id, func(s *domain.Session) {
		s.Archived = false
		s.ArchivedAt = nil
	})
	h.persist()
	return nil
}

// DeleteArchived removes an archived session together with its worktree
func (h *Host) DeleteArchived(ctx context.Context, id string) error {
	s, ok := h.Get(id)
	if !ok {
		return &domain.BackendError{Op: "delete-archived", ID: id, Err: domain.ErrNotFound}
	}
	if !s.Archived {
		return &domain.BackendError{Op: "delete-archived", ID: id, Err: fmt.Errorf("session is not archived: %w", domain.ErrConflict)}
	}

	if s.WorktreePath != "" {
		if err := h.worktrees.Remove(ctx, s.Directory, s.WorktreePath); err != nil {
			h.logger.Warn("failed to remove worktree", "sessionID", id, "path", s.WorktreePath, "error", err)
		}
	}

	h.drop(id)
	if err := h.persister.Remove(id); err != nil {
		h.logger.Warn("failed to remove session files", "sessionID", id, "error", err)
	}
	h.persist()
	return nil
}

// Sweep removes the worktrees of sessions archived longer than maxAge and
// returns the ids it cleaned. The sessions stay archived.
func (h *Host) Sweep(ctx context.Context, maxAge time.Duration) []string {
	if maxAge <= 0 {
		return nil
	}
	cutoff := h.opts.Now().Add(-maxAge)

	var cleaned []string
	for _, s := range h.List() {
		if !s.Archived || s.ArchivedAt == nil || s.WorktreePath == "" || s.ArchivedAt.After(cutoff) {
			continue
		}
		if err := h.worktrees.Remove(ctx, s.Directory, s.WorktreePath); err != nil {
			h.logger.Warn("failed to sweep worktree", "sessionID", s.ID, "path", s.WorktreePath, "error", err)
			continue
		}
		h.update(s.ID, func(s *domain.Session) {
			s.WorktreePath = ""
		})
		cleaned = append(cleaned, s.ID)
	}

	if len(cleaned) > 0 {
		h.logger.Info("swept archived worktrees", "count", len(cleaned))
		h.persist()
	}
	return cleaned
}

// Shutdown stops every live session and persists the index
func (h *Host) Shutdown() {
	h.mu.RLock()
	ids := append([]string(nil), h.order...)
	h.mu.RUnlock()

	for _, id := range ids {
		h.stop(id)
	}
	h.monitor.StopAll()
	h.persist()
}

// start spawns the session's process and its reader and exit watchers
func (h *Host) start(id string) error {
	h.mu.RLock()
	e, ok := h.sessions[id]
	var s domain.Session
	if ok {
		s = e.session
	}
	h.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}

	path, args := AgentCommand(s.Agent, h.opts.Shell)
	proc, err := h.opts.Launcher.Launch(LaunchSpec{
		Path: path,
		Args: args,
		Dir:  s.WorkDir(),
		Env: []string{
			"TERM=xterm-256color",
			"AIM_SESSION_ID=" + s.ID,
		},
	})
	if err != nil {
		return err
	}

	run := &running{
		proc:  proc,
		clock: status.NewClock(domain.StatusIdle, h.opts.Now(), h.opts.WaitAfter),
		ring:  NewRing(h.opts.RingSize),
		read:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	e.run = run
	h.mu.Unlock()

	h.monitor.Start(context.Background(), id, run.clock, h.setStatus)
	go h.readLoop(id, run)
	go h.waitLoop(id, run)
	return nil
}

func (h *Host) readLoop(id string, run *running) {
	defer close(run.read)

	buf := make([]byte, 32*1024)
	logFailed := false

	for {
		n, err := run.proc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			_, _ = run.ring.Write(chunk)
			if werr := h.persister.AppendScrollback(id, chunk); werr != nil && !logFailed {
				h.logger.Warn("failed to persist scrollback", "sessionID", id, "error", werr)
				logFailed = true
			}

			if s, changed := run.clock.Observe(chunk, h.opts.Now()); changed {
				h.setStatus(id, s)
			}
			h.bus.Publish(events.SessionData, id, base64.StdEncoding.EncodeToString(chunk))
		}
		if err != nil {
			return
		}
	}
}

func (h *Host) waitLoop(id string, run *running) {
	code := run.proc.Wait()
	h.monitor.Stop(id)
	_ = run.proc.Close()
	<-run.read

	h.mu.Lock()
	stopping := run.stopping
	current := false
	if e, ok := h.sessions[id]; ok && e.run == run {
		e.run = nil
		current = true
	}
	h.mu.Unlock()
	close(run.done)

	h.logger.Info("session process exited", "sessionID", id, "code", code, "requested", stopping)

	if !current {
		return
	}
	next := status.FromExit(code)
	if stopping {
		next = domain.StatusStopped
	}
	run.clock.Set(next)
	h.setStatus(id, next)
	h.bus.Publish(events.SessionExit, id, code)
}

// stop kills a live session and waits for its exit to be processed
func (h *Host) stop(id string) {
	h.mu.Lock()
	e, ok := h.sessions[id]
	if !ok || e.run == nil {
		h.mu.Unlock()
		return
	}
	run := e.run
	run.stopping = true
	h.mu.Unlock()

	if err := run.proc.Kill(); err != nil {
		h.logger.Debug("failed to kill session", "sessionID", id, "error", err)
	}

	select {
	case <-run.done:
	case <-time.After(5 * time.Second):
		h.logger.Warn("session did not exit after kill", "sessionID", id)
	}
}

func (h *Host) live(id string) *running {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.sessions[id]; ok {
		return e.run
	}
	return nil
}

func (h *Host) setStatus(id string, s domain.Status) {
	h.mu.Lock()
	e, ok := h.sessions[id]
	changed := ok && e.session.Status != s
	if changed {
		e.session.Status = s
	}
	h.mu.Unlock()

	if changed {
		h.bus.Publish(events.SessionStatus, id, string(s))
	}
}

func (h *Host) update(id string, fn func(*domain.Session)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.sessions[id]; ok {
		fn(&e.session)
	}
}

func (h *Host) drop(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[id]; !ok {
		return false
	}
	delete(h.sessions, id)
	for i, oid := range h.order {
		if oid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

func (h *Host) persist() {
	if err := h.persister.Save(h.List()); err != nil {
		h.logger.Error("failed to persist sessions", "error", err)
	}
}
