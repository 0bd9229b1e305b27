// Package store holds the authoritative in-memory state of workspaces,
// sessions and the active selection.
//
// All mutation goes through the methods on Store. Every operation is total:
// ids that do not exist are ignored, because backend events may race with
// local removal.
package store

import (
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
)

// Store is the single shared mutable model. Create one with New and pass it
// to the components that need it.
type Store struct {
	mu                sync.RWMutex
	workspaces        []*domain.Workspace
	activeSessionID   string
	activeWorkspaceID string
	now               func() time.Time

	lmu       sync.Mutex
	nextL     int
	listeners map[int]func()
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:       time.Now,
		listeners: make(map[int]func()),
	}
}

// WithClock overrides the time source used to stamp archival
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// OnChange registers fn to be called after every mutation that changed state.
// The returned function removes the listener.
func (s *Store) OnChange(fn func()) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.nextL++
	id := s.nextL
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.lmu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for i := 1; i <= s.nextL; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// mutate runs fn under the write lock and notifies listeners if fn reports a change
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// ReplaceAll reloads the full workspace list. A workspace starts expanded iff
// it has sessions. The active selection survives only if it still points at a
// live, unarchived session.
func (s *Store) ReplaceAll(workspaces []domain.Workspace) {
	s.mutate(func() bool {
		s.workspaces = make([]*domain.Workspace, 0, len(workspaces))
		for _, ws := range workspaces {
			w := ws.Clone()
			w.Expanded = len(w.Sessions) > 0
			s.workspaces = append(s.workspaces, &w)
		}

		if s.activeSessionID != "" {
			if _, sess := s.findSession(s.activeSessionID); sess == nil || sess.Archived {
				s.clearActive()
			}
		}
		if s.activeWorkspaceID != "" && s.findWorkspace(s.activeWorkspaceID) == nil {
			s.clearActive()
		}
		return true
	})
}

// AddWorkspace appends a workspace. A duplicate id is ignored.
func (s *Store) AddWorkspace(ws domain.Workspace) {
	s.mutate(func() bool {
		if s.findWorkspace(ws.ID) != nil {
			return false
		}
		w := ws.Clone()
		w.Expanded = true
		s.workspaces = append(s.workspaces, &w)
		return true
	})
}

// RemoveWorkspace removes a workspace and all of its sessions
func (s *Store) RemoveWorkspace(id string) {
	s.mutate(func() bool {
		idx := -1
		for i, ws := range s.workspaces {
			if ws.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}

		ws := s.workspaces[idx]
		for _, sess := range ws.Sessions {
			if sess.ID == s.activeSessionID {
				s.clearActive()
			}
		}
		if s.activeWorkspaceID == id {
			s.clearActive()
		}

		s.workspaces = append(s.workspaces[:idx], s.workspaces[idx+1:]...)
		return true
	})
}

// ToggleWorkspace flips the UI-only expanded flag
func (s *Store) ToggleWorkspace(id string) {
	s.mutate(func() bool {
		ws := s.findWorkspace(id)
		if ws == nil {
			return false
		}
		ws.Expanded = !ws.Expanded
		return true
	})
}

// AddSession appends a session under its workspace and makes it active.
// Unknown workspaces and duplicate session ids are ignored.
func (s *Store) AddSession(session domain.Session) {
	s.mutate(func() bool {
		ws := s.findWorkspace(session.WorkspaceID)
		if ws == nil {
			return false
		}
		if _, existing := s.findSession(session.ID); existing != nil {
			return false
		}

		ws.Sessions = append(ws.Sessions, session.Clone())
		ws.Expanded = true
		if !session.Archived {
			s.activeSessionID = session.ID
			s.activeWorkspaceID = ws.ID
		}
		return true
	})
}

// RemoveSession removes a session from whichever workspace owns it
func (s *Store) RemoveSession(id string) {
	s.mutate(func() bool {
		return s.removeSessionLocked(id)
	})
}

// UpdateStatus replaces a session's status. Invalid statuses are ignored.
func (s *Store) UpdateStatus(id string, status domain.Status) {
	if !status.Valid() {
		return
	}
	s.mutate(func() bool {
		_, sess := s.findSession(id)
		if sess == nil || sess.Status == status {
			return false
		}
		sess.Status = status
		return true
	})
}

// UpdateBranch sets a session's branch, which also becomes its display name
func (s *Store) UpdateBranch(id, branch string) {
	s.mutate(func() bool {
		_, sess := s.findSession(id)
		if sess == nil {
			return false
		}
		if sess.Branch == branch && sess.Name == branch {
			return false
		}
		sess.Branch = branch
		sess.Name = branch
		return true
	})
}

// ArchiveSession soft-deletes a session, keeping its worktree
func (s *Store) ArchiveSession(id string) {
	s.mutate(func() bool {
		_, sess := s.findSession(id)
		if sess == nil || sess.Archived {
			return false
		}
		at := s.now()
		sess.Archived = true
		sess.ArchivedAt = &at
		if s.activeSessionID == id {
			s.clearActive()
		}
		return true
	})
}

// UnarchiveSession restores an archived session
func (s *Store) UnarchiveSession(id string) {
	s.mutate(func() bool {
		_, sess := s.findSession(id)
		if sess == nil || !sess.Archived {
			return false
		}
		sess.Archived = false
		sess.ArchivedAt = nil
		return true
	})
}

// DeleteArchivedSession permanently removes an archived session.
// Sessions that are not archived are left alone.
func (s *Store) DeleteArchivedSession(id string) {
	s.mutate(func() bool {
		_, sess := s.findSession(id)
		if sess == nil || !sess.Archived {
			return false
		}
		return s.removeSessionLocked(id)
	})
}

// SetActiveSession selects a session and its workspace. Passing empty ids
// clears the selection. A workspace may be selected without a session.
// Unknown or archived sessions are ignored.
func (s *Store) SetActiveSession(sessionID, workspaceID string) {
	s.mutate(func() bool {
		if sessionID == "" {
			if workspaceID != "" && s.findWorkspace(workspaceID) == nil {
				return false
			}
			s.activeSessionID = ""
			s.activeWorkspaceID = workspaceID
			return true
		}

		ws, sess := s.findSession(sessionID)
		if sess == nil || sess.Archived {
			return false
		}
		s.activeSessionID = sessionID
		s.activeWorkspaceID = ws.ID
		return true
	})
}

func (s *Store) clearActive() {
	s.activeSessionID = ""
	s.activeWorkspaceID = ""
}

func (s *Store) removeSessionLocked(id string) bool {
	ws, _ := s.findSession(id)
	if ws == nil {
		return false
	}
	for i := range ws.Sessions {
		if ws.Sessions[i].ID == id {
			ws.Sessions = append(ws.Sessions[:i], ws.Sessions[i+1:]...)
			break
		}
	}
	if s.activeSessionID == id {
		s.clearActive()
	}
	return true
}

func (s *Store) findWorkspace(id string) *domain.Workspace {
	for _, ws := range s.workspaces {
		if ws.ID == id {
			return ws
		}
	}
	return nil
}

func (s *Store) findSession(id string) (*domain.Workspace, *domain.Session) {
	if id == "" {
		return nil, nil
	}
	for _, ws := range s.workspaces {
		for i := range ws.Sessions {
			if ws.Sessions[i].ID == id {
				return ws, &ws.Sessions[i]
			}
		}
	}
	return nil, nil
}
