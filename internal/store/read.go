package store

import "github.com/Benbentwo/aim/internal/domain"

// Workspaces returns a deep copy of every workspace in order
func (s *Store) Workspaces() []domain.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Workspace, len(s.workspaces))
	for i, ws := range s.workspaces {
		out[i] = ws.Clone()
	}
	return out
}

// Workspace returns a copy of the workspace with the given id
func (s *Store) Workspace(id string) (domain.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws := s.findWorkspace(id)
	if ws == nil {
		return domain.Workspace{}, false
	}
	return ws.Clone(), true
}

// Session returns a copy of the session with the given id
func (s *Store) Session(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, sess := s.findSession(id)
	if sess == nil {
		return domain.Session{}, false
	}
	return sess.Clone(), true
}

// Sessions returns a copy of every session across all workspaces
func (s *Store) Sessions() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Session
	for _, ws := range s.workspaces {
		for _, sess := range ws.Sessions {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// Active returns the active session and workspace ids; empty means none
func (s *Store) Active() (sessionID, workspaceID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSessionID, s.activeWorkspaceID
}

// ActiveSession returns the active session, if any
func (s *Store) ActiveSession() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, sess := s.findSession(s.activeSessionID)
	if sess == nil {
		return domain.Session{}, false
	}
	return sess.Clone(), true
}
