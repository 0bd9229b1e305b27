package domain

import "time"

// Workspace is a project root and the sessions running against it
type Workspace struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Agent    AgentKind `json:"agent"`
	Cloned   bool      `json:"cloned"`
	Expanded bool      `json:"-"`
	Sessions []Session `json:"sessions"`
}

// Session is one agent or shell instance
type Session struct {
	ID           string     `json:"id"`
	WorkspaceID  string     `json:"workspaceId"`
	Name         string     `json:"name"`
	Agent        AgentKind  `json:"agent"`
	Directory    string     `json:"directory"`
	WorktreePath string     `json:"worktreePath,omitempty"`
	Branch       string     `json:"branch,omitempty"`
	Status       Status     `json:"status"`
	Archived     bool       `json:"archived,omitempty"`
	ArchivedAt   *time.Time `json:"archivedAt,omitempty"`
}

// WorkDir returns the directory the session executes in.
// A session with a worktree runs inside the worktree, not the workspace path.
func (s Session) WorkDir() string {
	if s.WorktreePath != "" {
		return s.WorktreePath
	}
	return s.Directory
}

// HasWorktree reports whether the session runs inside a git worktree
func (s Session) HasWorktree() bool {
	return s.WorktreePath != ""
}

// Clone returns a deep copy of the workspace
func (w Workspace) Clone() Workspace {
	out := w
	out.Sessions = make([]Session, len(w.Sessions))
	for i, s := range w.Sessions {
		out.Sessions[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the session
func (s Session) Clone() Session {
	out := s
	if s.ArchivedAt != nil {
		t := *s.ArchivedAt
		out.ArchivedAt = &t
	}
	return out
}

// ActiveSessions returns the sessions that are not archived
func (w Workspace) ActiveSessions() []Session {
	out := make([]Session, 0, len(w.Sessions))
	for _, s := range w.Sessions {
		if !s.Archived {
			out = append(out, s)
		}
	}
	return out
}

// ArchivedSessions returns the archived sessions
func (w Workspace) ArchivedSessions() []Session {
	var out []Session
	for _, s := range w.Sessions {
		if s.Archived {
			out = append(out, s)
		}
	}
	return out
}
