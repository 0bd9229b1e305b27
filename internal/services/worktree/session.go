package worktree

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
)

// Creator is the backend surface used to start sessions
type Creator interface {
	Create(ctx context.Context, cfg backend.SessionConfig) (domain.Session, error)
}

// WorkspaceReader looks up workspaces and records new sessions
type WorkspaceReader interface {
	Workspace(id string) (domain.Workspace, bool)
	AddSession(session domain.Session)
}

// InstantOptions controls instant session creation
type InstantOptions struct {
	// DefaultWorktree puts instant sessions in a worktree when the workspace is a git repository
	DefaultWorktree bool
	// Random feeds temp branch generation; nil uses crypto/rand
	Random io.Reader
}

// SessionService creates sessions on a temporary branch without asking for a name
type SessionService struct {
	creator   Creator
	worktrees backend.Worktrees
	store     WorkspaceReader
	opts      InstantOptions
	logger    *slog.Logger
}

// NewSessionService creates a new instant session service
func NewSessionService(creator Creator, worktrees backend.Worktrees, store WorkspaceReader, opts InstantOptions, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		creator:   creator,
		worktrees: worktrees,
		store:     store,
		opts:      opts,
		logger:    logger,
	}
}

// CreateInstant starts a session in the workspace on a fresh tmp-xxxxxx branch.
// The new session is added to the store and becomes active.
func (s *SessionService) CreateInstant(ctx context.Context, workspaceID string) (domain.Session, error) {
	ws, ok := s.store.Workspace(workspaceID)
	if !ok {
		return domain.Session{}, fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrNotFound)
	}

	branch, err := NewTempBranch(s.opts.Random)
	if err != nil {
		return domain.Session{}, err
	}

	useWorktree := s.opts.DefaultWorktree && s.worktrees != nil && s.worktrees.IsGitRepo(ctx, ws.Path)

	cfg := backend.SessionConfig{
		Name:        branch,
		Agent:       ws.Agent,
		Directory:   ws.Path,
		UseWorktree: useWorktree,
		Branch:      branch,
		WorkspaceID: ws.ID,
	}

	s.logger.Info("creating instant session", "workspaceID", ws.ID, "branch", branch, "worktree", useWorktree)

	session, err := s.creator.Create(ctx, cfg)
	if err != nil {
		return domain.Session{}, &domain.BackendError{Op: "create", ID: ws.ID, Err: err}
	}
	if session.WorkspaceID == "" {
		session.WorkspaceID = ws.ID
	}

	s.store.AddSession(session)
	s.logger.Debug("instant session created", "sessionID", session.ID, "branch", session.Branch)

	return session, nil
}
