package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/services/git"
	"github.com/google/uuid"
)

// Git is the repository surface the service needs
type Git interface {
	IsGitRepo(ctx context.Context, path string) bool
	Clone(ctx context.Context, repoURL, dest string) error
}

// SessionHost owns the sessions of every workspace
type SessionHost interface {
	List() []domain.Session
	Create(ctx context.Context, cfg backend.SessionConfig) (domain.Session, error)
	Close(ctx context.Context, id string) error
}

// Options configures a Service
type Options struct {
	// ReposBaseDir is where remote repositories are cloned when a request has no base dir
	ReposBaseDir string
	DefaultAgent domain.AgentKind
	NewID        func() string
}

// Service implements the backend workspace operations
type Service struct {
	registry *Registry
	git      Git
	sessions SessionHost
	opts     Options
	logger   *slog.Logger
}

// NewService creates a workspace service
func NewService(registry *Registry, g Git, sessions SessionHost, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if !opts.DefaultAgent.Valid() {
		opts.DefaultAgent = domain.AgentClaude
	}
	return &Service{
		registry: registry,
		git:      g,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

// List returns every workspace with its sessions, in registration order
func (s *Service) List(ctx context.Context) ([]domain.Workspace, error) {
	byWorkspace := make(map[string][]domain.Session)
	for _, sess := range s.sessions.List() {
		byWorkspace[sess.WorkspaceID] = append(byWorkspace[sess.WorkspaceID], sess)
	}

	records := s.registry.All()
	result := make([]domain.Workspace, 0, len(records))
	for _, rec := range records {
		sessions := byWorkspace[rec.ID]
		if sessions == nil {
			sessions = []domain.Session{}
		}
		result = append(result, domain.Workspace{
			ID:       rec.ID,
			Name:     rec.Name,
			Path:     rec.Path,
			Agent:    domain.ParseAgentKind(rec.Agent),
			Cloned:   rec.Cloned,
			Sessions: sessions,
		})
	}
	return result, nil
}

// Add registers a local repository, or clones req.RepoURL first, and starts
// the workspace's initial session.
func (s *Service) Add(ctx context.Context, req backend.AddWorkspaceRequest) (domain.Workspace, error) {
	cloned := false
	if req.RepoURL != "" {
		dest, err := s.PreviewCloneDestination(req.RepoURL, req.ReposBaseDir)
		if err != nil {
			return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: err}
		}
		if err := s.git.Clone(ctx, req.RepoURL, dest); err != nil {
			return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: err}
		}
		req.Path = dest
		cloned = true
	}

	if req.Path == "" {
		return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: ErrEmptyPath}
	}
	path, err := filepath.Abs(req.Path)
	if err != nil {
		return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: err}
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: fmt.Errorf("directory not found: %s: %w", path, domain.ErrNotFound)}
	}
	if !s.git.IsGitRepo(ctx, path) {
		return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: fmt.Errorf("%s: %w", path, domain.ErrNotGitRepo)}
	}

	agent := req.Agent
	if !agent.Valid() {
		agent = s.opts.DefaultAgent
	}
	name := req.Name
	if name == "" {
		name = filepath.Base(path)
	}

	rec := Record{
		ID:     s.opts.NewID(),
		Name:   name,
		Path:   path,
		Agent:  string(agent),
		Cloned: cloned,
	}
	if err := s.registry.Add(rec); err != nil {
		if errors.Is(err, ErrDuplicateWorkspace) {
			err = fmt.Errorf("%s: %w", path, domain.ErrConflict)
		}
		return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", Err: err}
	}

	s.logger.Info("adding workspace", "workspaceID", rec.ID, "path", path, "cloned", cloned)

	var sessions []domain.Session
	if !req.NoInitialSession {
		initial, err := s.sessions.Create(ctx, backend.SessionConfig{
			Name:        name,
			Agent:       agent,
			Directory:   path,
			WorkspaceID: rec.ID,
		})
		if err != nil {
			s.registry.Remove(rec.ID)
			return domain.Workspace{}, &domain.BackendError{Op: "add-workspace", ID: rec.ID, Err: fmt.Errorf("create initial session: %w", err)}
		}
		sessions = append(sessions, initial)
	}

	if err := s.registry.Save(); err != nil {
		s.logger.Error("failed to save workspaces", "error", err)
	}

	return domain.Workspace{
		ID:       rec.ID,
		Name:     rec.Name,
		Path:     rec.Path,
		Agent:    agent,
		Cloned:   cloned,
		Sessions: sessions,
	}, nil
}

// Remove closes every session of the workspace and forgets it. Removing an
// unknown workspace is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	for _, sess := range s.sessions.List() {
		if sess.WorkspaceID != id {
			continue
		}
		if err := s.sessions.Close(ctx, sess.ID); err != nil {
			s.logger.Warn("failed to close session", "sessionID", sess.ID, "workspaceID", id, "error", err)
		}
	}

	if !s.registry.Remove(id) {
		return nil
	}
	s.logger.Info("removed workspace", "workspaceID", id)
	if err := s.registry.Save(); err != nil {
		return &domain.BackendError{Op: "remove-workspace", ID: id, Err: err}
	}
	return nil
}

// PreviewCloneDestination returns where repoURL would be cloned
func (s *Service) PreviewCloneDestination(repoURL, baseDir string) (string, error) {
	if baseDir == "" {
		baseDir = s.opts.ReposBaseDir
	}
	return git.CloneDestPath(repoURL, baseDir)
}
