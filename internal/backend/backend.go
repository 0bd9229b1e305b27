// Package backend defines the operations the client core calls on the
// execution backend, and a local implementation composed from services.
package backend

import (
	"context"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
)

// SessionConfig describes a session to create
type SessionConfig struct {
	Name        string           `json:"name"`
	Agent       domain.AgentKind `json:"agent"`
	Directory   string           `json:"directory"`
	UseWorktree bool             `json:"useWorktree"`
	Branch      string           `json:"branch"`
	WorkspaceID string           `json:"workspaceId"`
}

// Sessions runs agent processes
type Sessions interface {
	Create(ctx context.Context, cfg SessionConfig) (domain.Session, error)
	Write(ctx context.Context, id string, text string) error
	Resize(ctx context.Context, id string, cols, rows int) error
	Scrollback(ctx context.Context, id string) (string, error)
	Resume(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
	RenameBranch(ctx context.Context, id string, branch string) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	DeleteArchived(ctx context.Context, id string) error
}

// AddWorkspaceRequest opens a local repository or clones a remote one
type AddWorkspaceRequest struct {
	Path         string           `json:"path"`
	RepoURL      string           `json:"repoUrl"`
	Name         string           `json:"name"`
	Agent        domain.AgentKind `json:"agent"`
	ReposBaseDir string           `json:"reposBaseDir"`

	// NoInitialSession registers the workspace without starting an agent in its main checkout
	NoInitialSession bool `json:"noInitialSession"`
}

// Workspaces manages persisted workspaces
type Workspaces interface {
	List(ctx context.Context) ([]domain.Workspace, error)
	Add(ctx context.Context, req AddWorkspaceRequest) (domain.Workspace, error)
	Remove(ctx context.Context, id string) error
	PreviewCloneDestination(repoURL, baseDir string) (string, error)
}

// Worktrees answers git questions about directories
type Worktrees interface {
	IsGitRepo(ctx context.Context, path string) bool
	CreateWorktree(ctx context.Context, repoPath, branch string) (string, error)
}

// Tracker is the issue tracker
type Tracker interface {
	IsConnected() bool
	Me(ctx context.Context) (domain.User, error)
	Teams(ctx context.Context) ([]domain.Team, error)
	MyIssues(ctx context.Context) (domain.IssueSnapshot, error)
	CycleIssues(ctx context.Context, teamID string) (domain.IssueSnapshot, error)
	StartPolling(teamID string, interval time.Duration)
	StopPolling()
}
