// Package local runs the backend in-process: sessions under local ptys,
// workspaces in a JSON registry, git through the git binary and the issue
// tracker over HTTP.
package local

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/services/git"
	"github.com/Benbentwo/aim/internal/services/linear"
	"github.com/Benbentwo/aim/internal/services/pty"
	"github.com/Benbentwo/aim/internal/services/workspace"
)

// Options configures the local backend
type Options struct {
	DataDir      string
	Shell        string
	ReposBaseDir string
	DefaultAgent domain.AgentKind
	// ArchiveCleanupAge removes worktrees of sessions archived longer ago at Start; zero disables it
	ArchiveCleanupAge time.Duration
	Linear            linear.Options
	// Runner overrides the git runner, mainly for tests
	Runner   git.CommandRunner
	Launcher pty.Launcher
}

// Backend bundles the local implementations of every backend contract
type Backend struct {
	Host       *pty.Host
	Workspaces *workspace.Service
	Tracker    *linear.Client
	Repos      *Repos

	registry *workspace.Registry
	opts     Options
	logger   *slog.Logger
}

// Repos answers git questions for the client core
type Repos struct {
	Client    *git.Client
	Worktrees *git.WorktreeManager
}

// IsGitRepo reports whether path is a git repository
func (r *Repos) IsGitRepo(ctx context.Context, path string) bool {
	return r.Client.IsGitRepo(ctx, path)
}

// CreateWorktree creates a worktree for branch and returns its path
func (r *Repos) CreateWorktree(ctx context.Context, repoPath, branch string) (string, error) {
	return r.Worktrees.Create(ctx, repoPath, branch)
}

var (
	_ backend.Sessions   = (*pty.Host)(nil)
	_ backend.Workspaces = (*workspace.Service)(nil)
	_ backend.Worktrees  = (*Repos)(nil)
	_ backend.Tracker    = (*linear.Client)(nil)
)

// New wires the local backend. Call Start before use.
func New(bus *events.Bus, opts Options, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = git.NewExecRunner("")
	}

	repos := &Repos{
		Client:    git.NewClient(runner, logger),
		Worktrees: git.NewWorktreeManager(runner, logger),
	}

	host := pty.NewHost(bus, repos.Worktrees, pty.Options{
		DataDir:  opts.DataDir,
		Shell:    opts.Shell,
		Launcher: opts.Launcher,
	}, logger.With("component", "host"))

	registry := workspace.NewRegistry(filepath.Join(opts.DataDir, "workspaces.json"))
	workspaces := workspace.NewService(registry, repos.Client, host, workspace.Options{
		ReposBaseDir: opts.ReposBaseDir,
		DefaultAgent: opts.DefaultAgent,
	}, logger.With("component", "workspaces"))

	return &Backend{
		Host:       host,
		Workspaces: workspaces,
		Tracker:    linear.NewClient(bus, opts.Linear, logger.With("component", "linear")),
		Repos:      repos,
		registry:   registry,
		opts:       opts,
		logger:     logger,
	}
}

// Start restores persisted workspaces and sessions and sweeps stale archived worktrees
func (b *Backend) Start(ctx context.Context) error {
	if err := b.registry.Load(); err != nil {
		return err
	}
	if err := b.Host.Load(); err != nil {
		return err
	}
	if b.opts.ArchiveCleanupAge > 0 {
		if cleaned := b.Host.Sweep(ctx, b.opts.ArchiveCleanupAge); len(cleaned) > 0 {
			b.logger.Info("cleaned archived worktrees", "sessions", cleaned)
		}
	}
	return nil
}

// Shutdown stops polling and every live session
func (b *Backend) Shutdown() {
	b.Tracker.StopPolling()
	b.Host.Shutdown()
}
