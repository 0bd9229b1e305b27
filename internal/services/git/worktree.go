package git

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
)

// WorktreeDir is where session worktrees live, relative to the repository root
const WorktreeDir = ".git/aim-worktrees"

// WorktreeManager manages git worktrees for agent sessions.
type WorktreeManager struct {
	runner CommandRunner
	logger *slog.Logger
}

// Worktree represents one entry of `git worktree list`.
type Worktree struct {
	Path   string `json:"path"`   // Absolute path to the worktree
	Branch string `json:"branch"` // Branch name without refs/heads/
	Hash   string `json:"hash"`   // HEAD commit
}

// NewWorktreeManager creates a new WorktreeManager.
func NewWorktreeManager(runner CommandRunner, logger *slog.Logger) *WorktreeManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorktreeManager{
		runner: runner,
		logger: logger,
	}
}

// WorktreePath returns where the worktree for branch is placed inside repoPath.
// Slashes in the branch become hyphens so every worktree is a direct child.
func WorktreePath(repoPath, branch string) string {
	return filepath.Join(repoPath, WorktreeDir, strings.ReplaceAll(branch, "/", "-"))
}

// Create checks out branch into a new worktree and returns its path.
// An existing branch is checked out as is; otherwise the branch is created from HEAD.
func (w *WorktreeManager) Create(ctx context.Context, repoPath, branch string) (string, error) {
	path := WorktreePath(repoPath, branch)

	w.logger.Info("creating worktree", "repo", repoPath, "path", path, "branch", branch)

	// git -C <repo> worktree add <path> <branch>
	_, err := w.runner.Run(ctx, "-C", repoPath, "worktree", "add", path, branch)
	if err != nil {
		w.logger.Debug("branch not found, creating it", "branch", branch, "error", err)

		// git -C <repo> worktree add -b <branch> <path>
		if _, err2 := w.runner.Run(ctx, "-C", repoPath, "worktree", "add", "-b", branch, path); err2 != nil {
			return "", &domain.GitError{Op: "worktree add", Path: repoPath, Err: fmt.Errorf("%w; %w", err, err2)}
		}
	}

	w.logger.Info("worktree created successfully", "path", path)
	return path, nil
}

// Remove force-removes a worktree. The branch is kept.
func (w *WorktreeManager) Remove(ctx context.Context, repoPath, worktreePath string) error {
	w.logger.Info("removing worktree", "repo", repoPath, "path", worktreePath)

	// git -C <repo> worktree remove --force <path>
	if _, err := w.runner.Run(ctx, "-C", repoPath, "worktree", "remove", "--force", worktreePath); err != nil {
		return &domain.GitError{Op: "worktree remove", Path: worktreePath, Err: err}
	}
	return nil
}

// RenameBranch renames the branch checked out in worktreePath.
func (w *WorktreeManager) RenameBranch(ctx context.Context, worktreePath, branch string) error {
	w.logger.Info("renaming branch", "worktree", worktreePath, "branch", branch)

	// git -C <worktree> branch -m <new>
	if _, err := w.runner.Run(ctx, "-C", worktreePath, "branch", "-m", branch); err != nil {
		return &domain.GitError{Op: "branch rename", Path: worktreePath, Err: err}
	}
	return nil
}

// List returns every worktree of the repository, including the main checkout.
func (w *WorktreeManager) List(ctx context.Context, repoPath string) ([]Worktree, error) {
	// git -C <repo> worktree list --porcelain
	output, err := w.runner.Run(ctx, "-C", repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, &domain.GitError{Op: "worktree list", Path: repoPath, Err: err}
	}

	return parseWorktreeList(output), nil
}

// Managed returns only the worktrees created under WorktreeDir.
func (w *WorktreeManager) Managed(ctx context.Context, repoPath string) ([]Worktree, error) {
	all, err := w.List(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	root := filepath.Join(repoPath, WorktreeDir) + string(filepath.Separator)
	var managed []Worktree
	for _, wt := range all {
		if strings.HasPrefix(wt.Path, root) {
			managed = append(managed, wt)
		}
	}
	return managed, nil
}

// parseWorktreeList parses the output of 'git worktree list --porcelain'.
// Example output:
//
//	worktree /home/user/repo
//	HEAD abc123
//	branch refs/heads/main
//
//	worktree /home/user/repo/.git/aim-worktrees/aim-fix-login
//	HEAD def456
//	branch refs/heads/aim/fix-login
func parseWorktreeList(output string) []Worktree {
	var worktrees []Worktree
	var current Worktree

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			if current.Path != "" {
				worktrees = append(worktrees, current)
			}
			current = Worktree{}
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.Hash = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}

	// Handle last entry if output doesn't end with blank line
	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	return worktrees
}
