package git

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
)

// Client provides repository-level git operations.
type Client struct {
	runner CommandRunner
	logger *slog.Logger
}

// RepoURL holds the parsed components of a git remote URL.
type RepoURL struct {
	Host string `json:"host"`
	Org  string `json:"org"`
	Repo string `json:"repo"`
}

// NewClient creates a new git client.
func NewClient(runner CommandRunner, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		runner: runner,
		logger: logger,
	}
}

// IsGitRepo reports whether path is inside a git repository.
func (c *Client) IsGitRepo(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	_, err := c.runner.Run(ctx, "-C", path, "rev-parse", "--git-dir")
	return err == nil
}

// CurrentBranch returns the name of the branch checked out at path.
func (c *Client) CurrentBranch(ctx context.Context, path string) (string, error) {
	c.logger.Debug("getting current branch", "path", path)

	output, err := c.runner.Run(ctx, "-C", path, "branch", "--show-current")
	if err != nil {
		return "", &domain.GitError{Op: "current branch", Path: path, Err: err}
	}

	return strings.TrimSpace(output), nil
}

// Clone clones repoURL into dest, creating parent directories.
func (c *Client) Clone(ctx context.Context, repoURL, dest string) error {
	c.logger.Info("cloning repository", "url", repoURL, "dest", dest)

	if _, err := os.Stat(dest); err == nil {
		return &domain.GitError{Op: "clone", Path: dest, Err: fmt.Errorf("destination exists: %w", domain.ErrConflict)}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create clone parent: %w", err)
	}

	if _, err := c.runner.Run(ctx, "clone", "--progress", repoURL, dest); err != nil {
		return &domain.GitError{Op: "clone", Path: dest, Err: err}
	}

	c.logger.Info("clone completed successfully", "dest", dest)
	return nil
}

// ParseRepoURL parses SSH (git@host:org/repo.git) and HTTPS
// (https://host/org/repo.git) remote URLs.
func ParseRepoURL(rawURL string) (RepoURL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return RepoURL{}, fmt.Errorf("empty url: %w", domain.ErrInvalidRepoURL)
	}

	if strings.HasPrefix(rawURL, "git@") {
		host, path, ok := strings.Cut(strings.TrimPrefix(rawURL, "git@"), ":")
		if !ok || host == "" {
			return RepoURL{}, fmt.Errorf("%s: %w", rawURL, domain.ErrInvalidRepoURL)
		}
		return splitOrgRepo(host, path, rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return RepoURL{}, fmt.Errorf("%s: %w", rawURL, domain.ErrInvalidRepoURL)
	}
	return splitOrgRepo(u.Host, u.Path, rawURL)
}

func splitOrgRepo(host, path, rawURL string) (RepoURL, error) {
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	org, repo, ok := strings.Cut(path, "/")
	if !ok || org == "" || repo == "" {
		return RepoURL{}, fmt.Errorf("%s must include org/repo: %w", rawURL, domain.ErrInvalidRepoURL)
	}
	return RepoURL{Host: host, Org: org, Repo: repo}, nil
}

// CloneDestPath returns baseDir/org/repo for a remote URL.
func CloneDestPath(repoURL, baseDir string) (string, error) {
	parsed, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, parsed.Org, parsed.Repo), nil
}
