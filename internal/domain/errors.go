package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrNotConnected   = errors.New("issue tracker not connected")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidRepoURL = errors.New("invalid repository url")
	ErrNotGitRepo     = errors.New("path is not a git repository")
	ErrUserCanceled   = errors.New("user canceled")
)

// BackendError represents a failed backend operation
type BackendError struct {
	Op  string // Operation: "create", "write", "resize", etc.
	ID  string // Optional: session or workspace ID
	Err error
}

func (e *BackendError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("backend %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// GitError represents an error from git operations
type GitError struct {
	Op   string
	Path string
	Err  error
}

func (e *GitError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("git %s [%s]: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// TrackerError represents an error from the issue tracker API
type TrackerError struct {
	Op      string // Operation: "viewer", "teams", "cycle", etc.
	Status  int    // Optional: HTTP status code
	Message string // Human-readable context
	Err     error  // Underlying error
}

func (e *TrackerError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tracker %s [%d]: %s", e.Op, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("tracker %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("tracker %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tracker %s failed", e.Op)
}

func (e *TrackerError) Unwrap() error {
	return e.Err
}
