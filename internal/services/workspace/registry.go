// Package workspace keeps the registry of workspaces and implements the
// backend workspace operations on top of git and the session host.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrEmptyPath is returned when a workspace path is empty
	ErrEmptyPath = errors.New("workspace path cannot be empty")
	// ErrDuplicateWorkspace is returned when a path is already registered
	ErrDuplicateWorkspace = errors.New("workspace already exists")
)

// Record is a persisted workspace. Sessions are stored by the session host.
type Record struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Agent  string `json:"agent"`
	Cloned bool   `json:"cloned"`
}

// Registry holds the known workspaces in insertion order, backed by a JSON file
type Registry struct {
	mu      sync.RWMutex
	path    string
	records []Record
}

// NewRegistry creates a registry stored at path
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Load reads the registry from disk. A missing file yields an empty registry.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read workspaces: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse workspaces: %w", err)
	}

	r.mu.Lock()
	r.records = records
	r.mu.Unlock()
	return nil
}

// Save writes the registry to disk
func (r *Registry) Save() error {
	r.mu.RLock()
	data, err := json.MarshalIndent(r.records, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0644)
}

// Add registers a workspace. Paths are compared after cleaning.
func (r *Registry) Add(rec Record) error {
	if rec.Path == "" {
		return ErrEmptyPath
	}
	rec.Path = filepath.Clean(rec.Path)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.ID == rec.ID || existing.Path == rec.Path {
			return ErrDuplicateWorkspace
		}
	}
	r.records = append(r.records, rec)
	return nil
}

// Remove drops a workspace and reports whether it existed
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return true
		}
	}
	return false
}

// Update applies fn to a workspace and reports whether it existed
func (r *Registry) Update(id string, fn func(*Record)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == id {
			fn(&r.records[i])
			return true
		}
	}
	return false
}

// Get retrieves a workspace by id
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}

// All returns a copy of every workspace
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Record(nil), r.records...)
}

// FindByPath returns the workspace containing path, if any
func (r *Registry) FindByPath(path string) (Record, bool) {
	cleanPath := filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.Path == cleanPath || strings.HasPrefix(cleanPath, rec.Path+string(filepath.Separator)) {
			return rec, true
		}
	}
	return Record{}, false
}

// DetectRepoRoot walks up from dir looking for a .git entry
func DetectRepoRoot(dir string) (string, bool) {
	path := filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
			return path, true
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", false
		}
		path = parent
	}
}
