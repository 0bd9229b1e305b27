package pty

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Benbentwo/aim/internal/domain"
)

// Persister stores session records and scrollback logs under a data directory:
//
//	<dir>/sessions.json
//	<dir>/sessions/<id>/scrollback.log
type Persister struct {
	mu  sync.Mutex
	dir string
}

// NewPersister creates a persister rooted at dir
func NewPersister(dir string) *Persister {
	return &Persister{dir: dir}
}

// SessionsFile returns the path of the session index
func (p *Persister) SessionsFile() string {
	return filepath.Join(p.dir, "sessions.json")
}

// SessionDir returns the directory holding one session's files
func (p *Persister) SessionDir(id string) string {
	return filepath.Join(p.dir, "sessions", id)
}

// ScrollbackFile returns the path of a session's output log
func (p *Persister) ScrollbackFile(id string) string {
	return filepath.Join(p.SessionDir(id), "scrollback.log")
}

// Load reads the session index. A missing file yields no sessions.
func (p *Persister) Load() ([]domain.Session, error) {
	data, err := os.ReadFile(p.SessionsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var sessions []domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return sessions, nil
}

// Save writes the session index atomically
func (p *Persister) Save(sessions []domain.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tmp := p.SessionsFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	return os.Rename(tmp, p.SessionsFile())
}

// AppendScrollback appends raw output to a session's log
func (p *Persister) AppendScrollback(id string, data []byte) error {
	if err := os.MkdirAll(p.SessionDir(id), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p.ScrollbackFile(id), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// LoadScrollback returns at most the last limit bytes of a session's log.
// A missing log yields no bytes.
func (p *Persister) LoadScrollback(id string, limit int64) ([]byte, error) {
	f, err := os.Open(p.ScrollbackFile(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open scrollback: %w", err)
	}
	defer f.Close()

	if limit > 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat scrollback: %w", err)
		}
		if info.Size() > limit {
			if _, err := f.Seek(info.Size()-limit, io.SeekStart); err != nil {
				return nil, fmt.Errorf("failed to seek scrollback: %w", err)
			}
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrollback: %w", err)
	}
	return data, nil
}

// Remove deletes all files of a session
func (p *Persister) Remove(id string) error {
	err := os.RemoveAll(p.SessionDir(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
