// Package tokenstore persists the bearer token between runs.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the fixed key the durable store writes the token under.
const FileName = "token"

// Store holds at most one bearer token. An absent token loads as "".
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// File keeps the token in <dir>/token with owner-only permissions.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile returns a File store rooted at dir (typically ~/.aide).
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Path returns the token file location.
func (f *File) Path() string {
	return filepath.Join(f.dir, FileName)
}

// Load reads the token. A missing file is not an error.
func (f *File) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore.Load: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token atomically: temp file in the same dir, then rename.
func (f *File) Save(token string) error {
	if token == "" {
		return errors.New("tokenstore.Save: empty token")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("tokenstore.Save: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("tokenstore.Save: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("tokenstore.Save: chmod: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("tokenstore.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path()); err != nil {
		return fmt.Errorf("tokenstore.Save: rename: %w", err)
	}
	return nil
}

// Clear removes the token file. Removing an absent token is a no-op.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore.Clear: %w", err)
	}
	return nil
}

// Memory is a process-lifetime store, used for AIDE_TOKEN and in tests.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns a Memory store seeded with token (may be empty).
func NewMemory(token string) *Memory {
	return &Memory{token: strings.TrimSpace(token)}
}

func (m *Memory) Load() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Save(token string) error {
	if token == "" {
		return errors.New("tokenstore.Save: empty token")
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
