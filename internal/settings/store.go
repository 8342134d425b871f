// Package settings persists user preferences between runs.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings holds the persisted preferences
type Settings struct {
	AutoScan bool `json:"autoScan"`
}

// Store defines the interface for loading and saving settings
type Store interface {
	Load() (Settings, error)
	Save(s Settings) error
}

// FileStore implements Store as a JSON file on the local file system
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a file-based store at dir/name
func NewFileStore(dir, name string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dir, name),
	}, nil
}

// Path returns the settings file location
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the settings file. A missing file yields the zero settings.
func (fs *FileStore) Load() (Settings, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// Save writes the settings file atomically
func (fs *FileStore) Save(s Settings) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in memory only
type MemoryStore struct {
	mu       sync.RWMutex
	settings Settings
}

// NewMemoryStore creates an in-memory store with initial settings
func NewMemoryStore(initial Settings) *MemoryStore {
	return &MemoryStore{settings: initial}
}

// Load returns the current settings
func (ms *MemoryStore) Load() (Settings, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.settings, nil
}

// Save replaces the current settings
func (ms *MemoryStore) Save(s Settings) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.settings = s
	return nil
}
