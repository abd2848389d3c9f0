package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// RegistrySnapshot is the serialized form of a registry: entries plus both
// derived indexes, written on every mutation and reloaded at construction.
type RegistrySnapshot struct {
	Agents            map[string]Entry    `json:"agents"`
	CapabilitiesIndex map[string][]string `json:"capabilities_index"`
	LanguageIndex     map[string][]string `json:"language_index"`
	LastSaved         time.Time           `json:"last_saved"`
}

// RegistryStore persists registry snapshots. Load returns (nil, nil) when no
// snapshot exists yet.
type RegistryStore interface {
	Load() (*RegistrySnapshot, error)
	Save(*RegistrySnapshot) error
}

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore builds a store writing to path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "agent_registry.json"
	}
	return &FileStore{path: path}
}

// Load reads the snapshot; a missing file yields an empty registry.
func (s *FileStore) Load() (*RegistrySnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var snap RegistrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return &snap, nil
}

// Save writes the snapshot atomically via a temp file rename.
func (s *FileStore) Save(snap *RegistrySnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// MemoryStore keeps the snapshot in memory; used by tests and callers that do
// not need durability.
type MemoryStore struct {
	snap *RegistrySnapshot
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load returns the last saved snapshot.
func (s *MemoryStore) Load() (*RegistrySnapshot, error) { return s.snap, nil }

// Save retains the snapshot.
func (s *MemoryStore) Save(snap *RegistrySnapshot) error {
	s.snap = snap
	return nil
}
