// Package prefs is a tiny persistent key-value store for UI preferences.
package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store reads and writes string slots.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// FileStore keeps every slot in one JSON file, rewritten atomically on Set.
type FileStore struct {
	mu    sync.Mutex
	path  string
	slots map[string]string
}

// Open loads path, or starts empty when it does not exist yet.
func Open(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("prefs: path is empty")
	}
	s := &FileStore{path: path, slots: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.slots); err != nil {
		return nil, err
	}
	if s.slots == nil {
		s.slots = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.slots[key]
	s.slots[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.slots[key] = prev
		} else {
			delete(s.slots, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) flushLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.slots, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Memory is a non-persistent Store.
type Memory struct {
	mu    sync.Mutex
	slots map[string]string
}

func NewMemory() *Memory {
	return &Memory{slots: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}
