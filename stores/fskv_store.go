package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var _ fa.KeyValueStore = (*FSKeyValueStore)(nil)

// FSKeyValueStore stores values as a single JSON file on the filesystem.
// Every Set and Remove is written through to disk.
type FSKeyValueStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// kvFile is the JSON structure stored on disk
type kvFile struct {
	Values map[string]string `json:"values"`
}

// NewFSKeyValueStore creates a file backed store.
// If path is empty, defaults to ~/.config/<appName>/session.json
func NewFSKeyValueStore(path string, appName string) (*FSKeyValueStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("could not determine config directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
		if appName == "" {
			appName = "frontauth"
		}
		path = filepath.Join(configDir, appName, "session.json")
	}

	store := &FSKeyValueStore{
		path:   path,
		values: make(map[string]string),
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return store, nil
}

func (s *FSKeyValueStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file kvFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}
	if file.Values != nil {
		s.values = file.Values
	}
	return nil
}

func (s *FSKeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FSKeyValueStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

func (s *FSKeyValueStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

// Path returns the path to the session file
func (s *FSKeyValueStore) Path() string {
	return s.path
}

// Caller must hold s.mu
func (s *FSKeyValueStore) flushLocked() error {
	// Owner only, the file holds a bearer token
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(kvFile{Values: s.values}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return writeAtomicFile(s.path, data, 0600)
}
