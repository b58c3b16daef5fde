// Package stores provides KeyValueStore implementations for the frontauth
// session. MemoryStore suits tests and single process front ends,
// FSKeyValueStore keeps the session across runs of a CLI.
package stores

import (
	"context"
	"sync"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var _ fa.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore is a process wide in-memory key-value store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len returns the number of keys held
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
