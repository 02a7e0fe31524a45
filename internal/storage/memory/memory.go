// Package memory provides an in-memory implementation of the storage.KV interface.
// Nothing survives a restart; it exists for tests and throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/mmynk/carttrack/internal/storage"
)

// Ensure Store implements storage.KV
var _ storage.KV = (*Store)(nil)

// Store implements storage.KV with a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]storage.Entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]storage.Entry)}
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) (storage.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return storage.Entry{}, storage.ErrNotFound
	}
	return storage.Entry{Value: cloneBytes(e.Value), Version: e.Version}, nil
}

// Put writes value unconditionally.
func (s *Store) Put(_ context.Context, key string, value []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(key, value), nil
}

// CompareAndSwap writes value if the stored version equals expected.
func (s *Store) CompareAndSwap(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[key].Version != expected {
		return 0, storage.ErrVersionConflict
	}
	return s.write(key, value), nil
}

// Delete removes the key if present.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// write must be called with mu held.
func (s *Store) write(key string, value []byte) int64 {
	version := s.entries[key].Version + 1
	s.entries[key] = storage.Entry{Value: cloneBytes(value), Version: version}
	return version
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
