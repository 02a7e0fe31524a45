// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written or was deleted.
	ErrNotFound = errors.New("key not found")

	// ErrVersionConflict is returned by CompareAndSwap when the stored version
	// no longer matches the version the caller read.
	ErrVersionConflict = errors.New("version conflict")
)

// Entry is a stored value together with its version stamp.
// Version starts at 1 on first write and increases on every write.
type Entry struct {
	Value   []byte
	Version int64
}

// KV defines the interface for the durable key-value byte store.
// This abstraction allows swapping storage backends (SQLite, Redis, memory)
// without changing the session layer.
type KV interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (Entry, error)

	// Put writes value unconditionally and returns the new version.
	Put(ctx context.Context, key string, value []byte) (int64, error)

	// CompareAndSwap writes value only if the stored version equals expected.
	// An expected version of 0 means the key must be absent.
	// Returns ErrVersionConflict on mismatch.
	CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
