// Package storagetest holds a behavioral test suite shared by every storage.KV backend.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/carttrack/internal/storage"
)

// Run exercises the storage.KV contract against stores built by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get on absent key returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Put then Get round trips and bumps version", func(t *testing.T) {
		s := newStore(t)

		v1, err := s.Put(ctx, "k", []byte("one"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), v1)

		v2, err := s.Put(ctx, "k", []byte("two"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), v2)

		e, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), e.Value)
		assert.Equal(t, int64(2), e.Version)
	})

	t.Run("CompareAndSwap with zero creates absent key", func(t *testing.T) {
		s := newStore(t)

		v, err := s.CompareAndSwap(ctx, "k", []byte("first"), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		_, err = s.CompareAndSwap(ctx, "k", []byte("again"), 0)
		assert.ErrorIs(t, err, storage.ErrVersionConflict)

		e, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), e.Value)
	})

	t.Run("CompareAndSwap rejects stale version", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Put(ctx, "k", []byte("a"))
		require.NoError(t, err)
		_, err = s.Put(ctx, "k", []byte("b"))
		require.NoError(t, err)

		_, err = s.CompareAndSwap(ctx, "k", []byte("stale"), 1)
		assert.ErrorIs(t, err, storage.ErrVersionConflict)

		v, err := s.CompareAndSwap(ctx, "k", []byte("fresh"), 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)

		e, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("fresh"), e.Value)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Put(ctx, "k", []byte("x"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"))

		_, err = s.Get(ctx, "k")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Put(ctx, "a", []byte("1"))
		require.NoError(t, err)
		_, err = s.Put(ctx, "b", []byte("2"))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, "a"))

		e, err := s.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), e.Value)
	})
}
