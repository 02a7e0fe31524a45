package sessions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/carttrack/internal/models"
	"github.com/mmynk/carttrack/internal/storage"
	"github.com/mmynk/carttrack/internal/storage/memory"
	"github.com/mmynk/carttrack/internal/storage/sqlite"
)

func sampleSession(id, location string) *models.Session {
	return &models.Session{
		ID:       id,
		Date:     testNow,
		Location: location,
		Items: []models.Item{
			{ID: id + "-i1", Name: "Milk", Price: 2.5, Quantity: 3},
			{ID: id + "-i2", Name: "Bread", Price: 1, Quantity: 1},
		},
	}
}

func TestRepository(t *testing.T) {
	backends := map[string]func(t *testing.T) storage.KV{
		"memory": func(t *testing.T) storage.KV { return memory.New() },
		"sqlite": func(t *testing.T) storage.KV {
			s, err := sqlite.New(filepath.Join(t.TempDir(), "repo.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			testRepository(t, newStore)
		})
	}
}

func testRepository(t *testing.T, newStore func(t *testing.T) storage.KV) {
	ctx := context.Background()

	t.Run("List on empty store", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		sessions, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})

	t.Run("round trip", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		s := sampleSession("a", "Market")

		require.NoError(t, repo.Upsert(ctx, s))

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	})

	t.Run("upsert replaces in place", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		require.NoError(t, repo.Upsert(ctx, sampleSession("a", "First")))
		require.NoError(t, repo.Upsert(ctx, sampleSession("b", "Other")))
		require.NoError(t, repo.Upsert(ctx, sampleSession("a", "Second")))

		sessions, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "a", sessions[0].ID)
		assert.Equal(t, "Second", sessions[0].Location)
		assert.Equal(t, "b", sessions[1].ID)
	})

	t.Run("upsert keeps insertion order", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, repo.Upsert(ctx, sampleSession(id, "")))
		}

		sessions, err := repo.List(ctx)
		require.NoError(t, err)
		ids := make([]string, len(sessions))
		for i, s := range sessions {
			ids[i] = s.ID
		}
		assert.Equal(t, []string{"c", "a", "b"}, ids)
	})

	t.Run("upsert stores a copy", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		s := sampleSession("a", "Market")
		require.NoError(t, repo.Upsert(ctx, s))

		s.Items[0].Name = "Changed after save"

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "Milk", got.Items[0].Name)
	})

	t.Run("upsert rejects missing id", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		err := repo.Upsert(ctx, &models.Session{Location: "x"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("Get missing id", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		repo := NewRepository(store)
		require.NoError(t, repo.Upsert(ctx, sampleSession("a", "")))
		require.NoError(t, repo.Upsert(ctx, sampleSession("b", "")))

		require.NoError(t, repo.Delete(ctx, "a"))
		after := snapshot(t, store)
		require.NoError(t, repo.Delete(ctx, "a"))
		assert.Equal(t, after, snapshot(t, store))

		sessions, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "b", sessions[0].ID)
	})

	t.Run("delete on empty store writes nothing", func(t *testing.T) {
		store := newStore(t)
		repo := NewRepository(store)
		require.NoError(t, repo.Delete(ctx, "ghost"))

		_, err := store.Get(ctx, HistoryKey)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Update edits one session", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		require.NoError(t, repo.Upsert(ctx, sampleSession("a", "Old")))

		updated, err := repo.Update(ctx, "a", func(s *models.Session) bool {
			s.Location = "New"
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Location)

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "New", got.Location)
	})

	t.Run("Update missing id", func(t *testing.T) {
		repo := NewRepository(newStore(t))
		_, err := repo.Update(ctx, "nope", func(*models.Session) bool { return true })
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("undecodable history reads as empty", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Put(ctx, HistoryKey, []byte("{not json"))
		require.NoError(t, err)

		repo := NewRepository(store)
		sessions, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, sessions)

		// The next write replaces the corrupt bytes.
		require.NoError(t, repo.Upsert(ctx, sampleSession("a", "")))
		sessions, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})

	t.Run("null history reads as empty", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Put(ctx, HistoryKey, []byte("null"))
		require.NoError(t, err)

		sessions, err := NewRepository(store).List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})
}

func TestRepositoryRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Store: memory.New(), races: 2}
	repo := NewRepository(store, WithMaxAttempts(3))

	require.NoError(t, repo.Upsert(ctx, sampleSession("a", "Market")))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Market", got.Location)
}

func TestRepositoryStaleCollection(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Store: memory.New(), races: 10}
	repo := NewRepository(store, WithMaxAttempts(2))

	err := repo.Upsert(ctx, sampleSession("a", "Market"))
	assert.ErrorIs(t, err, ErrStaleCollection)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)

	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRepositoryConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(memory.New())

	const n = 20
	errs := make(chan error, n)
	for i := range n {
		go func() {
			errs <- repo.Upsert(ctx, sampleSession(string(rune('a'+i)), ""))
		}()
	}
	for range n {
		require.NoError(t, <-errs)
	}

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, n)
}
