package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/carttrack/internal/storage"
	"github.com/mmynk/carttrack/internal/storage/memory"
)

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// sequentialIDs returns a generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func newTestTracker(t *testing.T, store storage.KV) *Tracker {
	t.Helper()
	return NewTracker(
		NewRepository(store),
		NewHolder(store),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	)
}

// snapshot captures the raw bytes of both persisted keys.
func snapshot(t *testing.T, store storage.KV) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, key := range []string{HistoryKey, CurrentKey} {
		e, err := store.Get(context.Background(), key)
		if err == storage.ErrNotFound {
			out[key] = "<absent>"
			continue
		}
		require.NoError(t, err)
		out[key] = fmt.Sprintf("v%d:%s", e.Version, e.Value)
	}
	return out
}

// racingStore simulates another writer that touches the key right before
// each of the first `races` compare-and-swap calls.
type racingStore struct {
	*memory.Store
	races int
}

func (s *racingStore) CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	if s.races > 0 {
		s.races--
		e, err := s.Store.Get(ctx, key)
		if err == nil {
			if _, err := s.Store.Put(ctx, key, e.Value); err != nil {
				return 0, err
			}
		} else if _, err := s.Store.Put(ctx, key, []byte("[]")); err != nil {
			return 0, err
		}
	}
	return s.Store.CompareAndSwap(ctx, key, value, expected)
}

// slowStore widens the window between a read and the write that follows it.
type slowStore struct {
	*memory.Store
	delay time.Duration
}

func (s *slowStore) Get(ctx context.Context, key string) (storage.Entry, error) {
	time.Sleep(s.delay)
	return s.Store.Get(ctx, key)
}

// failingDeleteStore refuses every Delete.
type failingDeleteStore struct {
	*memory.Store
}

var errDeleteRefused = errors.New("delete refused")

func (failingDeleteStore) Delete(context.Context, string) error {
	return errDeleteRefused
}
