package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/carttrack/internal/metrics"
	"github.com/mmynk/carttrack/internal/models"
	"github.com/mmynk/carttrack/internal/storage"
)

// HistoryKey is the store key holding the JSON array of committed sessions.
const HistoryKey = "sessions"

const defaultMaxAttempts = 3

// Repository is the durable, ordered collection of committed sessions.
//
// Every mutation is a read-modify-write of the whole collection. Writes are
// serialized in-process by a mutex and guarded across processes by a
// compare-and-swap on the stored version, so concurrent mutations cannot
// silently drop each other's changes.
type Repository struct {
	store       storage.KV
	mu          sync.Mutex
	maxAttempts int
	metrics     *metrics.Metrics
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithMaxAttempts sets how many times a mutation is retried after a version conflict.
func WithMaxAttempts(n int) RepositoryOption {
	return func(r *Repository) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithRepositoryMetrics records history write conflicts.
func WithRepositoryMetrics(m *metrics.Metrics) RepositoryOption {
	return func(r *Repository) {
		r.metrics = m
	}
}

// NewRepository creates a Repository over the given store.
func NewRepository(store storage.KV, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:       store,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns all committed sessions in persisted order.
// Missing or undecodable history yields an empty slice, not an error.
func (r *Repository) List(ctx context.Context) ([]models.Session, error) {
	sessions, _, err := r.load(ctx)
	return sessions, err
}

// Get returns the committed session with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (*models.Session, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(sessions, id); i >= 0 {
		return &sessions[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// Upsert replaces the session with the same ID in place, or appends it.
func (r *Repository) Upsert(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return sessionError("id", "is required")
	}
	stored := session.Clone()

	return r.mutate(ctx, func(sessions []models.Session) ([]models.Session, bool, error) {
		if i := indexOf(sessions, stored.ID); i >= 0 {
			sessions[i] = *stored
			return sessions, true, nil
		}
		return append(sessions, *stored), true, nil
	})
}

// Update applies fn to the committed session with the given ID and saves
// the result, all within one guarded write. fn reports whether it changed
// anything; when it returns false nothing is written.
func (r *Repository) Update(ctx context.Context, id string, fn func(*models.Session) bool) (*models.Session, error) {
	var updated *models.Session
	err := r.mutate(ctx, func(sessions []models.Session) ([]models.Session, bool, error) {
		i := indexOf(sessions, id)
		if i < 0 {
			return nil, false, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		s := sessions[i].Clone()
		changed := fn(s)
		sessions[i] = *s
		updated = s
		return sessions, changed, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the session with the given ID. A missing ID is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, func(sessions []models.Session) ([]models.Session, bool, error) {
		i := indexOf(sessions, id)
		if i < 0 {
			return sessions, false, nil
		}
		return append(sessions[:i], sessions[i+1:]...), true, nil
	})
}

// load reads and decodes the history along with the version it was read at.
func (r *Repository) load(ctx context.Context) ([]models.Session, int64, error) {
	entry, err := r.store.Get(ctx, HistoryKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Session{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read session history: %w", err)
	}

	var sessions []models.Session
	if err := json.Unmarshal(entry.Value, &sessions); err != nil {
		slog.Warn("Ignoring undecodable session history", "key", HistoryKey, "error", err)
		return []models.Session{}, entry.Version, nil
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, entry.Version, nil
}

// mutate runs a guarded read-modify-write of the history. fn returns the new
// collection and whether it differs from the old one.
func (r *Repository) mutate(ctx context.Context, fn func([]models.Session) ([]models.Session, bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		sessions, version, err := r.load(ctx)
		if err != nil {
			return err
		}

		next, changed, err := fn(sessions)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode session history: %w", err)
		}

		_, err = r.store.CompareAndSwap(ctx, HistoryKey, data, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return fmt.Errorf("failed to write session history: %w", err)
		}

		r.metrics.HistoryConflict()
		slog.Warn("Session history changed during write",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"read_version", version,
		)
	}

	return fmt.Errorf("%w: %w", ErrStaleCollection, storage.ErrVersionConflict)
}

func indexOf(sessions []models.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
