package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/carttrack/internal/models"
	"github.com/mmynk/carttrack/internal/storage"
)

// CurrentKey is the store key holding the in-progress session.
const CurrentKey = "currentSession"

// Holder is the single slot for the in-progress session.
// Writes are last-writer-wins.
type Holder struct {
	store storage.KV
}

// NewHolder creates a Holder over the given store.
func NewHolder(store storage.KV) *Holder {
	return &Holder{store: store}
}

// Set overwrites the slot.
func (h *Holder) Set(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return sessionError("id", "is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode current session: %w", err)
	}
	if _, err := h.store.Put(ctx, CurrentKey, data); err != nil {
		return fmt.Errorf("failed to save current session: %w", err)
	}
	return nil
}

// Get returns the in-progress session, or nil if there is none.
// An undecodable slot is treated as empty.
func (h *Holder) Get(ctx context.Context) (*models.Session, error) {
	entry, err := h.store.Get(ctx, CurrentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read current session: %w", err)
	}

	var session *models.Session
	if err := json.Unmarshal(entry.Value, &session); err != nil {
		slog.Warn("Ignoring undecodable current session", "key", CurrentKey, "error", err)
		return nil, nil
	}
	if session != nil && session.ID == "" {
		slog.Warn("Ignoring current session without an id", "key", CurrentKey)
		return nil, nil
	}
	return session, nil
}

// Clear empties the slot.
func (h *Holder) Clear(ctx context.Context) error {
	if err := h.store.Delete(ctx, CurrentKey); err != nil {
		return fmt.Errorf("failed to clear current session: %w", err)
	}
	return nil
}
