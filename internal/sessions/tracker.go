package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/carttrack/internal/calculator"
	"github.com/mmynk/carttrack/internal/metrics"
	"github.com/mmynk/carttrack/internal/models"
)

// maxIDAttempts bounds regeneration when a fresh ID collides with an existing one.
const maxIDAttempts = 5

// Cart is a session as seen by a screen: where it lives and its current total.
type Cart struct {
	Session *models.Session
	State   models.State
	Total   decimal.Decimal
}

func newCart(s *models.Session, state models.State) *Cart {
	return &Cart{Session: s, State: state, Total: calculator.SessionTotal(s)}
}

// Tracker applies the rules that keep the current session and the session
// history consistent.
//
// Every operation takes an optional session ID. An empty ID targets the
// current session in the Holder; a non-empty ID targets that committed
// session in the Repository and never touches the Holder. A session moves
// from the Holder to the Repository only through Commit or StartSession.
//
// Operations on the current session hold mu from the first Holder read to the
// last Holder write, so concurrent callers see each other's changes.
type Tracker struct {
	repo    *Repository
	holder  *Holder
	mu      sync.Mutex
	now     func() time.Time
	newID   func() string
	metrics *metrics.Metrics
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source used for session dates.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithIDGenerator sets the generator for session and item IDs.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) {
		t.newID = newID
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// NewTracker creates a Tracker over the given repository and holder.
func NewTracker(repo *Repository, holder *Holder, opts ...Option) *Tracker {
	t := &Tracker{
		repo:   repo,
		holder: holder,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load returns the targeted session.
// With an empty ID and nothing in progress it returns ErrNoCurrentSession.
func (t *Tracker) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID != "" {
		s, err := t.repo.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return newCart(s, models.StateCommitted), nil
	}

	s, err := t.holder.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoCurrentSession
	}
	return newCart(s, models.StateDraft), nil
}

// AddItem validates the item and appends it to the targeted session.
// With an empty ID and nothing in progress a new current session is started first.
func (t *Tracker) AddItem(ctx context.Context, sessionID string, in NewItem) (cart *Cart, err error) {
	defer func() { t.metrics.SessionOp("add_item", err) }()

	in, err = ValidateItem(in)
	if err != nil {
		return nil, err
	}

	var itemID string
	cart, err = t.edit(ctx, sessionID, true, func(s *models.Session) bool {
		itemID = t.freshItemID(s)
		s.Items = append(s.Items, models.Item{
			ID:       itemID,
			Name:     in.Name,
			Price:    in.Price,
			Quantity: in.Quantity,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Item added",
		"session_id", cart.Session.ID,
		"item_id", itemID,
		"name", in.Name,
		"price", in.Price,
		"quantity", in.Quantity,
		"state", cart.State,
	)
	return cart, nil
}

// RemoveItem removes an item from the targeted session.
// Removing an item that is not there changes nothing.
func (t *Tracker) RemoveItem(ctx context.Context, sessionID, itemID string) (cart *Cart, err error) {
	defer func() { t.metrics.SessionOp("remove_item", err) }()

	return t.edit(ctx, sessionID, false, func(s *models.Session) bool {
		i := s.FindItem(itemID)
		if i < 0 {
			return false
		}
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
		return true
	})
}

// SetLocation changes the store name of the targeted session.
// With an empty ID and nothing in progress a new current session is started first.
func (t *Tracker) SetLocation(ctx context.Context, sessionID, location string) (cart *Cart, err error) {
	defer func() { t.metrics.SessionOp("set_location", err) }()

	location = strings.TrimSpace(location)
	return t.edit(ctx, sessionID, true, func(s *models.Session) bool {
		if s.Location == location {
			return false
		}
		s.Location = location
		return true
	})
}

// StartSession commits whatever is in progress and starts a fresh current
// session at the given location.
func (t *Tracker) StartSession(ctx context.Context, location string) (cart *Cart, err error) {
	defer func() { t.metrics.SessionOp("start_session", err) }()

	location = strings.TrimSpace(location)
	if location == "" {
		return nil, sessionError("location", "must not be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.commitCurrent(ctx); err != nil {
		return nil, err
	}

	s, err := t.newSession(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := t.holder.Set(ctx, s); err != nil {
		return nil, err
	}

	slog.Info("Session started", "session_id", s.ID, "location", s.Location)
	return newCart(s, models.StateDraft), nil
}

// Commit moves the current session into history and empties the holder.
// A current session without items is discarded rather than committed.
// It returns nil when nothing was committed.
func (t *Tracker) Commit(ctx context.Context) (cart *Cart, err error) {
	defer func() { t.metrics.SessionOp("commit", err) }()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitCurrent(ctx)
}

// DeleteSession removes a committed session from history.
// The current session is never affected, even if it shares the ID.
func (t *Tracker) DeleteSession(ctx context.Context, sessionID string) (err error) {
	defer func() { t.metrics.SessionOp("delete_session", err) }()

	if sessionID == "" {
		return sessionError("id", "is required")
	}
	if err := t.repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("Session deleted", "session_id", sessionID)
	return nil
}

// History returns every committed session with its total, in persisted order.
func (t *Tracker) History(ctx context.Context) ([]Cart, error) {
	sessions, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	carts := make([]Cart, len(sessions))
	for i := range sessions {
		carts[i] = *newCart(&sessions[i], models.StateCommitted)
	}
	return carts, nil
}

// Summary aggregates totals across the session history.
func (t *Tracker) Summary(ctx context.Context) (calculator.HistorySummary, error) {
	sessions, err := t.repo.List(ctx)
	if err != nil {
		return calculator.HistorySummary{}, err
	}
	return calculator.Summarize(sessions), nil
}

// edit loads the targeted session, applies fn and writes the result back to
// the component that owns it. fn reports whether it changed anything.
func (t *Tracker) edit(ctx context.Context, sessionID string, create bool, fn func(*models.Session) bool) (*Cart, error) {
	if sessionID != "" {
		s, err := t.repo.Update(ctx, sessionID, fn)
		if err != nil {
			return nil, err
		}
		return newCart(s, models.StateCommitted), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.holder.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		if !create {
			return nil, ErrNoCurrentSession
		}
		s, err = t.newSession(ctx, "")
		if err != nil {
			return nil, err
		}
		if err := t.holder.Set(ctx, s); err != nil {
			return nil, err
		}
		slog.Info("Session started on demand", "session_id", s.ID)
	}

	if fn(s) {
		if err := t.holder.Set(ctx, s); err != nil {
			return nil, err
		}
	}
	return newCart(s, models.StateDraft), nil
}

// commitCurrent is the Draft -> Committed transition. Callers hold t.mu.
func (t *Tracker) commitCurrent(ctx context.Context) (*Cart, error) {
	current, err := t.holder.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	var committed *Cart
	if len(current.Items) > 0 {
		if err := t.repo.Upsert(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to commit session %s: %w", current.ID, err)
		}
		committed = newCart(current, models.StateCommitted)
		slog.Info("Session committed",
			"session_id", current.ID,
			"items", len(current.Items),
			"total", committed.Total.StringFixed(2),
		)
	} else {
		slog.Info("Discarding empty session", "session_id", current.ID)
	}

	if err := t.holder.Clear(ctx); err != nil {
		if committed != nil {
			slog.Error("Committed session is still current",
				"session_id", current.ID,
				"history_key", HistoryKey,
				"current_key", CurrentKey,
				"error", err,
			)
			return nil, fmt.Errorf("session %s committed but not cleared from the current slot: %w", current.ID, err)
		}
		return nil, err
	}
	return committed, nil
}

// newSession builds a session whose ID is not used by history or the holder.
func (t *Tracker) newSession(ctx context.Context, location string) (*models.Session, error) {
	history, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	current, err := t.holder.Get(ctx)
	if err != nil {
		return nil, err
	}

	for range maxIDAttempts {
		id := t.newID()
		if indexOf(history, id) >= 0 || (current != nil && current.ID == id) {
			continue
		}
		return &models.Session{
			ID:       id,
			Date:     t.now().UTC(),
			Location: location,
			Items:    []models.Item{},
		}, nil
	}
	return nil, fmt.Errorf("failed to generate a unique session id after %d attempts", maxIDAttempts)
}

// freshItemID returns an ID not used by any item in s.
func (t *Tracker) freshItemID(s *models.Session) string {
	id := t.newID()
	for s.FindItem(id) >= 0 {
		id = t.newID()
	}
	return id
}
