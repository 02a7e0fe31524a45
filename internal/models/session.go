package models

import "time"

// Session represents one shopping trip: where it happened, when it started,
// and the items put in the cart.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// Date is when the session was created. It never changes after creation.
	Date time.Time `json:"date"`

	// Location is the free-text store name. May be empty.
	Location string `json:"location"`

	// Items are the line entries in insertion order, which is also display order.
	Items []Item `json:"items"`
}

// Item represents a single priced line entry in a cart.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	// Unique within the owning session.
	ID string `json:"id"`

	// Name is the display name of the item (e.g., "Milk", "Bread").
	Name string `json:"name"`

	// Price is the unit price, rounded to two decimals.
	Price float64 `json:"price"`

	// Quantity is how many units were taken. Always at least 1.
	Quantity int `json:"quantity"`
}

// Clone returns a deep copy of the session so callers can mutate it
// without touching the original's item slice.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = make([]Item, len(s.Items))
	copy(c.Items, s.Items)
	return &c
}

// FindItem returns the index of the item with the given ID, or -1.
func (s *Session) FindItem(itemID string) int {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// State records which component currently owns a session.
type State int

const (
	// StateDraft is the in-progress session held in the current-session slot.
	StateDraft State = iota
	// StateCommitted is a session that lives in the historical collection.
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}
