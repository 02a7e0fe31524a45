package service

import (
	"time"

	"github.com/mmynk/carttrack/internal/calculator"
	"github.com/mmynk/carttrack/internal/sessions"
)

// Item is an item as returned to clients.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal string  `json:"line_total"`
}

// Cart is a session as returned to clients, with its total computed at read time.
type Cart struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Items    []Item    `json:"items"`
	Total    string    `json:"total"`
	State    string    `json:"state"`
}

type GetCartRequest struct {
	// SessionID selects a committed session; empty selects the current one.
	SessionID string `json:"session_id,omitempty"`
}

type AddItemRequest struct {
	SessionID string  `json:"session_id,omitempty"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// AddItemFromInputRequest carries the raw text of the item entry form.
type AddItemFromInputRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
}

type RemoveItemRequest struct {
	SessionID string `json:"session_id,omitempty"`
	ItemID    string `json:"item_id"`
}

type SetLocationRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Location  string `json:"location"`
}

type StartSessionRequest struct {
	Location string `json:"location"`
}

type CommitSessionRequest struct{}

type ListSessionsRequest struct{}

type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type GetSummaryRequest struct{}

type LookupBarcodeRequest struct {
	Barcode string `json:"barcode"`
}

type CartResponse struct {
	Cart Cart `json:"cart"`
}

type CommitSessionResponse struct {
	// Committed is false when nothing was in progress or the session was empty.
	Committed bool  `json:"committed"`
	Cart      *Cart `json:"cart,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []Cart `json:"sessions"`
}

type DeleteSessionResponse struct{}

type GetSummaryResponse struct {
	Sessions   int    `json:"sessions"`
	Items      int    `json:"items"`
	GrandTotal string `json:"grand_total"`
}

type LookupBarcodeResponse struct {
	Found bool   `json:"found"`
	Name  string `json:"name,omitempty"`
}

func toCart(c *sessions.Cart) Cart {
	items := make([]Item, len(c.Session.Items))
	for i, item := range c.Session.Items {
		items[i] = Item{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: calculator.LineTotal(item).StringFixed(2),
		}
	}
	return Cart{
		ID:       c.Session.ID,
		Date:     c.Session.Date,
		Location: c.Session.Location,
		Items:    items,
		Total:    c.Total.StringFixed(2),
		State:    c.State.String(),
	}
}
