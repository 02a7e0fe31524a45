// Package models defines the core domain models for the cart tracker.
//
// # Models
//
//   - Session: One shopping trip with a location, a creation date and its items
//   - Item: A priced line entry in a session's cart
//   - State: Whether a session is the in-progress draft or a committed record
//
// Session carries no total. Totals are derived from the items on every read
// (see package calculator) and never persisted.
//
// # Persisted Layout
//
// Sessions are stored as JSON. The field names match what earlier versions of
// the app wrote, so existing data keeps decoding:
//
//	{"id": "...", "date": "2024-05-01T10:00:00Z", "location": "Market",
//	 "items": [{"id": "...", "name": "Milk", "price": 2.5, "quantity": 1}]}
//
// # Design Principles
//
//  1. Single user, single device: no owner or account fields
//  2. Avoid circular references: relationships use ID strings
//  3. Copy on hand-off: use Session.Clone before mutating a shared value
package models
