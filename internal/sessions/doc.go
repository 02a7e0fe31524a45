// Package sessions owns the current shopping session and the history of
// committed sessions, and the rules that move a session between the two.
//
// # Components
//
//   - Repository: the ordered history of committed sessions, stored as one
//     JSON array under the "sessions" key
//   - Holder: the single in-progress session, stored under "currentSession"
//   - Tracker: the reconciliation rules screens go through
//
// # Targeting
//
// Screens pass an optional session ID. Empty means the current session; the
// Tracker reads and writes the Holder and creates a session on demand when
// the first item or location arrives. A non-empty ID means a committed
// session; the Tracker edits it in the Repository and never touches the
// Holder. The two components never hold the same ID at the same time.
//
// # Commit
//
// Commit (and StartSession, which commits first) is the only way a session
// moves from the Holder into the Repository. Edits to the current session
// are not mirrored into history.
//
// # Failure Policy
//
// Undecodable stored bytes are logged and read as empty. Invalid input is
// rejected with a *ValidationError before anything is written. Repository
// writes that keep losing the compare-and-swap return ErrStaleCollection.
package sessions
