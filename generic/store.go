/*
store.go - Session storage interface for evaluated rosters

PURPOSE:
  Defines the interface between the API layer and the cache that holds
  roster results between requests. A reviewer evaluates a roster once and
  fetches the result again while consolidating small units, so the result
  lives under a session id until it expires or is deleted.

VOLATILE BY CONTRACT:
  Sessions are not persisted. Restarting the server drops every session;
  callers re-run the evaluation, which is deterministic for the same
  records and policy table.

EXPIRY:
  Every session carries a deadline fixed at Put time. Reads do not extend
  it. An expired session behaves exactly like one that never existed:
  Get and Delete return ErrSessionNotFound.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory map with TTL

SEE ALSO:
  - api/handlers.go: Stores evaluate results, serves /api/sessions/{id}
*/
package generic

import "context"

// SessionID identifies a stored session.
type SessionID string

// SessionStore holds values of type T under generated session ids.
type SessionStore[T any] interface {
	// Put stores v and returns its new id.
	Put(ctx context.Context, v T) (SessionID, error)

	// Get returns the value for id, or ErrSessionNotFound.
	Get(ctx context.Context, id SessionID) (T, error)

	// Delete removes id. Returns ErrSessionNotFound if it is not present.
	Delete(ctx context.Context, id SessionID) error
}
