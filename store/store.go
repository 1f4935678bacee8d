// Package store persists serialized workflow state in a key-value store
// keyed by session id. Writes are best-effort from the engine's point of
// view: in-memory state stays authoritative for the running session.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no state exists for a session id.
var ErrNotFound = errors.New("session state not found")

// Store is a key-value store for serialized workflow state.
type Store interface {
	Save(ctx context.Context, sessionID string, state []byte) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}
