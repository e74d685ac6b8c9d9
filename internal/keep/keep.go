// Package keep talks to the Google Keep backend the way the Android client
// does: a long-lived master token is exchanged for a short-lived OAuth token,
// and note state is pulled through the notes changes API.
package keep

import (
	"context"
	"encoding/json"

	"keep-gateway/internal/domain"
)

// Client authenticates against the remote note service.
type Client interface {
	// Authenticate performs the token exchange and returns a live session.
	// When state (a blob previously produced by Session.Dump) is non-nil,
	// the session is restored from it instead of performing an initial
	// sync, which skips the full note download on process restart.
	Authenticate(ctx context.Context, email, masterToken string, state json.RawMessage) (Session, error)
}

// Session is an authenticated handle to the remote note service. A session
// is safe for concurrent use: Sync mutates the note collection in place
// under an exclusive lock, while All and Dump take shared locks.
type Session interface {
	// Sync pulls the latest note state from the remote service.
	Sync(ctx context.Context) error
	// Dump serializes the session's sync state as an opaque blob suitable
	// for seeding a later Authenticate call.
	Dump() (json.RawMessage, error)
	// All returns the current note collection.
	All() []domain.NoteLike
}
