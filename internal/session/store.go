package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session doesn't exist.
var ErrNotFound = errors.New("session not found")

// Store abstracts session persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create allocates a new session for the user.
	Create(ctx context.Context, userID string) (*Session, error)

	// Get retrieves a session by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch updates the session's last-active time.
	Touch(ctx context.Context, sessionID string, at time.Time) error

	// AppendTurns adds turns to the session's conversational state (append-only).
	AppendTurns(ctx context.Context, sessionID string, turns ...Turn) error

	// History returns the session's turns in order.
	History(ctx context.Context, sessionID string) ([]Turn, error)

	// Delete removes a session and its turns. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns metadata for all sessions, for administrative cleanup.
	List(ctx context.Context) ([]*Session, error)

	// Close releases resources held by the store.
	Close() error
}
