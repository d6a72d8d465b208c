package storage

import (
	"context"

	"github.com/poiesic/modelship/core"
)

// SessionRepository provides operations for managing persisted upload
// sessions. Implementations must be thread-safe and support concurrent
// access.
type SessionRepository interface {
	// SaveSession persists a session, overwriting any prior record for
	// the same key. Updates the UpdatedAt timestamp automatically.
	SaveSession(ctx context.Context, session *core.UploadSession) error

	// LoadSession retrieves the session for a key.
	// Returns nil, nil if no session exists.
	LoadSession(ctx context.Context, key core.SessionKey) (*core.UploadSession, error)

	// DeleteSession removes the session for a key.
	// Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, key core.SessionKey) error

	// ListSessions returns all persisted sessions.
	ListSessions(ctx context.Context) ([]*core.UploadSession, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
