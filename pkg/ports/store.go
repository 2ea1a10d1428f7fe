package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// StateStore persists the terminal State of each conversation, keyed by
// session ID. Only states produced by successful walks are ever saved.
type StateStore interface {
	// Save persists the state for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, state domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (domain.State, error)

	// Delete removes the state for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
