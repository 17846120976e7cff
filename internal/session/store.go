package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no state exists for the session.
var ErrNotFound = errors.New("session: not found")

// Store persists conversation state between turns.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, sessionID string) error
}
