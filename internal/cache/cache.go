// Package cache holds the server-side session store. Browser logins get a
// session id cookie whose backing entry maps to the user id; API clients use
// bearer tokens instead and never touch this package.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID int, ttl time.Duration) error
	Fetch(ctx context.Context, sessionID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
