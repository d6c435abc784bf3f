package service

import (
	"context"
	"time"
	"vehicle_parking/internal/cache"

	"github.com/google/uuid"
)

// SessionService manages server-side browser sessions, identified by an
// opaque uuid handed to the client as a cookie.
type SessionService struct {
	sessions cache.SessionStore
	ttl      time.Duration
}

func NewSessionService(sessions cache.SessionStore, ttl time.Duration) *SessionService {
	return &SessionService{sessions: sessions, ttl: ttl}
}

func (s *SessionService) Create(ctx context.Context, userID int) (string, error) {
	sessionID := uuid.NewString()
	if err := s.sessions.Save(ctx, sessionID, userID, s.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// UserID resolves a session id to the user it belongs to.
// Returns cache.ErrSessionNotFound for unknown or expired sessions.
func (s *SessionService) UserID(ctx context.Context, sessionID string) (int, error) {
	return s.sessions.Fetch(ctx, sessionID)
}

func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
