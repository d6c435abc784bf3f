package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID    int
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in-process. Used by tests and as the
// fallback when no redis address is configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemorySessionStore) Save(_ context.Context, sessionID string, userID int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memoryEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Fetch(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return 0, ErrSessionNotFound
	}
	return entry.userID, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) Close() error {
	return nil
}
