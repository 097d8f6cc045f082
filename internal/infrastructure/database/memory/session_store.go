package memory

import (
	"context"
	"sync"
	"time"

	"lab-checkout/internal/domain/user"
)

type sessionEntry struct {
	session   user.Session
	expiresAt time.Time
}

// SessionStore keeps sessions in process memory. Expired entries are
// treated as absent.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]sessionEntry), now: time.Now}
}

func (s *SessionStore) Create(_ context.Context, sess *user.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sessionEntry{session: *sess, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, user.ErrSessionNotFound
	}
	sess := e.session
	return &sess, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *SessionStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if e.session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}
