package memory

import (
	"context"
	"sync"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SessionRecord // keyed by session_id
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]*domain.SessionRecord)}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Insert adds a session record. Returns ErrDuplicateKey if session_id exists.
func (s *SessionStore) Insert(_ context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.SessionID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *rec
	s.data[rec.SessionID] = &copy
	return nil
}

// Finish stamps the end time and round count of a running session.
func (s *SessionStore) Finish(_ context.Context, sessionID string, endedAt int64, rounds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return storage.ErrNotFound
	}
	rec.EndedAt = endedAt
	rec.Rounds = rounds
	return nil
}

// GetByID retrieves a session record. Returns ErrNotFound if absent.
func (s *SessionStore) GetByID(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *rec
	return &copy, nil
}
