package memory

import (
	"context"
	"sort"
	"sync"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// RoundStore is an in-memory implementation of storage.RoundStore.
type RoundStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RoundRecord // keyed by round_key
}

// NewRoundStore creates a new in-memory round store.
func NewRoundStore() *RoundStore {
	return &RoundStore{data: make(map[string]*domain.RoundRecord)}
}

// Compile-time interface check.
var _ storage.RoundStore = (*RoundStore)(nil)

// Insert adds a round record. Returns ErrDuplicateKey if round_key exists.
func (s *RoundStore) Insert(_ context.Context, r *domain.RoundRecord) error {
	if r == nil || r.RoundKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RoundKey]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.RoundKey] = &copy
	return nil
}

// GetByKey retrieves a round record. Returns ErrNotFound if absent.
func (s *RoundStore) GetByKey(_ context.Context, roundKey string) (*domain.RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[roundKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// GetBySession retrieves all rounds of a session, ordered by start ASC.
func (s *RoundStore) GetBySession(_ context.Context, sessionID string) ([]*domain.RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RoundRecord
	for _, r := range s.data {
		if r.SessionID == sessionID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt != result[j].StartedAt {
			return result[i].StartedAt < result[j].StartedAt
		}
		return result[i].RoundKey < result[j].RoundKey
	})
	return result, nil
}
