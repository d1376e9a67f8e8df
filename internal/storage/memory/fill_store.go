package memory

import (
	"context"
	"sort"
	"sync"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
type FillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Fill // keyed by fill_id
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{data: make(map[string]*domain.Fill)}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// Insert adds a new fill. Returns ErrDuplicateKey if fill_id exists.
func (s *FillStore) Insert(_ context.Context, f *domain.Fill) error {
	if f == nil || f.FillID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.FillID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *f
	s.data[f.FillID] = &copy
	return nil
}

// GetByRound retrieves all fills for a round, ordered by timestamp ASC.
func (s *FillStore) GetByRound(_ context.Context, roundID string) ([]*domain.Fill, error) {
	return s.collect(func(f *domain.Fill) bool { return f.RoundID == roundID })
}

// GetByStrategy retrieves all fills issued by a strategy, ordered by timestamp ASC.
func (s *FillStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.Fill, error) {
	return s.collect(func(f *domain.Fill) bool { return f.StrategyID == strategyID })
}

// GetAll retrieves every fill, ordered by timestamp ASC.
func (s *FillStore) GetAll(_ context.Context) ([]*domain.Fill, error) {
	return s.collect(func(*domain.Fill) bool { return true })
}

func (s *FillStore) collect(match func(*domain.Fill) bool) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Fill
	for _, f := range s.data {
		if match(f) {
			copy := *f
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].FillID < result[j].FillID
	})
	return result, nil
}
