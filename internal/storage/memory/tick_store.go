package memory

import (
	"context"
	"sort"
	"sync"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// TickStore is an in-memory implementation of storage.TickStore.
type TickStore struct {
	mu   sync.RWMutex
	data map[tickKey]*domain.Tick
}

type tickKey struct {
	roundID string
	tick    int64
}

// NewTickStore creates a new in-memory tick store.
func NewTickStore() *TickStore {
	return &TickStore{data: make(map[tickKey]*domain.Tick)}
}

// Compile-time interface check.
var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk adds multiple ticks atomically. Fails entire batch on any
// duplicate (round_id, tick), existing or intra-batch.
func (s *TickStore) InsertBulk(_ context.Context, ticks []*domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[tickKey]struct{}, len(ticks))
	for _, t := range ticks {
		if t == nil || t.RoundID == "" {
			return storage.ErrInvalidInput
		}
		key := tickKey{t.RoundID, t.Tick}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range ticks {
		copy := *t
		s.data[tickKey{t.RoundID, t.Tick}] = &copy
	}
	return nil
}

// GetByRound retrieves all ticks for a round, ordered by tick ASC.
func (s *TickStore) GetByRound(_ context.Context, roundID string) ([]*domain.Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Tick
	for key, t := range s.data {
		if key.roundID == roundID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Tick < result[j].Tick })
	return result, nil
}
