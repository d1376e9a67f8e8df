package memory

import (
	"context"
	"sort"
	"sync"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[candleKey]*domain.Candle
}

type candleKey struct {
	roundID string
	index   int64
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{data: make(map[candleKey]*domain.Candle)}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles atomically. Fails entire batch on any
// duplicate (round_id, index), existing or intra-batch.
func (s *CandleStore) InsertBulk(_ context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[candleKey]struct{}, len(candles))
	for _, c := range candles {
		if c == nil || c.RoundID == "" {
			return storage.ErrInvalidInput
		}
		key := candleKey{c.RoundID, c.Index}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range candles {
		copy := *c
		s.data[candleKey{c.RoundID, c.Index}] = &copy
	}
	return nil
}

// GetByRound retrieves all candles for a round, ordered by index ASC.
func (s *CandleStore) GetByRound(_ context.Context, roundID string) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Candle
	for key, c := range s.data {
		if key.roundID == roundID {
			copy := *c
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}
