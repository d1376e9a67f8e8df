package clickhouse

import (
	"context"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Fails entire batch on duplicate (round_id, index).
func (s *CandleStore) InsertBulk(ctx context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	type key struct {
		roundID string
		index   int64
	}
	seen := make(map[key]struct{})
	for _, c := range candles {
		if c == nil || c.RoundID == "" {
			return storage.ErrInvalidInput
		}
		k := key{c.RoundID, c.Index}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, c := range candles {
		exists, err := s.exists(ctx, c.RoundID, c.Index)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			round_id, candle_index, open, high, low, close, first_tick, last_tick
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.RoundID, uint64(c.Index), c.Open, c.High, c.Low, c.Close,
			uint64(c.FirstTick), uint64(c.LastTick),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRound retrieves all candles for a round, ordered by index ASC.
func (s *CandleStore) GetByRound(ctx context.Context, roundID string) ([]*domain.Candle, error) {
	query := `
		SELECT round_id, candle_index, open, high, low, close, first_tick, last_tick
		FROM candles
		WHERE round_id = ?
		ORDER BY candle_index ASC
	`

	rows, err := s.conn.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []*domain.Candle
	for rows.Next() {
		var c domain.Candle
		var index, first, last uint64
		if err := rows.Scan(&c.RoundID, &index, &c.Open, &c.High, &c.Low, &c.Close, &first, &last); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Index = int64(index)
		c.FirstTick = int64(first)
		c.LastTick = int64(last)
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}
	return candles, nil
}

func (s *CandleStore) exists(ctx context.Context, roundID string, index int64) (bool, error) {
	query := `SELECT count() FROM candles WHERE round_id = ? AND candle_index = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, roundID, uint64(index)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
