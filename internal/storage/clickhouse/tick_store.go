package clickhouse

import (
	"context"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// TickStore implements storage.TickStore using ClickHouse.
type TickStore struct {
	conn *Conn
}

// NewTickStore creates a new TickStore.
func NewTickStore(conn *Conn) *TickStore {
	return &TickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk adds multiple ticks. Fails entire batch on duplicate (round_id, tick).
func (s *TickStore) InsertBulk(ctx context.Context, ticks []*domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		roundID string
		tick    int64
	}
	seen := make(map[key]struct{})
	for _, t := range ticks {
		if t == nil || t.RoundID == "" {
			return storage.ErrInvalidInput
		}
		k := key{t.RoundID, t.Tick}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, t := range ticks {
		exists, err := s.exists(ctx, t.RoundID, t.Tick)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ticks (round_id, tick, price, timestamp_ms, phase)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range ticks {
		err = batch.Append(t.RoundID, uint64(t.Tick), t.Price, uint64(t.TimestampMs), t.Phase)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRound retrieves all ticks for a round, ordered by tick ASC.
func (s *TickStore) GetByRound(ctx context.Context, roundID string) ([]*domain.Tick, error) {
	query := `
		SELECT round_id, tick, price, timestamp_ms, phase
		FROM ticks
		WHERE round_id = ?
		ORDER BY tick ASC
	`

	rows, err := s.conn.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []*domain.Tick
	for rows.Next() {
		var t domain.Tick
		var tick, ts uint64
		if err := rows.Scan(&t.RoundID, &tick, &t.Price, &ts, &t.Phase); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		t.Tick = int64(tick)
		t.TimestampMs = int64(ts)
		ticks = append(ticks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return ticks, nil
}

func (s *TickStore) exists(ctx context.Context, roundID string, tick int64) (bool, error) {
	query := `SELECT count() FROM ticks WHERE round_id = ? AND tick = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, roundID, uint64(tick)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
