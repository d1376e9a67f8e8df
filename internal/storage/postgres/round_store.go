package postgres

import (
	"context"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// RoundStore implements storage.RoundStore using PostgreSQL.
type RoundStore struct {
	pool *Pool
}

// NewRoundStore creates a new RoundStore.
func NewRoundStore(pool *Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RoundStore = (*RoundStore)(nil)

// Insert adds a round record. Returns ErrDuplicateKey if round_key exists.
func (s *RoundStore) Insert(ctx context.Context, r *domain.RoundRecord) error {
	if r == nil || r.RoundKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO rounds (
			round_key, round_id, session_id, started_at, ended_at,
			final_price, final_tick, peak_price, fill_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RoundKey, r.RoundID, r.SessionID, r.StartedAt, r.EndedAt,
		r.FinalPrice, r.FinalTick, r.PeakPrice, r.FillCount,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert round: %w", err)
	}

	return nil
}

// GetByKey retrieves a round record. Returns ErrNotFound if absent.
func (s *RoundStore) GetByKey(ctx context.Context, roundKey string) (*domain.RoundRecord, error) {
	query := `
		SELECT round_key, round_id, session_id, started_at, ended_at,
		       final_price, final_tick, peak_price, fill_count
		FROM rounds
		WHERE round_key = $1
	`

	var r domain.RoundRecord
	err := s.pool.QueryRow(ctx, query, roundKey).Scan(
		&r.RoundKey, &r.RoundID, &r.SessionID, &r.StartedAt, &r.EndedAt,
		&r.FinalPrice, &r.FinalTick, &r.PeakPrice, &r.FillCount,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get round: %w", err)
	}

	return &r, nil
}

// GetBySession retrieves all rounds of a session, ordered by start ASC.
func (s *RoundStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.RoundRecord, error) {
	query := `
		SELECT round_key, round_id, session_id, started_at, ended_at,
		       final_price, final_tick, peak_price, fill_count
		FROM rounds
		WHERE session_id = $1
		ORDER BY started_at ASC, round_key ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*domain.RoundRecord
	for rows.Next() {
		var r domain.RoundRecord
		err := rows.Scan(
			&r.RoundKey, &r.RoundID, &r.SessionID, &r.StartedAt, &r.EndedAt,
			&r.FinalPrice, &r.FinalTick, &r.PeakPrice, &r.FillCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rounds = append(rounds, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return rounds, nil
}
