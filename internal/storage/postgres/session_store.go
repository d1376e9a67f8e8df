package postgres

import (
	"context"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// SessionStore implements storage.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Insert adds a session record. Returns ErrDuplicateKey if session_id exists.
func (s *SessionStore) Insert(ctx context.Context, rec *domain.SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sessions (session_id, started_at, ended_at, capital_sol, rounds)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.SessionID, rec.StartedAt, rec.EndedAt, rec.CapitalSOL, rec.Rounds,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Finish stamps the end time and round count of a running session.
func (s *SessionStore) Finish(ctx context.Context, sessionID string, endedAt int64, rounds int) error {
	query := `UPDATE sessions SET ended_at = $2, rounds = $3 WHERE session_id = $1`

	tag, err := s.pool.Exec(ctx, query, sessionID, endedAt, rounds)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a session record. Returns ErrNotFound if absent.
func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `
		SELECT session_id, started_at, ended_at, capital_sol, rounds
		FROM sessions
		WHERE session_id = $1
	`

	var rec domain.SessionRecord
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&rec.SessionID, &rec.StartedAt, &rec.EndedAt, &rec.CapitalSOL, &rec.Rounds,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &rec, nil
}
