package storage

import (
	"context"

	"rugs-bot/internal/domain"
)

// FillStore provides access to executed fill storage.
type FillStore interface {
	// Insert adds a new fill. Returns ErrDuplicateKey if fill_id exists.
	Insert(ctx context.Context, f *domain.Fill) error

	// GetByRound retrieves all fills for a round, ordered by timestamp ASC.
	GetByRound(ctx context.Context, roundID string) ([]*domain.Fill, error)

	// GetByStrategy retrieves all fills issued by a strategy, ordered by timestamp ASC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Fill, error)

	// GetAll retrieves every fill, ordered by timestamp ASC.
	GetAll(ctx context.Context) ([]*domain.Fill, error)
}

// RoundStore provides access to traded-round summaries.
type RoundStore interface {
	// Insert adds a round record. Returns ErrDuplicateKey if round_key exists.
	Insert(ctx context.Context, r *domain.RoundRecord) error

	// GetByKey retrieves a round record. Returns ErrNotFound if absent.
	GetByKey(ctx context.Context, roundKey string) (*domain.RoundRecord, error)

	// GetBySession retrieves all rounds of a session, ordered by start ASC.
	GetBySession(ctx context.Context, sessionID string) ([]*domain.RoundRecord, error)
}

// SessionStore provides access to session run metadata.
type SessionStore interface {
	// Insert adds a session record. Returns ErrDuplicateKey if session_id exists.
	Insert(ctx context.Context, s *domain.SessionRecord) error

	// Finish stamps the end time and round count of a running session.
	Finish(ctx context.Context, sessionID string, endedAt int64, rounds int) error

	// GetByID retrieves a session record. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
}

// TickStore provides access to per-round price tick timeseries.
type TickStore interface {
	// InsertBulk adds multiple ticks. Fails entire batch on any duplicate
	// (round_id, tick).
	InsertBulk(ctx context.Context, ticks []*domain.Tick) error

	// GetByRound retrieves all ticks for a round, ordered by tick ASC.
	GetByRound(ctx context.Context, roundID string) ([]*domain.Tick, error)
}

// CandleStore provides access to per-round candle timeseries.
type CandleStore interface {
	// InsertBulk adds multiple candles. Fails entire batch on any duplicate
	// (round_id, index).
	InsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetByRound retrieves all candles for a round, ordered by index ASC.
	GetByRound(ctx context.Context, roundID string) ([]*domain.Candle, error)
}
