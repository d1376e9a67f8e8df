package postgres

import (
	"context"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL.
type FillStore struct {
	pool *Pool
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// Insert adds a new fill. Returns ErrDuplicateKey if fill_id exists.
func (s *FillStore) Insert(ctx context.Context, f *domain.Fill) error {
	if f == nil || f.FillID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO fills (
			fill_id, success, reason, player_id, strategy_id, round_id,
			trade_type, price, tokens_bought, sol_spent, tokens_sold,
			proceeds, realized_pnl, timestamp_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)
	`

	_, err := s.pool.Exec(ctx, query,
		f.FillID, f.Success, f.Reason, f.PlayerID, f.StrategyID, f.RoundID,
		f.Type.String(), f.Price, f.TokensBought, f.SolSpent, f.TokensSold,
		f.Proceeds, f.RealizedPnL, f.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fill: %w", err)
	}

	return nil
}

// GetByRound retrieves all fills for a round, ordered by timestamp ASC.
func (s *FillStore) GetByRound(ctx context.Context, roundID string) ([]*domain.Fill, error) {
	return s.query(ctx, `WHERE round_id = $1`, roundID)
}

// GetByStrategy retrieves all fills issued by a strategy, ordered by timestamp ASC.
func (s *FillStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Fill, error) {
	return s.query(ctx, `WHERE strategy_id = $1`, strategyID)
}

// GetAll retrieves every fill, ordered by timestamp ASC.
func (s *FillStore) GetAll(ctx context.Context) ([]*domain.Fill, error) {
	return s.query(ctx, ``)
}

func (s *FillStore) query(ctx context.Context, where string, args ...any) ([]*domain.Fill, error) {
	query := `
		SELECT fill_id, success, reason, player_id, strategy_id, round_id,
		       trade_type, price, tokens_bought, sol_spent, tokens_sold,
		       proceeds, realized_pnl, timestamp_ms
		FROM fills
	` + where + `
		ORDER BY timestamp_ms ASC, fill_id ASC
	`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fills: %w", err)
	}
	defer rows.Close()

	var fills []*domain.Fill
	for rows.Next() {
		var f domain.Fill
		var tradeType string
		err := rows.Scan(
			&f.FillID, &f.Success, &f.Reason, &f.PlayerID, &f.StrategyID, &f.RoundID,
			&tradeType, &f.Price, &f.TokensBought, &f.SolSpent, &f.TokensSold,
			&f.Proceeds, &f.RealizedPnL, &f.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		if tradeType == "sell" {
			f.Type = domain.TradeSell
		} else {
			f.Type = domain.TradeBuy
		}
		fills = append(fills, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fills: %w", err)
	}
	return fills, nil
}
