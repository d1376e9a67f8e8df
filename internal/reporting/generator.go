// Package reporting produces session performance reports from stored
// rounds and fills, rendered as Markdown or CSV.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	sessionStore storage.SessionStore
	roundStore   storage.RoundStore
	fillStore    storage.FillStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	sessionStore storage.SessionStore,
	roundStore storage.RoundStore,
	fillStore storage.FillStore,
) *Generator {
	return &Generator{
		sessionStore: sessionStore,
		roundStore:   roundStore,
		fillStore:    fillStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one session.
func (g *Generator) Generate(ctx context.Context, sessionID string) (*Report, error) {
	session, err := g.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	rounds, err := g.roundStore.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}

	roundRows := make([]RoundRow, 0, len(rounds))
	fillsByRound := make(map[string][]*domain.Fill, len(rounds))
	for _, r := range rounds {
		fills, err := g.fillStore.GetByRound(ctx, r.RoundID)
		if err != nil {
			return nil, fmt.Errorf("load fills for round %s: %w", r.RoundID, err)
		}
		fillsByRound[r.RoundID] = fills

		row := RoundRow{
			RoundKey:   r.RoundKey,
			RoundID:    r.RoundID,
			StartedAt:  r.StartedAt,
			EndedAt:    r.EndedAt,
			FinalPrice: r.FinalPrice,
			PeakPrice:  r.PeakPrice,
			FinalTick:  r.FinalTick,
			FillCount:  r.FillCount,
		}
		for _, f := range fills {
			if f.Success {
				row.RealizedPnL += f.RealizedPnL
			}
		}
		roundRows = append(roundRows, row)
	}

	summary := g.generateSummary(session, roundRows, fillsByRound)
	strategies := g.generateStrategyRows(fillsByRound)

	return &Report{
		GeneratedAt: g.now(),
		SessionID:   sessionID,
		Summary:     summary,
		Rounds:      roundRows,
		Strategies:  strategies,
	}, nil
}

func (g *Generator) generateSummary(session *domain.SessionRecord, rounds []RoundRow, fillsByRound map[string][]*domain.Fill) SessionSummary {
	s := SessionSummary{
		CapitalSOL: session.CapitalSOL,
		StartedAt:  session.StartedAt,
		EndedAt:    session.EndedAt,
		Rounds:     len(rounds),
	}

	for _, fills := range fillsByRound {
		for _, f := range fills {
			if !f.Success {
				continue
			}
			s.TotalFills++
			switch f.Type {
			case domain.TradeBuy:
				s.TotalBuys++
				s.VolumeSOL += f.SolSpent
			case domain.TradeSell:
				s.TotalSells++
			}
			s.PlayerPnL += f.RealizedPnL
		}
	}
	s.HousePosition = -s.PlayerPnL
	return s
}

// generateStrategyRows aggregates fills per strategy across all rounds.
// Liquidation fills carry no strategy id and are folded into the round
// totals only.
func (g *Generator) generateStrategyRows(fillsByRound map[string][]*domain.Fill) []StrategyRow {
	type acc struct {
		row         StrategyRow
		pnlPerRound map[string]float64
	}
	byStrategy := make(map[string]*acc)

	for roundID, fills := range fillsByRound {
		for _, f := range fills {
			if f.StrategyID == "" {
				continue
			}
			a, ok := byStrategy[f.StrategyID]
			if !ok {
				a = &acc{
					row:         StrategyRow{StrategyID: f.StrategyID},
					pnlPerRound: make(map[string]float64),
				}
				byStrategy[f.StrategyID] = a
			}

			if !f.Success {
				a.row.Rejected++
				continue
			}
			a.row.Fills++
			switch f.Type {
			case domain.TradeBuy:
				a.row.Buys++
				a.row.SpentSOL += f.SolSpent
			case domain.TradeSell:
				a.row.Sells++
				a.row.ProceedsSOL += f.Proceeds
			}
			a.row.RealizedPnL += f.RealizedPnL
			if _, seen := a.pnlPerRound[roundID]; !seen {
				a.pnlPerRound[roundID] = 0
			}
			a.pnlPerRound[roundID] += f.RealizedPnL
		}
	}

	rows := make([]StrategyRow, 0, len(byStrategy))
	for _, a := range byStrategy {
		a.row.RoundsTraded = len(a.pnlPerRound)
		for _, pnl := range a.pnlPerRound {
			if pnl > 0 {
				a.row.WinningRound++
			}
		}
		if a.row.RoundsTraded > 0 {
			a.row.WinRate = float64(a.row.WinningRound) / float64(a.row.RoundsTraded)
		}
		rows = append(rows, a.row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].StrategyID < rows[j].StrategyID })
	return rows
}
