package reporting

import "time"

// Report is the session performance report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	SessionID   string

	// Session Summary
	Summary SessionSummary

	// Per-round results (sorted by start time)
	Rounds []RoundRow

	// Per-strategy results (sorted by strategy_id)
	Strategies []StrategyRow
}

// SessionSummary describes the session run.
type SessionSummary struct {
	CapitalSOL    float64
	StartedAt     int64 // Unix ms
	EndedAt       int64 // Unix ms, zero while running
	Rounds        int
	TotalFills    int
	TotalBuys     int
	TotalSells    int
	VolumeSOL     float64 // total SOL spent on buys
	PlayerPnL     float64 // Σ realized P&L across all fills
	HousePosition float64 // -PlayerPnL
}

// RoundRow represents one row in the round results table.
type RoundRow struct {
	RoundKey    string
	RoundID     string
	StartedAt   int64
	EndedAt     int64
	FinalPrice  float64
	PeakPrice   float64
	FinalTick   int64
	FillCount   int
	RealizedPnL float64 // Σ realized across the round's fills
}

// StrategyRow represents one row in the strategy results table.
type StrategyRow struct {
	StrategyID   string
	Fills        int
	Buys         int
	Sells        int
	Rejected     int // failed fills
	SpentSOL     float64
	ProceedsSOL  float64
	RealizedPnL  float64
	RoundsTraded int
	WinningRound int     // rounds with positive realized P&L
	WinRate      float64 // WinningRound / RoundsTraded, 0 when no rounds
}
