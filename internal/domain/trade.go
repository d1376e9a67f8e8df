package domain

import "fmt"

// TradeType distinguishes buy and sell intents.
type TradeType int

const (
	TradeBuy TradeType = iota
	TradeSell
)

// String returns the trade type name.
func (t TradeType) String() string {
	switch t {
	case TradeBuy:
		return "buy"
	case TradeSell:
		return "sell"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// TradeIntent is a strategy-issued request to trade, prior to risk approval.
// Buys are denominated in SOL to spend; sells in percentage of holdings.
type TradeIntent struct {
	Type       TradeType
	PlayerID   string
	StrategyID string
	RoundID    string
	AmountSOL  float64 // buy: SOL to spend
	Percentage float64 // sell: percent of held quantity, 0-100 (clamped above)
	Price      float64 // price at time of request

	// PresaleOnly marks a buy that is valid only during the presale
	// phase (a pre-round entry). Such a buy is rejected once the round
	// is active.
	PresaleOnly bool
}

// Fill is the result of applying an approved trade intent to the ledger.
// Failed fills carry Success=false and a Reason; they are routine results,
// not errors.
type Fill struct {
	FillID     string
	Success    bool
	Reason     string
	PlayerID   string
	StrategyID string
	RoundID    string
	Type       TradeType
	Price      float64

	// Buy side
	TokensBought float64
	SolSpent     float64

	// Sell side
	TokensSold float64
	Proceeds   float64

	RealizedPnL float64 // realized on this fill (sells only)
	Timestamp   int64   // ms
}

// Position is one player's holding for one round.
// Invariant: Quantity >= 0; AvgEntryPrice is meaningless at Quantity 0.
type Position struct {
	PlayerID      string
	RoundID       string
	Quantity      float64
	AvgEntryPrice float64
	RealizedPnL   float64
}

// UnrealizedPnL returns the open P&L of the position at the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return p.Quantity * (price - p.AvgEntryPrice)
}
