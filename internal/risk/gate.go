// Package risk evaluates proposed trade intents against configured
// per-strategy limits. The gate is a pure function of its inputs:
// deterministic, no hidden state, directly unit-testable.
package risk

import (
	"rugs-bot/internal/domain"
)

// Rejection reason strings, stable for strategies and metrics to branch on.
const (
	ReasonUnknownStrategy = "no risk limits configured for strategy"
	ReasonNoPrice         = "missing current price"
	ReasonNoHoldings      = "no holdings to sell"
	ReasonPhaseDisallowed = "buys not allowed in current phase"
	ReasonPerTradeLimit   = "per-trade spend limit exceeded"
	ReasonPerRoundLimit   = "per-round spend limit exceeded"
)

// RoundContext is the slice of round and ledger state a risk decision
// needs. The caller supplies it; the gate holds nothing mutable.
type RoundContext struct {
	Phase              domain.Phase
	Price              float64
	AllowsPreRoundBuys bool

	// Holdings is the issuing player's current quantity for the round.
	Holdings float64

	// SpentThisRound is the strategy's cumulative approved spend within
	// the current round.
	SpentThisRound float64
}

// Result is the gate's verdict. Rejections are routine outcomes, returned
// as values, never raised.
type Result struct {
	Approved bool
	Reason   string
}

func reject(reason string) Result { return Result{Reason: reason} }

// Gate holds the per-strategy limits, read-only after construction.
type Gate struct {
	limits map[string]domain.RiskLimits
}

// NewGate creates a Gate from per-strategy limits.
func NewGate(limits map[string]domain.RiskLimits) *Gate {
	copied := make(map[string]domain.RiskLimits, len(limits))
	for id, l := range limits {
		copied[id] = l
	}
	return &Gate{limits: copied}
}

// Check evaluates a trade intent. Checks run in order and short-circuit
// on the first failure:
//  1. required context (price; for sells, holdings),
//  2. per-trade ceiling,
//  3. cumulative per-round ceiling.
//
// A rejected intent must never reach the ledger.
func (g *Gate) Check(strategyID string, intent domain.TradeIntent, rctx RoundContext) Result {
	limits, ok := g.limits[strategyID]
	if !ok {
		return reject(ReasonUnknownStrategy)
	}

	if rctx.Price <= 0 {
		return reject(ReasonNoPrice)
	}

	switch intent.Type {
	case domain.TradeSell:
		if rctx.Holdings <= 0 {
			return reject(ReasonNoHoldings)
		}
		return Result{Approved: true}

	case domain.TradeBuy:
		if intent.PresaleOnly && (rctx.Phase != domain.PhasePresale || !rctx.AllowsPreRoundBuys) {
			return reject(ReasonPhaseDisallowed)
		}
		if rctx.Phase == domain.PhasePresale && !rctx.AllowsPreRoundBuys {
			return reject(ReasonPhaseDisallowed)
		}
		if rctx.Phase != domain.PhasePresale && rctx.Phase != domain.PhaseActive {
			return reject(ReasonPhaseDisallowed)
		}
		if intent.AmountSOL > limits.MaxSolPerTrade {
			return reject(ReasonPerTradeLimit)
		}
		if rctx.SpentThisRound+intent.AmountSOL > limits.MaxSolPerRound {
			return reject(ReasonPerRoundLimit)
		}
		return Result{Approved: true}

	default:
		return reject(ReasonPhaseDisallowed)
	}
}
