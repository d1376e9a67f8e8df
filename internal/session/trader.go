package session

import (
	"log"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/ledger"
	"rugs-bot/internal/observability"
	"rugs-bot/internal/risk"
	"rugs-bot/internal/strategy"
)

// gatedTrader is the trade surface handed to strategies: every intent
// passes the risk gate before it can touch the ledger. It runs on the
// pipeline goroutine, so round state reads are race-free.
type gatedTrader struct {
	s *Session
}

// Compile-time interface check.
var _ strategy.Trader = (*gatedTrader)(nil)

// SimulateBuy gates and executes a buy. A rejection or failed fill is a
// routine result carrying its reason, never an error.
func (t *gatedTrader) SimulateBuy(req ledger.BuyRequest) ledger.BuyResult {
	rctx, ok := t.roundContext(req.PlayerID, req.GameID)
	if !ok {
		observability.RecordTradeRejected(risk.ReasonNoPrice)
		return ledger.BuyResult{Reason: risk.ReasonNoPrice}
	}
	rctx.SpentThisRound = t.s.spent[req.StrategyName]

	intent := domain.TradeIntent{
		Type:        domain.TradeBuy,
		PlayerID:    req.PlayerID,
		StrategyID:  req.StrategyName,
		RoundID:     req.GameID,
		AmountSOL:   req.AmountToSpend,
		Price:       rctx.Price,
		PresaleOnly: req.Presale,
	}

	if res := t.s.gate.Check(req.StrategyName, intent, rctx); !res.Approved {
		t.reject(req.StrategyName, "buy", res.Reason)
		return ledger.BuyResult{Reason: res.Reason}
	}

	fill := t.s.book.ExecuteBuy(req.PlayerID, req.StrategyName, req.GameID, req.AmountToSpend, rctx.Price)
	t.s.pendingFills = append(t.s.pendingFills, fill)
	if fill.Success {
		t.s.spent[req.StrategyName] += fill.SolSpent
	}
	return ledger.BuyResult{Success: fill.Success, Price: fill.Price, Reason: fill.Reason}
}

// SimulateSellByPercentage gates and executes a percentage sell.
func (t *gatedTrader) SimulateSellByPercentage(req ledger.SellRequest) ledger.SellResult {
	rctx, ok := t.roundContext(req.PlayerID, req.GameID)
	if !ok {
		observability.RecordTradeRejected(risk.ReasonNoPrice)
		return ledger.SellResult{Reason: risk.ReasonNoPrice}
	}

	intent := domain.TradeIntent{
		Type:       domain.TradeSell,
		PlayerID:   req.PlayerID,
		StrategyID: req.StrategyName,
		RoundID:    req.GameID,
		Percentage: req.PercentageToSell,
		Price:      rctx.Price,
	}

	if res := t.s.gate.Check(req.StrategyName, intent, rctx); !res.Approved {
		t.reject(req.StrategyName, "sell", res.Reason)
		return ledger.SellResult{Reason: res.Reason}
	}

	fill := t.s.book.ExecuteSellByPercentage(req.PlayerID, req.StrategyName, req.GameID, req.PercentageToSell, rctx.Price)
	t.s.pendingFills = append(t.s.pendingFills, fill)
	return ledger.SellResult{
		Success:    fill.Success,
		TokensSold: fill.TokensSold,
		Proceeds:   fill.Proceeds,
		Reason:     fill.Reason,
	}
}

// roundContext builds the gate's view of the current round. A request
// against a round the engine no longer tracks has no price context.
func (t *gatedTrader) roundContext(playerID, gameID string) (risk.RoundContext, bool) {
	round, ok := t.s.engine.Round()
	if !ok || round.ID != gameID || round.Phase == domain.PhaseEnded {
		return risk.RoundContext{}, false
	}

	rctx := risk.RoundContext{
		Phase:              round.Phase,
		Price:              round.Price,
		AllowsPreRoundBuys: round.AllowsPreRoundBuys,
	}
	if pos, held := t.s.book.Position(playerID, gameID); held {
		rctx.Holdings = pos.Quantity
	}
	return rctx, true
}

func (t *gatedTrader) reject(strategyID, side, reason string) {
	observability.RecordTradeRejected(reason)
	if t.s.verbose {
		log.Printf("[session] %s %s rejected: %s", strategyID, side, reason)
	}
}
