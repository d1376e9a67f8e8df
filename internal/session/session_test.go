package session

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage/memory"
)

const tolerance = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < tolerance }

// stubSource delivers pre-loaded frames then closes, ending the run.
type stubSource struct {
	frames chan []byte
}

func newStubSource(frames ...[]byte) *stubSource {
	s := &stubSource{frames: make(chan []byte, len(frames))}
	for _, f := range frames {
		s.frames <- f
	}
	close(s.frames)
	return s
}

func (s *stubSource) Frames() <-chan []byte { return s.frames }
func (s *stubSource) Close() error          { return nil }

func presaleFrame(gameID string) []byte {
	return []byte(fmt.Sprintf(`42["gameStateUpdate",{"gameId":%q,"active":false,"allowPreRoundBuys":true}]`, gameID))
}

func tickFrame(gameID string, tick int64, price float64) []byte {
	return []byte(fmt.Sprintf(`42["gameStateUpdate",{"gameId":%q,"active":true,"tickCount":%d,"price":%v}]`, gameID, tick, price))
}

func rugFrame(gameID string, tick int64) []byte {
	return []byte(fmt.Sprintf(`42["gameStateUpdate",{"gameId":%q,"active":true,"rugged":true,"tickCount":%d,"price":0.00005}]`, gameID, tick))
}

type testStores struct {
	fills    *memory.FillStore
	rounds   *memory.RoundStore
	sessions *memory.SessionStore
	ticks    *memory.TickStore
	candles  *memory.CandleStore
}

func newTestSession(t *testing.T, frames ...[]byte) (*Session, *testStores) {
	t.Helper()

	stores := &testStores{
		fills:    memory.NewFillStore(),
		rounds:   memory.NewRoundStore(),
		sessions: memory.NewSessionStore(),
		ticks:    memory.NewTickStore(),
		candles:  memory.NewCandleStore(),
	}

	buy := 0.01
	target := 2.0
	s, err := New(Options{
		Source: newStubSource(frames...),
		Strategies: []domain.StrategyConfig{{
			StrategyType:     domain.StrategyTypeSniper,
			PlayerID:         "player-1",
			BuySOL:           &buy,
			TargetMultiplier: &target,
		}},
		Risk: map[string]domain.RiskLimits{
			"player-1": {MaxSolPerTrade: 0.05, MaxSolPerRound: 0.10},
		},
		FillStore:    stores.fills,
		RoundStore:   stores.rounds,
		SessionStore: stores.sessions,
		TickStore:    stores.ticks,
		CandleStore:  stores.candles,
		CapitalSOL:   1.0,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, stores
}

// pickFills splits a two-fill round into its buy and sell legs. Fill
// timestamps have millisecond resolution, so index order is not reliable
// in a fast test run.
func pickFills(t *testing.T, fills []*domain.Fill) (buy, sell *domain.Fill) {
	t.Helper()
	for _, f := range fills {
		switch f.Type {
		case domain.TradeBuy:
			buy = f
		case domain.TradeSell:
			sell = f
		}
	}
	if buy == nil || sell == nil {
		t.Fatalf("expected one buy and one sell, got %+v", fills)
	}
	return buy, sell
}

func runSession(t *testing.T, s *Session) *RunResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

// A full winning round: presale buy at baseline, exit at the target
// multiplier, then the rug.
func TestSession_SniperRoundTrip(t *testing.T) {
	s, stores := newTestSession(t,
		presaleFrame("g-1"),
		tickFrame("g-1", 1, 1.2),
		tickFrame("g-1", 2, 1.5),
		tickFrame("g-1", 3, 2.0),
		rugFrame("g-1", 4),
	)
	result := runSession(t, s)

	if result.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", result.Rounds)
	}
	if result.Fills != 2 {
		t.Errorf("Fills = %d, want 2 (buy + sell)", result.Fills)
	}
	// Player made +0.01: bought 0.01 tokens at 1.0, sold at 2.0.
	if !approx(result.HousePosition, -0.01) {
		t.Errorf("HousePosition = %v, want -0.01", result.HousePosition)
	}

	ctx := context.Background()

	fills, err := stores.fills.GetByRound(ctx, "g-1")
	if err != nil {
		t.Fatalf("GetByRound: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("persisted %d fills, want 2", len(fills))
	}
	buy, sell := pickFills(t, fills)
	if !buy.Success {
		t.Fatalf("buy fill failed: %+v", buy)
	}
	if !approx(buy.SolSpent, 0.01) || !approx(buy.TokensBought, 0.01) || buy.Price != 1.0 {
		t.Errorf("buy fill wrong: %+v", buy)
	}
	if !sell.Success {
		t.Fatalf("sell fill failed: %+v", sell)
	}
	if !approx(sell.Proceeds, 0.02) || !approx(sell.RealizedPnL, 0.01) || sell.Price != 2.0 {
		t.Errorf("sell fill wrong: %+v", sell)
	}

	rounds, err := stores.rounds.GetBySession(ctx, s.ID())
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("persisted %d rounds, want 1", len(rounds))
	}
	rec := rounds[0]
	if rec.RoundID != "g-1" || rec.FillCount != 2 {
		t.Errorf("round record wrong: %+v", rec)
	}
	if rec.PeakPrice != 2.0 {
		t.Errorf("PeakPrice = %v, want 2.0", rec.PeakPrice)
	}
	if rec.FinalPrice != 0.00005 || rec.FinalTick != 4 {
		t.Errorf("terminal state wrong: %+v", rec)
	}

	ticks, err := stores.ticks.GetByRound(ctx, "g-1")
	if err != nil {
		t.Fatalf("ticks GetByRound: %v", err)
	}
	if len(ticks) < 3 {
		t.Errorf("persisted %d ticks, want at least 3", len(ticks))
	}

	// The rug cut candle 0 short; its ticks still persist as a partial.
	candles, err := stores.candles.GetByRound(ctx, "g-1")
	if err != nil {
		t.Fatalf("candles GetByRound: %v", err)
	}
	if len(candles) == 0 {
		t.Fatal("no candles persisted")
	}

	session, err := stores.sessions.GetByID(ctx, s.ID())
	if err != nil {
		t.Fatalf("session GetByID: %v", err)
	}
	if session.EndedAt == 0 || session.Rounds != 1 {
		t.Errorf("session record not finished: %+v", session)
	}
}

// Feed closes while a position is open: the session liquidates at the
// last seen price and still writes the round record.
func TestSession_ShutdownLiquidatesOpenRound(t *testing.T) {
	s, stores := newTestSession(t,
		presaleFrame("g-1"),
		tickFrame("g-1", 1, 1.2),
		tickFrame("g-1", 2, 1.5),
	)
	result := runSession(t, s)

	if result.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", result.Rounds)
	}
	// Bought 0.01 tokens at 1.0, liquidated at 1.5: player +0.005.
	if !approx(result.HousePosition, -0.005) {
		t.Errorf("HousePosition = %v, want -0.005", result.HousePosition)
	}

	ctx := context.Background()
	fills, err := stores.fills.GetByRound(ctx, "g-1")
	if err != nil {
		t.Fatalf("GetByRound: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("persisted %d fills, want buy + liquidation", len(fills))
	}
	_, liq := pickFills(t, fills)
	if liq.StrategyID != "" {
		t.Errorf("liquidation fill carries a strategy id: %+v", liq)
	}
	if liq.Price != 1.5 || !approx(liq.RealizedPnL, 0.005) {
		t.Errorf("liquidation economics wrong: %+v", liq)
	}

	rounds, err := stores.rounds.GetBySession(ctx, s.ID())
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("persisted %d rounds, want 1", len(rounds))
	}
	if rounds[0].FinalPrice != 1.5 {
		t.Errorf("FinalPrice = %v, want last seen 1.5", rounds[0].FinalPrice)
	}
}

// A fresh game id while the previous round is still open abandons it:
// holdings are liquidated at the last recorded price.
func TestSession_AbandonedRoundFinalized(t *testing.T) {
	s, stores := newTestSession(t,
		presaleFrame("g-1"),
		tickFrame("g-1", 1, 1.3),
		presaleFrame("g-2"),
		tickFrame("g-2", 1, 1.1),
		rugFrame("g-2", 2),
	)
	result := runSession(t, s)

	if result.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", result.Rounds)
	}

	ctx := context.Background()
	rounds, err := stores.rounds.GetBySession(ctx, s.ID())
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("persisted %d rounds, want 2", len(rounds))
	}
	if rounds[0].RoundID != "g-1" || rounds[0].FinalPrice != 1.3 {
		t.Errorf("abandoned round record wrong: %+v", rounds[0])
	}

	// g-1's position was liquidated at 1.3 (+0.003), g-2's rebuy died in
	// the rug at 0.00005.
	g1, err := stores.fills.GetByRound(ctx, "g-1")
	if err != nil {
		t.Fatalf("GetByRound g-1: %v", err)
	}
	if len(g1) != 2 {
		t.Fatalf("g-1 fills wrong: %+v", g1)
	}
	if _, liq := pickFills(t, g1); liq.Price != 1.3 {
		t.Errorf("g-1 liquidation price = %v, want last seen 1.3", liq.Price)
	}

	g2, err := stores.fills.GetByRound(ctx, "g-2")
	if err != nil {
		t.Fatalf("GetByRound g-2: %v", err)
	}
	if len(g2) != 2 {
		t.Fatalf("g-2 fills wrong: %+v", g2)
	}
	if _, liq := pickFills(t, g2); liq.Price != 0.00005 {
		t.Errorf("g-2 liquidation price = %v", liq.Price)
	}

	wantHouse := -(0.003 + (0.01*0.00005 - 0.01))
	if !approx(result.HousePosition, wantHouse) {
		t.Errorf("HousePosition = %v, want %v", result.HousePosition, wantHouse)
	}
}

// A round abandoned straight from presale never recorded a price tick;
// its presale position still gets liquidated, at the baseline price.
func TestSession_PresaleOnlyRoundAbandoned(t *testing.T) {
	s, stores := newTestSession(t,
		presaleFrame("g-1"),
		presaleFrame("g-2"),
		tickFrame("g-2", 1, 1.1),
		rugFrame("g-2", 2),
	)
	result := runSession(t, s)

	if result.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", result.Rounds)
	}

	ctx := context.Background()
	rounds, err := stores.rounds.GetBySession(ctx, s.ID())
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("persisted %d rounds, want 2", len(rounds))
	}
	if rounds[0].RoundID != "g-1" || rounds[0].FinalPrice != domain.BaselinePrice {
		t.Errorf("presale-only round record wrong: %+v", rounds[0])
	}

	// The presale buy executed at baseline and was unwound at baseline,
	// so g-1 washes out.
	g1, err := stores.fills.GetByRound(ctx, "g-1")
	if err != nil {
		t.Fatalf("GetByRound g-1: %v", err)
	}
	if len(g1) != 2 {
		t.Fatalf("g-1 fills wrong: %+v", g1)
	}
	_, liq := pickFills(t, g1)
	if liq.Price != domain.BaselinePrice || !approx(liq.RealizedPnL, 0) {
		t.Errorf("g-1 liquidation wrong: %+v", liq)
	}

	// No stale g-1 position may bleed into g-2's accounting.
	for _, pos := range s.Book().Snapshot().Positions {
		if pos.RoundID == "g-1" {
			t.Errorf("g-1 position outlived its round: %+v", pos)
		}
	}
	wantHouse := -(0.01*0.00005 - 0.01)
	if !approx(result.HousePosition, wantHouse) {
		t.Errorf("HousePosition = %v, want %v", result.HousePosition, wantHouse)
	}
}

// A buy past the per-trade ceiling never reaches the ledger; gate
// rejections leave no fill record.
func TestSession_GateRejectionLeavesNoFill(t *testing.T) {
	stores := &testStores{
		fills:    memory.NewFillStore(),
		rounds:   memory.NewRoundStore(),
		sessions: memory.NewSessionStore(),
		ticks:    memory.NewTickStore(),
		candles:  memory.NewCandleStore(),
	}

	buy := 0.05
	target := 2.0
	s, err := New(Options{
		Source: newStubSource(
			presaleFrame("g-1"),
			rugFrame("g-1", 1),
		),
		Strategies: []domain.StrategyConfig{{
			StrategyType:     domain.StrategyTypeSniper,
			PlayerID:         "player-1",
			BuySOL:           &buy,
			TargetMultiplier: &target,
		}},
		Risk: map[string]domain.RiskLimits{
			"player-1": {MaxSolPerTrade: 0.01, MaxSolPerRound: 0.01},
		},
		FillStore:    stores.fills,
		RoundStore:   stores.rounds,
		SessionStore: stores.sessions,
		TickStore:    stores.ticks,
		CandleStore:  stores.candles,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result := runSession(t, s)

	// The gate rejected the buy before the ledger, so no fill record and
	// nothing for the house to account.
	if result.HousePosition != 0 {
		t.Errorf("HousePosition = %v, want 0", result.HousePosition)
	}
	fills, err := stores.fills.GetByRound(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("GetByRound: %v", err)
	}
	if len(fills) != 0 {
		t.Errorf("persisted %d fills, want 0 (gate rejection precedes the ledger)", len(fills))
	}
}
