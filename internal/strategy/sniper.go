package strategy

import (
	"errors"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/ledger"
)

// SniperStrategy buys a fixed SOL amount during presale and sells the
// whole position once the price reaches a target multiplier. Anything
// still held at the rug is lost to the terminal price.
type SniperStrategy struct {
	PlayerID         string
	BuySOL           float64
	TargetMultiplier float64

	rt *Runtime
}

// sniperRoundState is the strategy's private per-round state.
type sniperRoundState struct {
	bought bool
	sold   bool
}

// NewSniperStrategy creates a SniperStrategy.
func NewSniperStrategy(playerID string, buySOL, targetMultiplier float64) *SniperStrategy {
	return &SniperStrategy{
		PlayerID:         playerID,
		BuySOL:           buySOL,
		TargetMultiplier: targetMultiplier,
	}
}

// ID returns the strategy identifier including parameters.
func (s *SniperStrategy) ID() string {
	return fmt.Sprintf("SNIPER_%s_buy%.4f_x%.2f", s.PlayerID, s.BuySOL, s.TargetMultiplier)
}

// ValidateConfig checks the static configuration.
func (s *SniperStrategy) ValidateConfig() error {
	if s.PlayerID == "" {
		return errors.New("player id required")
	}
	if s.BuySOL <= 0 {
		return fmt.Errorf("buy amount must be positive, got %v", s.BuySOL)
	}
	if s.TargetMultiplier <= 1 {
		return fmt.Errorf("target multiplier must exceed 1.0, got %v", s.TargetMultiplier)
	}
	return nil
}

// Initialize subscribes to phase changes and price updates.
func (s *SniperStrategy) Initialize(rt *Runtime) error {
	s.rt = rt
	rt.Subscribe(s, domain.EventPhaseChange, domain.EventPriceUpdate)
	return nil
}

func (s *SniperStrategy) Start()    {}
func (s *SniperStrategy) Stop()     {}
func (s *SniperStrategy) Shutdown() { s.rt = nil }

// OnEvent enters on presale and exits at the target multiplier.
func (s *SniperStrategy) OnEvent(ev domain.Event) error {
	st := s.roundState(ev.RoundID)

	switch ev.Type {
	case domain.EventPhaseChange:
		if ev.Phase != domain.PhasePresale || st.bought {
			return nil
		}
		res := s.rt.Trader().SimulateBuy(ledger.BuyRequest{
			PlayerID:      s.PlayerID,
			Currency:      "SOL",
			AmountToSpend: s.BuySOL,
			StrategyName:  s.ID(),
			GameID:        ev.RoundID,
			Presale:       true,
		})
		if res.Success {
			st.bought = true
		}
		return nil

	case domain.EventPriceUpdate:
		if !st.bought || st.sold || ev.Price < s.TargetMultiplier {
			return nil
		}
		res := s.rt.Trader().SimulateSellByPercentage(ledger.SellRequest{
			PlayerID:         s.PlayerID,
			Currency:         "SOL",
			PercentageToSell: 100,
			StrategyName:     s.ID(),
			GameID:           ev.RoundID,
		})
		if res.Success {
			st.sold = true
		}
		return nil
	}

	return nil
}

func (s *SniperStrategy) roundState(roundID string) *sniperRoundState {
	return s.rt.RoundState(s.ID(), roundID, func() any {
		return &sniperRoundState{}
	}).(*sniperRoundState)
}
