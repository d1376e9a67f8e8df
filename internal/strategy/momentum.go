package strategy

import (
	"errors"
	"fmt"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/ledger"
)

// MomentumStrategy enters after a run of consecutive rising ticks during
// the active phase and exits on a trailing stop measured from the peak
// price since entry.
type MomentumStrategy struct {
	PlayerID    string
	BuySOL      float64
	RisingTicks int
	TrailPct    float64 // 0.10 = exit 10% below peak

	rt *Runtime
}

type momentumRoundState struct {
	lastPrice float64
	rising    int
	entered   bool
	exited    bool
	peak      float64
}

// NewMomentumStrategy creates a MomentumStrategy.
func NewMomentumStrategy(playerID string, buySOL float64, risingTicks int, trailPct float64) *MomentumStrategy {
	return &MomentumStrategy{
		PlayerID:    playerID,
		BuySOL:      buySOL,
		RisingTicks: risingTicks,
		TrailPct:    trailPct,
	}
}

// ID returns the strategy identifier including parameters.
func (s *MomentumStrategy) ID() string {
	return fmt.Sprintf("MOMENTUM_%s_buy%.4f_n%d_trail%.0f", s.PlayerID, s.BuySOL, s.RisingTicks, s.TrailPct*100)
}

// ValidateConfig checks the static configuration.
func (s *MomentumStrategy) ValidateConfig() error {
	if s.PlayerID == "" {
		return errors.New("player id required")
	}
	if s.BuySOL <= 0 {
		return fmt.Errorf("buy amount must be positive, got %v", s.BuySOL)
	}
	if s.RisingTicks < 1 {
		return fmt.Errorf("rising ticks must be at least 1, got %d", s.RisingTicks)
	}
	if s.TrailPct <= 0 || s.TrailPct >= 1 {
		return fmt.Errorf("trail pct must be in (0, 1), got %v", s.TrailPct)
	}
	return nil
}

// Initialize subscribes to price updates.
func (s *MomentumStrategy) Initialize(rt *Runtime) error {
	s.rt = rt
	rt.Subscribe(s, domain.EventPriceUpdate)
	return nil
}

func (s *MomentumStrategy) Start()    {}
func (s *MomentumStrategy) Stop()     {}
func (s *MomentumStrategy) Shutdown() { s.rt = nil }

// OnEvent tracks the rising-tick run and the trailing stop.
func (s *MomentumStrategy) OnEvent(ev domain.Event) error {
	if ev.Type != domain.EventPriceUpdate {
		return nil
	}

	st := s.roundState(ev.RoundID)
	defer func() { st.lastPrice = ev.Price }()

	if ev.Phase != domain.PhaseActive || st.exited {
		return nil
	}

	if !st.entered {
		if st.lastPrice > 0 && ev.Price > st.lastPrice {
			st.rising++
		} else {
			st.rising = 0
		}
		if st.rising < s.RisingTicks {
			return nil
		}
		res := s.rt.Trader().SimulateBuy(ledger.BuyRequest{
			PlayerID:      s.PlayerID,
			Currency:      "SOL",
			AmountToSpend: s.BuySOL,
			StrategyName:  s.ID(),
			GameID:        ev.RoundID,
		})
		if res.Success {
			st.entered = true
			st.peak = ev.Price
		}
		return nil
	}

	if ev.Price > st.peak {
		st.peak = ev.Price
		return nil
	}

	if ev.Price <= st.peak*(1-s.TrailPct) {
		res := s.rt.Trader().SimulateSellByPercentage(ledger.SellRequest{
			PlayerID:         s.PlayerID,
			Currency:         "SOL",
			PercentageToSell: 100,
			StrategyName:     s.ID(),
			GameID:           ev.RoundID,
		})
		if res.Success {
			st.exited = true
		}
	}

	return nil
}

func (s *MomentumStrategy) roundState(roundID string) *momentumRoundState {
	return s.rt.RoundState(s.ID(), roundID, func() any {
		return &momentumRoundState{}
	}).(*momentumRoundState)
}
