package strategy

import (
	"errors"

	"rugs-bot/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrMissingPlayerID     = errors.New("strategy requires PlayerID")
	ErrMissingBuySOL       = errors.New("strategy requires BuySOL")
	ErrMissingTarget       = errors.New("SNIPER requires TargetMultiplier")
	ErrMissingRisingTicks  = errors.New("MOMENTUM requires RisingTicks")
	ErrMissingTrailPct     = errors.New("MOMENTUM requires TrailPct")
)

// FromConfig creates a Strategy from a domain.StrategyConfig.
// Validates required parameters per strategy type and returns clear
// errors for missing params.
func FromConfig(cfg domain.StrategyConfig) (Strategy, error) {
	if cfg.PlayerID == "" {
		return nil, ErrMissingPlayerID
	}

	switch cfg.StrategyType {
	case domain.StrategyTypeSniper:
		return fromSniperConfig(cfg)
	case domain.StrategyTypeMomentum:
		return fromMomentumConfig(cfg)
	default:
		return nil, ErrUnknownStrategyType
	}
}

func fromSniperConfig(cfg domain.StrategyConfig) (*SniperStrategy, error) {
	if cfg.BuySOL == nil {
		return nil, ErrMissingBuySOL
	}
	if cfg.TargetMultiplier == nil {
		return nil, ErrMissingTarget
	}
	return NewSniperStrategy(cfg.PlayerID, *cfg.BuySOL, *cfg.TargetMultiplier), nil
}

func fromMomentumConfig(cfg domain.StrategyConfig) (*MomentumStrategy, error) {
	if cfg.BuySOL == nil {
		return nil, ErrMissingBuySOL
	}
	if cfg.RisingTicks == nil {
		return nil, ErrMissingRisingTicks
	}
	if cfg.TrailPct == nil {
		return nil, ErrMissingTrailPct
	}
	return NewMomentumStrategy(cfg.PlayerID, *cfg.BuySOL, *cfg.RisingTicks, *cfg.TrailPct), nil
}
