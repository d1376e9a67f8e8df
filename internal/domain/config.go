package domain

// Strategy type identifiers.
const (
	StrategyTypeSniper   = "SNIPER"
	StrategyTypeMomentum = "MOMENTUM"
)

// StrategyConfig is the declarative configuration for one strategy instance.
// Optional parameters are pointers; the strategy factory validates presence
// per strategy type at construction.
type StrategyConfig struct {
	StrategyType string `yaml:"strategy_type"`
	PlayerID     string `yaml:"player_id"`

	// SNIPER params
	BuySOL           *float64 `yaml:"buy_sol,omitempty"`            // SOL spent on the presale buy
	TargetMultiplier *float64 `yaml:"target_multiplier,omitempty"`  // exit when price reaches this

	// MOMENTUM params
	RisingTicks *int     `yaml:"rising_ticks,omitempty"` // consecutive rising ticks before entry
	TrailPct    *float64 `yaml:"trail_pct,omitempty"`    // trailing stop, 0.10 = 10% off peak
}

// RiskLimits are the per-strategy ceilings enforced by the risk gate.
// Read-only inputs; zero value means "no trading allowed".
type RiskLimits struct {
	MaxSolPerTrade float64 `yaml:"max_sol_per_trade"`
	MaxSolPerRound float64 `yaml:"max_sol_per_round"`
}
