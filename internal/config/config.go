// Package config loads and validates the YAML session configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/wallet"
)

// Validation errors.
var (
	ErrNoStrategies = errors.New("config: at least one strategy is required")
	ErrNoRiskLimits = errors.New("config: strategy has no risk limits")
)

// FeedConfig points the bot at the live game feed.
type FeedConfig struct {
	URL           string `yaml:"url"`
	RecordingPath string `yaml:"recording_path"` // optional; tee frames to JSONL
}

// StorageConfig selects the persistence backends. Empty DSNs fall back
// to in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// SessionConfig is the full declarative configuration for one bot session.
type SessionConfig struct {
	Capital    float64                      `yaml:"capital"` // starting bankroll in SOL, informational
	Feed       FeedConfig                   `yaml:"feed"`
	Storage    StorageConfig                `yaml:"storage"`
	Strategies []domain.StrategyConfig      `yaml:"strategies"`
	Risk       map[string]domain.RiskLimits `yaml:"risk"` // keyed by player_id
	Verbose    bool                         `yaml:"verbose"`
}

// Load reads a session configuration from a YAML file and validates it.
func Load(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems that would
// otherwise surface mid-session.
func (c *SessionConfig) Validate() error {
	if len(c.Strategies) == 0 {
		return ErrNoStrategies
	}

	for i, sc := range c.Strategies {
		if sc.PlayerID == "" {
			return fmt.Errorf("config: strategy %d: player_id is required", i)
		}
		if err := wallet.Validate(sc.PlayerID); err != nil {
			return fmt.Errorf("config: strategy %d: player_id %q: %w", i, sc.PlayerID, err)
		}
		if _, ok := c.Risk[sc.PlayerID]; !ok {
			return fmt.Errorf("%w: player %s", ErrNoRiskLimits, sc.PlayerID)
		}
	}

	for player, limits := range c.Risk {
		if limits.MaxSolPerTrade < 0 || limits.MaxSolPerRound < 0 {
			return fmt.Errorf("config: risk limits for %s must be non-negative", player)
		}
		if limits.MaxSolPerTrade > limits.MaxSolPerRound && limits.MaxSolPerRound > 0 {
			return fmt.Errorf("config: per-trade limit exceeds per-round limit for %s", player)
		}
	}

	if c.Capital < 0 {
		return errors.New("config: capital must be non-negative")
	}
	return nil
}
