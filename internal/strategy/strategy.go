// Package strategy owns the set of configured strategy instances and
// dispatches domain events to their isolated per-round state.
package strategy

import (
	"rugs-bot/internal/domain"
	"rugs-bot/internal/ledger"
)

// Trader is the trade command surface handed to strategies. The session
// implements it with the risk gate in front of the ledger.
type Trader interface {
	SimulateBuy(req ledger.BuyRequest) ledger.BuyResult
	SimulateSellByPercentage(req ledger.SellRequest) ledger.SellResult
}

// Strategy is the fixed lifecycle contract every strategy implements.
// The runtime enforces the order: ValidateConfig → Initialize → Start →
// event dispatch → Stop → Shutdown. A strategy failing ValidateConfig
// is never started.
type Strategy interface {
	// ID identifies the instance, including its parameters.
	ID() string

	// ValidateConfig checks the static configuration. Must succeed
	// before Initialize is called.
	ValidateConfig() error

	// Initialize subscribes to the event types the strategy needs.
	Initialize(rt *Runtime) error

	// Start marks the strategy live. Events are delivered only between
	// Start and Stop.
	Start()

	// Stop halts event delivery. The RoundEnded cleanup hook still runs.
	Stop()

	// Shutdown releases all resources after the final Stop.
	Shutdown()

	// OnEvent handles one domain event. Errors are logged by the runtime
	// and never block delivery to other strategies.
	OnEvent(ev domain.Event) error
}

// RoundCleaner is implemented by strategies that want a callback when a
// round's private state is about to be deleted.
type RoundCleaner interface {
	CleanupRound(roundID string)
}
