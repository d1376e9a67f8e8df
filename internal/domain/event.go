package domain

import "fmt"

// EventType is the closed set of domain events published by the game engine.
type EventType int

const (
	EventNewRound EventType = iota
	EventPhaseChange
	EventPriceUpdate
	EventNewCandle
	EventRoundEnded
)

// String returns the event type name used in logs.
func (t EventType) String() string {
	switch t {
	case EventNewRound:
		return "new_round"
	case EventPhaseChange:
		return "phase_change"
	case EventPriceUpdate:
		return "price_update"
	case EventNewCandle:
		return "new_candle"
	case EventRoundEnded:
		return "round_ended"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// WireType returns the event name used on the read-only dashboard surface.
func (t EventType) WireType() string {
	switch t {
	case EventNewRound:
		return "game:newGame"
	case EventPhaseChange:
		return "game:phaseChange"
	case EventPriceUpdate:
		return "game:priceUpdate"
	case EventNewCandle:
		return "game:newCandle"
	case EventRoundEnded:
		return "game:rugged"
	default:
		return "game:unknown"
	}
}

// Event is an immutable domain event. The engine assigns strictly
// increasing timestamps; events are never mutated after publish.
// Variant fields are populated per Type:
//
//	EventNewRound:    Price (baseline), Tick (0)
//	EventPhaseChange: PrevPhase, Phase, Tick
//	EventPriceUpdate: Price, Tick
//	EventNewCandle:   Candle
//	EventRoundEnded:  Price (terminal), Tick (terminal)
type Event struct {
	Type      EventType
	RoundID   string
	Timestamp int64 // ms since epoch, strictly increasing per engine

	Phase     Phase
	PrevPhase Phase
	Tick      int64
	Price     float64
	Candle    *Candle
}
