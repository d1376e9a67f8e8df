// Package game maintains the authoritative per-round state machine.
// It consumes decoded domain messages one at a time and publishes
// higher-level domain events; it is the single writer of round state.
package game

import (
	"encoding/json"
	"log"
	"time"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/protocol"
)

// Engine drives the round state machine. Not safe for concurrent use;
// the session pipeline calls it from a single goroutine.
type Engine struct {
	round    domain.Round
	hasRound bool
	lastTick int64
	candles  *candleBuilder

	lastEventTS int64
	verbose     bool

	// now is swappable for tests.
	now func() int64
}

// NewEngine creates an Engine with no current round.
func NewEngine(verbose bool) *Engine {
	return &Engine{
		verbose: verbose,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Round returns a copy of the current round state.
func (e *Engine) Round() (domain.Round, bool) {
	return e.round, e.hasRound
}

// HandleMessage applies one decoded message and returns the domain
// events it produced, in publish order. Unknown message types and
// stale ticks produce no events.
func (e *Engine) HandleMessage(msg *protocol.DomainMessage) []domain.Event {
	if msg == nil || msg.Type != MsgGameStateUpdate {
		if msg != nil && e.verbose {
			log.Printf("[game] ignoring message type %q", msg.Type)
		}
		return nil
	}

	var upd stateUpdate
	if err := json.Unmarshal(msg.Data, &upd); err != nil {
		log.Printf("[game] unparseable gameStateUpdate payload: %v", err)
		return nil
	}

	gameID := upd.GameID
	if gameID == "" {
		if !e.hasRound {
			return nil
		}
		gameID = e.round.ID
	}

	var events []domain.Event

	// A changed round identifier is the only way out of an ended round.
	if !e.hasRound || gameID != e.round.ID {
		events = append(events, e.startRound(gameID))
	} else if e.round.Phase == domain.PhaseEnded {
		return nil
	}

	tick, tickOK := parseInt(upd.TickCount)
	price, priceOK := parseFloat(upd.Price)

	if tickOK && tick < 0 {
		log.Printf("[game] round %s: negative tick %d ignored", gameID, tick)
		tickOK = false
	}
	if priceOK && price <= 0 {
		log.Printf("[game] round %s: non-positive price %v ignored", gameID, price)
		priceOK = false
	}

	// Replay protection: a tick at or behind the last processed one for
	// this round must not regress state or duplicate events.
	if tickOK && tick <= e.lastTick {
		return nil
	}

	if tickOK {
		e.lastTick = tick
		e.round.Tick = tick
		e.round.CandleIndex = tick / domain.TicksPerCandle
	}
	if priceOK {
		e.round.Price = price
	}
	if upd.AllowPreRoundBuys != nil {
		e.round.AllowsPreRoundBuys = *upd.AllowPreRoundBuys
	}

	// Phase resolution. The explicit rugged flag is authoritative; the
	// near-zero price floor is only a fallback for feeds without it.
	next := e.round.Phase
	switch {
	case upd.Rugged != nil && *upd.Rugged:
		e.round.Rugged = true
		next = domain.PhaseEnded
	case priceOK && e.round.Phase == domain.PhaseActive && price < domain.RugPriceFloor:
		next = domain.PhaseEnded
	case upd.Active != nil && *upd.Active:
		next = domain.PhaseActive
	case upd.Active != nil && !*upd.Active && e.round.AllowsPreRoundBuys && e.round.Phase != domain.PhaseActive:
		next = domain.PhasePresale
	}

	if next != e.round.Phase && next != domain.PhaseEnded {
		prev := e.round.Phase
		e.round.Phase = next
		events = append(events, e.event(domain.Event{
			Type:      domain.EventPhaseChange,
			RoundID:   e.round.ID,
			PrevPhase: prev,
			Phase:     next,
			Tick:      e.round.Tick,
		}))
	}

	if priceOK {
		events = append(events, e.event(domain.Event{
			Type:    domain.EventPriceUpdate,
			RoundID: e.round.ID,
			Price:   e.round.Price,
			Tick:    e.round.Tick,
			Phase:   e.round.Phase,
		}))

		if tickOK {
			if closed := e.candles.Add(tick, price); closed != nil {
				events = append(events, e.event(domain.Event{
					Type:    domain.EventNewCandle,
					RoundID: e.round.ID,
					Tick:    e.round.Tick,
					Candle:  closed,
				}))
			}
		}
	}

	if next == domain.PhaseEnded && e.round.Phase != domain.PhaseEnded {
		events = append(events, e.endRound()...)
	}

	return events
}

// startRound resets state for a newly observed round identifier.
func (e *Engine) startRound(gameID string) domain.Event {
	e.round = domain.Round{
		ID:        gameID,
		Phase:     domain.PhasePending,
		Tick:      0,
		Price:     domain.BaselinePrice,
		StartedAt: e.now(),
	}
	e.hasRound = true
	e.lastTick = -1
	e.candles = newCandleBuilder(gameID)

	if e.verbose {
		log.Printf("[game] new round %s", gameID)
	}

	return e.event(domain.Event{
		Type:    domain.EventNewRound,
		RoundID: gameID,
		Price:   domain.BaselinePrice,
		Phase:   domain.PhasePending,
	})
}

// endRound transitions to ended and publishes the terminal event. A
// candle cut short by the rug is flushed so its ticks are not lost.
func (e *Engine) endRound() []domain.Event {
	prev := e.round.Phase
	e.round.Phase = domain.PhaseEnded

	var events []domain.Event
	if partial := e.candles.Flush(); partial != nil {
		events = append(events, e.event(domain.Event{
			Type:    domain.EventNewCandle,
			RoundID: e.round.ID,
			Tick:    e.round.Tick,
			Phase:   domain.PhaseEnded,
			Candle:  partial,
		}))
	}

	events = append(events, e.event(domain.Event{
		Type:      domain.EventPhaseChange,
		RoundID:   e.round.ID,
		PrevPhase: prev,
		Phase:     domain.PhaseEnded,
		Tick:      e.round.Tick,
	}))

	events = append(events, e.event(domain.Event{
		Type:    domain.EventRoundEnded,
		RoundID: e.round.ID,
		Price:   e.round.Price,
		Tick:    e.round.Tick,
		Phase:   domain.PhaseEnded,
	}))

	if e.verbose {
		log.Printf("[game] round %s ended: price=%v tick=%d", e.round.ID, e.round.Price, e.round.Tick)
	}

	return events
}

// event stamps a strictly increasing timestamp onto ev.
func (e *Engine) event(ev domain.Event) domain.Event {
	ts := e.now()
	if ts <= e.lastEventTS {
		ts = e.lastEventTS + 1
	}
	e.lastEventTS = ts
	ev.Timestamp = ts
	return ev
}
