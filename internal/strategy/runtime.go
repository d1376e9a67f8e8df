package strategy

import (
	"fmt"
	"log"

	"rugs-bot/internal/domain"
)

// Runtime registers strategy instances, enforces their lifecycle, and
// dispatches domain events to subscribed, active instances in
// subscription order. Dispatch is synchronous and runs on the session's
// single pipeline goroutine.
type Runtime struct {
	trader  Trader
	verbose bool

	instances []*instance
	byID      map[string]*instance
	subs      map[domain.EventType][]*instance
	arena     *arena

	// OnHandlerError, if set, observes handler failures (e.g. a metrics
	// counter). Failures never block delivery to other strategies.
	OnHandlerError func(strategyID string)
}

type instance struct {
	strategy  Strategy
	validated bool
	started   bool
	active    bool
}

// NewRuntime creates a Runtime dispatching trades through trader.
func NewRuntime(trader Trader, verbose bool) *Runtime {
	return &Runtime{
		trader:  trader,
		verbose: verbose,
		byID:    make(map[string]*instance),
		subs:    make(map[domain.EventType][]*instance),
		arena:   newArena(),
	}
}

// Trader returns the trade command surface for strategies.
func (rt *Runtime) Trader() Trader { return rt.trader }

// Register validates and records a strategy instance. A strategy that
// fails validation is recorded as rejected and never started; the error
// is returned so the caller can log it, but other strategies proceed.
func (rt *Runtime) Register(s Strategy) error {
	inst := &instance{strategy: s}
	rt.instances = append(rt.instances, inst)
	rt.byID[s.ID()] = inst

	if err := s.ValidateConfig(); err != nil {
		log.Printf("[strategy] %s failed config validation: %v", s.ID(), err)
		return fmt.Errorf("validate %s: %w", s.ID(), err)
	}
	inst.validated = true
	return nil
}

// Start runs Initialize and Start on every validated instance, in
// registration order. An Initialize failure isolates that instance.
func (rt *Runtime) Start() {
	for _, inst := range rt.instances {
		if !inst.validated {
			continue
		}
		if err := inst.strategy.Initialize(rt); err != nil {
			log.Printf("[strategy] %s initialize failed: %v", inst.strategy.ID(), err)
			continue
		}
		inst.strategy.Start()
		inst.started = true
		inst.active = true
		if rt.verbose {
			log.Printf("[strategy] %s started", inst.strategy.ID())
		}
	}
}

// Subscribe records the calling strategy's interest in event types.
// Called from Strategy.Initialize; delivery follows subscription order.
func (rt *Runtime) Subscribe(s Strategy, types ...domain.EventType) {
	inst, ok := rt.byID[s.ID()]
	if !ok {
		return
	}
	for _, t := range types {
		rt.subs[t] = append(rt.subs[t], inst)
	}
}

// Dispatch delivers one event synchronously to every active subscribed
// strategy. A handler error or panic is logged and does not prevent
// delivery to the remaining strategies. On RoundEnded the per-round
// state of all strategies is cleaned up afterwards, stopped ones
// included.
func (rt *Runtime) Dispatch(ev domain.Event) {
	for _, inst := range rt.subs[ev.Type] {
		if !inst.active {
			continue
		}
		rt.deliver(inst, ev)
	}

	if ev.Type == domain.EventRoundEnded {
		rt.cleanupRound(ev.RoundID)
	}
}

func (rt *Runtime) deliver(inst *instance, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[strategy] %s panicked on %s: %v", inst.strategy.ID(), ev.Type, r)
			if rt.OnHandlerError != nil {
				rt.OnHandlerError(inst.strategy.ID())
			}
		}
	}()

	if err := inst.strategy.OnEvent(ev); err != nil {
		log.Printf("[strategy] %s failed on %s: %v", inst.strategy.ID(), ev.Type, err)
		if rt.OnHandlerError != nil {
			rt.OnHandlerError(inst.strategy.ID())
		}
	}
}

// cleanupRound invokes cleanup hooks and deletes round state for every
// started strategy, active or not. Runs even when a handler panicked.
func (rt *Runtime) cleanupRound(roundID string) {
	for _, inst := range rt.instances {
		if !inst.started {
			continue
		}
		if cleaner, ok := inst.strategy.(RoundCleaner); ok {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[strategy] %s cleanup panicked: %v", inst.strategy.ID(), r)
					}
				}()
				cleaner.CleanupRound(roundID)
			}()
		}
	}
	rt.arena.deleteRound(roundID)
}

// StopStrategy deactivates one strategy mid-session. It receives no
// further events; the RoundEnded cleanup call still reaches it.
func (rt *Runtime) StopStrategy(id string) {
	inst, ok := rt.byID[id]
	if !ok || !inst.active {
		return
	}
	inst.strategy.Stop()
	inst.active = false
}

// Shutdown stops every active strategy, runs Shutdown on all started
// ones, and releases all per-round state and subscriptions.
func (rt *Runtime) Shutdown() {
	for _, inst := range rt.instances {
		if inst.active {
			inst.strategy.Stop()
			inst.active = false
		}
	}
	for _, inst := range rt.instances {
		if inst.started {
			inst.strategy.Shutdown()
		}
	}
	rt.subs = make(map[domain.EventType][]*instance)
	rt.arena.reset()
}

// RoundState returns the strategy's private state for the round,
// creating it with init on first access.
func (rt *Runtime) RoundState(strategyID, roundID string, init func() any) any {
	return rt.arena.getOrCreate(strategyID, roundID, init)
}

// HasRoundState reports whether private state exists for the pair. Test
// and diagnostic surface for round isolation.
func (rt *Runtime) HasRoundState(strategyID, roundID string) bool {
	return rt.arena.has(strategyID, roundID)
}

// ActiveCount returns the number of currently active strategies.
func (rt *Runtime) ActiveCount() int {
	n := 0
	for _, inst := range rt.instances {
		if inst.active {
			n++
		}
	}
	return n
}
