package strategy

import "sync"

// arena holds strategy-private per-round state, keyed by (strategyID,
// roundID). State is created lazily on first access and deleted when the
// round ends, so nothing leaks across rounds even if a handler panicked.
type arena struct {
	mu    sync.Mutex
	state map[arenaKey]any
}

type arenaKey struct {
	strategyID string
	roundID    string
}

func newArena() *arena {
	return &arena{state: make(map[arenaKey]any)}
}

// getOrCreate returns the state for (strategyID, roundID), creating it
// with init on first access.
func (a *arena) getOrCreate(strategyID, roundID string, init func() any) any {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := arenaKey{strategyID, roundID}
	if st, ok := a.state[key]; ok {
		return st
	}
	st := init()
	a.state[key] = st
	return st
}

// deleteRound removes every strategy's state for the round.
func (a *arena) deleteRound(roundID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key := range a.state {
		if key.roundID == roundID {
			delete(a.state, key)
		}
	}
}

// reset drops all state.
func (a *arena) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = make(map[arenaKey]any)
}

// has reports whether state exists for (strategyID, roundID).
func (a *arena) has(strategyID, roundID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.state[arenaKey{strategyID, roundID}]
	return ok
}
