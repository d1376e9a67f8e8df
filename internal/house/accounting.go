// Package house derives the operator's aggregate position as the negative
// sum of all player profit-and-loss. The accounting component is explicit
// and injectable so multiple sessions can run in isolation.
package house

import (
	"math"
	"sync"

	"rugs-bot/internal/ledger"
)

// Epsilon is the floating-point tolerance for reconciliation checks.
const Epsilon = 1e-9

// Accounting tracks the house position. It is round-independent: it
// accumulates across rounds and is cleared only by an explicit Reset.
type Accounting struct {
	mu       sync.RWMutex
	position float64

	// OnUpdate, if set, observes every recomputed value (e.g. a metrics
	// gauge). Called with the accounting lock held; keep it cheap.
	OnUpdate func(position float64)
}

// New creates an Accounting component with a zero house position.
func New() *Accounting {
	return &Accounting{}
}

// Recompute derives the house position from a ledger snapshot and the
// current price: house = -Σ(realized + unrealized) over open positions,
// minus the realized P&L of closed positions.
func (a *Accounting) Recompute(snap ledger.Snapshot, currentPrice float64) float64 {
	var playerPnL float64
	for i := range snap.Positions {
		pos := &snap.Positions[i]
		playerPnL += pos.RealizedPnL + pos.UnrealizedPnL(currentPrice)
	}
	playerPnL += snap.ClosedRealized

	a.mu.Lock()
	defer a.mu.Unlock()

	a.position = -playerPnL
	if a.OnUpdate != nil {
		a.OnUpdate(a.position)
	}
	return a.position
}

// Position returns the current house position.
func (a *Accounting) Position() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.position
}

// Reconciles reports whether house + Σ player P&L is zero within Epsilon
// for the given snapshot and price.
func (a *Accounting) Reconciles(snap ledger.Snapshot, currentPrice float64) bool {
	var playerPnL float64
	for i := range snap.Positions {
		pos := &snap.Positions[i]
		playerPnL += pos.RealizedPnL + pos.UnrealizedPnL(currentPrice)
	}
	playerPnL += snap.ClosedRealized

	a.mu.RLock()
	defer a.mu.RUnlock()
	return math.Abs(a.position+playerPnL) <= Epsilon
}

// Reset clears the house position and the book's historical accumulators
// in one operation, so the invariant holds on both sides afterwards.
func (a *Accounting) Reset(book *ledger.Book) {
	a.mu.Lock()
	defer a.mu.Unlock()

	book.ResetAccumulators()
	a.position = 0
	if a.OnUpdate != nil {
		a.OnUpdate(0)
	}
}
