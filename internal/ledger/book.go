// Package ledger applies approved trade intents to per-player, per-round
// positions using weighted-average cost basis, and computes realized P&L.
package ledger

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/idhash"
)

// zeroQty is the threshold below which a position is considered fully
// exited and its record deleted.
const zeroQty = 1e-9

// Failed-fill reason strings. These are expected outcomes that
// strategies branch on instead of handling errors.
const (
	ReasonMissingPrice  = "missing price context"
	ReasonInvalidAmount = "invalid amount"
)

const lockStripes = 64

// Options configures a Book.
type Options struct {
	// OnMutate is invoked after every successful ledger mutation, with
	// no Book locks held. The session wires house accounting here.
	OnMutate func(fill domain.Fill)
}

// Book holds all positions. Mutations for the same (player, round) pair
// are serialized by striped locks; different players proceed concurrently.
type Book struct {
	locks [lockStripes]sync.Mutex

	mu             sync.RWMutex
	positions      map[string]*domain.Position // key: playerID|roundID
	closedRealized float64                     // realized P&L of deleted positions

	fillSeq  atomic.Int64
	onMutate func(domain.Fill)
	now      func() int64
}

// New creates an empty Book.
func New(opts Options) *Book {
	return &Book{
		positions: make(map[string]*domain.Position),
		onMutate:  opts.OnMutate,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

func posKey(playerID, roundID string) string {
	return playerID + "|" + roundID
}

func (b *Book) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &b.locks[h.Sum32()%lockStripes]
}

// ExecuteBuy spends solToSpend at price for the given player and round.
// tokens = sol/price; the new weighted-average entry price is
// (oldQty*oldAvg + sol) / (oldQty + tokens).
func (b *Book) ExecuteBuy(playerID, strategyID, roundID string, solToSpend, price float64) domain.Fill {
	fill := b.newFill(playerID, strategyID, roundID, domain.TradeBuy, price)

	if price <= 0 {
		fill.Reason = ReasonMissingPrice
		return fill
	}
	if solToSpend <= 0 {
		fill.Reason = ReasonInvalidAmount
		return fill
	}

	key := posKey(playerID, roundID)
	lock := b.stripe(key)
	lock.Lock()

	tokens := solToSpend / price

	b.mu.Lock()
	pos, ok := b.positions[key]
	if !ok {
		pos = &domain.Position{PlayerID: playerID, RoundID: roundID}
		b.positions[key] = pos
	}
	pos.AvgEntryPrice = (pos.Quantity*pos.AvgEntryPrice + solToSpend) / (pos.Quantity + tokens)
	pos.Quantity += tokens
	b.mu.Unlock()

	lock.Unlock()

	fill.Success = true
	fill.TokensBought = tokens
	fill.SolSpent = solToSpend

	if b.onMutate != nil {
		b.onMutate(fill)
	}
	return fill
}

// ExecuteSellByPercentage sells min(pct% of held quantity, held quantity)
// at price. Selling more than held is clamped; selling with zero holdings
// is a no-op reporting zero tokens sold. Realized P&L on the sold tokens
// is tokensSold * (price - avgEntryPrice).
func (b *Book) ExecuteSellByPercentage(playerID, strategyID, roundID string, pct, price float64) domain.Fill {
	fill := b.newFill(playerID, strategyID, roundID, domain.TradeSell, price)

	if price <= 0 {
		fill.Reason = ReasonMissingPrice
		return fill
	}
	if pct < 0 {
		fill.Reason = ReasonInvalidAmount
		return fill
	}
	if pct > 100 {
		pct = 100
	}

	key := posKey(playerID, roundID)
	lock := b.stripe(key)
	lock.Lock()

	b.mu.Lock()
	pos, ok := b.positions[key]
	if !ok || pos.Quantity <= 0 {
		b.mu.Unlock()
		lock.Unlock()
		// No holdings: a successful no-op, not a failure.
		fill.Success = true
		return fill
	}

	tokens := pos.Quantity * pct / 100
	if tokens > pos.Quantity {
		tokens = pos.Quantity
	}

	realized := tokens * (price - pos.AvgEntryPrice)
	pos.Quantity -= tokens
	pos.RealizedPnL += realized

	if pos.Quantity <= zeroQty {
		// Keep the realized history visible to house accounting after
		// the record is deleted.
		b.closedRealized += pos.RealizedPnL
		delete(b.positions, key)
	}
	b.mu.Unlock()

	lock.Unlock()

	fill.Success = true
	fill.TokensSold = tokens
	fill.Proceeds = tokens * price
	fill.RealizedPnL = realized

	if b.onMutate != nil {
		b.onMutate(fill)
	}
	return fill
}

// FinalizeRound liquidates every remaining position of the round at the
// terminal price. Called on round end so holdings caught in the rug are
// realized at the collapse price.
func (b *Book) FinalizeRound(roundID string, price float64) []domain.Fill {
	b.mu.RLock()
	var holders []string
	for _, pos := range b.positions {
		if pos.RoundID == roundID {
			holders = append(holders, pos.PlayerID)
		}
	}
	b.mu.RUnlock()

	fills := make([]domain.Fill, 0, len(holders))
	for _, playerID := range holders {
		fills = append(fills, b.ExecuteSellByPercentage(playerID, "", roundID, 100, price))
	}
	return fills
}

// Position returns a copy of the player's position for the round.
func (b *Book) Position(playerID, roundID string) (domain.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pos, ok := b.positions[posKey(playerID, roundID)]
	if !ok {
		return domain.Position{}, false
	}
	return *pos, true
}

// Snapshot is a consistent read of the whole book.
type Snapshot struct {
	Positions      []domain.Position
	ClosedRealized float64
}

// Snapshot copies all open positions and the closed-position realized
// accumulator.
func (b *Book) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Positions:      make([]domain.Position, 0, len(b.positions)),
		ClosedRealized: b.closedRealized,
	}
	for _, pos := range b.positions {
		snap.Positions = append(snap.Positions, *pos)
	}
	return snap
}

// ResetAccumulators clears all positions and realized history. Only the
// house accounting reset calls this, so both clear together.
func (b *Book) ResetAccumulators() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.positions = make(map[string]*domain.Position)
	b.closedRealized = 0
}

func (b *Book) newFill(playerID, strategyID, roundID string, t domain.TradeType, price float64) domain.Fill {
	seq := b.fillSeq.Add(1)
	return domain.Fill{
		FillID:     idhash.ComputeFillID(playerID, strategyID, roundID, seq),
		PlayerID:   playerID,
		StrategyID: strategyID,
		RoundID:    roundID,
		Type:       t,
		Price:      price,
		Timestamp:  b.now(),
	}
}
