package domain

// TicksPerCandle is the number of price ticks aggregated into one candle.
const TicksPerCandle = 5

// BaselinePrice is the price every round starts from.
const BaselinePrice = 1.0

// RugPriceFloor is the near-zero price below which a round is considered
// rugged when the upstream message carries no explicit rugged flag.
const RugPriceFloor = 0.0001

// Round is the authoritative state of one play-through of the game.
// It is owned exclusively by the game engine; downstream components
// receive copies and must treat them as read-only.
type Round struct {
	ID          string  // upstream game identifier
	Phase       Phase   // current lifecycle stage
	Tick        int64   // monotonic within the round, resets on new round
	Price       float64 // current multiplier price, positive
	CandleIndex int64   // Tick / TicksPerCandle
	StartedAt   int64   // ms since epoch, when the round was first seen

	// AllowsPreRoundBuys reports whether the round accepts buys during
	// the presale phase.
	AllowsPreRoundBuys bool

	// Rugged is set once the upstream explicitly flags termination.
	Rugged bool
}

// Candle aggregates TicksPerCandle consecutive price ticks.
// Immutable once closed.
type Candle struct {
	RoundID   string
	Index     int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	FirstTick int64
	LastTick  int64
}

// RoundRecord is the persisted summary of trading one finished round.
type RoundRecord struct {
	RoundKey   string // deterministic key, see idhash.ComputeRoundKey
	RoundID    string
	SessionID  string
	StartedAt  int64   // ms
	EndedAt    int64   // ms
	FinalPrice float64 // terminal price at rug
	FinalTick  int64
	PeakPrice  float64
	FillCount  int
}

// SessionRecord is the persisted metadata of one bot session run.
type SessionRecord struct {
	SessionID  string
	StartedAt  int64 // ms
	EndedAt    int64 // ms, zero while running
	CapitalSOL float64
	Rounds     int
}

// Tick is one persisted price observation within a round.
type Tick struct {
	RoundID     string
	Tick        int64
	Price       float64
	TimestampMs int64
	Phase       string
}
