package ledger

// BuyRequest is the trade command surface for simulated buys, exposed to
// strategies and external harnesses.
type BuyRequest struct {
	PlayerID      string
	Currency      string // "SOL"
	AmountToSpend float64
	StrategyName  string
	GameID        string

	// Presale marks a pre-round entry, valid only while the round is in
	// presale and accepts pre-round buys.
	Presale bool
}

// BuyResult reports the outcome of a simulated buy.
type BuyResult struct {
	Success bool
	Price   float64
	Reason  string
}

// SellRequest is the trade command surface for simulated percentage sells.
type SellRequest struct {
	PlayerID         string
	Currency         string
	PercentageToSell float64
	StrategyName     string
	GameID           string
}

// SellResult reports the outcome of a simulated sell.
type SellResult struct {
	Success    bool
	TokensSold float64
	Proceeds   float64
	Reason     string
}
