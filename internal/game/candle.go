package game

import "rugs-bot/internal/domain"

// candleBuilder aggregates price ticks into fixed-width candles.
// A candle covers ticks [index*TicksPerCandle, (index+1)*TicksPerCandle);
// it closes when a tick from the next candle arrives.
type candleBuilder struct {
	roundID string
	open    bool
	current domain.Candle
}

func newCandleBuilder(roundID string) *candleBuilder {
	return &candleBuilder{roundID: roundID}
}

// Add records one (tick, price) observation. If the observation crosses
// a candle boundary, the closed candle is returned.
func (b *candleBuilder) Add(tick int64, price float64) *domain.Candle {
	index := tick / domain.TicksPerCandle

	if !b.open {
		b.start(index, tick, price)
		return nil
	}

	if index == b.current.Index {
		b.update(tick, price)
		return nil
	}

	closed := b.current
	b.start(index, tick, price)
	return &closed
}

func (b *candleBuilder) start(index, tick int64, price float64) {
	b.open = true
	b.current = domain.Candle{
		RoundID:   b.roundID,
		Index:     index,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		FirstTick: tick,
		LastTick:  tick,
	}
}

func (b *candleBuilder) update(tick int64, price float64) {
	if price > b.current.High {
		b.current.High = price
	}
	if price < b.current.Low {
		b.current.Low = price
	}
	b.current.Close = price
	b.current.LastTick = tick
}

// Flush returns the partially built candle, if any. Used when a round
// ends mid-candle.
func (b *candleBuilder) Flush() *domain.Candle {
	if !b.open {
		return nil
	}
	closed := b.current
	b.open = false
	return &closed
}
