// Package session wires the full pipeline: frames → decoder → game
// engine → strategy dispatch → risk gate → ledger → house accounting →
// persistence. One session owns one feed and runs the pipeline on a
// single goroutine; strategy handlers, risk checks, and ledger mutations
// all execute inline on that goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/feed"
	"rugs-bot/internal/game"
	"rugs-bot/internal/house"
	"rugs-bot/internal/idhash"
	"rugs-bot/internal/ledger"
	"rugs-bot/internal/observability"
	"rugs-bot/internal/protocol"
	"rugs-bot/internal/risk"
	"rugs-bot/internal/storage"
	"rugs-bot/internal/strategy"
)

// Options for creating a Session.
type Options struct {
	// Source delivers raw frames. Required.
	Source feed.FrameSource

	// Strategy configs; each must carry risk limits in Risk keyed by its
	// player id.
	Strategies []domain.StrategyConfig
	Risk       map[string]domain.RiskLimits

	// Required stores
	FillStore    storage.FillStore
	RoundStore   storage.RoundStore
	SessionStore storage.SessionStore
	TickStore    storage.TickStore
	CandleStore  storage.CandleStore

	CapitalSOL float64
	Verbose    bool
}

// Session is the pipeline orchestrator.
type Session struct {
	id string

	source  feed.FrameSource
	decoder *protocol.Decoder
	engine  *game.Engine
	book    *ledger.Book
	house   *house.Accounting
	gate    *risk.Gate
	runtime *strategy.Runtime

	fillStore    storage.FillStore
	roundStore   storage.RoundStore
	sessionStore storage.SessionStore
	tickStore    storage.TickStore
	candleStore  storage.CandleStore

	capitalSOL float64
	verbose    bool

	// Per-round bookkeeping, reset on every new round. Owned by the
	// pipeline goroutine.
	curRoundID     string
	roundStartedAt int64
	roundFinalized bool
	roundFills     int
	peakPrice      float64
	spent          map[string]float64 // strategyID → SOL approved this round
	pendingFills   []domain.Fill
	ticks          []*domain.Tick
	candles        []*domain.Candle

	rounds     int
	totalFills int
	now        func() int64
}

// RunResult summarizes one session run.
type RunResult struct {
	SessionID     string
	Rounds        int
	Fills         int
	HousePosition float64
}

// New creates a Session. Strategy instances are built from the configs;
// a config that fails construction or validation is logged and skipped,
// the rest proceed.
func New(opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, errors.New("session: frame source is required")
	}
	if opts.FillStore == nil || opts.RoundStore == nil || opts.SessionStore == nil ||
		opts.TickStore == nil || opts.CandleStore == nil {
		return nil, errors.New("session: all stores are required")
	}
	if len(opts.Strategies) == 0 {
		return nil, errors.New("session: at least one strategy is required")
	}

	s := &Session{
		id:           idhash.NewSessionID(),
		source:       opts.Source,
		engine:       game.NewEngine(opts.Verbose),
		house:        house.New(),
		fillStore:    opts.FillStore,
		roundStore:   opts.RoundStore,
		sessionStore: opts.SessionStore,
		tickStore:    opts.TickStore,
		candleStore:  opts.CandleStore,
		capitalSOL:   opts.CapitalSOL,
		verbose:      opts.Verbose,
		spent:        make(map[string]float64),
		now:          func() int64 { return time.Now().UnixMilli() },
	}

	s.decoder = protocol.NewDecoder(opts.Verbose)
	s.decoder.OnDrop = observability.RecordFrameDropped

	s.book = ledger.New(ledger.Options{OnMutate: s.onLedgerMutate})
	s.house.OnUpdate = observability.UpdateHousePosition

	// Build strategies and key the gate limits by strategy id, so each
	// instance carries its own ceilings.
	limits := make(map[string]domain.RiskLimits)
	var built []strategy.Strategy
	for _, cfg := range opts.Strategies {
		st, err := strategy.FromConfig(cfg)
		if err != nil {
			log.Printf("[session] skipping strategy config (%s/%s): %v", cfg.StrategyType, cfg.PlayerID, err)
			continue
		}
		l, ok := opts.Risk[cfg.PlayerID]
		if !ok {
			log.Printf("[session] skipping %s: no risk limits for player %s", st.ID(), cfg.PlayerID)
			continue
		}
		limits[st.ID()] = l
		built = append(built, st)
	}
	if len(built) == 0 {
		return nil, errors.New("session: no usable strategy configs")
	}

	s.gate = risk.NewGate(limits)
	s.runtime = strategy.NewRuntime(&gatedTrader{s: s}, opts.Verbose)
	s.runtime.OnHandlerError = observability.RecordHandlerError

	for _, st := range built {
		if err := s.runtime.Register(st); err != nil {
			log.Printf("[session] %v", err)
		}
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Book returns the session's trade ledger.
func (s *Session) Book() *ledger.Book { return s.book }

// House returns the session's house accounting.
func (s *Session) House() *house.Accounting { return s.house }

// Run consumes frames until the source closes or the context is
// cancelled, then finalizes any open round and the session record.
func (s *Session) Run(ctx context.Context) (*RunResult, error) {
	if err := s.sessionStore.Insert(ctx, &domain.SessionRecord{
		SessionID:  s.id,
		StartedAt:  s.now(),
		CapitalSOL: s.capitalSOL,
	}); err != nil {
		return nil, fmt.Errorf("insert session record: %w", err)
	}

	s.runtime.Start()
	log.Printf("[session] %s started with %d strategies", s.id, s.runtime.ActiveCount())

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case frame, ok := <-s.source.Frames():
			if !ok {
				log.Printf("[session] %s: feed closed", s.id)
				break loop
			}
			s.handleFrame(ctx, frame)
		}
	}

	// An open round at shutdown is finalized at its last price so no
	// position survives the session. Persistence runs on a detached
	// context so cancellation does not lose the final round.
	flushCtx := context.WithoutCancel(ctx)
	if round, ok := s.engine.Round(); ok && !s.roundFinalized {
		s.finalizeRound(flushCtx, round.ID, round.Price, round.Tick)
	}

	s.runtime.Shutdown()

	if err := s.sessionStore.Finish(flushCtx, s.id, s.now(), s.rounds); err != nil {
		log.Printf("[session] %s: finish record failed: %v", s.id, err)
	}

	result := &RunResult{
		SessionID:     s.id,
		Rounds:        s.rounds,
		Fills:         s.totalFills,
		HousePosition: s.house.Position(),
	}
	log.Printf("[session] %s done: rounds=%d fills=%d house=%.6f",
		s.id, result.Rounds, result.Fills, result.HousePosition)
	return result, nil
}

// handleFrame runs one frame through the whole pipeline.
func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	observability.RecordFrameReceived(float64(time.Now().Unix()))

	msg, err := s.decoder.Decode(frame)
	if err != nil || msg == nil {
		return
	}
	observability.RecordFrameDecoded()

	for _, ev := range s.engine.HandleMessage(msg) {
		s.handleEvent(ctx, ev)
	}

	s.flushFills(ctx)
}

func (s *Session) handleEvent(ctx context.Context, ev domain.Event) {
	observability.RecordEvent(ev.Type.String())

	switch ev.Type {
	case domain.EventNewRound:
		// A new round id while the previous round is still open means
		// the feed abandoned it; liquidate at the last seen price.
		if s.curRoundID != "" && !s.roundFinalized {
			prev := s.prevRoundTerminal()
			s.finalizeRound(ctx, s.curRoundID, prev.price, prev.tick)
		}
		s.resetRound(ev)
		observability.DefaultMetrics.RoundsStarted.Inc()

	case domain.EventPriceUpdate:
		s.ticks = append(s.ticks, &domain.Tick{
			RoundID:     ev.RoundID,
			Tick:        ev.Tick,
			Price:       ev.Price,
			TimestampMs: ev.Timestamp,
			Phase:       ev.Phase.String(),
		})
		if ev.Price > s.peakPrice {
			s.peakPrice = ev.Price
		}
		observability.UpdateMarketState(int(ev.Tick), ev.Price)

	case domain.EventNewCandle:
		if ev.Candle != nil {
			s.candles = append(s.candles, ev.Candle)
			observability.DefaultMetrics.CandlesClosed.Inc()
		}
	}

	start := time.Now()
	s.runtime.Dispatch(ev)
	observability.DefaultMetrics.DispatchLatency.Observe(time.Since(start).Seconds())

	// Price moves shift unrealized P&L; keep the house current.
	if ev.Type == domain.EventPriceUpdate {
		s.house.Recompute(s.book.Snapshot(), ev.Price)
	}

	// Finalize after dispatch so strategies observe the terminal event
	// before their positions are liquidated.
	if ev.Type == domain.EventRoundEnded {
		s.finalizeRound(ctx, ev.RoundID, ev.Price, ev.Tick)
		observability.DefaultMetrics.RoundsEnded.Inc()
	}
}

type terminal struct {
	price float64
	tick  int64
}

// prevRoundTerminal reports the last recorded price of the round being
// abandoned. A round abandoned before any price tick was buffered
// (presale only) terminates at the baseline price, so presale positions
// still get liquidated.
func (s *Session) prevRoundTerminal() terminal {
	if len(s.ticks) == 0 {
		return terminal{price: domain.BaselinePrice, tick: 0}
	}
	last := s.ticks[len(s.ticks)-1]
	return terminal{price: last.Price, tick: last.Tick}
}

func (s *Session) resetRound(ev domain.Event) {
	s.curRoundID = ev.RoundID
	s.roundStartedAt = ev.Timestamp
	s.roundFinalized = false
	s.roundFills = 0
	s.peakPrice = 0
	s.spent = make(map[string]float64)
	s.ticks = nil
	s.candles = nil
}

// finalizeRound liquidates leftover positions at the terminal price,
// persists the round's ticks, candles, and summary, and reconciles the
// house position.
func (s *Session) finalizeRound(ctx context.Context, roundID string, price float64, tick int64) {
	if s.roundFinalized || roundID == "" {
		return
	}
	s.roundFinalized = true
	s.rounds++

	liquidations := s.book.FinalizeRound(roundID, price)
	s.pendingFills = append(s.pendingFills, liquidations...)
	s.house.Recompute(s.book.Snapshot(), price)

	if !s.house.Reconciles(s.book.Snapshot(), price) {
		log.Printf("[session] %s: round %s: house does not reconcile (house=%.9f)",
			s.id, roundID, s.house.Position())
	}

	s.flushFills(ctx)
	s.flushTimeseries(ctx, roundID)

	rec := &domain.RoundRecord{
		RoundKey:   idhash.ComputeRoundKey(roundID, s.roundStartedAt),
		RoundID:    roundID,
		SessionID:  s.id,
		StartedAt:  s.roundStartedAt,
		EndedAt:    s.now(),
		FinalPrice: price,
		FinalTick:  tick,
		PeakPrice:  s.peakPrice,
		FillCount:  s.roundFills,
	}
	if err := s.roundStore.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		log.Printf("[session] %s: persist round %s: %v", s.id, roundID, err)
	}

	if s.verbose {
		log.Printf("[session] round %s finalized: final=%.6f peak=%.6f fills=%d house=%.6f",
			roundID, price, s.peakPrice, s.roundFills, s.house.Position())
	}
}

// flushFills persists and clears the pending fill buffer. Persist
// failures are logged, never fatal.
func (s *Session) flushFills(ctx context.Context) {
	n := len(s.pendingFills)
	s.roundFills += n
	s.totalFills += n
	for i := range s.pendingFills {
		f := s.pendingFills[i]
		start := time.Now()
		err := s.fillStore.Insert(ctx, &f)
		observability.RecordDBQuery("postgres", "insert_fill", time.Since(start).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			log.Printf("[session] %s: persist fill %s: %v", s.id, f.FillID, err)
		}
	}
	s.pendingFills = s.pendingFills[:0]
}

// flushTimeseries bulk-persists the round's tick and candle buffers.
func (s *Session) flushTimeseries(ctx context.Context, roundID string) {
	if len(s.ticks) > 0 {
		start := time.Now()
		err := s.tickStore.InsertBulk(ctx, s.ticks)
		observability.RecordDBQuery("clickhouse", "insert_ticks", time.Since(start).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			log.Printf("[session] %s: persist %d ticks for %s: %v", s.id, len(s.ticks), roundID, err)
		}
	}
	if len(s.candles) > 0 {
		start := time.Now()
		err := s.candleStore.InsertBulk(ctx, s.candles)
		observability.RecordDBQuery("clickhouse", "insert_candles", time.Since(start).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			log.Printf("[session] %s: persist %d candles for %s: %v", s.id, len(s.candles), roundID, err)
		}
	}
	s.ticks = nil
	s.candles = nil
}

// onLedgerMutate observes every successful ledger mutation.
func (s *Session) onLedgerMutate(f domain.Fill) {
	observability.RecordTradeExecuted(f.Type.String())
}
