package strategy

import (
	"errors"
	"testing"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/ledger"
)

// fakeTrader records requests and answers with configurable results.
type fakeTrader struct {
	buys  []ledger.BuyRequest
	sells []ledger.SellRequest

	buyResult  ledger.BuyResult
	sellResult ledger.SellResult
}

func newFakeTrader() *fakeTrader {
	return &fakeTrader{
		buyResult:  ledger.BuyResult{Success: true, Price: 1.0},
		sellResult: ledger.SellResult{Success: true},
	}
}

func (f *fakeTrader) SimulateBuy(req ledger.BuyRequest) ledger.BuyResult {
	f.buys = append(f.buys, req)
	return f.buyResult
}

func (f *fakeTrader) SimulateSellByPercentage(req ledger.SellRequest) ledger.SellResult {
	f.sells = append(f.sells, req)
	return f.sellResult
}

// scriptedStrategy is a minimal strategy with injectable behavior.
type scriptedStrategy struct {
	id          string
	validateErr error
	initErr     error
	onEvent     func(ev domain.Event) error

	started  int
	stopped  int
	shutdown int
	events   []domain.Event
	cleaned  []string
}

func (s *scriptedStrategy) ID() string            { return s.id }
func (s *scriptedStrategy) ValidateConfig() error { return s.validateErr }
func (s *scriptedStrategy) Start()                { s.started++ }
func (s *scriptedStrategy) Stop()                 { s.stopped++ }
func (s *scriptedStrategy) Shutdown()             { s.shutdown++ }

func (s *scriptedStrategy) Initialize(rt *Runtime) error {
	if s.initErr != nil {
		return s.initErr
	}
	rt.Subscribe(s, domain.EventPriceUpdate, domain.EventRoundEnded)
	return nil
}

func (s *scriptedStrategy) OnEvent(ev domain.Event) error {
	s.events = append(s.events, ev)
	if s.onEvent != nil {
		return s.onEvent(ev)
	}
	return nil
}

func (s *scriptedStrategy) CleanupRound(roundID string) {
	s.cleaned = append(s.cleaned, roundID)
}

func priceEvent(roundID string, price float64) domain.Event {
	return domain.Event{Type: domain.EventPriceUpdate, RoundID: roundID, Price: price, Phase: domain.PhaseActive}
}

func TestRuntime_ValidationFailureNeverStarts(t *testing.T) {
	rt := NewRuntime(newFakeTrader(), false)

	bad := &scriptedStrategy{id: "bad", validateErr: errors.New("broken config")}
	good := &scriptedStrategy{id: "good"}

	if err := rt.Register(bad); err == nil {
		t.Fatal("expected validation error")
	}
	if err := rt.Register(good); err != nil {
		t.Fatalf("good strategy rejected: %v", err)
	}

	rt.Start()

	if bad.started != 0 {
		t.Error("invalid strategy was started")
	}
	if good.started != 1 {
		t.Error("valid strategy was not started")
	}

	rt.Dispatch(priceEvent("r1", 1.0))
	if len(bad.events) != 0 {
		t.Error("invalid strategy received events")
	}
	if len(good.events) != 1 {
		t.Errorf("valid strategy expected 1 event, got %d", len(good.events))
	}
}

func TestRuntime_InitializeFailureIsolated(t *testing.T) {
	rt := NewRuntime(newFakeTrader(), false)

	failing := &scriptedStrategy{id: "failing", initErr: errors.New("no subscription")}
	healthy := &scriptedStrategy{id: "healthy"}
	rt.Register(failing)
	rt.Register(healthy)

	rt.Start()

	if failing.started != 0 {
		t.Error("strategy with failed Initialize was started")
	}
	if healthy.started != 1 {
		t.Error("healthy strategy was not started")
	}
	if rt.ActiveCount() != 1 {
		t.Errorf("expected 1 active strategy, got %d", rt.ActiveCount())
	}
}

// A handler error or panic in one strategy must not block delivery to
// the others.
func TestRuntime_HandlerFailureIsolated(t *testing.T) {
	rt := NewRuntime(newFakeTrader(), false)

	var failures []string
	rt.OnHandlerError = func(id string) { failures = append(failures, id) }

	erroring := &scriptedStrategy{id: "erroring", onEvent: func(domain.Event) error {
		return errors.New("handler failed")
	}}
	panicking := &scriptedStrategy{id: "panicking", onEvent: func(domain.Event) error {
		panic("handler panicked")
	}}
	healthy := &scriptedStrategy{id: "healthy"}

	rt.Register(erroring)
	rt.Register(panicking)
	rt.Register(healthy)
	rt.Start()

	rt.Dispatch(priceEvent("r1", 1.2))

	if len(healthy.events) != 1 {
		t.Fatalf("healthy strategy expected 1 event, got %d", len(healthy.events))
	}
	if len(failures) != 2 {
		t.Errorf("expected 2 handler failures observed, got %d (%v)", len(failures), failures)
	}

	// The runtime keeps dispatching to the failed strategies too.
	rt.Dispatch(priceEvent("r1", 1.3))
	if len(erroring.events) != 2 || len(panicking.events) != 2 {
		t.Error("failed strategies stopped receiving events")
	}
}

func TestRuntime_DispatchInSubscriptionOrder(t *testing.T) {
	rt := NewRuntime(newFakeTrader(), false)

	var order []string
	a := &scriptedStrategy{id: "a", onEvent: func(domain.Event) error { order = append(order, "a"); return nil }}
	b := &scriptedStrategy{id: "b", onEvent: func(domain.Event) error { order = append(order, "b"); return nil }}
	c := &scriptedStrategy{id: "c", onEvent: func(domain.Event) error { order = append(order, "c"); return nil }}

	rt.Register(a)
	rt.Register(b)
	rt.Register(c)
	rt.Start()

	rt.Dispatch(priceEvent("r1", 1.0))

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("expected dispatch order [a b c], got %v", order)
	}
}

// Round state is isolated per (strategy, round) and deleted on round end
// for every strategy, stopped ones included.
func TestRuntime_RoundStateLifecycle(t *testing.T) {
	rt := NewRuntime(newFakeTrader(), false)

	s1 := &scriptedStrategy{id: "s1"}
	s2 := &scriptedStrategy{id: "s2"}
	rt.Register(s1)
	rt.Register(s2)
	rt.Start()

	type counter struct{ n int }
	st := rt.RoundState("s1", "r1", func() any { return &counter{} }).(*counter)
	st.n = 7

	// Same pair returns the same state; other pairs get fresh state.
	again := rt.RoundState("s1", "r1", func() any { return &counter{} }).(*counter)
	if again.n != 7 {
		t.Error("round state not shared within (strategy, round)")
	}
	other := rt.RoundState("s1", "r2", func() any { return &counter{} }).(*counter)
	if other.n != 0 {
		t.Error("round state leaked across rounds")
	}
	rt.RoundState("s2", "r1", func() any { return &counter{} })

	// Stop s2 mid-session; its cleanup hook must still run on round end.
	rt.StopStrategy("s2")

	rt.Dispatch(domain.Event{Type: domain.EventRoundEnded, RoundID: "r1", Phase: domain.PhaseEnded})

	if rt.HasRoundState("s1", "r1") || rt.HasRoundState("s2", "r1") {
		t.Error("round state survived RoundEnded")
	}
	if !rt.HasRoundState("s1", "r2") {
		t.Error("unrelated round state was deleted")
	}

	if len(s1.cleaned) != 1 || s1.cleaned[0] != "r1" {
		t.Errorf("s1 cleanup calls: %v", s1.cleaned)
	}
	if len(s2.cleaned) != 1 {
		t.Errorf("stopped strategy missed cleanup: %v", s2.cleaned)
	}

	// The stopped strategy received no regular events after Stop.
	for _, ev := range s2.events {
		if ev.Type == domain.EventRoundEnded {
			t.Error("stopped strategy received RoundEnded as a regular event")
		}
	}
}

func TestRuntime_Shutdown(t *testing.T) {
	rt := NewRuntime(newFakeTrader(), false)

	s1 := &scriptedStrategy{id: "s1"}
	s2 := &scriptedStrategy{id: "s2"}
	rt.Register(s1)
	rt.Register(s2)
	rt.Start()
	rt.StopStrategy("s2")

	rt.RoundState("s1", "r1", func() any { return struct{}{} })
	rt.Shutdown()

	if s1.stopped != 1 || s1.shutdown != 1 {
		t.Errorf("s1 lifecycle: stopped=%d shutdown=%d", s1.stopped, s1.shutdown)
	}
	// Already-stopped strategies are not stopped twice but still shut down.
	if s2.stopped != 1 || s2.shutdown != 1 {
		t.Errorf("s2 lifecycle: stopped=%d shutdown=%d", s2.stopped, s2.shutdown)
	}
	if rt.ActiveCount() != 0 {
		t.Errorf("expected 0 active after shutdown, got %d", rt.ActiveCount())
	}
	if rt.HasRoundState("s1", "r1") {
		t.Error("round state survived shutdown")
	}

	rt.Dispatch(priceEvent("r1", 1.0))
	if len(s1.events) != 0 {
		t.Error("events delivered after shutdown")
	}
}
