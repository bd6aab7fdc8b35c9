package usecase

import (
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

func newTestLifecycle(rec Recorder, m *stubMetrics) *Lifecycle {
	return NewLifecycle("BTC", 60*time.Second, rec, m, logger.Nop())
}

func buySignal(ts time.Time, score float64) *models.AggregatedSignal {
	return &models.AggregatedSignal{
		Timestamp:       ts,
		Symbol:          "BTC",
		TotalScore:      score,
		Recommendation:  models.RecommendBuy,
		MatchedPatterns: []string{"FLAG_BREAKOUT"},
	}
}

func tick(ts time.Time, price float64) *models.PriceSnapshot {
	return &models.PriceSnapshot{Symbol: "BTC", Price: price, Volume: 1, Timestamp: ts}
}

func TestOnSignalOpensEntryWindow(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()

	pos, err := lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 10})
	if err != nil {
		t.Fatalf("OnSignal: %v", err)
	}
	if pos.Status != models.PositionEntryWindow {
		t.Fatalf("expected ENTRY_WINDOW, got %s", pos.Status)
	}
	if pos.Version != 1 {
		t.Fatalf("expected version 1, got %d", pos.Version)
	}
	if pos.TargetPrice != 105 || pos.StopPrice != 98 {
		t.Fatalf("unexpected band: target=%v stop=%v", pos.TargetPrice, pos.StopPrice)
	}
	if !pos.EntryWindowExpiresAt.Equal(t0.Add(60 * time.Second)) {
		t.Fatalf("unexpected window expiry %v", pos.EntryWindowExpiresAt)
	}
	if lc.Idle() {
		t.Fatalf("lifecycle should not be idle with an entry window open")
	}
}

func TestOnSignalIgnoresNonBuy(t *testing.T) {
	lc := newTestLifecycle(&stubRecorder{}, newStubMetrics())
	sig := buySignal(time.Now(), 60)
	sig.Recommendation = models.RecommendWait

	pos, err := lc.OnSignal(sig, 100, models.TradePlan{})
	if pos != nil || err != nil {
		t.Fatalf("WAIT must be a no-op, got pos=%v err=%v", pos, err)
	}
	if !lc.Idle() {
		t.Fatalf("expected idle after WAIT")
	}
}

func TestSecondBuyDiscarded(t *testing.T) {
	m := newStubMetrics()
	lc := newTestLifecycle(&stubRecorder{}, m)
	t0 := time.Now().UTC()

	if _, err := lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02}); err != nil {
		t.Fatalf("first BUY: %v", err)
	}
	if _, err := lc.OnSignal(buySignal(t0.Add(time.Minute), 95), 101, models.TradePlan{}); err != ErrPositionActive {
		t.Fatalf("expected ErrPositionActive, got %v", err)
	}
	if m.errCount("buy_discarded") != 1 {
		t.Fatalf("expected one discarded-buy error recorded")
	}
}

func TestEntryConfirmedOnFirstTick(t *testing.T) {
	lc := newTestLifecycle(&stubRecorder{}, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02})

	lc.OnPrice(tick(t0.Add(time.Second), 100.5))

	pos, ok := lc.Current()
	if !ok {
		t.Fatalf("expected live position")
	}
	if pos.Status != models.PositionOpen || !pos.Entered {
		t.Fatalf("expected OPEN/entered, got %s entered=%v", pos.Status, pos.Entered)
	}
	if pos.Version != 2 {
		t.Fatalf("entry should bump version to 2, got %d", pos.Version)
	}
}

func TestEntryWindowTimeout(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02})

	// first tick arrives after the window has lapsed
	lc.OnPrice(tick(t0.Add(61*time.Second), 104))

	pos, ok := rec.last()
	if !ok {
		t.Fatalf("expected recorder to receive the resolved position")
	}
	if pos.CloseReason != models.CloseTimeout {
		t.Fatalf("expected TIMEOUT, got %s", pos.CloseReason)
	}
	if pos.Entered {
		t.Fatalf("timed-out window must not count as entered")
	}
	if pos.RealizedPct != 0 {
		t.Fatalf("no entry means no market outcome, got %v", pos.RealizedPct)
	}
	if !lc.Idle() {
		t.Fatalf("lifecycle should be idle after timeout")
	}
}

func TestTargetHitAfterDrawdown(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 1})

	lc.OnPrice(tick(t0.Add(time.Second), 100)) // entry confirmed
	lc.OnPrice(tick(t0.Add(2*time.Second), 99))
	if _, ok := lc.Current(); !ok {
		t.Fatalf("99 is inside the band, position must stay open")
	}
	lc.OnPrice(tick(t0.Add(3*time.Second), 106))

	pos, ok := rec.last()
	if !ok {
		t.Fatalf("expected resolved position")
	}
	if pos.CloseReason != models.CloseTargetHit {
		t.Fatalf("expected TARGET_HIT, got %s", pos.CloseReason)
	}
	if math.Abs(pos.RealizedPct-0.06) > 1e-9 {
		t.Fatalf("expected realized 0.06, got %v", pos.RealizedPct)
	}
}

func TestStopHit(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 2})

	lc.OnPrice(tick(t0.Add(time.Second), 100))
	lc.OnPrice(tick(t0.Add(2*time.Second), 97))

	pos, _ := rec.last()
	if pos.CloseReason != models.CloseStopHit {
		t.Fatalf("expected STOP_HIT, got %s", pos.CloseReason)
	}
	if math.Abs(pos.RealizedPct-(-0.06)) > 1e-9 {
		t.Fatalf("expected leveraged realized -0.06, got %v", pos.RealizedPct)
	}
}

func TestStopCheckedBeforeTarget(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	// zero band makes a single tick satisfy both exits at once
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{})

	lc.OnPrice(tick(t0.Add(time.Second), 100))
	lc.OnPrice(tick(t0.Add(2*time.Second), 100))

	pos, ok := rec.last()
	if !ok {
		t.Fatalf("expected resolved position")
	}
	if pos.CloseReason != models.CloseStopHit {
		t.Fatalf("stop must win when both levels are crossed, got %s", pos.CloseReason)
	}
}

func TestManualClose(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 1})
	lc.OnPrice(tick(t0.Add(time.Second), 100))

	pos, err := lc.CloseManual(102, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("CloseManual: %v", err)
	}
	if pos.CloseReason != models.CloseManual {
		t.Fatalf("expected MANUAL, got %s", pos.CloseReason)
	}
	if math.Abs(pos.RealizedPct-0.02) > 1e-9 {
		t.Fatalf("expected realized 0.02, got %v", pos.RealizedPct)
	}

	if _, err := lc.CloseManual(100, t0); err != ErrNoPosition {
		t.Fatalf("expected ErrNoPosition when idle, got %v", err)
	}
}

func TestAdvisoryExit(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 1})
	lc.OnPrice(tick(t0.Add(time.Second), 100))

	id, version, _ := lc.CurrentRef()
	adv := models.Advisory{Recommendation: models.RecommendSell, Confidence: 0.9, Timestamp: t0.Add(2 * time.Second)}

	if !lc.ApplyAdvisory(id, version, adv, 101, 0.7) {
		t.Fatalf("confident SELL on an open position should close it")
	}
	pos, _ := rec.last()
	if pos.CloseReason != models.CloseAdvisoryExit {
		t.Fatalf("expected ADVISORY_EXIT, got %s", pos.CloseReason)
	}
}

func TestAdvisoryBelowConfidenceIgnored(t *testing.T) {
	lc := newTestLifecycle(&stubRecorder{}, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02})
	lc.OnPrice(tick(t0.Add(time.Second), 100))

	id, version, _ := lc.CurrentRef()
	adv := models.Advisory{Recommendation: models.RecommendSell, Confidence: 0.5}
	if lc.ApplyAdvisory(id, version, adv, 101, 0.7) {
		t.Fatalf("low-confidence SELL must be ignored")
	}
	if _, ok := lc.Current(); !ok {
		t.Fatalf("position must survive an ignored advisory")
	}
}

func TestStaleAdvisoryDiscarded(t *testing.T) {
	m := newStubMetrics()
	lc := newTestLifecycle(&stubRecorder{}, m)
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02})
	lc.OnPrice(tick(t0.Add(time.Second), 100))

	adv := models.Advisory{Recommendation: models.RecommendSell, Confidence: 0.9}
	if lc.ApplyAdvisory("some-older-position", 1, adv, 101, 0.7) {
		t.Fatalf("advisory for another position must be discarded")
	}
	if m.errCount("advisory_stale") != 1 {
		t.Fatalf("expected stale advisory metric")
	}
	if _, ok := lc.Current(); !ok {
		t.Fatalf("current position must be untouched")
	}
}

func TestAdvisoryFromEntryWindowVersionDiscarded(t *testing.T) {
	m := newStubMetrics()
	lc := newTestLifecycle(&stubRecorder{}, m)
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 1})

	id, version, _ := lc.CurrentRef() // captured while still in the entry window
	lc.OnPrice(tick(t0.Add(time.Second), 100))

	adv := models.Advisory{Recommendation: models.RecommendSell, Confidence: 0.9}
	if lc.ApplyAdvisory(id, version, adv, 101, 0.7) {
		t.Fatalf("advisory captured pre-entry must not close the opened position")
	}
	if m.errCount("advisory_stale") != 1 {
		t.Fatalf("expected stale advisory metric")
	}
	pos, ok := lc.Current()
	if !ok || pos.Status != models.PositionOpen {
		t.Fatalf("position must remain open")
	}
}

func TestAdvisoryDuringEntryWindowIgnored(t *testing.T) {
	lc := newTestLifecycle(&stubRecorder{}, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.05, StopPct: 0.02})

	id, version, _ := lc.CurrentRef()
	adv := models.Advisory{Recommendation: models.RecommendSell, Confidence: 0.9}
	if lc.ApplyAdvisory(id, version, adv, 101, 0.7) {
		t.Fatalf("advisory cannot exit a position that has not entered")
	}
}

func TestRecorderReceivesOpeningSignal(t *testing.T) {
	rec := &stubRecorder{}
	lc := newTestLifecycle(rec, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 91), 100, models.TradePlan{TargetPct: 0.01, StopPct: 0.01, Leverage: 1})
	lc.OnPrice(tick(t0.Add(time.Second), 100))
	lc.OnPrice(tick(t0.Add(2*time.Second), 102))

	if rec.count() != 1 {
		t.Fatalf("expected exactly one recorded outcome, got %d", rec.count())
	}
	rec.mu.Lock()
	score := rec.signals[0].TotalScore
	rec.mu.Unlock()
	if score != 91 {
		t.Fatalf("recorder must get the frozen opening signal, got score %v", score)
	}
}

func TestNewEntryAcceptedAfterClose(t *testing.T) {
	lc := newTestLifecycle(&stubRecorder{}, newStubMetrics())
	t0 := time.Now().UTC()
	lc.OnSignal(buySignal(t0, 85), 100, models.TradePlan{TargetPct: 0.01, StopPct: 0.01})
	lc.OnPrice(tick(t0.Add(time.Second), 100))
	lc.OnPrice(tick(t0.Add(2*time.Second), 102))

	if !lc.Idle() {
		t.Fatalf("expected idle after close")
	}
	if _, err := lc.OnSignal(buySignal(t0.Add(time.Minute), 85), 102, models.TradePlan{TargetPct: 0.05, StopPct: 0.02}); err != nil {
		t.Fatalf("fresh BUY after close: %v", err)
	}
	last, ok := lc.LastClosed()
	if !ok || last.Status != models.PositionClosed {
		t.Fatalf("expected last closed position retained")
	}
}
