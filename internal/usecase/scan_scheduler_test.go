package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	dsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/logger"
)

type schedulerFixture struct {
	scheduler *ScanScheduler
	book      *PriceBook
	lifecycle *Lifecycle
	recorder  *stubRecorder
	publisher *fakePublisher
	metrics   *stubMetrics
}

func newSchedulerFixture(providers []dsvc.ScoreProvider, advisor dsvc.Advisor) *schedulerFixture {
	m := newStubMetrics()
	rec := &stubRecorder{}
	book := NewPriceBook("BTC", 64)
	lifecycle := NewLifecycle("BTC", 60*time.Second, rec, m, logger.Nop())
	pub := &fakePublisher{}
	patterns := NewPatternLibrary(LibraryParams{}, []models.Pattern{
		{ID: "TREND", AllOf: []string{"trend_up"}, Status: models.PatternActive},
	})
	agg := NewAggregator(AggregatorParams{BuyThreshold: 70, MinSample: 5, MinWinRate: 0.6})

	s := NewScanScheduler(SchedulerParams{
		SlowInterval:         time.Minute,
		FastInterval:         time.Second,
		ProviderTimeout:      time.Second,
		HistorySize:          64,
		SignalHistory:        3,
		AdvisorMinConfidence: 0.7,
	}, book, providers, agg, patterns, NewReliabilityBook(ReliabilityParams{}), lifecycle,
		&fixedRisk{plan: models.TradePlan{TargetPct: 0.05, StopPct: 0.02, Leverage: 1}},
		advisor, pub, m, logger.Nop())

	return &schedulerFixture{scheduler: s, book: book, lifecycle: lifecycle, recorder: rec, publisher: pub, metrics: m}
}

func TestSlowScanSkipsEmptyBook(t *testing.T) {
	f := newSchedulerFixture([]dsvc.ScoreProvider{&fakeProvider{id: "m", val: 30, conf: 1}}, nil)
	f.scheduler.SlowScan(context.Background())
	if _, ok := f.scheduler.Latest(); ok {
		t.Fatalf("no ticks means no signal")
	}
}

func TestSlowScanOpensPositionOnBuy(t *testing.T) {
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "m", val: 30, conf: 1, tags: []string{"trend_up"}},
	}, nil)
	fillBook(f.book, 100, 101)

	f.scheduler.SlowScan(context.Background())

	sig, ok := f.scheduler.Latest()
	if !ok {
		t.Fatalf("expected a recorded signal")
	}
	if sig.Recommendation != models.RecommendBuy {
		t.Fatalf("expected BUY, got %s at %v", sig.Recommendation, sig.TotalScore)
	}
	pos, ok := f.lifecycle.Current()
	if !ok {
		t.Fatalf("BUY should open an entry window")
	}
	if pos.EntryPrice != 101 {
		t.Fatalf("entry should be the latest book price, got %v", pos.EntryPrice)
	}
}

func TestSlowScanPartialOnProviderError(t *testing.T) {
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "ok", val: 5, conf: 1},
		&fakeProvider{id: "broken", err: errors.New("boom")},
	}, nil)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())

	sig, ok := f.scheduler.Latest()
	if !ok {
		t.Fatalf("expected a signal despite provider failure")
	}
	if !sig.Partial {
		t.Fatalf("expected partial flag after provider error")
	}
	if len(sig.Breakdown) != 1 || sig.Breakdown[0].SourceID != "ok" {
		t.Fatalf("expected only the healthy contribution, got %v", sig.Breakdown)
	}
	if f.metrics.errCount("provider") != 1 {
		t.Fatalf("expected provider error metric")
	}
}

func TestSlowScanContributionsSorted(t *testing.T) {
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "zeta", val: 1, conf: 1},
		&fakeProvider{id: "alpha", val: 1, conf: 1},
		&fakeProvider{id: "mid", val: 1, conf: 1},
	}, nil)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())

	sig, _ := f.scheduler.Latest()
	if len(sig.Breakdown) != 3 {
		t.Fatalf("expected 3 contributions, got %d", len(sig.Breakdown))
	}
	order := []string{"alpha", "mid", "zeta"}
	for i, want := range order {
		if sig.Breakdown[i].SourceID != want {
			t.Fatalf("contribution %d: expected %s, got %s", i, want, sig.Breakdown[i].SourceID)
		}
	}
}

func TestHistoryBounded(t *testing.T) {
	f := newSchedulerFixture(nil, nil)
	for i := 0; i < 5; i++ {
		f.scheduler.record(models.AggregatedSignal{TotalScore: float64(i)})
	}
	h := f.scheduler.History(0)
	if len(h) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(h))
	}
	if h[len(h)-1].TotalScore != 4 {
		t.Fatalf("expected newest last, got %v", h[len(h)-1].TotalScore)
	}
	if got := f.scheduler.History(2); len(got) != 2 || got[1].TotalScore != 4 {
		t.Fatalf("History(2) wrong tail: %v", got)
	}
}

func TestFastScanResolvesPosition(t *testing.T) {
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "m", val: 30, conf: 1, tags: []string{"trend_up"}},
	}, nil)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())
	if _, ok := f.lifecycle.Current(); !ok {
		t.Fatalf("expected open entry window")
	}

	f.scheduler.FastScan(context.Background()) // confirms entry at 100
	fillBook(f.book, 106)
	f.scheduler.FastScan(context.Background()) // crosses the target

	pos, ok := f.recorder.last()
	if !ok {
		t.Fatalf("expected resolved position")
	}
	if pos.CloseReason != models.CloseTargetHit {
		t.Fatalf("expected TARGET_HIT, got %s", pos.CloseReason)
	}
}

func TestAdvisoryFromEntryWindowNotAppliedAfterOpen(t *testing.T) {
	adv := &fakeAdvisor{
		adv: models.Advisory{
			Recommendation: models.RecommendSell,
			Confidence:     0.9,
			Rationale:      "distribution into strength",
		},
		gate: make(chan struct{}),
	}
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "m", val: 30, conf: 1, tags: []string{"trend_up"}},
	}, adv)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background()) // oracle asked against the entry window
	f.scheduler.FastScan(context.Background()) // entry confirms while the oracle is still thinking
	close(adv.gate)
	f.scheduler.Stop() // waits for the consult goroutine

	pos, ok := f.lifecycle.Current()
	if !ok || pos.Status != models.PositionOpen {
		t.Fatalf("advisory captured pre-entry must leave the opened position alone")
	}
	if f.metrics.errCount("advisory_stale") != 1 {
		t.Fatalf("expected stale advisory metric")
	}
}

func TestAdvisorySellClosesOpenPosition(t *testing.T) {
	adv := &fakeAdvisor{
		adv: models.Advisory{
			Recommendation: models.RecommendSell,
			Confidence:     0.9,
			Rationale:      "distribution into strength",
		},
	}
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "m", val: 30, conf: 1, tags: []string{"trend_up"}},
	}, adv)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())
	f.scheduler.FastScan(context.Background()) // entry confirms
	f.scheduler.SlowScan(context.Background()) // oracle now sees the open position
	f.scheduler.Stop()

	pos, ok := f.recorder.last()
	if !ok {
		t.Fatalf("expected resolved position")
	}
	if pos.CloseReason != models.CloseAdvisoryExit {
		t.Fatalf("expected ADVISORY_EXIT, got %s", pos.CloseReason)
	}
}

func TestIdleCycleAdvisoryAnnotatesSignal(t *testing.T) {
	adv := &fakeAdvisor{
		adv: models.Advisory{Recommendation: models.RecommendBuy, Confidence: 0.8},
	}
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "m", val: 5, conf: 1},
	}, adv)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())
	f.scheduler.Stop()

	if _, ok := f.lifecycle.Current(); ok {
		t.Fatalf("a 55 score must not open a position")
	}
	hist := f.scheduler.History(1)
	if len(hist) != 1 || hist[0].Advisory == nil {
		t.Fatalf("idle cycle signal should carry the oracle's answer")
	}
	if !hist[0].AdvisoryConfirmed {
		t.Fatalf("a confident oracle BUY should mark the signal confirmed")
	}
}

func TestAdvisorErrorLeavesPositionAlone(t *testing.T) {
	adv := &fakeAdvisor{err: errors.New("oracle down")}
	f := newSchedulerFixture([]dsvc.ScoreProvider{
		&fakeProvider{id: "m", val: 30, conf: 1, tags: []string{"trend_up"}},
	}, adv)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())
	f.scheduler.Stop()

	if _, ok := f.lifecycle.Current(); !ok {
		t.Fatalf("advisor failure must never close the position")
	}
	if f.metrics.errCount("advisor") != 1 {
		t.Fatalf("expected advisor error metric")
	}
}

func TestSlowScanPublishesSignal(t *testing.T) {
	f := newSchedulerFixture([]dsvc.ScoreProvider{&fakeProvider{id: "m", val: 5, conf: 1}}, nil)
	fillBook(f.book, 100)

	f.scheduler.SlowScan(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		f.publisher.mu.Lock()
		n := len(f.publisher.signals)
		f.publisher.mu.Unlock()
		if n == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("signal was never published")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
