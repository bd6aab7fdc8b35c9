package usecase

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func newTestLibrary(seed ...models.Pattern) *PatternLibrary {
	return NewPatternLibrary(LibraryParams{DemoteSample: 20, DemoteThreshold: 0.6}, seed)
}

func TestRecordOutcomeRunningAverages(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1"})

	lib.RecordOutcome([]string{"p1"}, true, 0.10)
	lib.RecordOutcome([]string{"p1"}, true, 0.20)
	lib.RecordOutcome([]string{"p1"}, false, -0.05)

	p := lib.Snapshot()[0]
	if p.TradeCount != 3 || p.WinCount != 2 {
		t.Fatalf("expected 3 trades 2 wins, got %d/%d", p.TradeCount, p.WinCount)
	}
	if math.Abs(p.AvgWinPct-0.15) > 1e-9 {
		t.Fatalf("expected avg win 0.15, got %v", p.AvgWinPct)
	}
	if math.Abs(p.AvgLossPct-0.05) > 1e-9 {
		t.Fatalf("expected avg loss magnitude 0.05, got %v", p.AvgLossPct)
	}
}

func TestRecordOutcomeUnknownIDSkipped(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1"})
	lib.RecordOutcome([]string{"ghost"}, true, 0.1)
	if p := lib.Snapshot()[0]; p.TradeCount != 0 {
		t.Fatalf("unknown id must not touch other patterns, got %d trades", p.TradeCount)
	}
}

func TestDemotionAtSampleThreshold(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1"})

	for i := 0; i < 10; i++ {
		lib.RecordOutcome([]string{"p1"}, true, 0.05)
	}
	for i := 0; i < 9; i++ {
		lib.RecordOutcome([]string{"p1"}, false, -0.05)
	}
	if p := lib.Snapshot()[0]; p.Status != models.PatternActive {
		t.Fatalf("19 samples must not demote, got %s", p.Status)
	}

	lib.RecordOutcome([]string{"p1"}, false, -0.05)
	p := lib.Snapshot()[0]
	if p.Status != models.PatternDemoted {
		t.Fatalf("20 samples at 50%% win rate should demote, got %s", p.Status)
	}
	if len(lib.ActiveSnapshot()) != 0 {
		t.Fatalf("demoted pattern must leave the active set")
	}
}

func TestHighWinRatePatternStaysActive(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1"})

	for i := 0; i < 50; i++ {
		win := i%10 != 9 // 45 wins over 50 trades
		pct := 0.04
		if !win {
			pct = -0.02
		}
		lib.RecordOutcome([]string{"p1"}, win, pct)
	}

	p := lib.Snapshot()[0]
	if p.Status != models.PatternActive {
		t.Fatalf("a 90%% win rate must never demote, got %s", p.Status)
	}
	if p.TradeCount != 50 || p.WinCount != 45 {
		t.Fatalf("expected 50 trades 45 wins, got %d/%d", p.TradeCount, p.WinCount)
	}
	if math.Abs(p.WinRate()-0.9) > 0.02 {
		t.Fatalf("win rate should converge near 0.9, got %v", p.WinRate())
	}
}

func TestConsecutiveLossesDemote(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1"})

	for i := 0; i < 20; i++ {
		lib.RecordOutcome([]string{"p1"}, false, -0.02)
	}

	p := lib.Snapshot()[0]
	if p.Status != models.PatternDemoted {
		t.Fatalf("20 straight losses should demote, got %s", p.Status)
	}
	if p.WinRate() != 0 {
		t.Fatalf("expected zero win rate, got %v", p.WinRate())
	}
}

func TestDemotedPatternKeepsCounting(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1", Status: models.PatternDemoted, TradeCount: 20, WinCount: 5})
	lib.RecordOutcome([]string{"p1"}, true, 0.05)
	p := lib.Snapshot()[0]
	if p.TradeCount != 21 || p.WinCount != 6 {
		t.Fatalf("demoted pattern stats must keep accruing, got %d/%d", p.TradeCount, p.WinCount)
	}
}

func TestPromoteAndRetire(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1", Status: models.PatternDemoted})

	if err := lib.Promote("p1"); err != nil {
		t.Fatalf("promote demoted: %v", err)
	}
	if p := lib.Snapshot()[0]; p.Status != models.PatternActive {
		t.Fatalf("expected ACTIVE after promote, got %s", p.Status)
	}

	if err := lib.Retire("p1"); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := lib.Promote("p1"); err == nil {
		t.Fatalf("promoting a retired pattern must fail")
	}
	if err := lib.Promote("ghost"); err == nil {
		t.Fatalf("promoting an unknown pattern must fail")
	}
	if err := lib.Retire("ghost"); err == nil {
		t.Fatalf("retiring an unknown pattern must fail")
	}
}

func TestAddDoesNotOverwrite(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1", TradeCount: 7})
	lib.Add(models.Pattern{ID: "p1", TradeCount: 0})
	if p := lib.Snapshot()[0]; p.TradeCount != 7 {
		t.Fatalf("re-adding an id must not reset stats, got %d", p.TradeCount)
	}
}

func TestRestoreForwardOnly(t *testing.T) {
	lib := newTestLibrary(models.Pattern{ID: "p1", TradeCount: 5, WinCount: 4})

	lib.Restore([]models.Pattern{{ID: "p1", TradeCount: 3, WinCount: 1}})
	if p := lib.Snapshot()[0]; p.TradeCount != 5 {
		t.Fatalf("stale snapshot must not roll counters back, got %d", p.TradeCount)
	}

	lib.Restore([]models.Pattern{{ID: "p1", TradeCount: 10, WinCount: 8, Status: models.PatternActive}})
	if p := lib.Snapshot()[0]; p.TradeCount != 10 || p.WinCount != 8 {
		t.Fatalf("newer snapshot should win, got %d/%d", p.TradeCount, p.WinCount)
	}
}

func TestRestoreAddsUnknownPattern(t *testing.T) {
	lib := newTestLibrary()
	lib.Restore([]models.Pattern{{ID: "learned", TradeCount: 4, Status: models.PatternActive}})
	snap := lib.Snapshot()
	if len(snap) != 1 || snap[0].ID != "learned" {
		t.Fatalf("restored unknown pattern should be added, got %v", snap)
	}
}

func TestSeedPatternsWellFormed(t *testing.T) {
	seed := SeedPatterns()
	if len(seed) == 0 {
		t.Fatalf("expected seed patterns")
	}
	seen := make(map[string]struct{})
	for _, p := range seed {
		if p.ID == "" {
			t.Fatalf("seed pattern with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			t.Fatalf("duplicate seed id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
		if len(p.AllOf) == 0 && len(p.AnyOf) == 0 {
			t.Fatalf("seed pattern %s has no activation rule", p.ID)
		}
	}
}
