package usecase

import (
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func newTestBook() *ReliabilityBook {
	return NewReliabilityBook(ReliabilityParams{Alpha: 0.1, Floor: 0.1, WeightMin: 0.2, WeightMax: 2.0})
}

func TestUpdateSingleWinStep(t *testing.T) {
	b := newTestBook()
	b.Update([]string{"momentum"}, true, time.Now())

	w := b.Weights()["momentum"]
	// one EMA step from 0.5 toward 1.0: score 0.55, weight 1.1
	if math.Abs(w-1.1) > 1e-9 {
		t.Fatalf("expected weight 1.1 after one win, got %v", w)
	}
}

func TestUpdateConvergesOnWinStreak(t *testing.T) {
	b := newTestBook()
	for i := 0; i < 50; i++ {
		b.Update([]string{"momentum"}, true, time.Now())
	}
	w := b.Weights()["momentum"]
	if w < 1.9 {
		t.Fatalf("50 straight wins should push weight near the cap, got %v", w)
	}
	if w > 2.0 {
		t.Fatalf("weight must never exceed the cap, got %v", w)
	}
}

func TestUpdateLossStreakHitsFloorWeight(t *testing.T) {
	b := newTestBook()
	for i := 0; i < 50; i++ {
		b.Update([]string{"momentum"}, false, time.Now())
	}
	w := b.Weights()["momentum"]
	if w != 0.2 {
		t.Fatalf("sustained losses should clamp weight at the minimum, got %v", w)
	}

	snap := b.Snapshot()
	if len(snap) != 1 || snap[0].Losses != 50 {
		t.Fatalf("expected 50 recorded losses, got %+v", snap)
	}
	// the floor keeps the source recoverable, never silenced to zero
	if snap[0].Score < 0.09 {
		t.Fatalf("score should settle at the floor, got %v", snap[0].Score)
	}
}

func TestUpdateOnlyTouchesListedSources(t *testing.T) {
	b := newTestBook()
	b.Update([]string{"a"}, true, time.Now())
	b.Update([]string{"b"}, false, time.Now())

	ws := b.Weights()
	if ws["a"] <= 1.0 {
		t.Fatalf("winning source should gain trust, got %v", ws["a"])
	}
	if ws["b"] >= 1.0 {
		t.Fatalf("losing source should lose trust, got %v", ws["b"])
	}
}

func TestSnapshotSortedBySource(t *testing.T) {
	b := newTestBook()
	b.Update([]string{"zeta", "alpha", "mid"}, true, time.Now())

	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}
	if snap[0].SourceID != "alpha" || snap[2].SourceID != "zeta" {
		t.Fatalf("expected sorted snapshot, got %v", snap)
	}
}

func TestRestorePrefersMoreSampledSide(t *testing.T) {
	b := newTestBook()
	for i := 0; i < 5; i++ {
		b.Update([]string{"momentum"}, true, time.Now())
	}

	b.Restore([]models.ProviderReliability{{SourceID: "momentum", Score: 0.3, Wins: 1, Losses: 1}})
	if snap := b.Snapshot(); snap[0].Wins != 5 {
		t.Fatalf("less-sampled snapshot must not replace live state, got %+v", snap[0])
	}

	b.Restore([]models.ProviderReliability{{SourceID: "momentum", Score: 0.8, Wins: 20, Losses: 10}})
	if snap := b.Snapshot(); snap[0].Wins != 20 || snap[0].Score != 0.8 {
		t.Fatalf("more-sampled snapshot should win, got %+v", snap[0])
	}
}
