package repository

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	pkgcache "TradePulse/pkg/cache"
)

func TestStateStoreRoundTrip(t *testing.T) {
	store := NewRedisStateStore(pkgcache.NewMemoryCache())
	ctx := context.Background()

	patterns := []models.Pattern{
		{ID: "FLAG_BREAKOUT", TradeCount: 12, WinCount: 8, AvgWinPct: 0.04, Status: models.PatternActive},
		{ID: "SUPPORT_BOUNCE", TradeCount: 3, Status: models.PatternDemoted},
	}
	if err := store.SavePatterns(ctx, patterns); err != nil {
		t.Fatalf("SavePatterns: %v", err)
	}
	got, err := store.LoadPatterns(ctx)
	if err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}
	if len(got) != 2 || got[0].ID != "FLAG_BREAKOUT" || got[0].WinCount != 8 {
		t.Fatalf("pattern snapshot mangled: %+v", got)
	}
	if got[1].Status != models.PatternDemoted {
		t.Fatalf("status lost in round trip: %+v", got[1])
	}

	rel := []models.ProviderReliability{{SourceID: "momentum", Score: 0.72, Wins: 9, Losses: 3}}
	if err := store.SaveReliability(ctx, rel); err != nil {
		t.Fatalf("SaveReliability: %v", err)
	}
	gotRel, err := store.LoadReliability(ctx)
	if err != nil {
		t.Fatalf("LoadReliability: %v", err)
	}
	if len(gotRel) != 1 || gotRel[0].Score != 0.72 {
		t.Fatalf("reliability snapshot mangled: %+v", gotRel)
	}
}

func TestStateStoreEmptyIsNotAnError(t *testing.T) {
	store := NewRedisStateStore(pkgcache.NewMemoryCache())
	ctx := context.Background()

	patterns, err := store.LoadPatterns(ctx)
	if err != nil {
		t.Fatalf("cold start must not error: %v", err)
	}
	if patterns != nil {
		t.Fatalf("expected nil patterns on cold start, got %v", patterns)
	}
	rel, err := store.LoadReliability(ctx)
	if err != nil || rel != nil {
		t.Fatalf("expected empty reliability on cold start, got %v err=%v", rel, err)
	}
}
