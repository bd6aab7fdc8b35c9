package usecase

import (
	"sort"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
)

// ReliabilityParams tune how fast provider trust adapts.
type ReliabilityParams struct {
	Alpha     float64 // EMA step per resolved trade
	Floor     float64 // loss attractor; keeps a source from being silenced
	WeightMin float64
	WeightMax float64
}

const neutralReliability = 0.5 // maps to weight 1.0

// ReliabilityBook holds the adaptive trust score per provider. It is updated
// exactly once per resolved position by the learning feedback step, never
// by a provider itself.
type ReliabilityBook struct {
	mu     sync.RWMutex
	params ReliabilityParams
	m      map[string]*models.ProviderReliability
}

func NewReliabilityBook(params ReliabilityParams) *ReliabilityBook {
	if params.Alpha == 0 {
		params.Alpha = 0.1
	}
	if params.Floor == 0 {
		params.Floor = 0.1
	}
	if params.WeightMin == 0 {
		params.WeightMin = 0.2
	}
	if params.WeightMax == 0 {
		params.WeightMax = 2.0
	}
	return &ReliabilityBook{params: params, m: make(map[string]*models.ProviderReliability)}
}

// Weights returns the aggregator-facing weight snapshot. A reliability of
// 0.5 is neutral trust (weight 1.0); the mapping is clamped to the
// configured bounds so no source is silenced or dominates.
func (b *ReliabilityBook) Weights() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.m))
	for id, r := range b.m {
		out[id] = clamp(2*r.Score, b.params.WeightMin, b.params.WeightMax)
	}
	return out
}

// Update moves every listed source toward 1.0 on a win and toward the floor
// on a loss, one EMA step. A single outlier trade nudges trust; only a run
// of outcomes moves it far.
func (b *ReliabilityBook) Update(sourceIDs []string, win bool, now time.Time) {
	target := b.params.Floor
	if win {
		target = 1.0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range sourceIDs {
		r, ok := b.m[id]
		if !ok {
			r = &models.ProviderReliability{SourceID: id, Score: neutralReliability}
			b.m[id] = r
		}
		r.Score = r.Score*(1-b.params.Alpha) + target*b.params.Alpha
		if win {
			r.Wins++
		} else {
			r.Losses++
		}
		r.UpdatedAt = now
	}
}

// Snapshot returns per-provider reliability sorted by source ID.
func (b *ReliabilityBook) Snapshot() []models.ProviderReliability {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.ProviderReliability, 0, len(b.m))
	for _, r := range b.m {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// Restore loads persisted reliability, keeping whichever side has seen more
// outcomes.
func (b *ReliabilityBook) Restore(saved []models.ProviderReliability) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range saved {
		cur, ok := b.m[s.SourceID]
		if !ok || s.Wins+s.Losses >= cur.Wins+cur.Losses {
			cp := s
			b.m[s.SourceID] = &cp
		}
	}
}
