package usecase

import (
	"sort"
	"time"

	"TradePulse/internal/domain/models"
)

const neutralScore = 50.0

// AggregatorParams are the thresholds the aggregator decides with.
type AggregatorParams struct {
	BuyThreshold float64 // total score at or above which BUY fires
	MinSample    int     // below this a pattern counts as untested
	MinWinRate   float64 // proven patterns below this are excluded
	WeightMin    float64
	WeightMax    float64
}

// Aggregator folds independent provider contributions into one decision.
// It is a pure function of its inputs plus the read-only pattern and weight
// snapshots it is handed; all side effects live elsewhere.
type Aggregator struct {
	params AggregatorParams
}

func NewAggregator(params AggregatorParams) *Aggregator {
	if params.WeightMin == 0 {
		params.WeightMin = 0.2
	}
	if params.WeightMax == 0 {
		params.WeightMax = 2.0
	}
	return &Aggregator{params: params}
}

// Aggregate combines the cycle's contributions into one AggregatedSignal.
// Evidence is additive around the neutral midpoint of 50 so independent
// sources accumulate instead of averaging each other out; the result is
// clamped to [0,100].
func (a *Aggregator) Aggregate(
	ts time.Time,
	symbol string,
	contributions []models.ScoreContribution,
	patterns []models.Pattern,
	weights map[string]float64,
	partial bool,
) models.AggregatedSignal {
	breakdown := make([]models.WeightedContribution, 0, len(contributions))
	tags := make(map[string]struct{})
	sum := 0.0

	for _, c := range contributions {
		w := a.clampWeight(weights[c.SourceID])
		eff := c.Value * c.Confidence * w
		sum += eff
		breakdown = append(breakdown, models.WeightedContribution{
			ScoreContribution: c,
			Weight:            w,
			Effective:         eff,
		})
		for _, t := range c.Tags {
			tags[t] = struct{}{}
		}
	}

	total := clamp(neutralScore+sum, 0, 100)

	matched := matchPatterns(patterns, tags)

	sig := models.AggregatedSignal{
		Timestamp:       ts,
		Symbol:          symbol,
		TotalScore:      total,
		Breakdown:       breakdown,
		MatchedPatterns: patternIDs(matched),
		Recommendation:  models.RecommendWait,
		Partial:         partial,
	}

	if total >= a.params.BuyThreshold && a.patternGate(matched) {
		sig.Recommendation = models.RecommendBuy
	}
	return sig
}

// patternGate admits untested patterns at reduced confidence so discovery
// keeps working, and blocks proven-bad ones even when the raw score is high.
func (a *Aggregator) patternGate(matched []models.Pattern) bool {
	for _, p := range matched {
		if p.TradeCount < a.params.MinSample || p.WinRate() >= a.params.MinWinRate {
			return true
		}
	}
	return false
}

func (a *Aggregator) clampWeight(w float64) float64 {
	if w == 0 {
		return 1.0 // unknown source starts at neutral trust
	}
	return clamp(w, a.params.WeightMin, a.params.WeightMax)
}

// matchPatterns returns ACTIVE patterns whose activation rule is satisfied,
// in deterministic ID order.
func matchPatterns(patterns []models.Pattern, tags map[string]struct{}) []models.Pattern {
	var matched []models.Pattern
	for _, p := range patterns {
		if p.Status != models.PatternActive {
			continue
		}
		if p.Matches(tags) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func patternIDs(ps []models.Pattern) []string {
	if len(ps) == 0 {
		return nil
	}
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
