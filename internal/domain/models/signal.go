package models

import "time"

// Recommendation is the action a signal or advisory resolves to.
type Recommendation string

const (
	RecommendWait Recommendation = "WAIT"
	RecommendBuy  Recommendation = "BUY"
	RecommendSell Recommendation = "SELL" // advisory-only; the engine is long-only
)

// ScoreContribution is one provider's opinion for a single scan cycle.
// It is immutable once produced and consumed only in the cycle it was
// produced for.
type ScoreContribution struct {
	SourceID   string   `json:"source_id"`
	Value      float64  `json:"value"`      // signed, magnitude bounded by the provider's declared range
	Confidence float64  `json:"confidence"` // 0..1 self-reported reliability of this reading
	Tags       []string `json:"tags,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// WeightedContribution is a contribution after reliability weighting.
type WeightedContribution struct {
	ScoreContribution
	Weight    float64 `json:"weight"`
	Effective float64 `json:"effective"` // value * confidence * weight
}

// AggregatedSignal is the one decision produced per slow scan cycle.
// Read-only after aggregation; archived by the outcome recorder.
type AggregatedSignal struct {
	Timestamp       time.Time              `json:"timestamp"`
	Symbol          string                 `json:"symbol"`
	TotalScore      float64                `json:"total_score"` // 0..100, 50 is neutral
	Breakdown       []WeightedContribution `json:"breakdown"`
	MatchedPatterns []string               `json:"matched_patterns,omitempty"`
	Recommendation  Recommendation         `json:"recommendation"`
	// Partial marks a cycle where one or more providers failed and were dropped.
	Partial bool `json:"partial,omitempty"`
	// AdvisoryConfirmed is false when the advisory oracle was unreachable or
	// had not answered by decision time; the score-only path still stands.
	AdvisoryConfirmed bool      `json:"advisory_confirmed"`
	Advisory          *Advisory `json:"advisory,omitempty"`
}

// Advisory is the oracle's natural-language read of the aggregated context.
// The engine may consult it but never depends on it for correctness.
type Advisory struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"` // 0..1
	Rationale      string         `json:"rationale,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}
