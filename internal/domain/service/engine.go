package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// ScoreProvider is the capability contract every analytic source implements.
// Providers are pure with respect to engine state: they read recent history
// and return one bounded contribution per slow scan. Adding a new source
// means adding a variant behind this interface, never touching the
// aggregator.
type ScoreProvider interface {
	// ID returns the stable source identifier used for reliability tracking.
	ID() string
	// Range returns the maximum absolute value this provider may emit.
	Range() float64
	Produce(ctx context.Context, view *models.MarketView) (models.ScoreContribution, error)
}

// Advisor is the advisory oracle: consulted for a natural-language read and
// a BUY/WAIT/SELL recommendation, but never relied on for state-machine
// correctness.
type Advisor interface {
	Advise(ctx context.Context, sig *models.AggregatedSignal, pos *models.Position) (models.Advisory, error)
}

// RiskPolicy derives the target/stop band and leverage for a new entry,
// proportional to the matched patterns' historical averages when samples
// exist.
type RiskPolicy interface {
	Plan(sig *models.AggregatedSignal, matched []models.Pattern) models.TradePlan
}
