package providers

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/features"
)

// Momentum scores trend strength from RSI and a fast/slow EMA crossover.
type Momentum struct {
	rsiPeriod int
	fast      int
	slow      int
}

func NewMomentum() *Momentum {
	return &Momentum{rsiPeriod: 14, fast: 12, slow: 26}
}

func (m *Momentum) ID() string     { return "momentum" }
func (m *Momentum) Range() float64 { return 20 }

func (m *Momentum) Produce(_ context.Context, view *models.MarketView) (models.ScoreContribution, error) {
	prices := view.Prices()
	if len(prices) < m.slow {
		return models.ScoreContribution{
			SourceID:   m.ID(),
			Confidence: 0.1,
			Detail:     "insufficient history",
		}, nil
	}

	rsi := features.RSI(prices, m.rsiPeriod)
	fast := features.EMA(prices, m.fast)
	slow := features.EMA(prices, m.slow)

	value := 0.0
	var tags []string

	if fast > slow && slow > 0 {
		spread := (fast - slow) / slow
		value += clampRange(spread*2000, 0, 10)
		tags = append(tags, "trend_up")
		if rsi < 45 {
			tags = append(tags, "pullback")
		}
	} else if slow > 0 {
		spread := (slow - fast) / slow
		value -= clampRange(spread*2000, 0, 10)
	}

	switch {
	case rsi < 30:
		value += 6
		tags = append(tags, "oversold")
	case rsi > 50 && rsi <= 70:
		value += (rsi - 50) / 2
	case rsi > 70:
		value -= (rsi - 70) / 3 // overbought chases are punished
	}

	if last := prices[len(prices)-1]; last >= maxOf(prices[:len(prices)-1]) {
		tags = append(tags, "breakout")
	}

	return models.ScoreContribution{
		SourceID:   m.ID(),
		Value:      clampRange(value, -m.Range(), m.Range()),
		Confidence: confidenceFromSamples(len(prices), m.slow*2),
		Tags:       tags,
		Detail:     fmt.Sprintf("rsi=%.1f fast=%.2f slow=%.2f", rsi, fast, slow),
	}, nil
}
