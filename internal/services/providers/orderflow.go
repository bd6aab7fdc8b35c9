package providers

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
)

// OrderFlow measures volume-weighted up-tick vs down-tick imbalance over the
// recent window.
type OrderFlow struct {
	window int
}

func NewOrderFlow() *OrderFlow {
	return &OrderFlow{window: 60}
}

func (o *OrderFlow) ID() string     { return "orderflow" }
func (o *OrderFlow) Range() float64 { return 15 }

func (o *OrderFlow) Produce(_ context.Context, view *models.MarketView) (models.ScoreContribution, error) {
	ticks := view.Ticks
	if len(ticks) < 3 {
		return models.ScoreContribution{
			SourceID:   o.ID(),
			Confidence: 0.1,
			Detail:     "insufficient history",
		}, nil
	}
	if len(ticks) > o.window {
		ticks = ticks[len(ticks)-o.window:]
	}

	upVol, downVol := 0.0, 0.0
	for i := 1; i < len(ticks); i++ {
		switch {
		case ticks[i].Price > ticks[i-1].Price:
			upVol += ticks[i].Volume
		case ticks[i].Price < ticks[i-1].Price:
			downVol += ticks[i].Volume
		}
	}

	total := upVol + downVol
	if total == 0 {
		return models.ScoreContribution{
			SourceID:   o.ID(),
			Confidence: 0.2,
			Detail:     "no directional volume",
		}, nil
	}

	imbalance := (upVol - downVol) / total
	var tags []string
	if imbalance > 0.3 {
		tags = append(tags, "bid_pressure")
	}

	return models.ScoreContribution{
		SourceID:   o.ID(),
		Value:      clampRange(imbalance*o.Range(), -o.Range(), o.Range()),
		Confidence: confidenceFromSamples(len(ticks), o.window),
		Tags:       tags,
		Detail:     fmt.Sprintf("imbalance=%.3f up=%.1f down=%.1f", imbalance, upVol, downVol),
	}, nil
}
