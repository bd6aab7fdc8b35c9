package providers

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/features"
)

// TimeframeAlignment checks whether short, medium and long trailing windows
// agree on direction. Full agreement is a strong reading, mixed windows
// cancel out.
type TimeframeAlignment struct {
	windows []int
}

func NewTimeframeAlignment() *TimeframeAlignment {
	return &TimeframeAlignment{windows: []int{10, 40, 160}}
}

func (t *TimeframeAlignment) ID() string     { return "timeframe" }
func (t *TimeframeAlignment) Range() float64 { return 15 }

func (t *TimeframeAlignment) Produce(_ context.Context, view *models.MarketView) (models.ScoreContribution, error) {
	prices := view.Prices()
	if len(prices) < t.windows[0] {
		return models.ScoreContribution{
			SourceID:   t.ID(),
			Confidence: 0.1,
			Detail:     "insufficient history",
		}, nil
	}

	up, down, usable := 0, 0, 0
	for _, w := range t.windows {
		if len(prices) < w {
			continue
		}
		usable++
		switch chg := features.PctChange(prices, w); {
		case chg > 0:
			up++
		case chg < 0:
			down++
		}
	}
	if usable == 0 {
		return models.ScoreContribution{
			SourceID:   t.ID(),
			Confidence: 0.1,
			Detail:     "insufficient history",
		}, nil
	}

	value := float64(up-down) / float64(len(t.windows)) * t.Range()
	var tags []string
	if up == usable && usable >= 2 {
		tags = append(tags, "tf_aligned")
	}

	return models.ScoreContribution{
		SourceID:   t.ID(),
		Value:      clampRange(value, -t.Range(), t.Range()),
		Confidence: float64(usable) / float64(len(t.windows)),
		Tags:       tags,
		Detail:     fmt.Sprintf("up=%d down=%d windows=%d", up, down, usable),
	}, nil
}
