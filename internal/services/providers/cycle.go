package providers

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
)

// halvings are the block-reward halving dates used to locate the current
// macro cycle phase.
var halvings = []time.Time{
	time.Date(2016, 7, 9, 0, 0, 0, 0, time.UTC),
	time.Date(2020, 5, 11, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
	time.Date(2028, 4, 1, 0, 0, 0, 0, time.UTC), // projected
}

// HalvingCycle scores the macro phase by days elapsed since the most recent
// halving. Historically the strongest stretch runs from roughly six months
// to eighteen months after the event.
type HalvingCycle struct {
	now func() time.Time
}

func NewHalvingCycle() *HalvingCycle {
	return &HalvingCycle{now: time.Now}
}

func (h *HalvingCycle) ID() string     { return "halving_cycle" }
func (h *HalvingCycle) Range() float64 { return 10 }

func (h *HalvingCycle) Produce(_ context.Context, _ *models.MarketView) (models.ScoreContribution, error) {
	now := h.now().UTC()
	var last time.Time
	for _, hv := range halvings {
		if hv.After(now) {
			break
		}
		last = hv
	}
	if last.IsZero() {
		return models.ScoreContribution{
			SourceID:   h.ID(),
			Confidence: 0.1,
			Detail:     "before first known halving",
		}, nil
	}

	days := int(now.Sub(last).Hours() / 24)
	var value float64
	var tags []string
	switch {
	case days < 180:
		value = 3 // accumulation
	case days < 550:
		value = 8 // expansion
		tags = append(tags, "bull_phase")
	case days < 700:
		value = 0 // distribution
	default:
		value = -6 // contraction
	}

	return models.ScoreContribution{
		SourceID:   h.ID(),
		Value:      value,
		Confidence: 0.5,
		Tags:       tags,
		Detail:     fmt.Sprintf("days_since_halving=%d", days),
	}, nil
}
