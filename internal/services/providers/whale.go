package providers

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/features"
)

// WhaleWatch flags single-tick volume spikes well above the recent average
// and scores them by direction.
type WhaleWatch struct {
	window    int
	threshold float64 // spike ratio over mean volume
}

func NewWhaleWatch() *WhaleWatch {
	return &WhaleWatch{window: 120, threshold: 3}
}

func (w *WhaleWatch) ID() string     { return "whale" }
func (w *WhaleWatch) Range() float64 { return 15 }

func (w *WhaleWatch) Produce(_ context.Context, view *models.MarketView) (models.ScoreContribution, error) {
	ticks := view.Ticks
	if len(ticks) < 10 {
		return models.ScoreContribution{
			SourceID:   w.ID(),
			Confidence: 0.1,
			Detail:     "insufficient history",
		}, nil
	}
	if len(ticks) > w.window {
		ticks = ticks[len(ticks)-w.window:]
	}

	meanVol := features.Mean(volumes(ticks), len(ticks))
	if meanVol <= 0 {
		return models.ScoreContribution{
			SourceID:   w.ID(),
			Confidence: 0.2,
			Detail:     "no volume",
		}, nil
	}

	value := 0.0
	var tags []string
	spikes := 0
	for i := 1; i < len(ticks); i++ {
		ratio := ticks[i].Volume / meanVol
		if ratio < w.threshold {
			continue
		}
		spikes++
		weight := clampRange(ratio/w.threshold, 1, 3)
		if ticks[i].Price > ticks[i-1].Price {
			value += 3 * weight
		} else if ticks[i].Price < ticks[i-1].Price {
			value -= 3 * weight
		}
	}
	if spikes > 0 {
		tags = append(tags, "volume_spike")
		if value > 0 {
			tags = append(tags, "whale_buying")
		}
	}

	return models.ScoreContribution{
		SourceID:   w.ID(),
		Value:      clampRange(value, -w.Range(), w.Range()),
		Confidence: confidenceFromSamples(len(ticks), w.window),
		Tags:       tags,
		Detail:     fmt.Sprintf("spikes=%d mean_vol=%.2f", spikes, meanVol),
	}, nil
}

func volumes(ticks []models.PriceSnapshot) []float64 {
	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = t.Volume
	}
	return out
}
