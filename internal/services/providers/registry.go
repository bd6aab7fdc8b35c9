package providers

import (
	dsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/config"
)

// All builds the provider set. Local providers are always on; networked
// providers join only when configured.
func All(cfg *config.Config) []dsvc.ScoreProvider {
	out := []dsvc.ScoreProvider{
		NewMomentum(),
		NewOrderFlow(),
		NewWhaleWatch(),
		NewTimeframeAlignment(),
		NewHalvingCycle(),
		NewEsoteric(),
	}
	if cfg.Sentiment.Enabled && cfg.Sentiment.URL != "" {
		out = append(out, NewHTTPSentiment(cfg))
	}
	return out
}

var (
	_ dsvc.ScoreProvider = (*Momentum)(nil)
	_ dsvc.ScoreProvider = (*OrderFlow)(nil)
	_ dsvc.ScoreProvider = (*WhaleWatch)(nil)
	_ dsvc.ScoreProvider = (*TimeframeAlignment)(nil)
	_ dsvc.ScoreProvider = (*HalvingCycle)(nil)
	_ dsvc.ScoreProvider = (*Esoteric)(nil)
	_ dsvc.ScoreProvider = (*HTTPSentiment)(nil)
)

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// confidenceFromSamples scales self-reported confidence by how full the
// provider's lookback window is, bottoming out at 0.3.
func confidenceFromSamples(have, want int) float64 {
	if want <= 0 || have >= want {
		return 1
	}
	c := float64(have) / float64(want)
	if c < 0.3 {
		return 0.3
	}
	return c
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
