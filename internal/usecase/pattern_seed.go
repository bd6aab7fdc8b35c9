package usecase

import "TradePulse/internal/domain/models"

// SeedPatterns returns the starting set of named setups. Tags reference the
// identifiers emitted by the score providers; statistics accumulate from
// live outcomes.
func SeedPatterns() []models.Pattern {
	return []models.Pattern{
		{
			ID:          "FLAG_BREAKOUT",
			Description: "Bullish flag breakout: tight consolidation inside a strong trend resolving upward on volume",
			AllOf:       []string{"trend_up", "breakout"},
			AnyOf:       []string{"volume_spike", "tf_aligned"},
		},
		{
			ID:          "SUPPORT_BOUNCE",
			Description: "Support bounce with volume confirmation after a rejection of lower prices",
			AllOf:       []string{"oversold", "bid_pressure"},
			AnyOf:       []string{"volume_spike", "whale_buying"},
		},
		{
			ID:          "EMA_PULLBACK",
			Description: "Pullback to the short EMA in an established uptrend, momentum not oversold",
			AllOf:       []string{"trend_up", "pullback"},
		},
		{
			ID:          "VOLUME_SPIKE_BREAKOUT",
			Description: "Range breakout on an outsized volume spike with momentum confirmation",
			AllOf:       []string{"volume_spike", "breakout"},
		},
		{
			ID:          "CYCLE_MOMENTUM",
			Description: "Bull-phase cycle position with multi-timeframe alignment behind it",
			AllOf:       []string{"bull_phase", "tf_aligned"},
		},
		{
			ID:          "SESSION_REVERSAL",
			Description: "Oversold dump during the quiet session recovering as the busy session opens",
			AllOf:       []string{"oversold", "session_turn"},
			AnyOf:       []string{"bid_pressure", "lunar_favorable"},
		},
	}
}
