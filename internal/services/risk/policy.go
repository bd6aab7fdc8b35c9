package risk

import (
	"TradePulse/internal/domain/models"
	dsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/config"
)

// Policy derives the exit band and leverage for a new entry. When matched
// patterns carry enough history their realized averages shape the band,
// otherwise configured defaults apply.
type Policy struct {
	targetPct   float64
	stopPct     float64
	leverage    float64
	maxLeverage float64
	minSample   int
}

func NewPolicy(cfg *config.Config) *Policy {
	return &Policy{
		targetPct:   cfg.Risk.DefaultTargetPct,
		stopPct:     cfg.Risk.DefaultStopPct,
		leverage:    cfg.Risk.DefaultLeverage,
		maxLeverage: cfg.Risk.MaxLeverage,
		minSample:   cfg.Engine.MinSample,
	}
}

func (p *Policy) Plan(sig *models.AggregatedSignal, matched []models.Pattern) models.TradePlan {
	plan := models.TradePlan{
		TargetPct: p.targetPct,
		StopPct:   p.stopPct,
		Leverage:  p.leverage,
	}

	// average the exit bands of seasoned matched patterns
	var target, stop float64
	n := 0
	for _, m := range matched {
		if m.TradeCount < p.minSample || m.AvgWinPct <= 0 || m.AvgLossPct <= 0 {
			continue
		}
		target += m.AvgWinPct
		stop += m.AvgLossPct
		n++
	}
	if n > 0 {
		plan.TargetPct = bound(target/float64(n), 0.01, 0.15)
		plan.StopPct = bound(stop/float64(n), 0.005, 0.08)
	}

	// stronger scores earn more size, never past the cap
	switch {
	case sig.TotalScore >= 90:
		plan.Leverage = p.leverage * 2
	case sig.TotalScore >= 80:
		plan.Leverage = p.leverage * 1.5
	}
	if plan.Leverage > p.maxLeverage {
		plan.Leverage = p.maxLeverage
	}
	return plan
}

func bound(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ dsvc.RiskPolicy = (*Policy)(nil)
