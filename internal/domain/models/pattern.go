package models

// PatternStatus tracks where a pattern sits in its audit lifecycle.
// Patterns are never deleted, only retired, so history stays replayable.
type PatternStatus string

const (
	PatternActive  PatternStatus = "ACTIVE"
	PatternDemoted PatternStatus = "DEMOTED"
	PatternRetired PatternStatus = "RETIRED"
)

// Pattern is a named trade setup with a persistent win-rate record.
// Counters are monotonically non-decreasing; only Status may move both ways
// (demotion by the engine, promotion by an operator).
type Pattern struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	// Activation rule: every tag in AllOf must be present in the cycle's
	// contribution tags, and at least one of AnyOf when it is non-empty.
	AllOf []string `json:"all_of,omitempty"`
	AnyOf []string `json:"any_of,omitempty"`

	TradeCount int     `json:"trade_count"`
	WinCount   int     `json:"win_count"`
	AvgWinPct  float64 `json:"avg_win_pct"`
	AvgLossPct float64 `json:"avg_loss_pct"` // stored as a positive magnitude

	Status PatternStatus `json:"status"`
}

// Matches reports whether the activation rule is satisfied by the tag set.
func (p *Pattern) Matches(tags map[string]struct{}) bool {
	for _, t := range p.AllOf {
		if _, ok := tags[t]; !ok {
			return false
		}
	}
	if len(p.AnyOf) == 0 {
		return true
	}
	for _, t := range p.AnyOf {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

// WinRate returns wins/trades, or 0 with no samples.
func (p *Pattern) WinRate() float64 {
	if p.TradeCount == 0 {
		return 0
	}
	return float64(p.WinCount) / float64(p.TradeCount)
}

// ProfitFactor returns gross win / gross loss over the recorded averages.
func (p *Pattern) ProfitFactor() float64 {
	losses := p.TradeCount - p.WinCount
	grossLoss := float64(losses) * p.AvgLossPct
	if grossLoss <= 0 {
		if p.WinCount > 0 {
			return 999
		}
		return 0
	}
	return (float64(p.WinCount) * p.AvgWinPct) / grossLoss
}
