package models

import "time"

// PriceSnapshot is one tick delivered by the market data collaborator.
type PriceSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketView is the read-only slice of recent history handed to score
// providers on a slow scan. Ticks are ascending by timestamp.
type MarketView struct {
	Symbol string
	Ticks  []PriceSnapshot
}

// Last returns the most recent tick, or a zero snapshot when empty.
func (v *MarketView) Last() PriceSnapshot {
	if len(v.Ticks) == 0 {
		return PriceSnapshot{Symbol: v.Symbol}
	}
	return v.Ticks[len(v.Ticks)-1]
}

// Prices returns the close series in tick order.
func (v *MarketView) Prices() []float64 {
	out := make([]float64, len(v.Ticks))
	for i, t := range v.Ticks {
		out[i] = t.Price
	}
	return out
}

// Volumes returns the volume series in tick order.
func (v *MarketView) Volumes() []float64 {
	out := make([]float64, len(v.Ticks))
	for i, t := range v.Ticks {
		out[i] = t.Volume
	}
	return out
}
