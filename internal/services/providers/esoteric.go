package providers

import (
	"context"
	"fmt"
	"math"
	"time"

	"TradePulse/internal/domain/models"
)

// synodicMonth is the mean length of a lunar cycle in days.
const synodicMonth = 29.530588

// newMoonEpoch is a reference new moon (2000-01-06 18:14 UTC).
var newMoonEpoch = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// Esoteric contributes a deliberately small value from calendar effects:
// lunar phase and major session opens. Kept in the mix because its tags feed
// patterns that track whether these effects ever earn statistical support.
type Esoteric struct {
	now func() time.Time
}

func NewEsoteric() *Esoteric {
	return &Esoteric{now: time.Now}
}

func (e *Esoteric) ID() string     { return "esoteric" }
func (e *Esoteric) Range() float64 { return 5 }

func (e *Esoteric) Produce(_ context.Context, _ *models.MarketView) (models.ScoreContribution, error) {
	now := e.now().UTC()

	days := now.Sub(newMoonEpoch).Hours() / 24
	phase := math.Mod(days, synodicMonth)
	if phase < 0 {
		phase += synodicMonth
	}

	var value float64
	var tags []string
	// waxing half is scored mildly positive, waning mildly negative
	if phase < synodicMonth/2 {
		value = 2
		if phase < 3 {
			value = 3
			tags = append(tags, "lunar_favorable")
		}
	} else {
		value = -2
	}

	// London and New York opens
	if h := now.Hour(); h == 8 || h == 13 {
		tags = append(tags, "session_turn")
	}

	return models.ScoreContribution{
		SourceID:   e.ID(),
		Value:      value,
		Confidence: 0.3,
		Tags:       tags,
		Detail:     fmt.Sprintf("lunar_phase_days=%.1f", phase),
	}, nil
}
