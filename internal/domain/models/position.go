package models

import "time"

// PositionStatus is the lifecycle state of a paper position. There is no
// stored IDLE state: idle means no position exists yet for the next trade.
type PositionStatus string

const (
	PositionEntryWindow PositionStatus = "ENTRY_WINDOW"
	PositionOpen        PositionStatus = "OPEN"
	PositionClosed      PositionStatus = "CLOSED"
)

// CloseReason explains a transition into CLOSED.
type CloseReason string

const (
	CloseTargetHit    CloseReason = "TARGET_HIT"
	CloseStopHit      CloseReason = "STOP_HIT"
	CloseManual       CloseReason = "MANUAL"
	CloseTimeout      CloseReason = "TIMEOUT"
	CloseAdvisoryExit CloseReason = "ADVISORY_EXIT"
)

// Position is the paper-trading unit. At most one position may be
// ENTRY_WINDOW or OPEN at a time; CLOSED is terminal and a fresh Position is
// created for the next trade.
type Position struct {
	ID     string         `json:"id"`
	Symbol string         `json:"symbol"`
	Status PositionStatus `json:"status"`
	// Version bumps on every transition; in-flight advisory results are
	// compared against it so stale answers never touch a newer state.
	Version int `json:"version"`

	EntryPrice  float64 `json:"entry_price"`
	TargetPrice float64 `json:"target_price"`
	StopPrice   float64 `json:"stop_price"`
	Leverage    float64 `json:"leverage"`

	// Entered flips once the entry window confirms; a window that lapses
	// (or is flattened) before entry resolves with no trade taken.
	Entered bool `json:"entered"`

	OpenedAt             time.Time `json:"opened_at"`
	EntryWindowExpiresAt time.Time `json:"entry_window_expires_at"`
	ClosedAt             time.Time `json:"closed_at,omitempty"`

	CloseReason CloseReason `json:"close_reason,omitempty"`
	ClosePrice  float64     `json:"close_price,omitempty"`
	RealizedPct float64     `json:"realized_pct"`

	// Frozen copy of the opening signal's matched patterns, so later pattern
	// mutation never retroactively changes attribution.
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
}

// TradeOutcome is the append-only audit record of a resolved position
// together with the signal that opened it.
type TradeOutcome struct {
	Position   Position         `json:"position"`
	Signal     AggregatedSignal `json:"signal"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// TradePlan is what the risk policy collaborator derives for a new entry.
type TradePlan struct {
	TargetPct float64 `json:"target_pct"` // positive, e.g. 0.05 for +5%
	StopPct   float64 `json:"stop_pct"`   // positive magnitude below entry
	Leverage  float64 `json:"leverage"`
}
