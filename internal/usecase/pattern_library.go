package usecase

import (
	"fmt"
	"math"
	"sync"

	"TradePulse/internal/domain/models"
)

// LibraryParams control when a pattern is demoted.
type LibraryParams struct {
	DemoteSample    int     // minimum samples before demotion is considered
	DemoteThreshold float64 // win rate below which a sampled pattern demotes
}

// PatternLibrary is the persistent registry of named setups with live
// win-rate statistics. Counters only grow; status is the one reversible
// field (demotion here, promotion by an operator). Patterns are never
// deleted so history can always be replayed from the audit log.
type PatternLibrary struct {
	mu       sync.RWMutex
	params   LibraryParams
	patterns map[string]*models.Pattern
	order    []string // insertion order for stable snapshots
}

func NewPatternLibrary(params LibraryParams, seed []models.Pattern) *PatternLibrary {
	if params.DemoteSample == 0 {
		params.DemoteSample = 20
	}
	if params.DemoteThreshold == 0 {
		params.DemoteThreshold = 0.6
	}
	lib := &PatternLibrary{
		params:   params,
		patterns: make(map[string]*models.Pattern, len(seed)),
	}
	for _, p := range seed {
		lib.add(p)
	}
	return lib
}

func (l *PatternLibrary) add(p models.Pattern) {
	if p.Status == "" {
		p.Status = models.PatternActive
	}
	if _, exists := l.patterns[p.ID]; exists {
		return
	}
	cp := p
	l.patterns[p.ID] = &cp
	l.order = append(l.order, p.ID)
}

// Add registers a new pattern. Existing IDs are not overwritten; their
// statistics are history.
func (l *PatternLibrary) Add(p models.Pattern) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(p)
}

// ActiveSnapshot returns copies of all ACTIVE patterns for the aggregator.
func (l *PatternLibrary) ActiveSnapshot() []models.Pattern {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Pattern, 0, len(l.order))
	for _, id := range l.order {
		if p := l.patterns[id]; p.Status == models.PatternActive {
			out = append(out, *p)
		}
	}
	return out
}

// Snapshot returns copies of every pattern regardless of status.
func (l *PatternLibrary) Snapshot() []models.Pattern {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Pattern, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.patterns[id])
	}
	return out
}

// RecordOutcome attributes one resolved trade to the given patterns,
// updating counts and running averages with incremental means, then applies
// the demotion rule. Unknown IDs are skipped.
func (l *PatternLibrary) RecordOutcome(patternIDs []string, win bool, pct float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range patternIDs {
		p, ok := l.patterns[id]
		if !ok {
			continue
		}
		p.TradeCount++
		if win {
			p.WinCount++
			p.AvgWinPct += (pct - p.AvgWinPct) / float64(p.WinCount)
		} else {
			losses := p.TradeCount - p.WinCount
			p.AvgLossPct += (math.Abs(pct) - p.AvgLossPct) / float64(losses)
		}
		if p.Status == models.PatternActive &&
			p.TradeCount >= l.params.DemoteSample &&
			p.WinRate() < l.params.DemoteThreshold {
			p.Status = models.PatternDemoted
		}
	}
}

// Promote restores a demoted pattern to ACTIVE. This is the operator's
// override; the engine itself never promotes.
func (l *PatternLibrary) Promote(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.patterns[id]
	if !ok {
		return fmt.Errorf("pattern %s not found", id)
	}
	if p.Status == models.PatternRetired {
		return fmt.Errorf("pattern %s is retired", id)
	}
	p.Status = models.PatternActive
	return nil
}

// Retire permanently removes a pattern from matching while keeping its
// statistics.
func (l *PatternLibrary) Retire(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.patterns[id]
	if !ok {
		return fmt.Errorf("pattern %s not found", id)
	}
	p.Status = models.PatternRetired
	return nil
}

// Restore merges persisted statistics into the seeded set. Stats only move
// forward: a stale snapshot never rolls counters back.
func (l *PatternLibrary) Restore(saved []models.Pattern) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range saved {
		p, ok := l.patterns[s.ID]
		if !ok {
			cp := s
			l.patterns[s.ID] = &cp
			l.order = append(l.order, s.ID)
			continue
		}
		if s.TradeCount >= p.TradeCount {
			p.TradeCount = s.TradeCount
			p.WinCount = s.WinCount
			p.AvgWinPct = s.AvgWinPct
			p.AvgLossPct = s.AvgLossPct
			p.Status = s.Status
		}
	}
}
