package usecase

import (
	"errors"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrPositionActive rejects a BUY while a position is already in flight.
	// The signal is discarded, never queued.
	ErrPositionActive = errors.New("position already active")
	// ErrNoPosition rejects operations that need a live position.
	ErrNoPosition = errors.New("no active position")
)

// Recorder receives every resolved position synchronously, before the
// lifecycle accepts the next entry.
type Recorder interface {
	Record(pos models.Position, sig models.AggregatedSignal)
}

// Lifecycle owns the single paper position and every transition it makes:
// IDLE -> ENTRY_WINDOW -> OPEN -> CLOSED. All transitions serialize through
// one mutex, which is what enforces the single-open-position invariant.
type Lifecycle struct {
	mu          sync.Mutex
	symbol      string
	entryWindow time.Duration

	pos        *models.Position
	openSig    *models.AggregatedSignal // frozen signal that opened pos
	lastClosed *models.Position

	recorder Recorder
	metrics  drepo.Metrics
	log      *logger.Logger
}

func NewLifecycle(symbol string, entryWindow time.Duration, recorder Recorder, metrics drepo.Metrics, log *logger.Logger) *Lifecycle {
	if entryWindow <= 0 {
		entryWindow = 60 * time.Second
	}
	return &Lifecycle{
		symbol:      symbol,
		entryWindow: entryWindow,
		recorder:    recorder,
		metrics:     metrics,
		log:         log,
	}
}

// OnSignal feeds a slow-tick decision into the state machine. A BUY while
// idle opens the entry window at the signal-time price; a BUY while a
// position is in flight is logged and discarded.
func (l *Lifecycle) OnSignal(sig *models.AggregatedSignal, price float64, plan models.TradePlan) (*models.Position, error) {
	if sig == nil || sig.Recommendation != models.RecommendBuy {
		return nil, nil
	}
	if price <= 0 {
		return nil, errors.New("no valid price for entry")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pos != nil {
		l.metrics.RecordError("buy_discarded")
		l.log.Warn("BUY discarded, position in flight",
			logger.String("position_id", l.pos.ID),
			logger.String("status", string(l.pos.Status)))
		return nil, ErrPositionActive
	}

	matched := make([]string, len(sig.MatchedPatterns))
	copy(matched, sig.MatchedPatterns)

	pos := &models.Position{
		ID:                   uuid.NewString(),
		Symbol:               l.symbol,
		Status:               models.PositionEntryWindow,
		Version:              1,
		EntryPrice:           price,
		TargetPrice:          price * (1 + plan.TargetPct),
		StopPrice:            price * (1 - plan.StopPct),
		Leverage:             plan.Leverage,
		OpenedAt:             sig.Timestamp,
		EntryWindowExpiresAt: sig.Timestamp.Add(l.entryWindow),
		MatchedPatterns:      matched,
	}
	sigCopy := *sig
	l.pos = pos
	l.openSig = &sigCopy

	l.metrics.RecordTransition(string(models.PositionEntryWindow), "")
	l.log.Info("entry window opened",
		logger.String("position_id", pos.ID),
		logger.Float64("entry", pos.EntryPrice),
		logger.Float64("target", pos.TargetPrice),
		logger.Float64("stop", pos.StopPrice),
		logger.Float64("score", sig.TotalScore))

	cp := *pos
	return &cp, nil
}

// OnPrice drives the fast tick: entry confirmation, window timeout, and
// stop/target resolution. The stop check runs before the target check so a
// gap tick that crosses both resolves to STOP_HIT.
func (l *Lifecycle) OnPrice(snap *models.PriceSnapshot) {
	if snap == nil || snap.Price <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pos == nil {
		return
	}

	switch l.pos.Status {
	case models.PositionEntryWindow:
		if !snap.Timestamp.Before(l.pos.EntryWindowExpiresAt) {
			l.closeLocked(snap.Timestamp, l.pos.EntryPrice, models.CloseTimeout)
			return
		}
		// Entry is assumed taken on the first tick inside the window; this
		// is a paper simulator with no order confirmation to wait for.
		l.pos.Status = models.PositionOpen
		l.pos.Entered = true
		l.pos.Version++
		l.metrics.RecordTransition(string(models.PositionOpen), "")
		l.log.Info("position open",
			logger.String("position_id", l.pos.ID),
			logger.Float64("entry", l.pos.EntryPrice))

	case models.PositionOpen:
		switch {
		case snap.Price <= l.pos.StopPrice:
			l.closeLocked(snap.Timestamp, snap.Price, models.CloseStopHit)
		case snap.Price >= l.pos.TargetPrice:
			l.closeLocked(snap.Timestamp, snap.Price, models.CloseTargetHit)
		}

	default:
		// CLOSED is terminal; a lingering pointer here is a logic fault.
		l.metrics.RecordError("invariant_violation")
		l.log.Error("closed position still attached to lifecycle",
			logger.String("position_id", l.pos.ID))
		l.pos = nil
		l.openSig = nil
	}
}

// ApplyAdvisory applies an oracle SELL to the open position. Results that
// were captured against a position state that has since moved on, including
// advisories requested during the entry window of a position that has now
// opened, are discarded by the id/version comparison, never applied.
func (l *Lifecycle) ApplyAdvisory(positionID string, version int, adv models.Advisory, price float64, minConfidence float64) bool {
	if adv.Recommendation != models.RecommendSell || adv.Confidence < minConfidence {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pos == nil || l.pos.ID != positionID || l.pos.Version != version {
		l.metrics.RecordError("advisory_stale")
		l.log.Debug("stale advisory discarded", logger.String("position_id", positionID))
		return false
	}
	if l.pos.Status != models.PositionOpen || price <= 0 {
		return false
	}

	l.log.Warn("advisory exit override",
		logger.String("position_id", l.pos.ID),
		logger.Float64("confidence", adv.Confidence),
		logger.String("rationale", adv.Rationale))
	l.closeLocked(adv.Timestamp, price, models.CloseAdvisoryExit)
	return true
}

// CloseManual flattens the position on operator request.
func (l *Lifecycle) CloseManual(price float64, now time.Time) (*models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pos == nil {
		return nil, ErrNoPosition
	}
	if price <= 0 {
		price = l.pos.EntryPrice
	}
	l.closeLocked(now, price, models.CloseManual)
	cp := *l.lastClosed
	return &cp, nil
}

// closeLocked finishes the position and hands it to the recorder before the
// lifecycle will accept another entry. Caller holds the mutex.
func (l *Lifecycle) closeLocked(now time.Time, price float64, reason models.CloseReason) {
	pos := l.pos
	pos.Status = models.PositionClosed
	pos.Version++
	pos.ClosedAt = now
	pos.ClosePrice = price
	pos.CloseReason = reason
	if pos.Entered && pos.EntryPrice > 0 {
		pos.RealizedPct = (price - pos.EntryPrice) / pos.EntryPrice * pos.Leverage
	}

	l.metrics.RecordTransition(string(models.PositionClosed), string(reason))
	l.log.Info("position closed",
		logger.String("position_id", pos.ID),
		logger.String("reason", string(reason)),
		logger.Float64("close", price),
		logger.Float64("realized_pct", pos.RealizedPct))

	if l.recorder != nil && l.openSig != nil {
		l.recorder.Record(*pos, *l.openSig)
	}

	l.lastClosed = pos
	l.pos = nil
	l.openSig = nil
}

// Current returns a copy of the in-flight position, if any.
func (l *Lifecycle) Current() (*models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pos == nil {
		return nil, false
	}
	cp := *l.pos
	return &cp, true
}

// CurrentRef returns the id and version of the in-flight position for
// advisory stale-result comparison.
func (l *Lifecycle) CurrentRef() (string, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pos == nil {
		return "", 0, false
	}
	return l.pos.ID, l.pos.Version, true
}

// LastClosed returns a copy of the most recently resolved position.
func (l *Lifecycle) LastClosed() (*models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastClosed == nil {
		return nil, false
	}
	cp := *l.lastClosed
	return &cp, true
}

// Idle reports whether the lifecycle can accept a new entry.
func (l *Lifecycle) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos == nil
}
