package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	dsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/logger"
)

// SchedulerParams tunes the two scan cadences.
type SchedulerParams struct {
	SlowInterval         time.Duration
	FastInterval         time.Duration
	ProviderTimeout      time.Duration
	HistorySize          int
	SignalHistory        int
	AdvisorMinConfidence float64
}

// ScanScheduler runs the engine's dual loop: the slow scan fans out to every
// score provider and may open a position, the fast scan watches the live
// price against the open position's exit levels.
type ScanScheduler struct {
	params    SchedulerParams
	book      *PriceBook
	providers []dsvc.ScoreProvider
	agg       *Aggregator
	patterns  *PatternLibrary
	weights   *ReliabilityBook
	lifecycle *Lifecycle
	risk      dsvc.RiskPolicy
	advisor   dsvc.Advisor
	pub       drepo.Publisher
	metrics   drepo.Metrics
	log       *logger.Logger

	mu      sync.RWMutex
	history []models.AggregatedSignal

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewScanScheduler(
	params SchedulerParams,
	book *PriceBook,
	providers []dsvc.ScoreProvider,
	agg *Aggregator,
	patterns *PatternLibrary,
	weights *ReliabilityBook,
	lifecycle *Lifecycle,
	risk dsvc.RiskPolicy,
	advisor dsvc.Advisor,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	log *logger.Logger,
) *ScanScheduler {
	if params.SignalHistory <= 0 {
		params.SignalHistory = 50
	}
	return &ScanScheduler{
		params:    params,
		book:      book,
		providers: providers,
		agg:       agg,
		patterns:  patterns,
		weights:   weights,
		lifecycle: lifecycle,
		risk:      risk,
		advisor:   advisor,
		pub:       pub,
		metrics:   metrics,
		log:       log,
		stopCh:    make(chan struct{}),
	}
}

// Start launches both scan loops. They run until Stop or context cancel.
func (s *ScanScheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.loop(ctx, s.params.SlowInterval, s.SlowScan)
	go s.loop(ctx, s.params.FastInterval, s.FastScan)
}

// Stop terminates the loops and waits for them to drain.
func (s *ScanScheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ScanScheduler) loop(ctx context.Context, interval time.Duration, scan func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			scan(ctx)
		}
	}
}

// FastScan feeds the latest tick to the position lifecycle.
func (s *ScanScheduler) FastScan(_ context.Context) {
	snap, ok := s.book.Latest()
	if !ok {
		return
	}
	s.lifecycle.OnPrice(&snap)
	s.metrics.RecordCycle("fast")
}

// SlowScan fans out to every provider, aggregates, and hands a BUY to the
// lifecycle. Provider failures degrade the signal, never abort the scan.
func (s *ScanScheduler) SlowScan(ctx context.Context) {
	start := time.Now()
	if s.book.Len() == 0 {
		return
	}
	view := s.book.View(s.params.HistorySize)

	contributions, partial := s.collect(ctx, view)
	sig := s.agg.Aggregate(
		start.UTC(),
		view.Symbol,
		contributions,
		s.patterns.ActiveSnapshot(),
		s.weights.Weights(),
		partial,
	)

	s.record(sig)
	s.metrics.RecordCycle("slow")
	s.metrics.RecordScore(sig.Symbol, sig.TotalScore)
	s.metrics.RecordLatency("slow_scan", time.Since(start).Seconds())

	if s.pub != nil {
		go func(out models.AggregatedSignal) {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.pub.PublishSignal(pubCtx, &out); err != nil {
				s.metrics.RecordError("signal_publish")
			}
		}(sig)
	}

	if sig.Recommendation == models.RecommendBuy {
		if price, ok := s.book.Latest(); ok {
			plan := s.risk.Plan(&sig, s.matchedPatterns(sig.MatchedPatterns))
			_, _ = s.lifecycle.OnSignal(&sig, price.Price, plan)
		}
	}

	// the oracle runs off the fast path so its latency never delays a stop
	if s.advisor != nil {
		id, version, inFlight := s.lifecycle.CurrentRef()
		s.wg.Add(1)
		go s.consult(ctx, sig, id, version, inFlight)
	}
}

// collect fans out to providers with a shared deadline. Results arrive in
// goroutine order, so they are sorted by source before aggregation to keep
// scoring deterministic.
func (s *ScanScheduler) collect(ctx context.Context, view *models.MarketView) ([]models.ScoreContribution, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.params.ProviderTimeout)
	defer cancel()

	type result struct {
		c   models.ScoreContribution
		err error
	}
	ch := make(chan result, len(s.providers))
	for _, p := range s.providers {
		go func(p dsvc.ScoreProvider) {
			c, err := p.Produce(ctx, view)
			select {
			case ch <- result{c: c, err: err}:
			case <-ctx.Done():
			}
		}(p)
	}

	contributions := make([]models.ScoreContribution, 0, len(s.providers))
	partial := false
	for range s.providers {
		select {
		case <-ctx.Done():
			// deadline hit; stragglers are dropped for this cycle
			s.metrics.RecordError("provider_timeout")
			sortContributions(contributions)
			return contributions, true
		case r := <-ch:
			if r.err != nil {
				partial = true
				s.metrics.RecordError("provider")
				s.log.Warn("provider failed", logger.Error(r.err))
				continue
			}
			contributions = append(contributions, r.c)
		}
	}
	sortContributions(contributions)
	return contributions, partial
}

// matchedPatterns resolves pattern IDs back to their current stats for the
// risk policy.
func (s *ScanScheduler) matchedPatterns(ids []string) []models.Pattern {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]models.Pattern, 0, len(ids))
	for _, p := range s.patterns.ActiveSnapshot() {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sortContributions(cs []models.ScoreContribution) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].SourceID < cs[j].SourceID })
}

// consult asks the advisory oracle about the cycle's signal. On an idle
// cycle the answer only annotates the signal history; while a position is
// in flight a confident SELL closes it, anything else is informational.
func (s *ScanScheduler) consult(ctx context.Context, sig models.AggregatedSignal, positionID string, version int, inFlight bool) {
	defer s.wg.Done()
	var pos *models.Position
	if inFlight {
		p, ok := s.lifecycle.Current()
		if !ok || p.ID != positionID {
			return
		}
		pos = p
	}
	adv, err := s.advisor.Advise(ctx, &sig, pos)
	if err != nil {
		s.metrics.RecordError("advisor")
		s.log.Debug("advisor unavailable", logger.Error(err))
		return
	}
	s.attachAdvisory(sig.Timestamp, adv)
	if pos == nil {
		return
	}
	price, ok := s.book.Latest()
	if !ok {
		return
	}
	if s.lifecycle.ApplyAdvisory(positionID, version, adv, price.Price, s.params.AdvisorMinConfidence) {
		s.log.Info("position closed on advisory",
			logger.String("position_id", positionID),
			logger.Float64("confidence", adv.Confidence))
	}
}

// record appends to the bounded signal history served by the API.
func (s *ScanScheduler) record(sig models.AggregatedSignal) {
	s.mu.Lock()
	s.history = append(s.history, sig)
	if len(s.history) > s.params.SignalHistory {
		s.history = s.history[len(s.history)-s.params.SignalHistory:]
	}
	s.mu.Unlock()
}

func (s *ScanScheduler) attachAdvisory(ts time.Time, adv models.Advisory) {
	s.mu.Lock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Timestamp.Equal(ts) {
			s.history[i].Advisory = &adv
			s.history[i].AdvisoryConfirmed = adv.Recommendation == models.RecommendBuy
			break
		}
	}
	s.mu.Unlock()
}

// History returns up to n most recent signals, newest last.
func (s *ScanScheduler) History(n int) []models.AggregatedSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	out := make([]models.AggregatedSignal, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// Latest returns the most recent aggregated signal.
func (s *ScanScheduler) Latest() (models.AggregatedSignal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return models.AggregatedSignal{}, false
	}
	return s.history[len(s.history)-1], true
}
