package usecase

import (
	"context"
	"sync"

	"TradePulse/internal/domain/models"
)

// stubMetrics counts recorded events; safe for concurrent use.
type stubMetrics struct {
	mu          sync.Mutex
	cycles      map[string]int
	transitions map[string]int
	errs        map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{
		cycles:      make(map[string]int),
		transitions: make(map[string]int),
		errs:        make(map[string]int),
	}
}

func (m *stubMetrics) RecordCycle(kind string) {
	m.mu.Lock()
	m.cycles[kind]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordTransition(status, reason string) {
	m.mu.Lock()
	m.transitions[status+"/"+reason]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errs[kind]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordLastPrice(string, float64) {}
func (m *stubMetrics) RecordScore(string, float64)     {}
func (m *stubMetrics) RecordLatency(string, float64)   {}

func (m *stubMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[kind]
}

func (m *stubMetrics) transitionCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions[key]
}

// stubRecorder captures resolved positions handed over by the lifecycle.
type stubRecorder struct {
	mu        sync.Mutex
	positions []models.Position
	signals   []models.AggregatedSignal
}

func (r *stubRecorder) Record(pos models.Position, sig models.AggregatedSignal) {
	r.mu.Lock()
	r.positions = append(r.positions, pos)
	r.signals = append(r.signals, sig)
	r.mu.Unlock()
}

func (r *stubRecorder) last() (models.Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.positions) == 0 {
		return models.Position{}, false
	}
	return r.positions[len(r.positions)-1], true
}

func (r *stubRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.positions)
}

// fakeProvider returns a canned contribution or error.
type fakeProvider struct {
	id   string
	val  float64
	conf float64
	tags []string
	err  error
}

func (f *fakeProvider) ID() string     { return f.id }
func (f *fakeProvider) Range() float64 { return 100 }

func (f *fakeProvider) Produce(_ context.Context, _ *models.MarketView) (models.ScoreContribution, error) {
	if f.err != nil {
		return models.ScoreContribution{}, f.err
	}
	return models.ScoreContribution{
		SourceID:   f.id,
		Value:      f.val,
		Confidence: f.conf,
		Tags:       f.tags,
	}, nil
}

// fakePublisher records published signals and outcomes.
type fakePublisher struct {
	mu       sync.Mutex
	signals  []models.AggregatedSignal
	outcomes []models.TradeOutcome
	err      error
}

func (p *fakePublisher) PublishSignal(_ context.Context, sig *models.AggregatedSignal) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.signals = append(p.signals, *sig)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) PublishOutcome(_ context.Context, out *models.TradeOutcome) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.outcomes = append(p.outcomes, *out)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fixedRisk always returns the same plan.
type fixedRisk struct {
	plan models.TradePlan
}

func (r *fixedRisk) Plan(*models.AggregatedSignal, []models.Pattern) models.TradePlan {
	return r.plan
}

// fakeAdvisor returns a canned advisory, optionally held until gate closes.
type fakeAdvisor struct {
	adv  models.Advisory
	err  error
	gate chan struct{}
}

func (a *fakeAdvisor) Advise(_ context.Context, _ *models.AggregatedSignal, _ *models.Position) (models.Advisory, error) {
	if a.gate != nil {
		<-a.gate
	}
	if a.err != nil {
		return models.Advisory{}, a.err
	}
	return a.adv, nil
}
