package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

type countingProc struct {
	mu    sync.Mutex
	ticks []models.PriceSnapshot
	err   error
}

func (p *countingProc) Process(_ context.Context, snap *models.PriceSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ticks = append(p.ticks, *snap)
	return nil
}

func (p *countingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

type noopMetrics struct{}

func (noopMetrics) RecordCycle(string)              {}
func (noopMetrics) RecordTransition(string, string) {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordLastPrice(string, float64) {}
func (noopMetrics) RecordScore(string, float64)     {}
func (noopMetrics) RecordLatency(string, float64)   {}

func validSnap(sym string) *models.PriceSnapshot {
	return &models.PriceSnapshot{Symbol: sym, Price: 100, Volume: 1, Timestamp: time.Now()}
}

func TestProcessForwardsValidTick(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, noopMetrics{})

	if err := p.Process(context.Background(), validSnap("BTC")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("expected tick forwarded, got %d", proc.count())
	}
}

func TestProcessRejectsInvalidTicks(t *testing.T) {
	p := NewTickPipeline(&countingProc{}, noopMetrics{})
	ctx := context.Background()

	cases := []*models.PriceSnapshot{
		nil,
		{Price: 100, Volume: 1, Timestamp: time.Now()},                 // no symbol
		{Symbol: "BTC", Price: 100, Volume: 1},                         // zero timestamp
		{Symbol: "BTC", Price: 0, Volume: 1, Timestamp: time.Now()},    // no price
		{Symbol: "BTC", Price: 100, Volume: -1, Timestamp: time.Now()}, // negative volume
	}
	for i, snap := range cases {
		if err := p.Process(ctx, snap); err == nil {
			t.Fatalf("case %d: expected rejection", i)
		}
	}
}

func TestProcessAppliesTransform(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, noopMetrics{}, WithTransform(func(s *models.PriceSnapshot) *models.PriceSnapshot {
		out := *s
		out.Symbol = "NORMALIZED"
		return &out
	}))

	if err := p.Process(context.Background(), validSnap("raw")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.ticks[0].Symbol != "NORMALIZED" {
		t.Fatalf("transform not applied, got %s", proc.ticks[0].Symbol)
	}
}

func TestProcessThrottlesPerSymbol(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, noopMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	if err := p.Process(ctx, validSnap("BTC")); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	// second tick inside the same second is dropped without error
	if err := p.Process(ctx, validSnap("BTC")); err != nil {
		t.Fatalf("throttled tick must not error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("expected second tick throttled, got %d forwarded", proc.count())
	}

	// another symbol has its own budget
	if err := p.Process(ctx, validSnap("ETH")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("throttle must be per symbol, got %d", proc.count())
	}
}

func TestProcessBuffersOnDownstreamError(t *testing.T) {
	proc := &countingProc{err: errors.New("book offline")}
	p := NewTickPipeline(proc, noopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), validSnap("BTC")); err == nil {
		t.Fatalf("expected downstream error surfaced")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed tick should be buffered, got %d", len(p.bufCh))
	}
}

func TestStartFlushesBuffer(t *testing.T) {
	proc := &countingProc{err: errors.New("book offline")}
	p := NewTickPipeline(proc, noopMetrics{}, WithBufferSize(4))
	_ = p.Process(context.Background(), validSnap("BTC"))

	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered tick was never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
