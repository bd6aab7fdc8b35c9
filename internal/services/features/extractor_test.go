package features

import (
	"math"
	"testing"
)

func TestLogReturns(t *testing.T) {
	rs := LogReturns([]float64{100, 110, 99})
	if len(rs) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(rs))
	}
	if math.Abs(rs[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("unexpected first return %v", rs[0])
	}
	if LogReturns([]float64{100}) != nil {
		t.Fatalf("single price has no returns")
	}
}

func TestLogReturnsDegenerate(t *testing.T) {
	rs := LogReturns([]float64{100, 0, 50})
	if rs[0] != 0 || rs[1] != 0 {
		t.Fatalf("non-positive prices should yield zero returns, got %v", rs)
	}
}

func TestPctChange(t *testing.T) {
	prices := []float64{90, 100, 110}
	if got := PctChange(prices, 3); math.Abs(got-(110-90)/90.0) > 1e-12 {
		t.Fatalf("unexpected pct change %v", got)
	}
	if got := PctChange(prices, 5); got != 0 {
		t.Fatalf("window longer than series should be 0, got %v", got)
	}
	if got := PctChange(prices, 1); got != 0 {
		t.Fatalf("window under 2 should be 0, got %v", got)
	}
}

func TestMean(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	if got := Mean(xs, 2); got != 3.5 {
		t.Fatalf("trailing mean of [3 4]: expected 3.5, got %v", got)
	}
	if got := Mean(xs, 10); got != 2.5 {
		t.Fatalf("oversized window should use the full series, got %v", got)
	}
	if got := Mean(nil, 3); got != 0 {
		t.Fatalf("empty series mean should be 0, got %v", got)
	}
}

func TestStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := StdDev(xs, len(xs))
	if math.Abs(got-2.138) > 0.001 {
		t.Fatalf("expected sample stddev ~2.138, got %v", got)
	}
	if StdDev(xs, 1) != 0 {
		t.Fatalf("window of 1 has no deviation")
	}
}

func TestRSIBounds(t *testing.T) {
	if got := RSI([]float64{1, 2}, 14); got != 50 {
		t.Fatalf("short series should read neutral, got %v", got)
	}

	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(100 + i)
	}
	if got := RSI(up, 14); got != 100 {
		t.Fatalf("all gains should read 100, got %v", got)
	}

	down := make([]float64, 20)
	for i := range down {
		down[i] = float64(100 - i)
	}
	if got := RSI(down, 14); got != 0 {
		t.Fatalf("all losses should read 0, got %v", got)
	}
}

func TestRSIBalanced(t *testing.T) {
	// alternating equal gains and losses
	prices := make([]float64, 21)
	for i := range prices {
		prices[i] = 100
		if i%2 == 1 {
			prices[i] = 101
		}
	}
	got := RSI(prices, 14)
	if math.Abs(got-50) > 1e-9 {
		t.Fatalf("balanced series should read 50, got %v", got)
	}
}

func TestEMAConvergesToConstant(t *testing.T) {
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = 42
	}
	if got := EMA(xs, 12); math.Abs(got-42) > 1e-9 {
		t.Fatalf("constant series EMA should be the constant, got %v", got)
	}
	if EMA(nil, 12) != 0 {
		t.Fatalf("empty series EMA should be 0")
	}
}

func TestEMATracksTail(t *testing.T) {
	xs := make([]float64, 60)
	for i := range xs {
		xs[i] = float64(i)
	}
	fast := EMA(xs, 5)
	slow := EMA(xs, 30)
	if fast <= slow {
		t.Fatalf("fast EMA should lead on a rising series: fast=%v slow=%v", fast, slow)
	}
}
