package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/config"
)

func advisorConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Advisor.Enabled = true
	cfg.Advisor.URL = url
	cfg.Advisor.Timeout = 2 * time.Second
	cfg.Advisor.CacheTTL = time.Minute
	cfg.Advisor.RatePerMinute = 100
	return cfg
}

func testSignal() *models.AggregatedSignal {
	return &models.AggregatedSignal{Symbol: "BTC", TotalScore: 82, MatchedPatterns: []string{"FLAG_BREAKOUT"}}
}

func TestAdviseParsesResponse(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.URL.Path != "/advise" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req adviseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Symbol != "BTC" || req.TotalScore != 82 {
			t.Errorf("unexpected payload %+v", req)
		}
		_ = json.NewEncoder(w).Encode(adviseResponse{
			Recommendation: "sell",
			Confidence:     1.4,
			Rationale:      "parabolic extension",
		})
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(advisorConfig(srv.URL))
	adv, err := a.Advise(context.Background(), testSignal(), nil)
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if adv.Recommendation != models.RecommendSell {
		t.Fatalf("expected SELL, got %s", adv.Recommendation)
	}
	if adv.Confidence != 1 {
		t.Fatalf("confidence must clamp to 1, got %v", adv.Confidence)
	}
	if adv.Rationale != "parabolic extension" {
		t.Fatalf("unexpected rationale %q", adv.Rationale)
	}

	// second ask with the same context is served from cache
	if _, err := a.Advise(context.Background(), testSignal(), nil); err != nil {
		t.Fatalf("cached Advise: %v", err)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("expected one upstream call, got %d", n)
	}
}

func TestAdviseUnknownRecommendationFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(adviseResponse{Recommendation: "HODL", Confidence: 0.8})
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(advisorConfig(srv.URL))
	adv, err := a.Advise(context.Background(), testSignal(), nil)
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if adv.Recommendation != models.RecommendWait {
		t.Fatalf("unknown verdict should parse as WAIT, got %s", adv.Recommendation)
	}
}

func TestAdviseUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(advisorConfig(srv.URL))
	if _, err := a.Advise(context.Background(), testSignal(), nil); err == nil {
		t.Fatalf("expected error on 503")
	}
}

func TestAdviseRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(adviseResponse{Recommendation: "WAIT", Confidence: 0.5})
	}))
	defer srv.Close()

	cfg := advisorConfig(srv.URL)
	cfg.Advisor.RatePerMinute = 1
	a := NewHTTPAdvisor(cfg)

	if _, err := a.Advise(context.Background(), testSignal(), nil); err != nil {
		t.Fatalf("first call: %v", err)
	}
	// different position version misses the cache and hits the limiter
	pos := &models.Position{ID: "p", Version: 2}
	if _, err := a.Advise(context.Background(), testSignal(), pos); err == nil {
		t.Fatalf("expected rate limit error")
	}
}

func TestCacheKeyIncludesPosition(t *testing.T) {
	sig := testSignal()
	bare := cacheKey(sig, nil)
	withPos := cacheKey(sig, &models.Position{ID: "p1", Version: 3})
	if bare == withPos {
		t.Fatalf("position must change the cache key")
	}
}
