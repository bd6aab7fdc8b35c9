package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	dsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/service/cache"
	svcmetrics "TradePulse/internal/service/metrics"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
)

// HTTPAdvisor consults an external model service for a natural-language
// read of the aggregated context. Responses are cached briefly and calls are
// rate limited so a chatty scan loop cannot exhaust the model quota.
type HTTPAdvisor struct {
	baseURL  string
	client   *xhttp.Client
	cache    *cache.TTLCache
	limiter  *ratelimit.Limiter
	cacheTTL time.Duration
	perMin   float64
}

func NewHTTPAdvisor(cfg *config.Config) *HTTPAdvisor {
	svcmetrics.Register()
	return &HTTPAdvisor{
		baseURL:  cfg.Advisor.URL,
		client:   xhttp.NewClient(xhttp.WithTimeout(cfg.Advisor.Timeout)),
		cache:    cache.NewTTLCache(),
		limiter:  ratelimit.New(),
		cacheTTL: cfg.Advisor.CacheTTL,
		perMin:   cfg.Advisor.RatePerMinute,
	}
}

type adviseRequest struct {
	Symbol     string                        `json:"symbol"`
	TotalScore float64                       `json:"total_score"`
	Breakdown  []models.WeightedContribution `json:"breakdown"`
	Patterns   []string                      `json:"patterns,omitempty"`
	Position   *models.Position              `json:"position,omitempty"`
}

type adviseResponse struct {
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale"`
}

func (a *HTTPAdvisor) Advise(ctx context.Context, sig *models.AggregatedSignal, pos *models.Position) (models.Advisory, error) {
	if a.baseURL == "" {
		return models.Advisory{}, fmt.Errorf("advisor not configured")
	}

	key := cacheKey(sig, pos)
	if v, ok := a.cache.Get(key); ok {
		if adv, ok2 := v.(models.Advisory); ok2 {
			return adv, nil
		}
	}
	if !a.limiter.Allow("advisor", a.perMin, a.perMin/60) {
		svcmetrics.AdvisorErrors.WithLabelValues("rate_limited").Inc()
		return models.Advisory{}, fmt.Errorf("advisor rate limit exceeded")
	}

	req := adviseRequest{
		Symbol:     sig.Symbol,
		TotalScore: sig.TotalScore,
		Breakdown:  sig.Breakdown,
		Patterns:   sig.MatchedPatterns,
		Position:   pos,
	}
	var resp adviseResponse
	start := time.Now()
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     a.baseURL + "/advise",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    req,
	}, &resp)
	if err != nil {
		svcmetrics.AdvisorErrors.WithLabelValues("request").Inc()
		svcmetrics.AdvisorLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return models.Advisory{}, fmt.Errorf("advise: %w", err)
	}
	svcmetrics.AdvisorLatency.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	adv := models.Advisory{
		Recommendation: parseRecommendation(resp.Recommendation),
		Confidence:     clamp01(resp.Confidence),
		Rationale:      resp.Rationale,
		Timestamp:      time.Now().UTC(),
	}
	a.cache.Set(key, adv, a.cacheTTL)
	return adv, nil
}

func cacheKey(sig *models.AggregatedSignal, pos *models.Position) string {
	if pos != nil {
		return fmt.Sprintf("advise:%s:%.0f:%s:%d", sig.Symbol, sig.TotalScore, pos.ID, pos.Version)
	}
	return fmt.Sprintf("advise:%s:%.0f", sig.Symbol, sig.TotalScore)
}

func parseRecommendation(s string) models.Recommendation {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return models.RecommendBuy
	case "SELL":
		return models.RecommendSell
	default:
		return models.RecommendWait
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ dsvc.Advisor = (*HTTPAdvisor)(nil)
