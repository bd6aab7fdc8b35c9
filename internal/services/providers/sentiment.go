package providers

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
)

// HTTPSentiment queries an external sentiment service for a crowd-mood
// reading. Unreachable service surfaces as an error so the cycle degrades to
// a partial breakdown instead of stalling.
type HTTPSentiment struct {
	baseURL string
	client  *xhttp.Client
}

func NewHTTPSentiment(cfg *config.Config) *HTTPSentiment {
	return &HTTPSentiment{
		baseURL: cfg.Sentiment.URL,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Sentiment.Timeout)),
	}
}

func (s *HTTPSentiment) ID() string     { return "sentiment" }
func (s *HTTPSentiment) Range() float64 { return 10 }

type sentimentResponse struct {
	Score      float64 `json:"score"` // -1..1
	Confidence float64 `json:"confidence"`
	Mood       string  `json:"mood"`
}

func (s *HTTPSentiment) Produce(ctx context.Context, view *models.MarketView) (models.ScoreContribution, error) {
	if s.baseURL == "" {
		return models.ScoreContribution{}, fmt.Errorf("sentiment service not configured")
	}

	var sr sentimentResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/sentiment/" + view.Symbol,
	}, &sr)
	if err != nil {
		return models.ScoreContribution{}, fmt.Errorf("fetch sentiment: %w", err)
	}

	conf := sr.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.5
	}
	return models.ScoreContribution{
		SourceID:   s.ID(),
		Value:      clampRange(sr.Score*s.Range(), -s.Range(), s.Range()),
		Confidence: conf,
		Detail:     fmt.Sprintf("mood=%s score=%.2f", sr.Mood, sr.Score),
	}, nil
}
