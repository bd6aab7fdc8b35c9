package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// PriceStream delivers live ticks for the configured instrument.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceSnapshot, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher emits engine events (signals, resolved trades) to the bus.
type Publisher interface {
	PublishSignal(ctx context.Context, sig *models.AggregatedSignal) error
	PublishOutcome(ctx context.Context, out *models.TradeOutcome) error
	Close() error
}

// AuditStore is the append-only durable archive of resolved trades.
// Durability is best-effort: a failed write is reported, never blocks the
// lifecycle hot path.
type AuditStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreOutcome(ctx context.Context, out *models.TradeOutcome) error
	QueryOutcomes(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeOutcome, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// StateStore snapshots learned state (pattern stats, provider reliability)
// across restarts. Best-effort, same as the audit trail.
type StateStore interface {
	SavePatterns(ctx context.Context, patterns []models.Pattern) error
	LoadPatterns(ctx context.Context) ([]models.Pattern, error)
	SaveReliability(ctx context.Context, rel []models.ProviderReliability) error
	LoadReliability(ctx context.Context) ([]models.ProviderReliability, error)
}

// Metrics is the engine's observability sink.
type Metrics interface {
	RecordCycle(kind string)
	RecordTransition(status, reason string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordScore(symbol string, score float64)
	RecordLatency(op string, seconds float64)
}
