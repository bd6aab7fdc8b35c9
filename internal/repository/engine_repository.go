package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/cache"
	pkgkafka "TradePulse/pkg/kafka"
)

// ClickHouseAuditStore implements AuditStore on ClickHouse.
type ClickHouseAuditStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseAuditStore creates ClickHouse audit storage.
func NewClickHouseAuditStore(db *sql.DB, table string) repository.AuditStore {
	return &ClickHouseAuditStore{db: db, table: table}
}

func (s *ClickHouseAuditStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		recorded_at  DateTime64(3),
		position_id  String,
		symbol       String,
		close_reason String,
		entry_price  Float64,
		close_price  Float64,
		realized_pct Float64,
		leverage     Float64,
		total_score  Float64,
		patterns     Array(String),
		signal       String
	) ENGINE = MergeTree() ORDER BY (symbol, recorded_at)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *ClickHouseAuditStore) StoreOutcome(ctx context.Context, out *models.TradeOutcome) error {
	sigJSON, err := json.Marshal(out.Signal)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (recorded_at, position_id, symbol, close_reason, entry_price, close_price, realized_pct, leverage, total_score, patterns, signal) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.db.ExecContext(ctx, q,
		out.RecordedAt,
		out.Position.ID,
		out.Position.Symbol,
		string(out.Position.CloseReason),
		out.Position.EntryPrice,
		out.Position.ClosePrice,
		out.Position.RealizedPct,
		out.Position.Leverage,
		out.Signal.TotalScore,
		out.Position.MatchedPatterns,
		string(sigJSON),
	)
	return err
}

func (s *ClickHouseAuditStore) QueryOutcomes(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeOutcome, error) {
	q := fmt.Sprintf("SELECT recorded_at, position_id, symbol, close_reason, entry_price, close_price, realized_pct, leverage, signal FROM %s WHERE symbol = ? AND recorded_at >= ? AND recorded_at <= ? ORDER BY recorded_at DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outs []*models.TradeOutcome
	for rows.Next() {
		var o models.TradeOutcome
		var reason, sigJSON string
		if err := rows.Scan(
			&o.RecordedAt,
			&o.Position.ID,
			&o.Position.Symbol,
			&reason,
			&o.Position.EntryPrice,
			&o.Position.ClosePrice,
			&o.Position.RealizedPct,
			&o.Position.Leverage,
			&sigJSON,
		); err != nil {
			return nil, err
		}
		o.Position.CloseReason = models.CloseReason(reason)
		o.Position.Status = models.PositionClosed
		if err := json.Unmarshal([]byte(sigJSON), &o.Signal); err == nil {
			o.Position.MatchedPatterns = o.Signal.MatchedPatterns
		}
		outs = append(outs, &o)
	}
	return outs, rows.Err()
}

func (s *ClickHouseAuditStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAuditStore) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	signalTopic  string
	outcomeTopic string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, signalTopic, outcomeTopic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, signalTopic: signalTopic, outcomeTopic: outcomeTopic}
}

func (p *KafkaPublisher) PublishSignal(ctx context.Context, sig *models.AggregatedSignal) error {
	return p.producer.Publish(ctx, p.signalTopic, []byte(sig.Symbol), sig)
}

func (p *KafkaPublisher) PublishOutcome(ctx context.Context, out *models.TradeOutcome) error {
	return p.producer.Publish(ctx, p.outcomeTopic, []byte(out.Position.Symbol), out)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var (
	patternsKey    = cache.GenerateKey("state", "patterns")
	reliabilityKey = cache.GenerateKey("state", "reliability")
)

// RedisStateStore persists learned state snapshots in Redis.
type RedisStateStore struct {
	c cache.Service
}

// NewRedisStateStore creates a Redis-backed StateStore.
func NewRedisStateStore(c cache.Service) repository.StateStore {
	return &RedisStateStore{c: c}
}

func (s *RedisStateStore) SavePatterns(ctx context.Context, patterns []models.Pattern) error {
	return s.c.Set(ctx, patternsKey, patterns, 0)
}

func (s *RedisStateStore) LoadPatterns(ctx context.Context) ([]models.Pattern, error) {
	var out []models.Pattern
	if err := s.c.Get(ctx, patternsKey, &out); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (s *RedisStateStore) SaveReliability(ctx context.Context, rel []models.ProviderReliability) error {
	return s.c.Set(ctx, reliabilityKey, rel, 0)
}

func (s *RedisStateStore) LoadReliability(ctx context.Context) ([]models.ProviderReliability, error) {
	var out []models.ProviderReliability
	if err := s.c.Get(ctx, reliabilityKey, &out); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}
