package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaOutcomesHandler consumes outcome events off the bus and lands them in
// the audit store. Used when the engine publishes to Kafka and a separate
// consumer owns the ClickHouse write.
type KafkaOutcomesHandler struct {
	topic   string
	store   domrepo.AuditStore
	metrics domrepo.Metrics
}

func NewKafkaOutcomesHandler(topic string, store domrepo.AuditStore, metrics domrepo.Metrics) *KafkaOutcomesHandler {
	return &KafkaOutcomesHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaOutcomesHandler) Topic() string { return h.topic }

func (h *KafkaOutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var out models.TradeOutcome
	if err := json.Unmarshal(b, &out); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	// E2E latency from close time to landing (approx)
	h.metrics.RecordLatency("outcome_e2e_seconds", time.Since(out.RecordedAt).Seconds())

	start := time.Now()
	err := h.store.StoreOutcome(ctx, &out)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaOutcomesHandler)(nil)
