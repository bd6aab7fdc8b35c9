package usecase

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// OutcomeRetryType is the queue message type for failed audit writes.
const OutcomeRetryType = "outcome_retry"

// OutcomeRecorder resolves closed positions into learned state and routes a
// durable copy to the configured backend. Learning happens synchronously so
// the next signal sees updated pattern stats and provider weights; the
// durable write is best-effort and never blocks the lifecycle.
type OutcomeRecorder struct {
	patterns *PatternLibrary
	weights  *ReliabilityBook
	pub      drepo.Publisher
	store    drepo.AuditStore
	state    drepo.StateStore
	retry    queue.QueueService
	metrics  drepo.Metrics
	log      *logger.Logger
	backend  string
	timeout  time.Duration
}

// NewOutcomeRecorder creates an OutcomeRecorder. pub, store, state and retry
// may be nil when the corresponding backend is not configured.
func NewOutcomeRecorder(
	patterns *PatternLibrary,
	weights *ReliabilityBook,
	pub drepo.Publisher,
	store drepo.AuditStore,
	state drepo.StateStore,
	retry queue.QueueService,
	metrics drepo.Metrics,
	log *logger.Logger,
	backend string,
) *OutcomeRecorder {
	return &OutcomeRecorder{
		patterns: patterns,
		weights:  weights,
		pub:      pub,
		store:    store,
		state:    state,
		retry:    retry,
		metrics:  metrics,
		log:      log,
		backend:  backend,
		timeout:  10 * time.Second,
	}
}

// Record is called by the lifecycle for every resolved position, before the
// engine accepts the next entry. Positions closed before the entry fill was
// confirmed carry no market outcome and are excluded from learning.
func (r *OutcomeRecorder) Record(pos models.Position, sig models.AggregatedSignal) {
	out := &models.TradeOutcome{
		Position:   pos,
		Signal:     sig,
		RecordedAt: time.Now().UTC(),
	}

	if pos.Entered {
		win := pos.RealizedPct > 0
		r.patterns.RecordOutcome(pos.MatchedPatterns, win, pos.RealizedPct)

		sources := make([]string, 0, len(sig.Breakdown))
		for _, wc := range sig.Breakdown {
			sources = append(sources, wc.SourceID)
		}
		r.weights.Update(sources, win, out.RecordedAt)
	} else {
		r.log.Debug("skipping learning for unfilled position",
			logger.String("position_id", pos.ID),
			logger.String("reason", string(pos.CloseReason)))
	}

	go r.persist(out)
	go r.snapshot()
}

// persist routes the outcome to the configured backend. Failure is logged and
// handed to the retry queue; the in-memory learned state is already updated.
func (r *OutcomeRecorder) persist(out *models.TradeOutcome) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	var err error

	switch r.backend {
	case "kafka":
		if r.pub != nil {
			err = r.pub.PublishOutcome(ctx, out)
		}
	case "clickhouse":
		if r.store != nil {
			err = r.store.StoreOutcome(ctx, out)
		}
	}

	if err != nil {
		r.metrics.RecordError("audit_persist")
		r.log.Error("audit write failed, trade history at risk",
			logger.Error(err),
			logger.String("backend", r.backend),
			logger.String("position_id", out.Position.ID))
		r.enqueueRetry(ctx, out)
		return
	}

	r.metrics.RecordLatency("audit_persist", time.Since(start).Seconds())
}

func (r *OutcomeRecorder) enqueueRetry(ctx context.Context, out *models.TradeOutcome) {
	if r.retry == nil {
		return
	}
	if err := r.retry.PublishMessage(ctx, OutcomeRetryType, out); err != nil {
		r.log.Error("failed to enqueue outcome retry",
			logger.Error(err),
			logger.String("position_id", out.Position.ID))
	}
}

// snapshot saves learned state so a restart resumes with current pattern
// stats and provider weights.
func (r *OutcomeRecorder) snapshot() {
	if r.state == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.state.SavePatterns(ctx, r.patterns.Snapshot()); err != nil {
		r.metrics.RecordError("state_save")
		r.log.Warn("failed to save pattern snapshot", logger.Error(err))
	}
	if err := r.state.SaveReliability(ctx, r.weights.Snapshot()); err != nil {
		r.metrics.RecordError("state_save")
		r.log.Warn("failed to save reliability snapshot", logger.Error(err))
	}
}

// OutcomeRetryJob replays failed audit writes off the retry queue.
type OutcomeRetryJob struct {
	store   drepo.AuditStore
	pub     drepo.Publisher
	log     *logger.Logger
	backend string
}

func NewOutcomeRetryJob(store drepo.AuditStore, pub drepo.Publisher, log *logger.Logger, backend string) *OutcomeRetryJob {
	return &OutcomeRetryJob{store: store, pub: pub, log: log, backend: backend}
}

func (j *OutcomeRetryJob) Name() string { return "outcome-retry" }
func (j *OutcomeRetryJob) Type() string { return OutcomeRetryType }

func (j *OutcomeRetryJob) Handle(ctx context.Context, payload interface{}) error {
	out, err := queue.ParsePayload[models.TradeOutcome](payload)
	if err != nil {
		return err
	}
	switch j.backend {
	case "kafka":
		if j.pub != nil {
			return j.pub.PublishOutcome(ctx, out)
		}
	case "clickhouse":
		if j.store != nil {
			return j.store.StoreOutcome(ctx, out)
		}
	}
	return nil
}
