package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	score       *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_scan_cycles_total",
				Help: "Total scan cycles by kind (slow/fast)",
			},
			[]string{"kind"},
		),
		transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_position_transitions_total",
				Help: "Position lifecycle transitions by status and reason",
			},
			[]string{"status", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		score: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_signal_score",
				Help: "Most recent aggregated signal score (0-100)",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle counts a completed scan cycle.
func (r *Recorder) RecordCycle(kind string) {
	r.cycles.WithLabelValues(kind).Inc()
}

// RecordTransition counts a position lifecycle transition.
func (r *Recorder) RecordTransition(status, reason string) {
	r.transitions.WithLabelValues(status, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordScore records the latest aggregated score for a symbol.
func (r *Recorder) RecordScore(symbol string, score float64) {
	r.score.WithLabelValues(symbol).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
