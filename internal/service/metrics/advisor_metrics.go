package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AdvisorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradepulse",
			Subsystem: "advisor",
			Name:      "latency_seconds",
			Help:      "Latency of advisory oracle calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	AdvisorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradepulse",
			Subsystem: "advisor",
			Name:      "errors_total",
			Help:      "Advisory oracle failures by kind",
		},
		[]string{"kind"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AdvisorLatency, AdvisorErrors)
	})
}
