package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// StageTotal counts pipeline stages by stage name and outcome status.
	StageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docs_analyzer",
		Subsystem: "pipeline",
		Name:      "stage_total",
		Help:      "Total number of pipeline stages run, labeled by stage and result (ok, placeholder, skipped, error).",
	}, []string{"stage", "result"})

	// LLMRequestsTotal counts chat completion requests by outcome.
	LLMRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docs_analyzer",
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "Total number of chat completion requests, labeled by status (ok, http_error, status_error, decode_error, no_choices).",
	}, []string{"status"})

	// LLMRequestDurationSeconds is the wall time of one chat completion request.
	LLMRequestDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docs_analyzer",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Wall time of a chat completion request, including response decoding.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})
)

// Register registers the analyzer metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			StageTotal,
			LLMRequestsTotal,
			LLMRequestDurationSeconds,
		)
	})
}
