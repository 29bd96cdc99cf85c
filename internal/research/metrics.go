package research

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Live Fetches
// =============================================================================

var (
	// candidateAttemptsTotal counts candidate URL attempts by result.
	// Labels: result (hit, status, transport, parse)
	candidateAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mednerd",
		Subsystem: "research",
		Name:      "candidate_attempts_total",
		Help:      "Live fetch candidate URL attempts by result",
	}, []string{"result"})

	// learnOutcomesTotal counts what happened to fetched entries.
	// Labels: outcome (learned, known, failed)
	learnOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mednerd",
		Subsystem: "research",
		Name:      "learn_outcomes_total",
		Help:      "Fetched entries by knowledge base outcome",
	}, []string{"outcome"})

	// fetchLatencySeconds measures a whole fetch across all candidates.
	// Labels: outcome (hit, miss)
	fetchLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mednerd",
		Subsystem: "research",
		Name:      "fetch_latency_seconds",
		Help:      "Live fetch latency across all candidate URLs",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 6, 12},
	}, []string{"outcome"})
)

// RecordCandidate records one candidate URL attempt.
func RecordCandidate(result string) {
	candidateAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordLearn records the knowledge base outcome of a fetched entry.
func RecordLearn(outcome string) {
	learnOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordFetch records a completed fetch.
func RecordFetch(hit bool, durationSec float64) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	fetchLatencySeconds.WithLabelValues(outcome).Observe(durationSec)
}
