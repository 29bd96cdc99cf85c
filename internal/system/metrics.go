package system

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutionsTotal counts inbound resolutions by operation and deciding tier.
	// Labels: operation (query, document, filename), tier (exact, keyword, similarity, live, document, none)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mednerd",
		Subsystem: "cortex",
		Name:      "resolutions_total",
		Help:      "Inbound resolutions by operation and deciding tier",
	}, []string{"operation", "tier"})

	// resolutionSeconds measures end-to-end resolution latency including live fetches.
	// Labels: operation
	resolutionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mednerd",
		Subsystem: "cortex",
		Name:      "resolution_seconds",
		Help:      "End-to-end resolution latency",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 3, 6, 12, 20},
	}, []string{"operation"})
)

// RecordResolution records one completed inbound resolution.
func RecordResolution(operation, tier string, durationSec float64) {
	resolutionsTotal.WithLabelValues(operation, tier).Inc()
	resolutionSeconds.WithLabelValues(operation).Observe(durationSec)
}
