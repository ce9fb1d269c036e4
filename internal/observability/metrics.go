// This file exposes Prometheus collectors for the generation pipeline. The
// HTTP layer has its own request-level instrumentation; these counters track
// what happens after the response is written, while the asset is still being
// produced in the background.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// GenerationsTotal counts finished generations by media kind and outcome.
	// Outcome is one of "completed", "failed" (provider error absorbed into
	// the row), or "error" (the row could not be finalized at all).
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Total number of finished generations.",
		},
		[]string{"kind", "outcome"},
	)

	// GenerationDuration records end-to-end resolution time in seconds by
	// media kind. Buckets span quick image renders to long video jobs.
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "generation_duration_seconds",
			Help: "End-to-end generation resolution time in seconds.",
			Buckets: []float64{
				0.5, 1, 2.5, 5, 10, 30, // images
				60, 120, 300, 600, // videos
			},
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(GenerationsTotal, GenerationDuration)
}
