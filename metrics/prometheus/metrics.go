// Package prometheus provides Prometheus metrics for the media store.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mediakit"

var (
	// registrationsTotal is a counter of media registrations by origin.
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of media registrations",
		},
		[]string{"origin"}, // origin: url, path, bytes
	)

	// recordsActive is a gauge of entries currently in the store.
	recordsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_active",
			Help:      "Number of media entries currently in the store",
		},
	)

	// materializeDuration is a histogram of materialization duration,
	// download or copy included.
	materializeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_duration_seconds",
			Help:      "Histogram of content materialization duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"origin"},
	)

	// materializationsTotal is a counter of materialization attempts.
	materializationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materializations_total",
			Help:      "Total number of content materialization attempts",
		},
		[]string{"origin", "status"}, // status: success, error
	)

	// materializedBytesTotal is a counter of managed content bytes written.
	materializedBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materialized_bytes_total",
			Help:      "Total managed content bytes written to disk",
		},
		[]string{"origin"},
	)

	// deletionsTotal is a counter of deleted entries by reason.
	deletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Total number of deleted media entries",
		},
		[]string{"reason"}, // reason: unreferenced, sweep, explicit
	)

	// referenceChangesTotal is a counter of reference count mutations.
	referenceChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_changes_total",
			Help:      "Total number of reference additions and removals",
		},
		[]string{"op"}, // op: add, remove
	)

	// sweepDuration is a histogram of unreferenced-media sweep duration.
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Histogram of cleanup sweep duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
	)

	// sweepRemovedTotal is a counter of entries removed by sweeps.
	sweepRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_removed_total",
			Help:      "Total number of entries removed by cleanup sweeps",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		registrationsTotal,
		recordsActive,
		materializeDuration,
		materializationsTotal,
		materializedBytesTotal,
		deletionsTotal,
		referenceChangesTotal,
		sweepDuration,
		sweepRemovedTotal,
	}
)

// RecordRegistration records a new media entry.
func RecordRegistration(origin string) {
	registrationsTotal.WithLabelValues(origin).Inc()
	recordsActive.Inc()
}

// RecordMaterialization records a materialization attempt.
func RecordMaterialization(origin, status string, sizeBytes int64, durationSeconds float64) {
	materializeDuration.WithLabelValues(origin).Observe(durationSeconds)
	materializationsTotal.WithLabelValues(origin, status).Inc()
	if status == statusSuccess && sizeBytes > 0 {
		materializedBytesTotal.WithLabelValues(origin).Add(float64(sizeBytes))
	}
}

// RecordDeletion records a removed media entry.
func RecordDeletion(reason string) {
	deletionsTotal.WithLabelValues(reason).Inc()
	recordsActive.Dec()
}

// RecordReferenceChange records a reference count mutation.
func RecordReferenceChange(op string) {
	referenceChangesTotal.WithLabelValues(op).Inc()
}

// RecordSweep records a completed cleanup sweep.
func RecordSweep(removed int, durationSeconds float64) {
	sweepDuration.Observe(durationSeconds)
	if removed > 0 {
		sweepRemovedTotal.Add(float64(removed))
	}
}
