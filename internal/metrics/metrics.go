// Package metrics exposes Prometheus instrumentation for the pipeline tasks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed counts records processed per task.
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inquiry_migrator",
		Name:      "records_processed_total",
		Help:      "Records processed, labelled by task.",
	}, []string{"task"})

	// CycleFailures counts poll/tick cycles aborted by an error, per task.
	CycleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inquiry_migrator",
		Name:      "cycle_failures_total",
		Help:      "Poll or tick cycles aborted by an error, labelled by task.",
	}, []string{"task"})

	// SnapshotsPublished counts reconstructed entities published to the
	// output stream.
	SnapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inquiry_migrator",
		Name:      "snapshots_published_total",
		Help:      "Reconstructed inquiries published to the output stream.",
	})

	// WatermarkID tracks the persisted change-event watermark.
	WatermarkID = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "inquiry_migrator",
		Name:      "watermark_event_id",
		Help:      "Last processed change-event id persisted by the resync task.",
	})

	// BatchDuration observes end-to-end batch processing latency.
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inquiry_migrator",
		Name:      "batch_duration_seconds",
		Help:      "Time to process one polled batch, labelled by task.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"task"})
)
