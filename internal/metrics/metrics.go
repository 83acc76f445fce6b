package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records
// nothing, which keeps tests free of the global prometheus registry.
type Metrics struct {
	jobsTotal       *prometheus.CounterVec
	jobsActive      prometheus.Gauge
	encodeDuration  *prometheus.HistogramVec
	encodeFailures  *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	assetsServed    *prometheus.CounterVec
	cleanupFailures prometheus.Counter
}

// New creates a new metrics instance
func New() *Metrics {
	return &Metrics{
		jobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vod_jobs_total",
				Help: "Total number of transcode jobs by outcome",
			},
			[]string{"outcome"},
		),
		jobsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vod_jobs_active",
				Help: "Number of currently running transcode jobs",
			},
		),
		encodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vod_encode_duration_seconds",
				Help:    "Duration of one rendition encode in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5 hours
			},
			[]string{"rendition"},
		),
		encodeFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vod_encode_failures_total",
				Help: "Total number of failed rendition encodes",
			},
			[]string{"rendition"},
		),
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vod_queue_depth",
				Help: "Number of jobs waiting in the transcode queue",
			},
		),
		assetsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vod_assets_served_total",
				Help: "Total number of served HLS assets by type",
			},
			[]string{"type"},
		),
		cleanupFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vod_cleanup_failures_total",
				Help: "Total number of failed best-effort artifact deletions",
			},
		),
	}
}

// IncJobsTotal increments the jobs total counter for an outcome
func (m *Metrics) IncJobsTotal(outcome string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(outcome).Inc()
}

// IncJobsActive increments the active jobs gauge
func (m *Metrics) IncJobsActive() {
	if m == nil {
		return
	}
	m.jobsActive.Inc()
}

// DecJobsActive decrements the active jobs gauge
func (m *Metrics) DecJobsActive() {
	if m == nil {
		return
	}
	m.jobsActive.Dec()
}

// RecordEncodeDuration records the duration of one rendition encode
func (m *Metrics) RecordEncodeDuration(rendition string, seconds float64) {
	if m == nil {
		return
	}
	m.encodeDuration.WithLabelValues(rendition).Observe(seconds)
}

// IncEncodeFailures increments the encode failures counter
func (m *Metrics) IncEncodeFailures(rendition string) {
	if m == nil {
		return
	}
	m.encodeFailures.WithLabelValues(rendition).Inc()
}

// SetQueueDepth sets the queue depth gauge
func (m *Metrics) SetQueueDepth(depth float64) {
	if m == nil {
		return
	}
	m.queueDepth.Set(depth)
}

// IncAssetsServed increments the served assets counter for an asset type
func (m *Metrics) IncAssetsServed(assetType string) {
	if m == nil {
		return
	}
	m.assetsServed.WithLabelValues(assetType).Inc()
}

// IncCleanupFailures increments the cleanup failures counter
func (m *Metrics) IncCleanupFailures() {
	if m == nil {
		return
	}
	m.cleanupFailures.Inc()
}
