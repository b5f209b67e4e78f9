// Package metrics exposes Prometheus collectors for the external tool
// invocations and the artifacts they produce.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK        = "ok"
	OutcomeLaunch    = "launch"
	OutcomeExit      = "exit"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeSaturated = "saturated"
)

// Collector groups the metrics Reel records. A nil *Collector is
// valid and records nothing, which keeps call sites free of nil checks.
type Collector struct {
	invocationsTotal   *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	inFlight           prometheus.Gauge
	queued             prometheus.Gauge
	artifactBytes      *prometheus.HistogramVec
	searchResults      prometheus.Histogram
}

// New constructs the collectors, prefixed with the namespace provided,
// and registers them with the registerer.
//
// Panics if registration fails (e.g. duplicate registration on the same registry).
func New(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_invocations_total",
				Help:      "External tool invocations by outcome",
			},
			[]string{"outcome"},
		),
		invocationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_invocation_duration_seconds",
				Help:      "Wall time of external tool invocations",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tool_invocations_in_flight",
				Help:      "External tool processes currently running",
			},
		),
		queued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tool_invocations_queued",
				Help:      "Invocations waiting for a free concurrency slot",
			},
		),
		artifactBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_artifact_bytes",
				Help:      "Size of artifacts returned to clients",
				Buckets:   prometheus.ExponentialBuckets(64*1024, 4, 8),
			},
			[]string{"profile"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results",
				Help:      "Number of entries returned per search",
				Buckets:   prometheus.LinearBuckets(0, 1, 11),
			},
		),
	}

	reg.MustRegister(
		c.invocationsTotal,
		c.invocationDuration,
		c.inFlight,
		c.queued,
		c.artifactBytes,
		c.searchResults,
	)

	return c
}

func (c *Collector) Queued() {
	if c != nil {
		c.queued.Inc()
	}
}

func (c *Collector) Dequeued() {
	if c != nil {
		c.queued.Dec()
	}
}

func (c *Collector) InvocationStarted() {
	if c != nil {
		c.inFlight.Inc()
	}
}

// InvocationFinished records the outcome of an invocation. Started
// invocations must report here exactly once.
func (c *Collector) InvocationFinished(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}

	c.inFlight.Dec()
	c.invocationsTotal.WithLabelValues(outcome).Inc()
	c.invocationDuration.Observe(elapsed.Seconds())
}

// InvocationRejected records an invocation that never spawned a process.
func (c *Collector) InvocationRejected(outcome string) {
	if c != nil {
		c.invocationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (c *Collector) ObserveArtifact(profile string, size int64) {
	if c != nil {
		c.artifactBytes.WithLabelValues(profile).Observe(float64(size))
	}
}

func (c *Collector) ObserveSearchResults(count int) {
	if c != nil {
		c.searchResults.Observe(float64(count))
	}
}
