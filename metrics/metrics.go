// Package metrics collects Prometheus metrics for the console's backend
// traffic and session lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements api.Recorder and views.SessionRecorder.
type Collector struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	sessionEnds *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_admin_api_requests_total",
			Help: "Backend requests by method, route and classified outcome.",
		}, []string{"method", "route", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "library_admin_api_request_duration_seconds",
			Help:    "Backend request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessionEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_admin_session_ends_total",
			Help: "Sessions torn down, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(c.requests, c.latency, c.sessionEnds)
	return c
}

// RecordRequest records one classified backend call.
func (c *Collector) RecordRequest(method, route, outcome string, d time.Duration) {
	c.requests.WithLabelValues(method, route, outcome).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordSessionEnd records a session teardown (logout, expired, ...).
func (c *Collector) RecordSessionEnd(reason string) {
	c.sessionEnds.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps everything g gathers to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
