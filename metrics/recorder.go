// Package metrics records reconciliation outcomes with Prometheus collectors
// on a dedicated registry, so a one-shot CLI run can export them to a
// node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "harborsync"

type Recorder struct {
	registry  *prometheus.Registry
	outcomes  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	requests  *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Reconciliations by resource kind, action and outcome.",
		}, []string{"kind", "action", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of a single reconciliation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Harbor API requests by method and status code.",
		}, []string{"method", "code"}),
	}
	r.registry.MustRegister(r.outcomes, r.durations, r.requests)
	return r
}

// ObserveReconcile records one finished reconciliation. A nil recorder is a
// no-op so library callers can skip metrics entirely.
func (r *Recorder) ObserveReconcile(kind string, action string, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(kind, action, outcome).Inc()
	r.durations.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveRequest(method string, code string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, code).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
