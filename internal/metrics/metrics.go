// Package metrics records probe outcomes and latencies in a private
// Prometheus registry that can be exported as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tbckr/nsolver/internal/apperr"
)

// OutcomeOK labels successful probes; failures are labelled with their apperr.Kind.
const OutcomeOK = "ok"

// Metrics holds the collectors for one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ProbeRequests *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
	Domains       *prometheus.CounterVec
	WorkersBusy   prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	buckets := []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	return &Metrics{
		registry: registry,
		ProbeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsolver_probe_requests_total",
				Help: "Total number of probe requests by outcome",
			},
			[]string{"probe", "outcome"},
		),
		ProbeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nsolver_probe_duration_seconds",
				Help:    "Time spent per probe request",
				Buckets: buckets,
			},
			[]string{"probe"},
		),
		Domains: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsolver_domains_total",
				Help: "Total number of domains processed by status",
			},
			[]string{"status"},
		),
		WorkersBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nsolver_workers_busy",
				Help: "Number of workers currently enriching a domain",
			},
		),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveProbe records one probe request that started at start.
func (m *Metrics) ObserveProbe(probe string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = string(apperr.KindNetwork)
		}
	}
	m.ProbeRequests.WithLabelValues(probe, outcome).Inc()
	m.ProbeDuration.WithLabelValues(probe).Observe(time.Since(start).Seconds())
}

// ObserveDomain counts a finished domain as enriched or canceled.
func (m *Metrics) ObserveDomain(canceled bool) {
	if m == nil {
		return
	}
	status := "enriched"
	if canceled {
		status = "canceled"
	}
	m.Domains.WithLabelValues(status).Inc()
}

// WorkerStarted increments the busy-worker gauge.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.WorkersBusy.Inc()
}

// WorkerDone decrements the busy-worker gauge.
func (m *Metrics) WorkerDone() {
	if m == nil {
		return
	}
	m.WorkersBusy.Dec()
}

// WriteFile writes the registry to path in the Prometheus text format.
// The file is written atomically.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
