// Package metrics collects Prometheus metrics for the language server.
// Unlike a long-running service, nixd-sub000 speaks LSP over stdio and
// has no HTTP port to expose a /metrics endpoint on, so this package
// only ever gathers into an in-process registry; `nixd-sub000 metrics`
// dumps a text snapshot for debugging, and tests assert on counts
// directly.
package metrics

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/expfmt"
)

// Metrics holds every counter/histogram the server updates.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DocumentsOpen   prometheus.Gauge
	ParseErrors     *prometheus.CounterVec
	Diagnostics     *prometheus.CounterVec
}

// New creates a fresh, self-contained registry with standard process
// collectors plus the server's own metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nixd_sub000_requests_total",
			Help: "Total number of LSP requests handled, by method and outcome.",
		}, []string{"method", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nixd_sub000_request_duration_seconds",
			Help:    "LSP request handling latency, by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		DocumentsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nixd_sub000_documents_open",
			Help: "Number of translation units currently tracked.",
		}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nixd_sub000_parse_errors_total",
			Help: "Total number of parse-stage diagnostics emitted, by kind.",
		}, []string{"kind"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nixd_sub000_diagnostics_total",
			Help: "Total number of diagnostics published, by source and kind.",
		}, []string{"source", "kind"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.DocumentsOpen, m.ParseErrors, m.Diagnostics)
	return m
}

// Registry exposes the underlying registry, e.g. for a test that wants
// to assert on a specific collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Gather renders every registered metric family in Prometheus text
// exposition format.
func (m *Metrics) Gather() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, f := range families {
		if err := enc.Encode(f); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
