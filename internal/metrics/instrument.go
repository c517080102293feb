package metrics

import (
	"time"

	"github.com/nix-community/nixd-sub000/internal/diag"
)

// ObserveRequest records one completed LSP request's outcome and latency.
func (m *Metrics) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// SetDocumentsOpen records the current number of tracked translation units.
func (m *Metrics) SetDocumentsOpen(n int) {
	if m == nil {
		return
	}
	m.DocumentsOpen.Set(float64(n))
}

// RecordDiagnostics tallies a batch of published diagnostics by source
// and kind, and separately tallies parser-stage ones for ParseErrors.
func (m *Metrics) RecordDiagnostics(diags []diag.Diagnostic) {
	if m == nil {
		return
	}
	for _, d := range diags {
		m.Diagnostics.WithLabelValues(string(d.Source), string(d.Kind)).Inc()
		if d.Source == diag.SourceLexer || d.Source == diag.SourceParser {
			m.ParseErrors.WithLabelValues(string(d.Kind)).Inc()
		}
	}
}
