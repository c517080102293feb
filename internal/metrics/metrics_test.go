package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/nix-community/nixd-sub000/internal/diag"
)

func TestObserveRequestIncrementsCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("textDocument/hover", "ok", 5*time.Millisecond)

	out, err := m.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "nixd_sub000_requests_total") {
		t.Fatalf("expected requests_total in gathered output, got:\n%s", out)
	}
}

func TestRecordDiagnosticsSplitsParseErrors(t *testing.T) {
	m := New()
	m.RecordDiagnostics([]diag.Diagnostic{
		{Source: diag.SourceParser, Kind: diag.KindMissingSemi},
		{Source: diag.SourceVarLookup, Kind: diag.KindUndefinedVariable},
	})
	out, err := m.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "nixd_sub000_parse_errors_total") {
		t.Fatalf("expected parse_errors_total for the parser diagnostic, got:\n%s", out)
	}
	if !strings.Contains(out, `kind="undefined-variable"`) {
		t.Fatalf("expected diagnostics_total labeled with undefined-variable, got:\n%s", out)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("x", "ok", time.Millisecond)
	m.SetDocumentsOpen(3)
	m.RecordDiagnostics(nil)
}
