package tu

import (
	"testing"

	"github.com/nix-community/nixd-sub000/internal/diag"
	itext "github.com/nix-community/nixd-sub000/internal/text"
)

func TestOpenAnalyzesDocument(t *testing.T) {
	m := NewManager()
	unit := m.Open("test://a.nix", 1, []byte(`let a = 1; in a`))
	if unit.Version != 1 {
		t.Fatalf("expected version 1, got %d", unit.Version)
	}
	if got, ok := m.Get("test://a.nix"); !ok || got != unit {
		t.Fatalf("expected Get to return the opened unit")
	}
}

func TestChangeRejectsStaleVersion(t *testing.T) {
	m := NewManager()
	m.Open("test://a.nix", 2, []byte(`1`))
	if _, err := m.Change("test://a.nix", 2, []Change{{Text: "2"}}); err != ErrStaleVersion {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
	if _, err := m.Change("test://a.nix", 1, []Change{{Text: "2"}}); err != ErrStaleVersion {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
}

func TestChangeRejectsUnopenedDocument(t *testing.T) {
	m := NewManager()
	if _, err := m.Change("test://missing.nix", 2, nil); err != ErrDocumentNotOpen {
		t.Fatalf("expected ErrDocumentNotOpen, got %v", err)
	}
}

func TestChangeWholeDocumentReplace(t *testing.T) {
	m := NewManager()
	m.Open("test://a.nix", 1, []byte(`1`))
	unit, err := m.Change("test://a.nix", 2, []Change{{Text: "let a = 1; in a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(unit.Source()) != "let a = 1; in a" {
		t.Fatalf("expected full replacement, got %q", unit.Source())
	}
}

func TestChangeIncrementalEdit(t *testing.T) {
	m := NewManager()
	m.Open("test://a.nix", 1, []byte(`let a = 1; in a`))
	// replace "1" at byte offset 8 with "2"
	unit, err := m.Change("test://a.nix", 2, []Change{{
		Range: &itext.UTF16Range{
			Start: itext.UTF16Position{Line: 0, Character: 8},
			End:   itext.UTF16Position{Line: 0, Character: 9},
		},
		Text: "2",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(unit.Source()) != "let a = 2; in a" {
		t.Fatalf("expected incremental edit applied, got %q", unit.Source())
	}
}

func TestCloseStopsTracking(t *testing.T) {
	m := NewManager()
	m.Open("test://a.nix", 1, []byte(`1`))
	m.Close("test://a.nix")
	if _, ok := m.Get("test://a.nix"); ok {
		t.Fatalf("expected document to be untracked after Close")
	}
}

func TestSuppressorFiltersMatchingKindsAndURIs(t *testing.T) {
	s, err := NewSuppressor(map[string][]diag.Kind{
		"**/vendor/**": {diag.KindDefinitionNotUsed},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diags := []diag.Diagnostic{
		{Kind: diag.KindDefinitionNotUsed},
		{Kind: diag.KindUndefinedVariable},
	}
	got := s.Apply("file:///repo/vendor/pkg/default.nix", diags)
	if len(got) != 1 || got[0].Kind != diag.KindUndefinedVariable {
		t.Fatalf("expected only the undefined-variable diagnostic to survive, got %+v", got)
	}
	got = s.Apply("file:///repo/src/default.nix", diags)
	if len(got) != 2 {
		t.Fatalf("expected no suppression outside vendor, got %+v", got)
	}
}
