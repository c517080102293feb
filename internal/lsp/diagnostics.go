package lsp

import (
	"github.com/nix-community/nixd-sub000/internal/diag"
	itext "github.com/nix-community/nixd-sub000/internal/text"
)

// diagnosticsToLSP converts the translation unit's unified diagnostics
// into the LSP wire shape, one per diag.Diagnostic, with its Notes
// carried as relatedInformation against the same URI.
func diagnosticsToLSP(uri string, li *itext.LineIndex, diags []diag.Diagnostic) ([]Diagnostic, error) {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		rng, err := rangeFromSpan(li, d.Span)
		if err != nil {
			return nil, err
		}
		lspDiag := Diagnostic{
			Range:    rng,
			Severity: lspSeverity(d.Severity()),
			Code:     string(d.Kind),
			Source:   "nixd-sub000",
			Message:  d.Message(),
		}
		if d.Tags.Has(diag.TagFaded) {
			lspDiag.Tags = append(lspDiag.Tags, diagnosticTagUnnecessary)
		}
		for _, n := range d.Notes {
			noteRange, err := rangeFromSpan(li, n.Span)
			if err != nil {
				continue
			}
			lspDiag.RelatedInfo = append(lspDiag.RelatedInfo, DiagnosticRelatedInformation{
				Location: Location{URI: uri, Range: noteRange},
				Message:  n.Message(),
			})
		}
		out = append(out, lspDiag)
	}
	return out, nil
}

// diagnosticTagUnnecessary is the LSP DiagnosticTag.Unnecessary value,
// used for faded dead-code hints (unused rec/with/definition).
const diagnosticTagUnnecessary = 1
