package lsp

import (
	"errors"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	itext "github.com/nix-community/nixd-sub000/internal/text"
)

// lineIndexFor builds a fresh UTF-16 line index over tree's source. The
// parser here reparses from scratch on every edit (internal/tu has no
// incremental-reparse primitive to cache this against), so there is
// nothing stable to memoize it on; rebuilding is a single linear scan.
func lineIndexFor(tree *cst.Tree) *itext.LineIndex {
	if tree == nil {
		return itext.NewLineIndex(nil)
	}
	return itext.NewLineIndex(tree.Source)
}

func rangeFromSpan(li *itext.LineIndex, sp itext.Span) (Range, error) {
	if li == nil {
		return Range{}, errors.New("nil line index")
	}
	clamped := clampSpanToSource(sp, li.SourceLen())
	start, err := li.OffsetToUTF16Position(clamped.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := li.OffsetToUTF16Position(clamped.End)
	if err != nil {
		return Range{}, err
	}
	return Range{
		Start: Position{Line: start.Line, Character: start.Character},
		End:   Position{Line: end.Line, Character: end.Character},
	}, nil
}

func clampSpanToSource(sp itext.Span, srcLen itext.ByteOffset) itext.Span {
	if !sp.Start.IsValid() {
		sp.Start = 0
	}
	if !sp.End.IsValid() {
		sp.End = sp.Start
	}
	if sp.Start > srcLen {
		sp.Start = srcLen
	}
	if sp.End > srcLen {
		sp.End = srcLen
	}
	if sp.End < sp.Start {
		sp.End = sp.Start
	}
	return sp
}

func rangeToUTF16(r Range) itext.UTF16Range {
	return itext.UTF16Range{
		Start: itext.UTF16Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   itext.UTF16Position{Line: r.End.Line, Character: r.End.Character},
	}
}

// offsetForPosition converts an LSP UTF-16 position to a byte offset,
// returning ok=false if it falls outside the document.
func offsetForPosition(li *itext.LineIndex, pos Position) (itext.ByteOffset, bool) {
	off, err := li.UTF16PositionToOffset(itext.UTF16Position{Line: pos.Line, Character: pos.Character})
	if err != nil {
		return 0, false
	}
	return off, true
}

// lspSeverity maps a diag.Severity to the LSP DiagnosticSeverity enum
// (1=Error, 2=Warning, 3=Information, 4=Hint).
func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SeverityFatal, diag.SeverityError:
		return 1
	case diag.SeverityWarning:
		return 2
	case diag.SeverityInfo:
		return 3
	case diag.SeverityHint:
		return 4
	default:
		return 1
	}
}
