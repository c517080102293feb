package lsp

import (
	"context"

	"github.com/Masterminds/semver/v3"

	itext "github.com/nix-community/nixd-sub000/internal/text"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// InlayHint handles textDocument/inlayHint. It marks every variable
// reference in range that resolved dynamically through an enclosing
// `with`, since those are exactly the ones static reading can't pin down
// by eye.
func (s *Server) InlayHint(ctx context.Context, p InlayHintParams) ([]InlayHint, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	if unit.Lookup == nil || unit.Tree == nil {
		return nil, nil
	}
	li := lineIndexFor(unit.Tree)
	start, ok1 := offsetForPosition(li, p.Range.Start)
	end, ok2 := offsetForPosition(li, p.Range.End)
	if !ok1 || !ok2 {
		return nil, nil
	}
	rangeSpan := itext.Span{Start: start, End: end}

	var hints []InlayHint
	for id, res := range unit.Lookup.Results {
		if res.Kind != varlookup.FromWith {
			continue
		}
		n := unit.Tree.NodeByID(id)
		if n == nil || !rangeSpan.ContainsSpan(n.Span) {
			continue
		}
		endPos, err := li.OffsetToUTF16Position(n.Span.End)
		if err != nil {
			continue
		}
		label := " (via with)"
		if name := identifierText(unit.Tree, id); name != "" {
			label += inlayProviderSuffix(ctx, s, name)
		}
		hints = append(hints, InlayHint{
			Position: Position{Line: endPos.Line, Character: endPos.Character},
			Label:    label,
			Kind:     InlayHintKindType,
		})
	}
	return hints, nil
}

// inlayProviderSuffix looks up a version for name through the configured
// provider, bounded by the same per-call deadline hover uses, and renders
// it only when it parses as semver — nixpkgs versions that don't are left
// out of inlay hints entirely rather than cluttering every with-resolved
// reference with a raw, possibly very long version string.
func inlayProviderSuffix(ctx context.Context, s *Server, name string) string {
	pctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()
	info, err := s.Provider.AttrpathInfo(pctx, []string{name})
	if err != nil || !info.Available || info.Version == "" {
		return ""
	}
	if v, err := semver.NewVersion(info.Version); err == nil {
		return " " + v.String()
	}
	return ""
}
