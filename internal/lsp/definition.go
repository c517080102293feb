package lsp

import (
	"context"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/tu"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// Definition handles textDocument/definition.
func (s *Server) Definition(ctx context.Context, p TextDocumentPositionParams) ([]Location, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	_, res, ok := referenceAt(unit, p.Position)
	if !ok || res.Kind != varlookup.Defined || res.Def.Node == cst.NoNode {
		return nil, nil
	}
	loc, ok := locationForNode(unit, p.TextDocument.URI, res.Def.Node)
	if !ok {
		return nil, nil
	}
	return []Location{loc}, nil
}

// Declaration handles textDocument/declaration. Nix has no separate
// declaration/definition distinction, so this is the same lookup as
// Definition.
func (s *Server) Declaration(ctx context.Context, p TextDocumentPositionParams) ([]Location, error) {
	return s.Definition(ctx, p)
}

// References handles textDocument/references.
func (s *Server) References(ctx context.Context, p ReferenceParams) ([]Location, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	_, res, ok := referenceAt(unit, p.Position)
	if !ok || res.Def == nil {
		return nil, nil
	}

	var locs []Location
	if p.Context.IncludeDeclaration && res.Def.Node != cst.NoNode {
		if loc, ok := locationForNode(unit, p.TextDocument.URI, res.Def.Node); ok {
			locs = append(locs, loc)
		}
	}
	for _, use := range res.Def.Uses {
		if loc, ok := locationForNode(unit, p.TextDocument.URI, use); ok {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

// DocumentHighlight handles textDocument/documentHighlight.
func (s *Server) DocumentHighlight(ctx context.Context, p TextDocumentPositionParams) ([]DocumentHighlight, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	_, res, ok := referenceAt(unit, p.Position)
	if !ok || res.Def == nil {
		return nil, nil
	}

	var out []DocumentHighlight
	if res.Def.Node != cst.NoNode {
		if rng, ok := rangeForNode(unit, res.Def.Node); ok {
			out = append(out, DocumentHighlight{Range: rng, Kind: HighlightKindText})
		}
	}
	for _, use := range res.Def.Uses {
		if rng, ok := rangeForNode(unit, use); ok {
			out = append(out, DocumentHighlight{Range: rng, Kind: HighlightKindRead})
		}
	}
	return out, nil
}

func rangeForNode(unit *tu.TranslationUnit, id cst.NodeID) (Range, bool) {
	n := unit.Tree.NodeByID(id)
	if n == nil {
		return Range{}, false
	}
	li := lineIndexFor(unit.Tree)
	rng, err := rangeFromSpan(li, n.Span)
	if err != nil {
		return Range{}, false
	}
	return rng, true
}

func locationForNode(unit *tu.TranslationUnit, uri string, id cst.NodeID) (Location, bool) {
	rng, ok := rangeForNode(unit, id)
	if !ok {
		return Location{}, false
	}
	return Location{URI: uri, Range: rng}, true
}
