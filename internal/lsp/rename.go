package lsp

import (
	"context"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// PrepareRename handles textDocument/prepareRename.
func (s *Server) PrepareRename(ctx context.Context, p TextDocumentPositionParams) (*PrepareRenameResult, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	refNode, res, ok := referenceAt(unit, p.Position)
	if !ok || !renameable(res) {
		return nil, nil
	}
	rng, ok := rangeForNode(unit, refNode)
	if !ok {
		return nil, nil
	}
	return &PrepareRenameResult{Range: rng, Placeholder: identifierText(unit.Tree, refNode)}, nil
}

// Rename handles textDocument/rename.
func (s *Server) Rename(ctx context.Context, p RenameParams) (*WorkspaceEdit, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	_, res, ok := referenceAt(unit, p.Position)
	if !ok || !renameable(res) {
		return nil, errPositionOutOfRange(p.TextDocument.URI, p.Position)
	}

	sites := make([]cst.NodeID, 0, len(res.Def.Uses)+1)
	if res.Def.Node != cst.NoNode {
		sites = append(sites, res.Def.Node)
	}
	sites = append(sites, res.Def.Uses...)

	edits := make([]TextEdit, 0, len(sites))
	for _, id := range sites {
		rng, ok := rangeForNode(unit, id)
		if !ok {
			continue
		}
		edits = append(edits, TextEdit{Range: rng, NewText: p.NewName})
	}
	return &WorkspaceEdit{Changes: map[string][]TextEdit{p.TextDocument.URI: edits}}, nil
}

// renameable excludes builtins and pure with-fallback references: neither
// has a concrete, editable binding site.
func renameable(res varlookup.LookupResult) bool {
	if res.Kind != varlookup.Defined || res.Def == nil {
		return false
	}
	return res.Def.Source != varlookup.SourceBuiltin
}
