package lsp

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	itext "github.com/nix-community/nixd-sub000/internal/text"
	"github.com/nix-community/nixd-sub000/internal/tu"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// referenceAt finds the Var (or bare-inherit AttrName) node under pos and
// its resolved varlookup.LookupResult, if any. ok is false when pos
// lands on something that isn't a variable reference at all.
func referenceAt(unit *tu.TranslationUnit, pos Position) (refNode cst.NodeID, res varlookup.LookupResult, ok bool) {
	if unit == nil || unit.Tree == nil || unit.Lookup == nil {
		return cst.NoNode, varlookup.LookupResult{}, false
	}
	li := lineIndexFor(unit.Tree)
	off, valid := offsetForPosition(li, pos)
	if !valid {
		return cst.NoNode, varlookup.LookupResult{}, false
	}
	hit := unit.Tree.Descend(nil, itext.At(off))
	if hit == nil {
		return cst.NoNode, varlookup.LookupResult{}, false
	}

	id := hit.ID
	if hit.Kind != cst.KindIdentifier {
		// Already landed on something else (whitespace gap, a keyword
		// token's enclosing node, ...); only identifiers resolve.
		if hit.Kind == cst.KindVar || hit.Kind == cst.KindAttrName {
			id = hit.ID
		} else {
			return cst.NoNode, varlookup.LookupResult{}, false
		}
	}

	if varID := unit.Parents.UpTo(id, cst.KindVar); varID != cst.NoNode {
		if r, found := unit.Lookup.Results[varID]; found {
			return varID, r, true
		}
	}
	if attrID := unit.Parents.UpTo(id, cst.KindAttrName); attrID != cst.NoNode {
		if r, found := unit.Lookup.Results[attrID]; found {
			return attrID, r, true
		}
	}
	return cst.NoNode, varlookup.LookupResult{}, false
}

// identifierText returns the source text of the identifier a Var or
// AttrName node wraps, or "" if it doesn't have a plain static one.
func identifierText(tree *cst.Tree, nodeID cst.NodeID) string {
	n := tree.NodeByID(nodeID)
	if n == nil {
		return ""
	}
	for _, id := range tree.ChildNodes(n) {
		child := tree.NodeByID(id)
		if child != nil && child.Kind == cst.KindIdentifier {
			return string(tree.Src(child))
		}
	}
	if n.Kind == cst.KindIdentifier {
		return string(tree.Src(n))
	}
	return ""
}
