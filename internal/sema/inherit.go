package sema

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
)

// desugarInherit implements spec.md §4.4's inherit desugaring: `inherit x1
// x2;` contributes Var(x1), Var(x2); `inherit (e) x1 x2;` contributes
// Select(e,[x1]), Select(e,[x2]). Neither form produces a real CST
// rewrite — the synthetic expression identity recorded in
// Result.InheritDesugared is the Inherit node's NodeID itself combined
// with the attribute name, since there is no synthesized Call/Select node
// to allocate an ID for without mutating the arena after parsing. Callers
// needing the source expression for `inherit (e) ...` should read it
// directly off the Inherit node's children instead.
func (l *lowerer) desugarInherit(inheritNode *cst.Node, sa *SemaAttrs) {
	sourceExpr := inheritSourceExpr(l.tree, inheritNode)
	source := SourceInherit
	if sourceExpr != cst.NoNode {
		source = SourceInheritFrom
	}
	for _, c := range l.tree.ChildNodes(inheritNode) {
		n := l.tree.NodeByID(c)
		if n == nil || n.Kind != cst.KindAttrName {
			continue
		}
		literal, static := staticAttrNameText(l.tree, n)
		if !static {
			// A dynamic ${...} name in inherit is rejected by the grammar
			// already (parseInherit only loops while it sees Identifier or
			// DQuote), so this path is unreachable in practice; skip
			// defensively rather than panic on a malformed tree.
			continue
		}
		value := sourceExpr
		if source == SourceInherit {
			value = cst.NoNode // plain inherit resolves the name itself, not a fixed value node
		}
		if existing, ok := sa.Static[literal]; ok {
			l.addDiag(duplicateAttrDiag(l.tree, c, existing.Key, literal))
			continue
		}
		attr := &Attribute{Key: c, Value: value, Source: source}
		sa.put(literal, attr)
		l.result.InheritDesugared[c] = inheritNode.ID
	}
}

// inheritSourceExpr returns the `(expr)` source of `inherit (expr) ...`,
// or cst.NoNode for a plain `inherit ...`.
func inheritSourceExpr(tree *cst.Tree, inheritNode *cst.Node) cst.NodeID {
	for _, c := range inheritNode.Children {
		if c.IsToken {
			continue
		}
		n := tree.NodeByID(c.Node)
		if n == nil {
			continue
		}
		if n.Kind == cst.KindAttrName {
			return cst.NoNode
		}
		return c.Node
	}
	return cst.NoNode
}
