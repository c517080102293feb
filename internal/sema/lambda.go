package sema

import (
	"github.com/samber/lo"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
)

// checkLambdaArg reports duplicate formal names within one Formals node
// (DuplicatedFormal) and a collision between the `@`-bound whole-arg
// identifier and one of its own formals (DuplicatedFormalToArg) — the
// two checks spec.md §4.4 assigns to lambda-arg construction, deferred
// here from the parser since both require comparing a set of sibling
// names rather than a single linear token scan.
func (l *lowerer) checkLambdaArg(lambdaNode *cst.Node) {
	argID := firstNodeChild(lambdaNode)
	arg := l.tree.NodeByID(argID)
	if arg == nil || arg.Kind != cst.KindLambdaArg {
		return
	}

	var identNode, formalsNode *cst.Node
	for _, c := range l.tree.ChildNodes(arg) {
		n := l.tree.NodeByID(c)
		if n == nil {
			continue
		}
		switch n.Kind {
		case cst.KindIdentifier:
			identNode = n
		case cst.KindFormals:
			formalsNode = n
		}
	}
	if formalsNode == nil {
		return
	}

	formalNodes := lo.Filter(
		lo.Map(l.tree.ChildNodes(formalsNode), func(c cst.NodeID, _ int) *cst.Node { return l.tree.NodeByID(c) }),
		func(n *cst.Node, _ int) bool { return n != nil && n.Kind == cst.KindFormal },
	)

	seen := make(map[string]*cst.Node)
	for _, formal := range formalNodes {
		nameNode := firstNodeChildNode(l.tree, formal)
		if nameNode == nil || nameNode.Kind != cst.KindIdentifier {
			continue // the `...` formal has no name
		}
		name := string(l.tree.Src(nameNode))
		if prev, dup := seen[name]; dup {
			l.addDiag(diag.Diagnostic{
				Kind: diag.KindDuplicatedFormal,
				Span: nameNode.Span,
				Args: []any{name},
				Notes: []diag.Note{{Kind: diag.KindDuplicatedFormal, Span: prev.Span}},
			})
			continue
		}
		seen[name] = nameNode
	}

	if identNode == nil {
		return
	}
	argName := string(l.tree.Src(identNode))
	if prev, collides := seen[argName]; collides {
		l.addDiag(diag.Diagnostic{
			Kind: diag.KindDuplicatedFormalToArg,
			Span: identNode.Span,
			Args: []any{argName},
			Notes: []diag.Note{{Kind: diag.KindDuplicatedFormalToArg, Span: prev.Span}},
		})
	}
}

func firstNodeChild(n *cst.Node) cst.NodeID {
	for _, c := range n.Children {
		if !c.IsToken && c.Node != cst.NoNode {
			return c.Node
		}
	}
	return cst.NoNode
}

func firstNodeChildNode(tree *cst.Tree, n *cst.Node) *cst.Node {
	id := firstNodeChild(n)
	return tree.NodeByID(id)
}
