// Package parentmap builds the node-to-parent side table deliberately
// left out of internal/cst.Node: a single depth-first pass over a parsed
// Tree, producing up_to/up_expr/is_root style helpers used by variable
// lookup, hover, and the LSP position-to-node handlers.
package parentmap

import "github.com/nix-community/nixd-sub000/internal/cst"

// Map is the node-to-parent side table for one Tree.
type Map struct {
	tree    *cst.Tree
	parents map[cst.NodeID]cst.NodeID
}

// Build runs one DFS over tree and returns its parent map.
func Build(tree *cst.Tree) *Map {
	m := &Map{tree: tree, parents: make(map[cst.NodeID]cst.NodeID)}
	if tree == nil {
		return m
	}
	m.visit(tree.Root, cst.NoNode)
	return m
}

func (m *Map) visit(id, parent cst.NodeID) {
	if id == cst.NoNode {
		return
	}
	m.parents[id] = parent
	n := m.tree.NodeByID(id)
	if n == nil {
		return
	}
	for _, c := range n.Children {
		if !c.IsToken && c.Node != cst.NoNode {
			m.visit(c.Node, id)
		}
	}
}

// Parent returns id's parent, or cst.NoNode for the root or an unknown id.
func (m *Map) Parent(id cst.NodeID) cst.NodeID {
	return m.parents[id]
}

// IsRoot reports whether id is the tree's root node.
func (m *Map) IsRoot(id cst.NodeID) bool {
	return m.tree != nil && id == m.tree.Root
}

// UpTo walks parents starting at id (inclusive) until it finds a node of
// kind, returning cst.NoNode if none exists on the path to the root.
func (m *Map) UpTo(id cst.NodeID, kind cst.NodeKind) cst.NodeID {
	for cur := id; cur != cst.NoNode; cur = m.Parent(cur) {
		n := m.tree.NodeByID(cur)
		if n == nil {
			break
		}
		if n.Kind == kind {
			return cur
		}
	}
	return cst.NoNode
}

// UpExpr walks parents starting at id's parent until it finds a node
// whose kind is itself an expression production (cst.NodeKind.IsExpr),
// used to find the nearest enclosing expression for position-based
// lookups (hover, code actions) that land on a bare token or a
// structural node like AttrName or Formal.
func (m *Map) UpExpr(id cst.NodeID) cst.NodeID {
	for cur := m.Parent(id); cur != cst.NoNode; cur = m.Parent(cur) {
		n := m.tree.NodeByID(cur)
		if n == nil {
			return cst.NoNode
		}
		if n.Kind.IsExpr() {
			return cur
		}
	}
	return cst.NoNode
}

// Ancestors returns the chain of ancestor NodeIDs from id's parent up to
// and including the root, in that order (nearest first).
func (m *Map) Ancestors(id cst.NodeID) []cst.NodeID {
	var out []cst.NodeID
	for cur := m.Parent(id); cur != cst.NoNode; cur = m.Parent(cur) {
		out = append(out, cur)
	}
	return out
}
