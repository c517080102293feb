// Package cst implements the arena-indexed concrete syntax tree produced
// by internal/parser: a dense node slice addressed by compact NodeID
// indices, with uniform child iteration and positional descent.
//
// Parent pointers are deliberately NOT stored on Node; they live in a
// side-table map built by internal/parentmap after lowering, so that CST
// construction itself stays a pure bottom-up append.
package cst

import (
	"fmt"

	"github.com/nix-community/nixd-sub000/internal/lexer"
	"github.com/nix-community/nixd-sub000/internal/text"
)

// NodeID indexes into Tree.Nodes. The zero value, NoNode, is a sentinel:
// index 0 of Tree.Nodes is an unused placeholder so NoNode never aliases
// a real node.
type NodeID uint32

// NoNode is the sentinel for "no node here" (a tolerated missing child).
const NoNode NodeID = 0

// ChildRef references either a lexed token or a child node, preserving
// source order across the two. Null children (missing after a recovery)
// are represented by a ChildRef with IsToken=false and Node=NoNode so
// that the child's position in the children slice still carries meaning.
type ChildRef struct {
	IsToken bool
	Token   uint32 // index into Tree.Tokens, valid iff IsToken
	Node    NodeID // valid iff !IsToken
}

// NodeFlags carry parser-recovery metadata about the node.
type NodeFlags uint8

// NodeFlags bit values.
const (
	// NodeFlagRecovered marks a node whose subtree contains recovered parse errors.
	NodeFlagRecovered NodeFlags = 1 << iota
	// NodeFlagSynthesized marks a node with no consumed tokens, inserted purely
	// to keep a missing child slot meaningfully typed.
	NodeFlagSynthesized
)

// Has reports whether all bits in mask are set.
func (f NodeFlags) Has(mask NodeFlags) bool { return f&mask == mask }

// Node is a CST node in source order with token coverage.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Span     text.Span
	Children []ChildRef
	Flags    NodeFlags
}

// Tree is the immutable parse result for one document version.
type Tree struct {
	URI     string
	Version int32
	Source  []byte
	Tokens  []lexer.Token
	Nodes   []Node // index 0 is the unused sentinel; real NodeIDs are 1-based
	Root    NodeID
}

// NodeByID returns the node for id, or nil if id is NoNode or out of range.
func (t *Tree) NodeByID(id NodeID) *Node {
	if t == nil || id == NoNode {
		return nil
	}
	idx := int(id)
	if idx < 0 || idx >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[idx]
}

// RootNode returns the tree's root node, or nil if the tree is empty.
func (t *Tree) RootNode() *Node {
	return t.NodeByID(t.Root)
}

// Src returns the exact source byte slice spanned by n.
func (t *Tree) Src(n *Node) []byte {
	if t == nil || n == nil || !n.Span.IsValid() {
		return nil
	}
	if int(n.Span.End) > len(t.Source) {
		return nil
	}
	return t.Source[n.Span.Start:n.Span.End]
}

// ChildNodes returns the NodeIDs of n's non-token, non-null children, in order.
func (t *Tree) ChildNodes(n *Node) []NodeID {
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsToken && c.Node != NoNode {
			out = append(out, c.Node)
		}
	}
	return out
}

// Descend descends to the smallest node whose span contains query,
// scanning children in order and recursing into the first child whose
// span contains it. Starting from the root when from is nil.
func (t *Tree) Descend(from *Node, query text.Span) *Node {
	if t == nil {
		return nil
	}
	cur := from
	if cur == nil {
		cur = t.RootNode()
	}
	if cur == nil || !cur.Span.ContainsSpan(query) {
		return cur
	}
	for {
		advanced := false
		for _, c := range cur.Children {
			if c.IsToken || c.Node == NoNode {
				continue
			}
			child := t.NodeByID(c.Node)
			if child == nil {
				continue
			}
			if child.Span.ContainsSpan(query) {
				cur = child
				advanced = true
				break
			}
		}
		if !advanced {
			return cur
		}
	}
}

func (n Node) String() string {
	return fmt.Sprintf("Node{id=%d kind=%s span=%s children=%d}", n.ID, n.Kind, n.Span, len(n.Children))
}
