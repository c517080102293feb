package cst

import (
	"github.com/nix-community/nixd-sub000/internal/lexer"
	"github.com/nix-community/nixd-sub000/internal/text"
)

// Builder assembles a Tree bottom-up. The parser's own recursive-descent
// call stack supplies the nesting: each parse function collects the
// ChildRefs it produced into a local slice, then calls NewNode once to
// append the finished node to the arena.
type Builder struct {
	tree *Tree
}

// NewBuilder starts a fresh arena for one document parse.
func NewBuilder(uri string, version int32, source []byte) *Builder {
	return &Builder{
		tree: &Tree{
			URI:     uri,
			Version: version,
			Source:  source,
			Nodes:   []Node{{}}, // index 0 is the unused sentinel
		},
	}
}

// AddToken appends tok to the token stream and returns its index, for use
// in a ChildRef.
func (b *Builder) AddToken(tok lexer.Token) uint32 {
	b.tree.Tokens = append(b.tree.Tokens, tok)
	return uint32(len(b.tree.Tokens) - 1)
}

// TokenRef builds a ChildRef for an already-appended token index.
func TokenRef(idx uint32) ChildRef { return ChildRef{IsToken: true, Token: idx} }

// NodeRef builds a ChildRef for a child node, or a null ChildRef if id is NoNode.
func NodeRef(id NodeID) ChildRef { return ChildRef{IsToken: false, Node: id} }

// NewNode appends a finished node to the arena and returns its ID.
func (b *Builder) NewNode(kind NodeKind, span text.Span, children []ChildRef, flags NodeFlags) NodeID {
	id := NodeID(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, Node{
		ID:       id,
		Kind:     kind,
		Span:     span,
		Children: children,
		Flags:    flags,
	})
	return id
}

// SetRoot records id as the tree's root node.
func (b *Builder) SetRoot(id NodeID) { b.tree.Root = id }

// Tree returns the arena built so far. The builder remains usable after
// calling Tree; callers typically call it once after parsing completes.
func (b *Builder) Tree() *Tree { return b.tree }
