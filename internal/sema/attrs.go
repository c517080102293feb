// Package sema runs the post-parse semantic actions described in
// spec.md §4.4: attribute-set construction with mkdir-p merging, inherit
// desugaring, and formals/lambda-arg collision checks. It is idempotent
// and produces only annotations — the CST itself is never rewritten.
package sema

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
)

// AttributeSource tags how an Attribute entered its SemaAttrs.
type AttributeSource uint8

// AttributeSource values.
const (
	SourcePlain AttributeSource = iota
	SourceInherit
	SourceInheritFrom
)

// Attribute is one resolved (name, value) pair inside a SemaAttrs.
type Attribute struct {
	Key    cst.NodeID // the AttrName syntax node
	Value  cst.NodeID // cst.NoNode for an incomplete binding or bare `inherit x`
	Source AttributeSource
	// Nested holds the synthetic SemaAttrs for an mkdir-p intermediate
	// path segment (e.g. the "a" in "a.b = 1;"), which has no syntax
	// Attrs node of its own to key a map by. nil for a leaf attribute.
	Nested *SemaAttrs
}

// SemaAttrs is the semantic annotation attached to each Attrs and Let node.
type SemaAttrs struct {
	Static    map[string]*Attribute // insertion-ordered keys tracked separately
	Order     []string
	Dynamic   []*Attribute
	Recursive bool
}

func newSemaAttrs(recursive bool) *SemaAttrs {
	return &SemaAttrs{Static: make(map[string]*Attribute), Recursive: recursive}
}

func (sa *SemaAttrs) put(name string, attr *Attribute) {
	if _, exists := sa.Static[name]; !exists {
		sa.Order = append(sa.Order, name)
	}
	sa.Static[name] = attr
}

// Result is the output of running lowering over one CST.
type Result struct {
	// AttrsOf maps each Attrs/Let NodeID to its SemaAttrs annotation.
	AttrsOf map[cst.NodeID]*SemaAttrs
	// InheritDesugared maps each inherit-introduced name's AttrName node to
	// the Inherit node it came from.
	InheritDesugared map[cst.NodeID]cst.NodeID
	Diagnostics      []diag.Diagnostic
}

// Lower runs attribute-set construction, inherit desugaring, and formals
// collision checks over the whole tree, returning the annotations and any
// diagnostics raised.
func Lower(tree *cst.Tree) *Result {
	r := &Result{
		AttrsOf:          make(map[cst.NodeID]*SemaAttrs),
		InheritDesugared: make(map[cst.NodeID]cst.NodeID),
	}
	if tree == nil {
		return r
	}
	l := &lowerer{tree: tree, result: r}
	l.walk(tree.Root)
	return r
}

type lowerer struct {
	tree   *cst.Tree
	result *Result
}

func (l *lowerer) addDiag(d diag.Diagnostic) {
	d.Source = diag.SourceSema
	l.result.Diagnostics = append(l.result.Diagnostics, d)
}

// walk performs one depth-first traversal of the tree, building SemaAttrs
// at every Attrs/Let node it finds and checking formals/lambda-arg
// collisions at every Lambda it finds.
func (l *lowerer) walk(id cst.NodeID) {
	n := l.tree.NodeByID(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case cst.KindAttrs:
		l.buildAttrs(n)
	case cst.KindLet:
		l.buildLetBinds(n)
	case cst.KindLambda:
		l.checkLambdaArg(n)
	}
	for _, c := range l.tree.ChildNodes(n) {
		l.walk(c)
	}
}

// buildAttrs implements on_expr_attrs for an Attrs node: `rec? '{' binds '}'`.
func (l *lowerer) buildAttrs(attrsNode *cst.Node) {
	sa := newSemaAttrs(l.isRecAttrsNode(attrsNode.ID))
	l.result.AttrsOf[attrsNode.ID] = sa
	l.populateBinds(l.bindsChildOf(attrsNode.ID), sa)
}

func (l *lowerer) buildLetBinds(letNode *cst.Node) {
	sa := newSemaAttrs(true) // let-bindings are always recursive among themselves
	l.result.AttrsOf[letNode.ID] = sa
	l.populateBinds(l.bindsChildOf(letNode.ID), sa)
}

// bindsChildOf returns the Binds child of an Attrs or Let node.
func (l *lowerer) bindsChildOf(id cst.NodeID) cst.NodeID {
	n := l.tree.NodeByID(id)
	if n == nil {
		return cst.NoNode
	}
	for _, c := range n.Children {
		if c.IsToken {
			continue
		}
		child := l.tree.NodeByID(c.Node)
		if child != nil && child.Kind == cst.KindBinds {
			return c.Node
		}
	}
	return cst.NoNode
}

func (l *lowerer) populateBinds(bindsID cst.NodeID, sa *SemaAttrs) {
	binds := l.tree.NodeByID(bindsID)
	if binds == nil {
		return
	}
	for _, c := range l.tree.ChildNodes(binds) {
		entry := l.tree.NodeByID(c)
		if entry == nil {
			continue
		}
		switch entry.Kind {
		case cst.KindBinding:
			l.mergeBinding(entry, sa)
		case cst.KindInherit:
			l.desugarInherit(entry, sa)
		}
	}
}

// mergeBinding implements the mkdir-p walk for `a.b.c = e;`.
func (l *lowerer) mergeBinding(binding *cst.Node, sa *SemaAttrs) {
	pathID, valueID := bindingParts(binding)
	path := l.tree.NodeByID(pathID)
	if path == nil {
		return
	}
	var names []cst.NodeID
	for _, c := range l.tree.ChildNodes(path) {
		n := l.tree.NodeByID(c)
		if n != nil && n.Kind == cst.KindAttrName {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return
	}
	cur := sa
	for i, nameID := range names {
		attrName := l.tree.NodeByID(nameID)
		literal, static := staticAttrNameText(l.tree, attrName)
		last := i == len(names)-1

		if !static {
			cur.Dynamic = append(cur.Dynamic, &Attribute{Key: nameID, Value: valueOrNone(last, valueID), Source: SourcePlain})
			return
		}

		if existing, ok := cur.Static[literal]; ok {
			if last {
				l.mergeOrDuplicate(existing, nameID, valueID, cur, literal)
				return
			}
			if existing.Nested == nil {
				l.addDiag(duplicateAttrDiag(l.tree, nameID, existing.Key, literal))
				return
			}
			cur = existing.Nested
			continue
		}

		if last {
			cur.put(literal, &Attribute{Key: nameID, Value: valueID, Source: SourcePlain})
			return
		}
		interAttrs := newSemaAttrs(false)
		cur.put(literal, &Attribute{Key: nameID, Value: cst.NoNode, Source: SourcePlain, Nested: interAttrs})
		cur = interAttrs
	}
}

// mergeOrDuplicate handles a second binding landing on the same final
// path segment as an existing one. If both sides are themselves
// attribute-set values (detected by the new value's own node kind, since
// its SemaAttrs is only built by a later walk step over its Binds), this
// is a legal recursive merge; otherwise it is a plain duplicate-attribute
// error. The merge proceeds even when the two sides disagree on 'rec' —
// MergeDiffRec is a warning, not a reason to drop the second set's
// attributes.
func (l *lowerer) mergeOrDuplicate(existing *Attribute, newKey cst.NodeID, newValue cst.NodeID, parent *SemaAttrs, name string) {
	existingIsSet := existing.Nested != nil || l.valueIsAttrsLiteral(existing.Value)
	newIsSet := l.valueIsAttrsLiteral(newValue)
	if existingIsSet && newIsSet && existing.Source == SourcePlain {
		if l.isRecAttrsNode(existing.Value) != l.isRecAttrsNode(newValue) {
			l.addDiag(diag.Diagnostic{
				Kind: diag.KindMergeDiffRec,
				Span: l.tree.NodeByID(newKey).Span,
				Notes: []diag.Note{{
					Kind: diag.KindMergeDiffRec,
					Span: l.tree.NodeByID(existing.Key).Span,
				}},
			})
		}
		l.mergeNestedAttrs(existing, newValue)
		return
	}
	l.addDiag(duplicateAttrDiag(l.tree, newKey, existing.Key, name))
}

// mergeNestedAttrs folds newValue's own bindings into existing's nested
// SemaAttrs, building it from existing.Value's own bindings first the
// first time a merge lands on this key. Subsequent merges onto the same
// key (a third, fourth, ... occurrence) reuse and extend the same
// SemaAttrs rather than rebuilding it, so duplicate keys introduced
// across three or more occurrences are still caught by the same
// mergeBinding/mergeOrDuplicate path.
func (l *lowerer) mergeNestedAttrs(existing *Attribute, newValue cst.NodeID) {
	if existing.Nested == nil {
		existing.Nested = newSemaAttrs(l.isRecAttrsNode(existing.Value))
		l.populateBinds(l.bindsChildOf(existing.Value), existing.Nested)
	}
	l.populateBinds(l.bindsChildOf(newValue), existing.Nested)
}

func (l *lowerer) valueIsAttrsLiteral(id cst.NodeID) bool {
	n := l.tree.NodeByID(id)
	return n != nil && n.Kind == cst.KindAttrs
}

// isRecAttrsNode reads the 'rec' keyword directly off an Attrs node's
// token children, independent of whether that node's SemaAttrs has been
// built yet (walk visits a node's own Binds before it recurses into a
// value that is itself an Attrs).
func (l *lowerer) isRecAttrsNode(id cst.NodeID) bool {
	n := l.tree.NodeByID(id)
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if c.IsToken && c.Token < uint32(len(l.tree.Tokens)) && l.tree.Tokens[c.Token].Kind == lexer.TokenKwRec {
			return true
		}
	}
	return false
}

func duplicateAttrDiag(tree *cst.Tree, newKey, existingKey cst.NodeID, name string) diag.Diagnostic {
	return diag.Diagnostic{
		Kind: diag.KindDuplicatedAttrName,
		Span: tree.NodeByID(newKey).Span,
		Args: []any{name},
		Notes: []diag.Note{{
			Kind: diag.KindDuplicatedAttrName,
			Span: tree.NodeByID(existingKey).Span,
		}},
	}
}

func bindingParts(binding *cst.Node) (path cst.NodeID, value cst.NodeID) {
	for _, c := range binding.Children {
		if c.IsToken {
			continue
		}
		return c.Node, secondNodeChild(binding)
	}
	return cst.NoNode, cst.NoNode
}

func secondNodeChild(n *cst.Node) cst.NodeID {
	found := 0
	for _, c := range n.Children {
		if c.IsToken {
			continue
		}
		found++
		if found == 2 {
			return c.Node
		}
	}
	return cst.NoNode
}

func valueOrNone(last bool, value cst.NodeID) cst.NodeID {
	if last {
		return value
	}
	return cst.NoNode
}

// staticAttrNameText returns the literal text of an AttrName if it is a
// plain identifier or a single-fragment static string, and false for an
// interpolation or a multi-fragment string.
func staticAttrNameText(tree *cst.Tree, attrName *cst.Node) (string, bool) {
	if attrName == nil {
		return "", false
	}
	children := tree.ChildNodes(attrName)
	if len(children) != 1 {
		return "", false
	}
	inner := tree.NodeByID(children[0])
	if inner == nil {
		return "", false
	}
	switch inner.Kind {
	case cst.KindIdentifier:
		return string(tree.Src(inner)), true
	case cst.KindString:
		return staticStringLiteral(tree, inner)
	default:
		return "", false
	}
}

// staticStringLiteral returns the merged literal text of a String node
// if it has exactly one literal fragment (spec.md §3's "literal" string
// criterion), and false otherwise.
func staticStringLiteral(tree *cst.Tree, str *cst.Node) (string, bool) {
	children := tree.ChildNodes(str)
	var parts *cst.Node
	for _, c := range children {
		n := tree.NodeByID(c)
		if n != nil && n.Kind == cst.KindInterpolatedParts {
			parts = n
		}
	}
	if parts == nil {
		return "", false
	}
	fragments := tree.ChildNodes(parts)
	if len(fragments) != 1 {
		return "", false
	}
	frag := tree.NodeByID(fragments[0])
	if frag == nil || frag.Kind != cst.KindMisc {
		return "", false
	}
	return string(tree.Src(frag)), true
}
