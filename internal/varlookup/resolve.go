package varlookup

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
	"github.com/nix-community/nixd-sub000/internal/sema"
	"github.com/nix-community/nixd-sub000/internal/text"
)

type analyzer struct {
	tree   *cst.Tree
	sema   *sema.Result
	result *Result

	// recEnvs/withEnvs record every rec-attrs/with scope built, so
	// reportUnused can flag the ones that turned out to do nothing.
	recEnvs  []recScope
	withEnvs []withScope
}

type recScope struct {
	env       *EnvNode
	tokenSpan text.Span
}

type withScope struct {
	node cst.NodeID
	def  *Definition
}

// rootEnv builds the synthetic env holding every builtin name.
func (a *analyzer) rootEnv() *EnvNode {
	env := newEnvNode(nil, cst.NoNode)
	for _, name := range builtinNames {
		env.put(name, &Definition{Node: cst.NoNode, Source: SourceBuiltin})
	}
	return env
}

// walk assigns env to id and recurses, switching to a child env at every
// scope-introducing node per spec.md §4.6's construction-rules table.
func (a *analyzer) walk(id cst.NodeID, env *EnvNode) {
	n := a.tree.NodeByID(id)
	if n == nil {
		return
	}
	a.result.Envs[id] = env
	switch n.Kind {
	case cst.KindVar:
		a.lookupVar(n, env)
	case cst.KindLambda:
		a.walkLambda(n, env)
	case cst.KindAttrs:
		a.walkAttrsNode(n, env)
	case cst.KindLet:
		a.walkLet(n, env)
	case cst.KindWith:
		a.walkWith(n, env)
	default:
		for _, c := range a.tree.ChildNodes(n) {
			a.walk(c, env)
		}
	}
}

func (a *analyzer) lookupVar(varNode *cst.Node, env *EnvNode) {
	children := a.tree.ChildNodes(varNode)
	if len(children) != 1 {
		return
	}
	ident := a.tree.NodeByID(children[0])
	if ident == nil {
		return
	}
	name := string(a.tree.Src(ident))
	res := a.resolve(name, env, varNode.ID)
	a.result.Results[varNode.ID] = res
	if res.Kind == Undefined {
		a.addDiag(diag.Diagnostic{
			Kind: diag.KindUndefinedVariable,
			Span: varNode.Span,
			Args: []any{name},
		})
	}
}

// resolve implements spec.md §4.6's lookup algorithm: walk up from env,
// return the first lexical binding found (recording a use and, if a
// 'with' scope was already crossed, an EscapingWith hint); otherwise fall
// back to the innermost crossed 'with', or report Undefined.
func (a *analyzer) resolve(name string, env *EnvNode, useNode cst.NodeID) LookupResult {
	var withEnv *EnvNode
	for e := env; e != nil; e = e.Parent {
		if e.IsWith {
			if withEnv == nil {
				withEnv = e
			}
			continue
		}
		def, ok := e.Bindings[name]
		if !ok {
			continue
		}
		def.Uses = append(def.Uses, useNode)
		if withEnv != nil && def.Node != cst.NoNode {
			a.addDiag(diag.Diagnostic{
				Kind: diag.KindEscapingWith,
				Span: a.tree.NodeByID(useNode).Span,
				Args: []any{name},
				Notes: []diag.Note{
					{Kind: diag.KindEscapingWith, Span: a.tree.NodeByID(def.Node).Span},
					{Kind: diag.KindEscapingWith, Span: a.tree.NodeByID(withEnv.Introducing).Span},
				},
			})
		}
		return LookupResult{Kind: Defined, Def: def}
	}
	if withEnv != nil {
		withDef := a.withDefinitionFor(withEnv)
		withDef.Uses = append(withDef.Uses, useNode)
		return LookupResult{Kind: FromWith, Def: withDef}
	}
	return LookupResult{Kind: Undefined}
}

func (a *analyzer) withDefinitionFor(withEnv *EnvNode) *Definition {
	return a.result.WithDefs[withEnv.Introducing]
}

// walkLambda implements the Lambda row: a new env holding one definition
// per formal (skipping the nameless '...'), plus the '@'-bound whole-arg
// identifier unless it collides with one of its own formals.
func (a *analyzer) walkLambda(n *cst.Node, env *EnvNode) {
	children := a.tree.ChildNodes(n)
	if len(children) < 2 {
		return
	}
	argID, bodyID := children[0], children[1]
	arg := a.tree.NodeByID(argID)
	newEnv := newEnvNode(env, n.ID)

	var identNode *cst.Node
	var identID cst.NodeID
	var formalsNode *cst.Node
	for _, c := range a.tree.ChildNodes(arg) {
		child := a.tree.NodeByID(c)
		if child == nil {
			continue
		}
		switch child.Kind {
		case cst.KindIdentifier:
			identNode, identID = child, c
		case cst.KindFormals:
			formalsNode = child
		}
	}

	formalNames := make(map[string]bool)
	if formalsNode != nil {
		for _, c := range a.tree.ChildNodes(formalsNode) {
			formal := a.tree.NodeByID(c)
			if formal == nil || formal.Kind != cst.KindFormal {
				continue
			}
			fChildren := a.tree.ChildNodes(formal)
			if len(fChildren) == 0 {
				continue // the nameless '...' formal
			}
			nameNode := a.tree.NodeByID(fChildren[0])
			if nameNode == nil || nameNode.Kind != cst.KindIdentifier {
				continue
			}
			name := string(a.tree.Src(nameNode))
			newEnv.put(name, &Definition{Node: fChildren[0], Source: SourceLambdaFormal})
			formalNames[name] = true
			if len(fChildren) > 1 {
				a.walk(fChildren[1], newEnv) // default value, evaluated in the lambda's own scope
			}
		}
	}
	if identNode != nil {
		name := string(a.tree.Src(identNode))
		if !formalNames[name] {
			newEnv.put(name, &Definition{Node: identID, Source: SourceLambdaArg})
		}
	}

	a.result.Envs[argID] = newEnv
	a.walk(bodyID, newEnv)
}

// walkAttrsNode implements the Attrs row: a recursive (rec-keyword) Attrs
// opens a new env with one definition per static key and tracks it for
// the ExtraRecursive check; a non-recursive Attrs opens no new env at
// all, so its binding values are evaluated in the enclosing scope.
func (a *analyzer) walkAttrsNode(n *cst.Node, env *EnvNode) {
	bindsID := a.findChildOfKind(n, cst.KindBinds)
	sa := a.sema.AttrsOf[n.ID]
	if sa != nil && sa.Recursive {
		newEnv := a.buildAttrsEnv(sa, env, SourceRec, n.ID)
		if recTok, ok := a.recKeywordSpan(n); ok {
			a.recEnvs = append(a.recEnvs, recScope{env: newEnv, tokenSpan: recTok})
		}
		a.walkBinds(bindsID, newEnv, env)
		return
	}
	a.walkBinds(bindsID, env, env)
}

func (a *analyzer) walkLet(n *cst.Node, env *EnvNode) {
	bindsID := a.findChildOfKind(n, cst.KindBinds)
	var bodyID cst.NodeID
	for _, c := range a.tree.ChildNodes(n) {
		if c != bindsID {
			bodyID = c
		}
	}
	sa := a.sema.AttrsOf[n.ID]
	newEnv := a.buildAttrsEnv(sa, env, SourceLet, n.ID)
	a.walkBinds(bindsID, newEnv, env)
	a.walk(bodyID, newEnv)
}

// walkWith implements the With row: `with e; body` evaluates e in the
// enclosing scope, opens a with-marked env with no static bindings for
// body, and records a synthetic Definition to attribute fallback uses to.
func (a *analyzer) walkWith(n *cst.Node, env *EnvNode) {
	children := a.tree.ChildNodes(n)
	if len(children) < 2 {
		return
	}
	scopeID, bodyID := children[0], children[1]
	a.walk(scopeID, env)

	newEnv := newEnvNode(env, n.ID)
	newEnv.IsWith = true
	withDef := &Definition{Node: n.ID, Source: SourceWith}
	a.result.WithDefs[n.ID] = withDef
	a.withEnvs = append(a.withEnvs, withScope{node: n.ID, def: withDef})

	a.walk(bodyID, newEnv)
}

func (a *analyzer) buildAttrsEnv(sa *sema.SemaAttrs, parent *EnvNode, src DefSource, introducing cst.NodeID) *EnvNode {
	env := newEnvNode(parent, introducing)
	if sa == nil {
		return env
	}
	for _, name := range sa.Order {
		attr := sa.Static[name]
		if attr == nil {
			continue
		}
		env.put(name, &Definition{Node: attr.Key, Source: src})
	}
	return env
}

// walkBinds walks a Binds node's entries. Binding values (and dynamic
// attribute-name interpolations) are evaluated in innerEnv, since a
// recursive attribute set's own bindings may refer to each other.
// `inherit (e) ...`'s source expression and a bare `inherit x1 x2;`'s
// implicit reads of x1/x2 always resolve in outerEnv: the surrounding
// lexical scope, never the set being built, matching real Nix semantics.
func (a *analyzer) walkBinds(bindsID cst.NodeID, innerEnv, outerEnv *EnvNode) {
	binds := a.tree.NodeByID(bindsID)
	if binds == nil {
		return
	}
	for _, c := range a.tree.ChildNodes(binds) {
		entry := a.tree.NodeByID(c)
		if entry == nil {
			continue
		}
		switch entry.Kind {
		case cst.KindBinding:
			a.walkBinding(entry, innerEnv)
		case cst.KindInherit:
			a.walkInherit(entry, outerEnv)
		}
	}
}

func (a *analyzer) walkBinding(binding *cst.Node, innerEnv *EnvNode) {
	children := a.tree.ChildNodes(binding)
	if len(children) == 0 {
		return
	}
	pathID := children[0]
	path := a.tree.NodeByID(pathID)
	if path != nil {
		for _, nameID := range a.tree.ChildNodes(path) {
			nameNode := a.tree.NodeByID(nameID)
			if nameNode == nil || nameNode.Kind != cst.KindAttrName {
				continue
			}
			a.walkAttrNameDynamic(nameNode, innerEnv)
		}
	}
	if len(children) > 1 {
		a.walk(children[1], innerEnv)
	}
}

// walkAttrNameDynamic walks the interpolated expressions inside an
// AttrName, covering both the bare `${e}` form and a `"...${e}..."`
// string form, in env. Static names (a plain identifier, or a string
// with no interpolations) contribute nothing to walk.
func (a *analyzer) walkAttrNameDynamic(nameNode *cst.Node, env *EnvNode) {
	for _, c := range a.tree.ChildNodes(nameNode) {
		inner := a.tree.NodeByID(c)
		if inner == nil {
			continue
		}
		switch inner.Kind {
		case cst.KindInterpolation:
			a.walk(c, env)
		case cst.KindString:
			for _, partsID := range a.tree.ChildNodes(inner) {
				parts := a.tree.NodeByID(partsID)
				if parts == nil || parts.Kind != cst.KindInterpolatedParts {
					continue
				}
				for _, fragID := range a.tree.ChildNodes(parts) {
					frag := a.tree.NodeByID(fragID)
					if frag != nil && frag.Kind == cst.KindInterpolation {
						a.walk(fragID, env)
					}
				}
			}
		}
	}
}

// walkInherit resolves `inherit x1 x2;`'s implicit reads of x1/x2 in
// outerEnv (recording a use against each AttrName node, since there is
// no Var node to key by), and walks `inherit (e) ...`'s source
// expression e in outerEnv as an ordinary subexpression.
func (a *analyzer) walkInherit(inherit *cst.Node, outerEnv *EnvNode) {
	sourceExpr, names := a.inheritParts(inherit)
	if sourceExpr != cst.NoNode {
		a.walk(sourceExpr, outerEnv)
		return
	}
	for _, nameID := range names {
		nameNode := a.tree.NodeByID(nameID)
		if nameNode == nil {
			continue
		}
		idChildren := a.tree.ChildNodes(nameNode)
		if len(idChildren) != 1 {
			continue
		}
		ident := a.tree.NodeByID(idChildren[0])
		if ident == nil || ident.Kind != cst.KindIdentifier {
			continue // dynamic inherit names are already rejected by the parser
		}
		name := string(a.tree.Src(ident))
		res := a.resolve(name, outerEnv, nameID)
		a.result.Results[nameID] = res
		if res.Kind == Undefined {
			a.addDiag(diag.Diagnostic{
				Kind: diag.KindUndefinedVariable,
				Span: nameNode.Span,
				Args: []any{name},
			})
		}
	}
}

// inheritParts splits an Inherit node's node children into an optional
// source expression and the AttrName children that follow it.
func (a *analyzer) inheritParts(inherit *cst.Node) (sourceExpr cst.NodeID, names []cst.NodeID) {
	for _, c := range a.tree.ChildNodes(inherit) {
		n := a.tree.NodeByID(c)
		if n == nil {
			continue
		}
		if n.Kind == cst.KindAttrName {
			names = append(names, c)
			continue
		}
		sourceExpr = c
	}
	return sourceExpr, names
}

// recKeywordSpan returns the span of the 'rec' token on an Attrs node, if
// any, for use as the ExtraRecursive diagnostic's location and removal fix.
func (a *analyzer) recKeywordSpan(attrsNode *cst.Node) (text.Span, bool) {
	for _, c := range attrsNode.Children {
		if c.IsToken && int(c.Token) < len(a.tree.Tokens) && a.tree.Tokens[c.Token].Kind == lexer.TokenKwRec {
			return a.tree.Tokens[c.Token].Span, true
		}
	}
	return text.Span{}, false
}

func (a *analyzer) findChildOfKind(n *cst.Node, kind cst.NodeKind) cst.NodeID {
	for _, c := range a.tree.ChildNodes(n) {
		child := a.tree.NodeByID(c)
		if child != nil && child.Kind == kind {
			return c
		}
	}
	return cst.NoNode
}
