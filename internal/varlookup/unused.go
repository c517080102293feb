package varlookup

import (
	"github.com/samber/lo"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
	"github.com/nix-community/nixd-sub000/internal/text"
)

// reportUnused emits the "dead scope" diagnostics spec.md §4.6 assigns to
// variable lookup: unused rec/let definitions, a 'rec' whose set nothing
// ever self-referenced, and a 'with' whose names nothing ever needed.
func (a *analyzer) reportUnused() {
	a.reportUnusedDefinitions()
	for _, rs := range a.recEnvs {
		if envIsDead(rs.env) {
			a.addDiag(diag.Diagnostic{
				Kind:  diag.KindExtraRecursive,
				Span:  rs.tokenSpan,
				Tags:  diag.TagFaded,
				Fixes: []diag.Fix{{Message: "remove redundant 'rec'", Edits: []diag.TextEdit{{OldRange: rs.tokenSpan, NewText: ""}}}},
			})
		}
	}
	for _, ws := range a.withEnvs {
		if ws.def != nil && len(ws.def.Uses) == 0 {
			span := a.withRemovalSpan(ws.node)
			a.addDiag(diag.Diagnostic{
				Kind:  diag.KindExtraWith,
				Span:  span,
				Tags:  diag.TagFaded,
				Fixes: []diag.Fix{{Message: "remove unused 'with'", Edits: []diag.TextEdit{{OldRange: span, NewText: ""}}}},
			})
		}
	}
}

// reportUnusedDefinitions walks every env built for a rec-attrs or a let
// and flags bindings nothing ever referenced. Lambda parameters and
// builtins are excluded: an unused function parameter is routine in Nix,
// not a defect.
func (a *analyzer) reportUnusedDefinitions() {
	seen := make(map[*EnvNode]bool)
	for _, env := range a.result.Envs {
		if env == nil || seen[env] {
			continue
		}
		seen[env] = true
		for _, name := range env.Order {
			def := env.Bindings[name]
			if def == nil || def.Node == cst.NoNode {
				continue
			}
			if def.Source != SourceRec && def.Source != SourceLet {
				continue
			}
			if len(def.Uses) > 0 {
				continue
			}
			a.addDiag(diag.Diagnostic{
				Kind: diag.KindDefinitionNotUsed,
				Span: a.tree.NodeByID(def.Node).Span,
				Args: []any{name},
				Tags: diag.TagFaded,
			})
		}
	}
}

// envIsDead reports whether every binding in env went completely unused
// — the signal that an explicit 'rec' achieved nothing, since the only
// way a use can resolve into this env is a reference somewhere within
// the attribute set's own subtree.
func envIsDead(env *EnvNode) bool {
	if env == nil || len(env.Bindings) == 0 {
		return false
	}
	return lo.EveryBy(lo.Values(env.Bindings), func(def *Definition) bool { return len(def.Uses) == 0 })
}

// withRemovalSpan spans from the 'with' keyword through the trailing
// ';', the exact text a "remove unused with" fix deletes.
func (a *analyzer) withRemovalSpan(withNodeID cst.NodeID) text.Span {
	n := a.tree.NodeByID(withNodeID)
	if n == nil {
		return text.Span{}
	}
	var start, end text.ByteOffset
	haveStart := false
	for _, c := range n.Children {
		if !c.IsToken || int(c.Token) >= len(a.tree.Tokens) {
			continue
		}
		tok := a.tree.Tokens[c.Token]
		switch tok.Kind {
		case lexer.TokenKwWith:
			start, haveStart = tok.Span.Start, true
		case lexer.TokenSemi:
			end = tok.Span.End
		}
	}
	if !haveStart {
		return n.Span
	}
	span, err := text.NewSpan(start, end)
	if err != nil {
		return n.Span
	}
	return span
}
