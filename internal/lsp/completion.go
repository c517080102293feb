package lsp

import (
	"context"
	"strings"

	"github.com/nix-community/nixd-sub000/internal/cst"
	itext "github.com/nix-community/nixd-sub000/internal/text"
	"github.com/nix-community/nixd-sub000/internal/tu"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// completionMaxItems caps the number of items returned per request; beyond
// this the result is marked isIncomplete so the client re-queries as the
// user narrows the prefix.
const completionMaxItems = 30

// Completion handles textDocument/completion. It offers every name in
// scope at the cursor, walking the EnvNode chain outward to the builtin
// root, closest scope first, filtered to those matching the identifier
// prefix under the cursor and excluding dunder (__-prefixed) names.
func (s *Server) Completion(ctx context.Context, p TextDocumentPositionParams) (CompletionList, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return CompletionList{}, errDocumentNotOpen(p.TextDocument.URI)
	}
	env := envAt(unit, p.Position)
	if env == nil {
		return CompletionList{}, nil
	}
	prefix := completionPrefixAt(unit, p.Position)

	seen := make(map[string]bool)
	var candidates []CompletionItem
	for e := env; e != nil; e = e.Parent {
		for _, name := range e.Order {
			if seen[name] {
				continue
			}
			seen[name] = true
			if strings.HasPrefix(name, "__") {
				continue
			}
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			def := e.Bindings[name]
			candidates = append(candidates, CompletionItem{
				Label: name,
				Kind:  completionKindFor(def),
			})
		}
	}

	if len(candidates) > completionMaxItems {
		return CompletionList{IsIncomplete: true, Items: candidates[:completionMaxItems]}, nil
	}
	return CompletionList{Items: candidates}, nil
}

// completionPrefixAt returns the identifier text already typed to the left
// of pos, so completion can be filtered to names sharing that prefix. It
// returns "" when the cursor isn't inside (or just past) an identifier.
func completionPrefixAt(unit *tu.TranslationUnit, pos Position) string {
	li := lineIndexFor(unit.Tree)
	off, ok := offsetForPosition(li, pos)
	if !ok {
		return ""
	}
	hit := unit.Tree.Descend(nil, itext.At(off))
	if hit == nil || hit.Kind != cst.KindIdentifier {
		return ""
	}
	if off < hit.Span.Start || off > hit.Span.End {
		return ""
	}
	return string(unit.Tree.Src(hit)[:off-hit.Span.Start])
}

func completionKindFor(def *varlookup.Definition) int {
	if def == nil {
		return CompletionKindVariable
	}
	switch def.Source {
	case varlookup.SourceBuiltin:
		return CompletionKindFunction
	case varlookup.SourceLambdaArg, varlookup.SourceLambdaFormal:
		return CompletionKindVariable
	default:
		return CompletionKindField
	}
}

// envAt returns the varlookup.EnvNode active at pos, climbing from the
// smallest enclosing syntax node to parents until one is annotated (every
// node visited during Analyze carries an entry, so this only needs to
// skip tokens/unvisited leaves).
func envAt(unit *tu.TranslationUnit, pos Position) *varlookup.EnvNode {
	if unit == nil || unit.Tree == nil || unit.Lookup == nil || unit.Parents == nil {
		return nil
	}
	li := lineIndexFor(unit.Tree)
	off, ok := offsetForPosition(li, pos)
	if !ok {
		return nil
	}
	hit := unit.Tree.Descend(nil, itext.At(off))
	if hit == nil {
		return unit.Lookup.Envs[unit.Tree.Root]
	}
	ids := append([]cst.NodeID{hit.ID}, unit.Parents.Ancestors(hit.ID)...)
	for _, id := range ids {
		if env, ok := unit.Lookup.Envs[id]; ok {
			return env
		}
	}
	return unit.Lookup.Envs[unit.Tree.Root]
}
