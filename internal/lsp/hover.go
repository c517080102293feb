package lsp

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// providerCallTimeout bounds how long a hover/inlay-hint request waits on
// the package-metadata provider before giving up and answering with just
// the lexical information it already has.
const providerCallTimeout = 300 * time.Millisecond

// Hover handles textDocument/hover.
func (s *Server) Hover(ctx context.Context, p HoverParams) (*Hover, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	refNode, res, ok := referenceAt(unit, p.Position)
	if !ok {
		return nil, nil
	}
	name := identifierText(unit.Tree, refNode)

	li := lineIndexFor(unit.Tree)
	n := unit.Tree.NodeByID(refNode)
	rng, err := rangeFromSpan(li, n.Span)
	if err != nil {
		return nil, err
	}

	value := hoverLexicalDescription(name, res)

	pctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()
	if info, err := s.Provider.AttrpathInfo(pctx, []string{name}); err == nil && info.Available {
		if info.Summary != "" {
			value += "\n\n" + info.Summary
		}
		if info.Description != "" {
			value += "\n\n" + info.Description
		}
		if info.Version != "" {
			value += "\n\n" + formatProviderVersion(info.Version)
		}
		if info.Deprecated != "" {
			value += fmt.Sprintf("\n\n**deprecated**: use `%s` instead", info.Deprecated)
		}
	}

	return &Hover{Contents: MarkupContent{Kind: "markdown", Value: value}, Range: &rng}, nil
}

// formatProviderVersion renders a provider-reported version string. When
// it parses as semver the canonical, normalized form is shown; nixpkgs
// versions frequently aren't strict semver (dates, "unstable-" prefixes,
// revision suffixes), so those fall back to the raw string unadorned.
func formatProviderVersion(raw string) string {
	if v, err := semver.NewVersion(raw); err == nil {
		return fmt.Sprintf("version: `%s`", v.String())
	}
	return fmt.Sprintf("version: `%s`", raw)
}

func hoverLexicalDescription(name string, res varlookup.LookupResult) string {
	switch res.Kind {
	case varlookup.Undefined:
		return fmt.Sprintf("`%s` — undefined variable", name)
	case varlookup.FromWith:
		return fmt.Sprintf("`%s` — resolved dynamically through an enclosing `with`", name)
	}
	switch res.Def.Source {
	case varlookup.SourceBuiltin:
		return fmt.Sprintf("`%s` — builtin", name)
	case varlookup.SourceLambdaArg:
		return fmt.Sprintf("`%s` — function argument (`@`-bound)", name)
	case varlookup.SourceLambdaFormal:
		return fmt.Sprintf("`%s` — function parameter", name)
	case varlookup.SourceRec:
		return fmt.Sprintf("`%s` — recursive attribute", name)
	case varlookup.SourceLet:
		return fmt.Sprintf("`%s` — let binding", name)
	default:
		return fmt.Sprintf("`%s`", name)
	}
}
