package lsp

import (
	"context"
	"strings"

	"github.com/nix-community/nixd-sub000/internal/cst"
)

// DocumentLinkParams is the textDocument/documentLink request payload.
type DocumentLinkParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentLink points from a path literal to the file it names.
type DocumentLink struct {
	Range  Range  `json:"range"`
	Target string `json:"target,omitempty"`
}

// DocumentLink handles textDocument/documentLink. It walks the tree for
// static `Path` literals (`./foo.nix`, `../lib/default.nix`, ...) — the
// one construct in Nix source that names another file by relative
// path — and resolves each to a target URI alongside the enclosing
// document. Interpolated paths (containing `${...}`) have no static
// target and are skipped, same as `stringLiteralText`'s handling of
// dynamic strings elsewhere in this package.
func (s *Server) DocumentLink(ctx context.Context, p DocumentLinkParams) ([]DocumentLink, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	tree := unit.Tree
	li := lineIndexFor(tree)

	var links []DocumentLink
	var walk func(id cst.NodeID)
	walk = func(id cst.NodeID) {
		n := tree.NodeByID(id)
		if n == nil {
			return
		}
		if n.Kind == cst.KindPath {
			if text, ok := stringLiteralText(tree, n); ok && text != "" {
				if rng, err := rangeFromSpan(li, n.Span); err == nil {
					links = append(links, DocumentLink{
						Range:  rng,
						Target: resolvePathLiteralURI(p.TextDocument.URI, text),
					})
				}
			}
			return
		}
		for _, c := range tree.ChildNodes(n) {
			walk(c)
		}
	}
	walk(tree.Root)
	return links, nil
}

// resolvePathLiteralURI resolves a Nix path literal's text (e.g.
// "./foo.nix", "../lib/x.nix") against the directory of the document
// that contains it. Absolute paths (leading "/") and search-path forms
// pass through unresolved since they aren't relative to the document.
func resolvePathLiteralURI(uri, pathLiteral string) string {
	if strings.HasPrefix(pathLiteral, "/") {
		return "file://" + pathLiteral
	}
	dirEnd := strings.LastIndexByte(uri, '/')
	if dirEnd < 0 {
		return pathLiteral
	}
	out := strings.Split(uri[:dirEnd], "/")
	for _, seg := range strings.Split(pathLiteral, "/") {
		switch seg {
		case ".", "":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}
