package lsp

import (
	"context"
	"sort"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/sema"
	itext "github.com/nix-community/nixd-sub000/internal/text"
	"github.com/nix-community/nixd-sub000/internal/tu"
)

// symbolKindField/symbolKindObject/symbolKindNamespace are LSP SymbolKind
// values: Field=8, Object=19, Namespace=3.
const (
	symbolKindField     = 8
	symbolKindObject    = 19
	symbolKindNamespace = 3
)

// DocumentSymbol handles textDocument/documentSymbol. Every attribute in
// the file's top-level attribute set (or `let` bindings) becomes a
// symbol, nested recursively wherever its value is itself an attribute
// set covered by sema's attrs-merging pass.
func (s *Server) DocumentSymbol(ctx context.Context, p DocumentSymbolParams) ([]DocumentSymbol, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	if unit.Tree == nil || unit.Sema == nil {
		return nil, nil
	}
	root := unit.Tree.RootNode()
	if root == nil {
		return nil, nil
	}
	sa, ok := unit.Sema.AttrsOf[root.ID]
	if !ok {
		return nil, nil
	}
	return s.documentSymbolsForAttrs(unit, sa)
}

func (s *Server) documentSymbolsForAttrs(unit *tu.TranslationUnit, sa *sema.SemaAttrs) ([]DocumentSymbol, error) {
	out := make([]DocumentSymbol, 0, len(sa.Order))
	for _, name := range sa.Order {
		attr := sa.Static[name]
		if attr == nil {
			continue
		}
		sym, ok, err := s.documentSymbolForAttr(unit, name, attr)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, sym)
		}
	}
	return out, nil
}

func (s *Server) documentSymbolForAttr(unit *tu.TranslationUnit, name string, attr *sema.Attribute) (DocumentSymbol, bool, error) {
	keyNode := unit.Tree.NodeByID(attr.Key)
	if keyNode == nil {
		return DocumentSymbol{}, false, nil
	}
	li := lineIndexFor(unit.Tree)
	selRange, err := rangeFromSpan(li, keyNode.Span)
	if err != nil {
		return DocumentSymbol{}, false, err
	}

	fullSpan := keyNode.Span
	if valNode := unit.Tree.NodeByID(attr.Value); valNode != nil {
		fullSpan = fullSpan.Join(valNode.Span)
	}
	rng, err := rangeFromSpan(li, fullSpan)
	if err != nil {
		return DocumentSymbol{}, false, err
	}

	kind := symbolKindField
	var children []DocumentSymbol
	if attr.Nested != nil {
		kind = symbolKindNamespace
		children, err = s.documentSymbolsForAttrs(unit, attr.Nested)
		if err != nil {
			return DocumentSymbol{}, false, err
		}
	} else if valNode := unit.Tree.NodeByID(attr.Value); valNode != nil {
		if nested, ok := unit.Sema.AttrsOf[valNode.ID]; ok {
			kind = symbolKindObject
			children, err = s.documentSymbolsForAttrs(unit, nested)
			if err != nil {
				return DocumentSymbol{}, false, err
			}
		}
	}

	return DocumentSymbol{
		Name:           name,
		Kind:           kind,
		Range:          rng,
		SelectionRange: selRange,
		Children:       children,
	}, true, nil
}

// foldableKinds are the node kinds whose span is worth collapsing in an
// editor: anything with a body that can span multiple lines.
var foldableKinds = map[cst.NodeKind]bool{
	cst.KindAttrs:  true,
	cst.KindList:   true,
	cst.KindLet:    true,
	cst.KindLambda: true,
	cst.KindCall:   true,
	cst.KindParen:  true,
	cst.KindIf:     true,
	cst.KindWith:   true,
}

// FoldingRange handles textDocument/foldingRange.
func (s *Server) FoldingRange(ctx context.Context, p FoldingRangeParams) ([]FoldingRange, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	if unit.Tree == nil {
		return nil, nil
	}
	li := lineIndexFor(unit.Tree)

	var out []FoldingRange
	for id := cst.NodeID(1); int(id) <= len(unit.Tree.Nodes); id++ {
		n := unit.Tree.NodeByID(id)
		if n == nil || !foldableKinds[n.Kind] {
			continue
		}
		start, err := li.OffsetToUTF16Position(n.Span.Start)
		if err != nil {
			continue
		}
		end, err := li.OffsetToUTF16Position(n.Span.End)
		if err != nil {
			continue
		}
		if start.Line == end.Line {
			continue // not worth folding a single line
		}
		out = append(out, FoldingRange{
			StartLine:      start.Line,
			StartCharacter: start.Character,
			EndLine:        end.Line,
			EndCharacter:   end.Character,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartLine != out[j].StartLine {
			return out[i].StartLine < out[j].StartLine
		}
		return out[i].EndLine > out[j].EndLine
	})
	return out, nil
}

// SelectionRange handles textDocument/selectionRange.
func (s *Server) SelectionRange(ctx context.Context, p SelectionRangeParams) ([]SelectionRange, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	if unit.Tree == nil || unit.Parents == nil {
		return nil, nil
	}
	li := lineIndexFor(unit.Tree)

	out := make([]SelectionRange, 0, len(p.Positions))
	for _, pos := range p.Positions {
		off, ok := offsetForPosition(li, pos)
		if !ok {
			out = append(out, SelectionRange{})
			continue
		}
		hit := unit.Tree.Descend(nil, itext.At(off))
		if hit == nil {
			out = append(out, SelectionRange{})
			continue
		}
		sr, err := selectionRangeChain(unit, li, hit.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, nil
}

// selectionRangeChain builds the innermost-to-outermost SelectionRange
// chain starting at id, climbing parents to the tree root.
func selectionRangeChain(unit *tu.TranslationUnit, li *itext.LineIndex, id cst.NodeID) (SelectionRange, error) {
	ids := append([]cst.NodeID{id}, unit.Parents.Ancestors(id)...)
	var head *SelectionRange
	var tail *SelectionRange
	for i := len(ids) - 1; i >= 0; i-- {
		n := unit.Tree.NodeByID(ids[i])
		if n == nil {
			continue
		}
		rng, err := rangeFromSpan(li, n.Span)
		if err != nil {
			return SelectionRange{}, err
		}
		cur := &SelectionRange{Range: rng}
		if head == nil {
			head = cur
			tail = cur
		} else if tail.Range != cur.Range {
			cur.Parent = tail
			tail = cur
		} else {
			continue
		}
	}
	if head == nil {
		return SelectionRange{}, nil
	}
	return *tail, nil
}
