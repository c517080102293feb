package parser

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
	"github.com/nix-community/nixd-sub000/internal/text"
)

// parseBinds parses a Binds node: a sequence of Binding/Inherit productions.
// isRec only affects nothing structurally here; the enclosing rec keyword
// (if any) is recorded by the caller on the surrounding Attrs node, and is
// consulted later by internal/sema when building SemaAttrs.
func (p *Parser) parseBinds(isRec bool) cst.NodeID {
	_ = isRec
	start := p.cur.Span.Start
	var children []cst.ChildRef
	pop := p.withSync(lexer.TokenSemi)
	for {
		switch p.cur.Kind {
		case lexer.TokenKwInherit:
			children = append(children, cst.NodeRef(p.parseInherit()))
		case lexer.TokenIdentifier, lexer.TokenDQuote, lexer.TokenQuote2, lexer.TokenDollarCurly:
			children = append(children, cst.NodeRef(p.parseBinding()))
		default:
			pop()
			end := start
			if len(children) > 0 {
				end = p.nodeEnd(lastNodeID(children))
			}
			return p.newNode(cst.KindBinds, start, end, children)
		}
	}
}

func lastNodeID(children []cst.ChildRef) cst.NodeID {
	for i := len(children) - 1; i >= 0; i-- {
		if !children[i].IsToken {
			return children[i].Node
		}
	}
	return cst.NoNode
}

func (p *Parser) parseBinding() cst.NodeID {
	pathNode := p.parseAttrPath()
	eqIdx, _, _ := p.expect(lexer.TokenEq)
	pop := p.withSync(lexer.TokenSemi)
	value := p.parseExpr()
	pop()
	semiIdx, semiTok, _ := p.expect(lexer.TokenSemi)
	end := semiTok.Span.End
	if semiTok.Flags.Has(lexer.TokenFlagSynthesized) {
		end = p.nodeEnd(value)
	}
	return p.newNode(cst.KindBinding, p.nodeStart(pathNode), end, []cst.ChildRef{
		cst.NodeRef(pathNode), cst.TokenRef(eqIdx), cst.NodeRef(value), cst.TokenRef(semiIdx),
	})
}

func (p *Parser) parseInherit() cst.NodeID {
	start := p.cur.Span.Start
	kwIdx, _ := p.bump()
	children := []cst.ChildRef{cst.TokenRef(kwIdx)}

	var sourceExpr cst.NodeID = cst.NoNode
	if p.cur.Kind == lexer.TokenLParen {
		lparenIdx, _ := p.bump()
		sourceExpr = p.parseExpr()
		rparenIdx, _, _ := p.expect(lexer.TokenRParen)
		children = append(children, cst.TokenRef(lparenIdx), cst.NodeRef(sourceExpr), cst.TokenRef(rparenIdx))
	}

	nameCount := 0
	pop := p.withSync(lexer.TokenSemi)
	for p.cur.Kind == lexer.TokenIdentifier || p.cur.Kind == lexer.TokenDQuote {
		children = append(children, cst.NodeRef(p.parseAttrName()))
		nameCount++
	}
	pop()

	if nameCount == 0 {
		p.addDiag(diag.Diagnostic{
			Kind:   diag.KindInheritNoNames,
			Span:   text.Span{Start: start, End: p.cur.Span.Start},
			Source: diag.SourceParser,
			Tags:   diag.TagFaded,
		})
	}

	semiIdx, semiTok, _ := p.expect(lexer.TokenSemi)
	return p.newNode(cst.KindInherit, start, semiTok.Span.End, append(children, cst.TokenRef(semiIdx)))
}

// parseAttrName parses one AttrName: identifier, static string, or
// `${...}` interpolation.
func (p *Parser) parseAttrName() cst.NodeID {
	switch p.cur.Kind {
	case lexer.TokenIdentifier:
		idx, tok := p.bump()
		identNode := p.newNode(cst.KindIdentifier, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
		return p.newNode(cst.KindAttrName, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.NodeRef(identNode)})
	case lexer.TokenKwOr:
		idx, tok := p.bump()
		p.addDiag(diag.Diagnostic{Kind: diag.KindOrUsedAsIdentifier, Span: tok.Span, Source: diag.SourceParser})
		identNode := p.newNode(cst.KindIdentifier, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
		return p.newNode(cst.KindAttrName, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.NodeRef(identNode)})
	case lexer.TokenDollarCurly:
		interp := p.parseInterpolation()
		return p.newNode(cst.KindAttrName, p.nodeStart(interp), p.nodeEnd(interp), []cst.ChildRef{cst.NodeRef(interp)})
	case lexer.TokenDQuote:
		str := p.parseDQuoteString()
		return p.newNode(cst.KindAttrName, p.nodeStart(str), p.nodeEnd(str), []cst.ChildRef{cst.NodeRef(str)})
	default:
		at := text.At(p.cur.Span.Start)
		p.addDiag(diag.Diagnostic{
			Kind:   diag.KindUnexpectedText,
			Span:   at,
			Args:   []any{"expected attribute name"},
			Source: diag.SourceParser,
		})
		return p.newNode(cst.KindAttrName, at.Start, at.End, nil)
	}
}

// parseAttrPath parses a dot-separated AttrPath; a repeated `.` is
// recovered as ExtraDotInAttrPath with two alternative
// fixes (remove the dot, or insert a dummy name).
func (p *Parser) parseAttrPath() cst.NodeID {
	start := p.cur.Span.Start
	children := []cst.ChildRef{cst.NodeRef(p.parseAttrName())}
	for p.cur.Kind == lexer.TokenDot {
		dotIdx, dotTok := p.bump()
		dotNode := p.newNode(cst.KindDot, dotTok.Span.Start, dotTok.Span.End, []cst.ChildRef{cst.TokenRef(dotIdx)})
		children = append(children, cst.NodeRef(dotNode))
		if p.cur.Kind == lexer.TokenDot {
			p.addDiag(diag.Diagnostic{
				Kind:   diag.KindExtraDotInAttrPath,
				Span:   p.cur.Span,
				Source: diag.SourceParser,
				Fixes: []diag.Fix{
					{Message: "remove extra '.'", Edits: []diag.TextEdit{{OldRange: p.cur.Span, NewText: ""}}},
					{Message: "insert a dummy attribute name", Edits: []diag.TextEdit{{OldRange: text.At(p.cur.Span.Start), NewText: "_"}}},
				},
			})
			continue
		}
		children = append(children, cst.NodeRef(p.parseAttrName()))
	}
	return p.newNode(cst.KindAttrPath, start, p.nodeEnd(lastNodeID(children)), children)
}
