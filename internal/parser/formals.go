package parser

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
)

// parseFormals parses `{ formal* }`. Precondition: p.cur.Kind == TokenLBrace.
func (p *Parser) parseFormals() cst.NodeID {
	lbraceIdx, lbraceTok := p.bump()
	children := []cst.ChildRef{cst.TokenRef(lbraceIdx)}
	pop := p.withSync(lexer.TokenRBrace, lexer.TokenComma)

	seenEllipsis := false
	first := true
	for p.cur.Kind != lexer.TokenRBrace && p.cur.Kind != lexer.TokenEOF {
		if !first {
			if p.cur.Kind == lexer.TokenComma {
				commaIdx, _ := p.bump()
				children = append(children, cst.TokenRef(commaIdx))
			} else {
				p.addDiag(diag.Diagnostic{
					Kind:   diag.KindFormalMissingComma,
					Span:   p.cur.Span,
					Source: diag.SourceParser,
				})
			}
		}
		first = false

		if p.cur.Kind == lexer.TokenComma {
			// Stray leading/doubled comma: an empty formal slot.
			commaTok := p.cur
			p.addDiag(diag.Diagnostic{
				Kind:   diag.KindEmptyFormal,
				Span:   commaTok.Span,
				Source: diag.SourceParser,
				Tags:   diag.TagFaded,
			})
			continue
		}

		if p.cur.Kind == lexer.TokenEllipsis {
			idx, tok := p.bump()
			formalNode := p.newNode(cst.KindFormal, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
			if seenEllipsis {
				p.addDiag(diag.Diagnostic{
					Kind:   diag.KindFormalExtraEllipsis,
					Span:   tok.Span,
					Source: diag.SourceParser,
					Fixes:  []diag.Fix{{Message: "remove duplicate '...'", Edits: []diag.TextEdit{{OldRange: tok.Span, NewText: ""}}}},
				})
			} else if p.cur.Kind != lexer.TokenRBrace {
				p.addDiag(diag.Diagnostic{
					Kind:   diag.KindFormalMisplacedEllipsis,
					Span:   tok.Span,
					Source: diag.SourceParser,
				})
			}
			seenEllipsis = true
			children = append(children, cst.NodeRef(formalNode))
			continue
		}

		if p.cur.Kind == lexer.TokenIdentifier {
			idIdx, idTok := p.bump()
			identNode := p.newNode(cst.KindIdentifier, idTok.Span.Start, idTok.Span.End, []cst.ChildRef{cst.TokenRef(idIdx)})
			fChildren := []cst.ChildRef{cst.NodeRef(identNode)}
			end := idTok.Span.End
			if p.cur.Kind == lexer.TokenQuestion {
				qIdx, _ := p.bump()
				def := p.parseExpr()
				fChildren = append(fChildren, cst.TokenRef(qIdx), cst.NodeRef(def))
				end = p.nodeEnd(def)
			}
			formalNode := p.newNode(cst.KindFormal, idTok.Span.Start, end, fChildren)
			children = append(children, cst.NodeRef(formalNode))
			continue
		}

		// Unrecognized content inside formals: bail out of the loop, letting
		// expect(RBrace) below perform the usual unexpected-text recovery.
		break
	}
	pop()

	rbraceIdx, rbraceTok, _ := p.expect(lexer.TokenRBrace)
	children = append(children, cst.TokenRef(rbraceIdx))
	return p.newNode(cst.KindFormals, lbraceTok.Span.Start, rbraceTok.Span.End, children)
}
