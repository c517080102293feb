package parser

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/lexer"
)

// parseDQuoteString parses a `"..."` string literal, switching the lexer
// into ModeString for its body and back to ModeExpr (or whatever mode was
// active before) for each `${...}` interpolation.
func (p *Parser) parseDQuoteString() cst.NodeID {
	openIdx, openTok := p.bump()
	p.pushMode(lexer.ModeString)
	parts := p.parseInterpolatedParts(lexer.ModeString, lexer.TokenDQuote)
	p.popMode()
	closeIdx, closeTok, _ := p.expect(lexer.TokenDQuote)
	return p.newNode(cst.KindString, openTok.Span.Start, closeTok.Span.End, []cst.ChildRef{
		cst.TokenRef(openIdx), cst.NodeRef(parts), cst.TokenRef(closeIdx),
	})
}

// parseIndString parses a `''...''` indented string literal.
func (p *Parser) parseIndString() cst.NodeID {
	openIdx, openTok := p.bump()
	p.pushMode(lexer.ModeIndString)
	parts := p.parseInterpolatedParts(lexer.ModeIndString, lexer.TokenQuote2)
	p.popMode()
	closeIdx, closeTok, _ := p.expect(lexer.TokenQuote2)
	return p.newNode(cst.KindString, openTok.Span.Start, closeTok.Span.End, []cst.ChildRef{
		cst.TokenRef(openIdx), cst.NodeRef(parts), cst.TokenRef(closeIdx),
	})
}

// parsePathLiteral parses a path literal that the lexer already started
// (the first path-fragment token is the current lookahead, lexed in
// ModeExpr by tryPathStart).
func (p *Parser) parsePathLiteral() cst.NodeID {
	start := p.cur.Span.Start
	p.pushMode(lexer.ModePath)
	parts := p.parseInterpolatedParts(lexer.ModePath, lexer.TokenPathEnd)
	p.popMode()
	end := p.nodeEnd(parts)
	return p.newNode(cst.KindPath, start, end, []cst.ChildRef{cst.NodeRef(parts)})
}

// parseInterpolatedParts consumes literal-content tokens (merging
// consecutive runs into one Misc fragment node) and `${...}` interpolation
// expressions until terminator is seen (without consuming it), in the
// given body mode.
func (p *Parser) parseInterpolatedParts(mode lexer.Mode, terminator lexer.TokenKind) cst.NodeID {
	start := p.cur.Span.Start
	var children []cst.ChildRef
	for {
		switch {
		case p.cur.Kind == terminator:
			end := start
			if len(children) > 0 {
				end = p.nodeEnd(lastNodeID(children))
			}
			return p.newNode(cst.KindInterpolatedParts, start, end, children)
		case p.cur.Kind == lexer.TokenDollarCurly:
			children = append(children, cst.NodeRef(p.parseInterpolation()))
		case isLiteralContentToken(p.cur.Kind):
			fragStart := p.cur.Span.Start
			var toks []cst.ChildRef
			for isLiteralContentToken(p.cur.Kind) {
				idx, _ := p.bump()
				toks = append(toks, cst.TokenRef(idx))
			}
			fragEnd := fragStart
			if len(toks) > 0 {
				lastTok := p.b.Tree().Tokens[toks[len(toks)-1].Token]
				fragEnd = lastTok.Span.End
			}
			children = append(children, cst.NodeRef(p.newNode(cst.KindMisc, fragStart, fragEnd, toks)))
		default:
			// Unterminated literal or unexpected token inside the body; the
			// lexer already recorded a diagnostic (unterminated string/path).
			// Stop here so the caller's expect(terminator) can recover.
			end := start
			if len(children) > 0 {
				end = p.nodeEnd(lastNodeID(children))
			}
			return p.newNode(cst.KindInterpolatedParts, start, end, children)
		}
		_ = mode
	}
}

func isLiteralContentToken(k lexer.TokenKind) bool {
	switch k {
	case lexer.TokenStringPart, lexer.TokenStringEscape, lexer.TokenPathFragment:
		return true
	default:
		return false
	}
}

// parseInterpolation parses `${ expr }`, switching back to ModeExpr for
// the embedded expression and restoring the enclosing body mode for `}`.
func (p *Parser) parseInterpolation() cst.NodeID {
	dollarIdx, dollarTok := p.bump() // consumed under the body mode; re-lexes as ModeExpr below
	p.pushMode(lexer.ModeExpr)
	inner := p.parseExpr()
	rbraceIdx, rbraceTok, _ := p.expect(lexer.TokenRBrace)
	p.popMode()
	return p.newNode(cst.KindInterpolation, dollarTok.Span.Start, rbraceTok.Span.End, []cst.ChildRef{
		cst.TokenRef(dollarIdx), cst.NodeRef(inner), cst.TokenRef(rbraceIdx),
	})
}
