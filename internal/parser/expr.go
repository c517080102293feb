package parser

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
)

// parseExpr parses a complete expr_function production: the entry point
// used at the top level, inside parentheses, as binding values, and as
// if/then/else branches and lambda/let/with bodies.
func (p *Parser) parseExpr() cst.NodeID {
	switch {
	case p.cur.Kind == lexer.TokenKwAssert:
		return p.parseAssert()
	case p.cur.Kind == lexer.TokenKwWith:
		return p.parseWith()
	case p.cur.Kind == lexer.TokenKwLet:
		return p.parseLet()
	case p.identFollowedByColon():
		return p.parseSimpleLambda()
	case p.identAtFormalsAhead():
		return p.parseIdentAtFormalsLambda()
	case p.cur.Kind == lexer.TokenLBrace && p.isLambdaFormalsAhead():
		return p.parseFormalsLambda()
	default:
		return p.parseExprIf()
	}
}

func (p *Parser) parseExprIf() cst.NodeID {
	if p.cur.Kind == lexer.TokenKwIf {
		return p.parseIf()
	}
	return p.parseExprOp(precLowest)
}

func (p *Parser) parseAssert() cst.NodeID {
	start := p.cur.Span.Start
	kwIdx, _ := p.bump()
	pop := p.withSync(lexer.TokenSemi)
	cond := p.parseExpr()
	pop()
	semiIdx, _, _ := p.expect(lexer.TokenSemi)
	body := p.parseExpr()
	return p.newNode(cst.KindAssert, start, p.nodeEnd(body), []cst.ChildRef{
		cst.TokenRef(kwIdx), cst.NodeRef(cond), cst.TokenRef(semiIdx), cst.NodeRef(body),
	})
}

func (p *Parser) parseWith() cst.NodeID {
	start := p.cur.Span.Start
	kwIdx, _ := p.bump()
	pop := p.withSync(lexer.TokenSemi)
	scope := p.parseExpr()
	pop()
	semiIdx, _, _ := p.expect(lexer.TokenSemi)
	body := p.parseExpr()
	return p.newNode(cst.KindWith, start, p.nodeEnd(body), []cst.ChildRef{
		cst.TokenRef(kwIdx), cst.NodeRef(scope), cst.TokenRef(semiIdx), cst.NodeRef(body),
	})
}

func (p *Parser) parseLet() cst.NodeID {
	start := p.cur.Span.Start
	kwIdx, _ := p.bump()
	pop := p.withSync(lexer.TokenKwIn)
	binds := p.parseBinds(false)
	pop()
	inIdx, _, _ := p.expect(lexer.TokenKwIn)
	body := p.parseExpr()
	return p.newNode(cst.KindLet, start, p.nodeEnd(body), []cst.ChildRef{
		cst.TokenRef(kwIdx), cst.NodeRef(binds), cst.TokenRef(inIdx), cst.NodeRef(body),
	})
}

func (p *Parser) parseIf() cst.NodeID {
	start := p.cur.Span.Start
	ifIdx, _ := p.bump()
	popThen := p.withSync(lexer.TokenKwThen)
	cond := p.parseExpr()
	popThen()
	thenIdx, _, _ := p.expect(lexer.TokenKwThen)
	popElse := p.withSync(lexer.TokenKwElse)
	thenBranch := p.parseExpr()
	popElse()
	elseIdx, _, _ := p.expect(lexer.TokenKwElse)
	elseBranch := p.parseExpr()
	return p.newNode(cst.KindIf, start, p.nodeEnd(elseBranch), []cst.ChildRef{
		cst.TokenRef(ifIdx), cst.NodeRef(cond), cst.TokenRef(thenIdx), cst.NodeRef(thenBranch),
		cst.TokenRef(elseIdx), cst.NodeRef(elseBranch),
	})
}

// identFollowedByColon peeks one token ahead without consuming, to detect
// the simple lambda form `ID : expr`.
func (p *Parser) identFollowedByColon() bool {
	if p.cur.Kind != lexer.TokenIdentifier {
		return false
	}
	saved, savedPos := p.cur, p.cur.Span.End
	nxt := p.lex.Next(lexer.ModeExpr)
	isColon := nxt.Kind == lexer.TokenColon
	_ = p.lex.SetCur(int(savedPos))
	p.cur = saved
	return isColon
}

// identAtFormalsAhead peeks for `ID @ {` without consuming.
func (p *Parser) identAtFormalsAhead() bool {
	if p.cur.Kind != lexer.TokenIdentifier {
		return false
	}
	saved, savedPos := p.cur, p.cur.Span.End
	ok := false
	if at := p.lex.Next(lexer.ModeExpr); at.Kind == lexer.TokenAt {
		ok = p.lex.Next(lexer.ModeExpr).Kind == lexer.TokenLBrace
	}
	_ = p.lex.SetCur(int(savedPos))
	p.cur = saved
	return ok
}

// isLambdaFormalsAhead determines, by scanning forward over a balanced
// brace run without committing, whether the `{` currently under the
// cursor opens a lambda formals list (`{ ... }:` or `{ ... }@id:`) rather
// than an attribute-set literal. Precondition: p.cur.Kind == TokenLBrace.
//
// The scan re-lexes every token in ModeExpr, which is a pragmatic
// simplification: a literal `{` or `}` byte occurring inside a string or
// path default value nested inside the formals would be mis-tokenized
// during this look-ahead only (the real parse afterward is unaffected,
// since the cursor and lexer position are fully restored before
// returning).
func (p *Parser) isLambdaFormalsAhead() bool {
	savedCur, savedPos := p.cur, p.cur.Span.End
	depth := 0
	tok := p.cur
	for {
		switch tok.Kind {
		case lexer.TokenLBrace:
			depth++
		case lexer.TokenRBrace:
			depth--
			if depth == 0 {
				nxt := p.lex.Next(lexer.ModeExpr)
				result := nxt.Kind == lexer.TokenColon || nxt.Kind == lexer.TokenAt
				_ = p.lex.SetCur(int(savedPos))
				p.cur = savedCur
				return result
			}
		case lexer.TokenEOF:
			_ = p.lex.SetCur(int(savedPos))
			p.cur = savedCur
			return false
		}
		tok = p.lex.Next(lexer.ModeExpr)
	}
}

func (p *Parser) parseSimpleLambda() cst.NodeID {
	idIdx, idTok := p.bump()
	identNode := p.newNode(cst.KindIdentifier, idTok.Span.Start, idTok.Span.End, []cst.ChildRef{cst.TokenRef(idIdx)})
	argNode := p.newNode(cst.KindLambdaArg, idTok.Span.Start, idTok.Span.End, []cst.ChildRef{cst.NodeRef(identNode)})
	colonIdx, _, _ := p.expect(lexer.TokenColon)
	body := p.parseExpr()
	return p.newNode(cst.KindLambda, idTok.Span.Start, p.nodeEnd(body), []cst.ChildRef{
		cst.NodeRef(argNode), cst.TokenRef(colonIdx), cst.NodeRef(body),
	})
}

func (p *Parser) parseIdentAtFormalsLambda() cst.NodeID {
	idIdx, idTok := p.bump()
	atIdx, _ := p.bump()
	identNode := p.newNode(cst.KindIdentifier, idTok.Span.Start, idTok.Span.End, []cst.ChildRef{cst.TokenRef(idIdx)})
	formalsNode := p.parseFormals()
	argNode := p.newNode(cst.KindLambdaArg, idTok.Span.Start, p.nodeEnd(formalsNode), []cst.ChildRef{
		cst.NodeRef(identNode), cst.TokenRef(atIdx), cst.NodeRef(formalsNode),
	})
	colonIdx, _, _ := p.expect(lexer.TokenColon)
	body := p.parseExpr()
	return p.newNode(cst.KindLambda, idTok.Span.Start, p.nodeEnd(body), []cst.ChildRef{
		cst.NodeRef(argNode), cst.TokenRef(colonIdx), cst.NodeRef(body),
	})
}

func (p *Parser) parseFormalsLambda() cst.NodeID {
	formalsNode := p.parseFormals()
	start := p.nodeStart(formalsNode)
	var argNode cst.NodeID
	if p.cur.Kind == lexer.TokenAt {
		atIdx, _ := p.bump()
		idIdx, idTok, ok := p.expect(lexer.TokenIdentifier)
		var identNode cst.NodeID
		if ok {
			identNode = p.newNode(cst.KindIdentifier, idTok.Span.Start, idTok.Span.End, []cst.ChildRef{cst.TokenRef(idIdx)})
		}
		argNode = p.newNode(cst.KindLambdaArg, start, idTok.Span.End, []cst.ChildRef{
			cst.NodeRef(formalsNode), cst.TokenRef(atIdx), cst.NodeRef(identNode),
		})
	} else {
		argNode = p.newNode(cst.KindLambdaArg, start, p.nodeEnd(formalsNode), []cst.ChildRef{cst.NodeRef(formalsNode)})
	}
	colonIdx, _, _ := p.expect(lexer.TokenColon)
	body := p.parseExpr()
	return p.newNode(cst.KindLambda, start, p.nodeEnd(body), []cst.ChildRef{
		cst.NodeRef(argNode), cst.TokenRef(colonIdx), cst.NodeRef(body),
	})
}

// parseExprOp implements the binary-operator precedence ladder from
// spec.md §4.2 via standard precedence climbing; minPrec is the minimum
// binding power an operator must have to be consumed at this call depth.
func (p *Parser) parseExprOp(minPrec int) cst.NodeID {
	left := p.parseUnaryOrApp()
	for {
		if p.cur.Kind == lexer.TokenQuestion {
			if precHasAttr < minPrec {
				break
			}
			qIdx, _ := p.bump()
			pathNode := p.parseAttrPath()
			left = p.newNode(cst.KindOpHasAttr, p.nodeStart(left), p.nodeEnd(pathNode), []cst.ChildRef{
				cst.NodeRef(left), cst.TokenRef(qIdx), cst.NodeRef(pathNode),
			})
			break
		}
		info, ok := isBinOp(p.cur.Kind)
		if !ok || info.prec < minPrec {
			break
		}
		opIdx, _ := p.bump()
		var right cst.NodeID
		if info.assoc == assocRight {
			right = p.parseExprOp(info.prec)
		} else {
			right = p.parseExprOp(info.prec + 1)
		}
		left = p.newNode(cst.KindBinOp, p.nodeStart(left), p.nodeEnd(right), []cst.ChildRef{
			cst.NodeRef(left), cst.TokenRef(opIdx), cst.NodeRef(right),
		})
		if info.assoc == assocNone {
			break
		}
	}
	return left
}

func (p *Parser) parseUnaryOrApp() cst.NodeID {
	switch p.cur.Kind {
	case lexer.TokenNot:
		idx, tok := p.bump()
		operand := p.parseExprOp(precAdditive)
		return p.newNode(cst.KindUnaryOp, tok.Span.Start, p.nodeEnd(operand), []cst.ChildRef{cst.TokenRef(idx), cst.NodeRef(operand)})
	case lexer.TokenMinus:
		idx, tok := p.bump()
		operand := p.parseApp()
		return p.newNode(cst.KindUnaryOp, tok.Span.Start, p.nodeEnd(operand), []cst.ChildRef{cst.TokenRef(idx), cst.NodeRef(operand)})
	default:
		return p.parseApp()
	}
}

// startsSelect reports whether the current token can begin an expr_select
// (and hence continue an application chain or populate a list element).
func (p *Parser) startsSelect() bool {
	switch p.cur.Kind {
	case lexer.TokenIdentifier, lexer.TokenInt, lexer.TokenFloat, lexer.TokenDQuote,
		lexer.TokenQuote2, lexer.TokenPathFragment, lexer.TokenSPath, lexer.TokenURI,
		lexer.TokenLParen, lexer.TokenLBrace, lexer.TokenLBracket, lexer.TokenKwRec:
		return true
	default:
		return false
	}
}

func (p *Parser) parseApp() cst.NodeID {
	left := p.parseSelect()
	for p.startsSelect() {
		arg := p.parseSelect()
		left = p.newNode(cst.KindCall, p.nodeStart(left), p.nodeEnd(arg), []cst.ChildRef{cst.NodeRef(left), cst.NodeRef(arg)})
	}
	return left
}

func (p *Parser) parseSelect() cst.NodeID {
	left := p.parseSimple()
	for p.cur.Kind == lexer.TokenDot {
		dotIdx, _ := p.bump()
		pathNode := p.parseAttrPath()
		children := []cst.ChildRef{cst.NodeRef(left), cst.TokenRef(dotIdx), cst.NodeRef(pathNode)}
		end := p.nodeEnd(pathNode)
		if p.cur.Kind == lexer.TokenKwOr {
			orIdx, _ := p.bump()
			def := p.parseSelect()
			children = append(children, cst.TokenRef(orIdx), cst.NodeRef(def))
			end = p.nodeEnd(def)
		}
		left = p.newNode(cst.KindSelect, p.nodeStart(left), end, children)
	}
	return left
}

func (p *Parser) parseSimple() cst.NodeID {
	start := p.cur.Span.Start
	switch p.cur.Kind {
	case lexer.TokenInt:
		idx, tok := p.bump()
		return p.newNode(cst.KindInt, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
	case lexer.TokenFloat:
		idx, tok := p.bump()
		return p.newNode(cst.KindFloat, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
	case lexer.TokenSPath:
		idx, tok := p.bump()
		return p.newNode(cst.KindSPath, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
	case lexer.TokenURI:
		idx, tok := p.bump()
		return p.newNode(cst.KindString, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
	case lexer.TokenIdentifier:
		idx, tok := p.bump()
		identNode := p.newNode(cst.KindIdentifier, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
		return p.newNode(cst.KindVar, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.NodeRef(identNode)})
	case lexer.TokenKwOr:
		// `or` used outside an attrpath/select context: accepted as a plain
		// identifier/variable reference, with a warning per spec.md §4.2.
		idx, tok := p.bump()
		p.addDiag(diag.Diagnostic{Kind: diag.KindOrUsedAsIdentifier, Span: tok.Span, Source: diag.SourceParser})
		identNode := p.newNode(cst.KindIdentifier, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
		return p.newNode(cst.KindVar, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.NodeRef(identNode)})
	case lexer.TokenDQuote:
		return p.parseDQuoteString()
	case lexer.TokenQuote2:
		return p.parseIndString()
	case lexer.TokenPathFragment:
		return p.parsePathLiteral()
	case lexer.TokenLParen:
		return p.parseParen()
	case lexer.TokenLBracket:
		return p.parseList()
	case lexer.TokenKwRec:
		recIdx, recTok := p.bump()
		lbraceIdx, _, _ := p.expect(lexer.TokenLBrace)
		binds := p.parseBinds(true)
		rbraceIdx, rbraceTok, _ := p.expect(lexer.TokenRBrace)
		return p.newNode(cst.KindAttrs, recTok.Span.Start, rbraceTok.Span.End, []cst.ChildRef{
			cst.TokenRef(recIdx), cst.TokenRef(lbraceIdx), cst.NodeRef(binds), cst.TokenRef(rbraceIdx),
		})
	case lexer.TokenLBrace:
		lbraceIdx, lbraceTok := p.bump()
		binds := p.parseBinds(false)
		rbraceIdx, rbraceTok, _ := p.expect(lexer.TokenRBrace)
		return p.newNode(cst.KindAttrs, lbraceTok.Span.Start, rbraceTok.Span.End, []cst.ChildRef{
			cst.TokenRef(lbraceIdx), cst.NodeRef(binds), cst.TokenRef(rbraceIdx),
		})
	default:
		// Recovery: no valid expr_simple start. Emit a synthesized missing
		// node at this position without consuming, matching the parser's
		// general "tolerate missing children" contract.
		p.addDiag(diag.Diagnostic{
			Kind:   diag.KindUnexpectedText,
			Span:   p.cur.Span,
			Args:   []any{p.cur.Kind.String()},
			Source: diag.SourceParser,
		})
		return p.newNode(cst.KindVar, start, start, nil)
	}
}

func (p *Parser) parseParen() cst.NodeID {
	lparenIdx, lparenTok := p.bump()
	inner := p.parseExpr()
	rparenIdx, rparenTok, _ := p.expect(lexer.TokenRParen)
	node := p.newNode(cst.KindParen, lparenTok.Span.Start, rparenTok.Span.End, []cst.ChildRef{
		cst.TokenRef(lparenIdx), cst.NodeRef(inner), cst.TokenRef(rparenIdx),
	})
	if innerNode := p.b.Tree().NodeByID(inner); innerNode != nil && isAtomKind(innerNode.Kind) {
		p.addDiag(diag.Diagnostic{
			Kind:   diag.KindParenthesizedAtom,
			Span:   p.nodeSpan(node),
			Source: diag.SourceParser,
			Tags:   diag.TagFaded,
			Fixes: []diag.Fix{{
				Message: "remove redundant parentheses",
				Edits: []diag.TextEdit{
					{OldRange: lparenTok.Span, NewText: ""},
					{OldRange: rparenTok.Span, NewText: ""},
				},
			}},
		})
	}
	return node
}

func isAtomKind(k cst.NodeKind) bool {
	switch k {
	case cst.KindInt, cst.KindFloat, cst.KindVar:
		return true
	default:
		return false
	}
}

func (p *Parser) parseList() cst.NodeID {
	lbracketIdx, lbracketTok := p.bump()
	children := []cst.ChildRef{cst.TokenRef(lbracketIdx)}
	pop := p.withSync(lexer.TokenRBracket)
	for p.startsSelect() {
		children = append(children, cst.NodeRef(p.parseSelect()))
	}
	pop()
	rbracketIdx, rbracketTok, _ := p.expect(lexer.TokenRBracket)
	children = append(children, cst.TokenRef(rbracketIdx))
	return p.newNode(cst.KindList, lbracketTok.Span.Start, rbracketTok.Span.End, children)
}
