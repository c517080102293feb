// Package parser implements a hand-written recursive-descent plus Pratt
// parser that turns a token stream from internal/lexer into an
// internal/cst.Tree, with aggressive, sync-token-driven error recovery.
package parser

import (
	"fmt"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/lexer"
	"github.com/nix-community/nixd-sub000/internal/text"
)

// Parser holds the mutable state of one parse: the lexer, a one-token
// lookahead buffer, the mode stack, the sync-token multiset used for
// recovery, and the CST builder.
type Parser struct {
	lex       *lexer.Lexer
	src       []byte
	modeStack []lexer.Mode
	cur       lexer.Token

	b     *cst.Builder
	diags []diag.Diagnostic
	sync  map[lexer.TokenKind]int
}

// Parse parses src as a single Nix expression and returns the resulting
// tree together with every diagnostic raised by the lexer and parser.
func Parse(uri string, version int32, src []byte) (*cst.Tree, []diag.Diagnostic) {
	p := &Parser{
		lex:       lexer.New(src),
		src:       src,
		modeStack: []lexer.Mode{lexer.ModeExpr},
		b:         cst.NewBuilder(uri, version, src),
		sync:      make(map[lexer.TokenKind]int),
	}
	p.advance()

	root := p.parseExpr()
	p.finishAtEOF()

	tree := p.b.Tree()
	tree.Root = root

	diags := make([]diag.Diagnostic, 0, len(p.diags))
	for _, ld := range p.lex.Diagnostics() {
		diags = append(diags, lexDiagToParserDiag(ld))
	}
	diags = append(diags, p.diags...)
	return tree, diags
}

func lexDiagToParserDiag(ld lexer.Diagnostic) diag.Diagnostic {
	kind := diag.KindUnexpectedText
	switch ld.Code {
	case lexer.DiagnosticUnterminatedString:
		kind = diag.KindUnterminatedString
	case lexer.DiagnosticUnterminatedBlock:
		kind = diag.KindUnterminatedString
	case lexer.DiagnosticMalformedExponent, lexer.DiagnosticInvalidByte, lexer.DiagnosticUnknownCharacter:
		kind = diag.KindUnexpectedText
	case lexer.DiagnosticLeadingZeroFloat:
		// No dedicated lowering-independent Kind; surfaced verbatim via Args below.
	}
	sev := diag.SeverityError
	if ld.Severity == lexer.SeverityWarning {
		sev = diag.SeverityWarning
	}
	return diag.Diagnostic{
		Kind:   kind,
		Span:   ld.Span,
		Args:   []any{ld.Message},
		Source: diag.SourceLexer,
		Tags: func() diag.Tag {
			if sev == diag.SeverityWarning {
				return 0
			}
			return 0
		}(),
	}
}

func (p *Parser) topMode() lexer.Mode {
	return p.modeStack[len(p.modeStack)-1]
}

func (p *Parser) pushMode(m lexer.Mode) {
	p.modeStack = append(p.modeStack, m)
	p.rewindAndRelex()
}

func (p *Parser) popMode() {
	if len(p.modeStack) > 1 {
		p.modeStack = p.modeStack[:len(p.modeStack)-1]
	}
	p.rewindAndRelex()
}

// rewindAndRelex abandons the current lookahead and re-lexes from its
// start byte under whatever mode is now on top of the stack, per
// spec.md §4.2's mode-transition rule.
func (p *Parser) rewindAndRelex() {
	start := int(p.cur.Span.Start)
	_ = p.lex.SetCur(start)
	p.cur = p.lex.Next(p.topMode())
}

func (p *Parser) advance() {
	p.cur = p.lex.Next(p.topMode())
}

// bump adds the current lookahead token to the builder's token arena,
// advances the lookahead, and returns the consumed token's arena index.
func (p *Parser) bump() (uint32, lexer.Token) {
	tok := p.cur
	idx := p.b.AddToken(tok)
	p.advance()
	return idx, tok
}

func (p *Parser) at(k lexer.TokenKind) bool { return p.cur.Kind == k }

// withSync adds kinds to the recovery sync-set for the dynamic extent of
// the caller; the returned func removes them again, and callers call it
// once the guarded region ends.
func (p *Parser) withSync(kinds ...lexer.TokenKind) func() {
	for _, k := range kinds {
		p.sync[k]++
	}
	return func() {
		for _, k := range kinds {
			p.sync[k]--
			if p.sync[k] <= 0 {
				delete(p.sync, k)
			}
		}
	}
}

func (p *Parser) inSyncSet(k lexer.TokenKind) bool {
	if k == lexer.TokenEOF {
		return true
	}
	_, ok := p.sync[k]
	return ok
}

// expect implements spec.md §4.2's four-step expect(K) protocol: return
// K if already current; otherwise discard non-sync tokens as
// UnexpectedText and retry; if the sync set is hit first, give up and
// synthesize a missing-K diagnostic with an insertion fix-it, consuming
// nothing.
func (p *Parser) expect(k lexer.TokenKind) (uint32, lexer.Token, bool) {
	for {
		if p.cur.Kind == k {
			idx, tok := p.bump()
			return idx, tok, true
		}
		if p.inSyncSet(p.cur.Kind) {
			break
		}
		start := p.cur.Span
		end := start
		for !p.inSyncSet(p.cur.Kind) {
			end = p.cur.Span
			p.bump()
		}
		region := start.Join(end)
		p.addDiag(diag.Diagnostic{
			Kind:   diag.KindUnexpectedText,
			Span:   region,
			Args:   []any{string(bytesForSpan(p.src, region))},
			Source: diag.SourceParser,
		})
	}
	at := text.At(p.cur.Span.Start)
	p.addDiag(diag.Diagnostic{
		Kind:   missingKindFor(k),
		Span:   at,
		Source: diag.SourceParser,
		Fixes: []diag.Fix{{
			Message: fmt.Sprintf("insert %q", k.String()),
			Edits:   []diag.TextEdit{{OldRange: at, NewText: k.String()}},
		}},
	})
	return 0, lexer.Token{Kind: lexer.TokenUnknown, Span: at, Flags: lexer.TokenFlagSynthesized}, false
}

func missingKindFor(k lexer.TokenKind) diag.Kind {
	switch k {
	case lexer.TokenSemi:
		return diag.KindMissingSemi
	case lexer.TokenRParen:
		return diag.KindMissingRParen
	case lexer.TokenRBrace:
		return diag.KindMissingRBrace
	case lexer.TokenRBracket:
		return diag.KindMissingRBracket
	case lexer.TokenKwIn:
		return diag.KindMissingIn
	case lexer.TokenKwThen:
		return diag.KindMissingThen
	case lexer.TokenKwElse:
		return diag.KindMissingElse
	default:
		return diag.KindUnexpectedText
	}
}

func (p *Parser) addDiag(d diag.Diagnostic) {
	p.diags = append(p.diags, d)
}

// finishAtEOF discards any trailing unconsumed garbage as UnexpectedText.
func (p *Parser) finishAtEOF() {
	if p.cur.Kind == lexer.TokenEOF {
		return
	}
	start := p.cur.Span
	end := start
	for p.cur.Kind != lexer.TokenEOF {
		end = p.cur.Span
		p.bump()
	}
	region := start.Join(end)
	p.addDiag(diag.Diagnostic{
		Kind:   diag.KindUnexpectedText,
		Span:   region,
		Args:   []any{string(bytesForSpan(p.src, region))},
		Source: diag.SourceParser,
	})
}

// newNode appends a node spanning [start, last) to the arena.
func (p *Parser) newNode(kind cst.NodeKind, start text.ByteOffset, last text.ByteOffset, children []cst.ChildRef) cst.NodeID {
	flags := cst.NodeFlags(0)
	for _, c := range children {
		if !c.IsToken && c.Node == cst.NoNode {
			flags |= cst.NodeFlagRecovered
		}
	}
	return p.b.NewNode(kind, text.Span{Start: start, End: last}, children, flags)
}

// miscToken wraps a single consumed token as a location-only Misc node
// (used for keywords and braces that carry no semantic payload of their
// own but whose range is still needed, e.g. for `with`/`rec`/`assert`).
func (p *Parser) miscToken(idx uint32, tok lexer.Token) cst.NodeID {
	return p.newNode(cst.KindMisc, tok.Span.Start, tok.Span.End, []cst.ChildRef{cst.TokenRef(idx)})
}

func (p *Parser) nodeSpan(id cst.NodeID) text.Span {
	n := p.b.Tree().NodeByID(id)
	if n == nil {
		return text.Span{}
	}
	return n.Span
}

func (p *Parser) nodeStart(id cst.NodeID) text.ByteOffset { return p.nodeSpan(id).Start }
func (p *Parser) nodeEnd(id cst.NodeID) text.ByteOffset   { return p.nodeSpan(id).End }

func bytesForSpan(src []byte, sp text.Span) []byte {
	if !sp.IsValid() || int(sp.End) > len(src) {
		return nil
	}
	return src[sp.Start:sp.End]
}
