package lexer

import "testing"

func lexAll(t *testing.T, src string, mode Mode) []Token {
	t.Helper()
	l := New([]byte(src))
	var toks []Token
	for {
		tok := l.Next(mode)
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			break
		}
		if mode == ModePath && tok.Kind == TokenPathEnd {
			break
		}
	}
	return toks
}

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, got []TokenKind, want ...TokenKind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestLexExprKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "let x = if rec then y else withAssert", ModeExpr)
	assertKinds(t, kinds(toks),
		TokenKwLet, TokenIdentifier, TokenEq, TokenKwIf, TokenKwRec, TokenKwThen,
		TokenIdentifier, TokenKwElse, TokenIdentifier, TokenEOF)
}

func TestLexIdentifierAllowsHyphenAndApostrophe(t *testing.T) {
	toks := lexAll(t, "foo-bar's", ModeExpr)
	assertKinds(t, kinds(toks), TokenIdentifier, TokenEOF)
	if string(toks[0].Bytes([]byte("foo-bar's"))) != "foo-bar's" {
		t.Fatalf("expected whole hyphenated/apostrophe identifier to lex as one token, got %q", toks[0].Bytes([]byte("foo-bar's")))
	}
}

func TestLexNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind TokenKind
	}{
		{"42", TokenInt},
		{"3.14", TokenFloat},
		{"1.", TokenFloat},
		{"1e10", TokenFloat},
		{"1.5e-3", TokenFloat},
	}
	for _, c := range cases {
		toks := lexAll(t, c.src, ModeExpr)
		if toks[0].Kind != c.kind {
			t.Errorf("lexing %q: got %v, want %v", c.src, toks[0].Kind, c.kind)
		}
	}
}

func TestLexLeadingZeroFloatWarns(t *testing.T) {
	l := New([]byte("00.33"))
	tok := l.Next(ModeExpr)
	if tok.Kind != TokenFloat {
		t.Fatalf("expected float, got %v", tok.Kind)
	}
	if !tok.Flags.Has(TokenFlagLeadingZeroFloat) {
		t.Fatalf("expected TokenFlagLeadingZeroFloat to be set")
	}
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != DiagnosticLeadingZeroFloat || diags[0].Severity != SeverityWarning {
		t.Fatalf("expected one leading-zero-float warning, got %+v", diags)
	}
}

func TestLexMalformedExponentIsErrorToken(t *testing.T) {
	l := New([]byte("1e+"))
	tok := l.Next(ModeExpr)
	if tok.Kind != TokenUnknown {
		t.Fatalf("expected error token for malformed exponent, got %v", tok.Kind)
	}
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != DiagnosticMalformedExponent {
		t.Fatalf("expected malformed-exponent diagnostic, got %+v", diags)
	}
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "++ // == != <= >= && || -> !", ModeExpr)
	assertKinds(t, kinds(toks),
		TokenConcat, TokenUpdate, TokenEqEq, TokenNotEq, TokenLtEq, TokenGtEq,
		TokenAndAnd, TokenOrOr, TokenImplies, TokenNot, TokenEOF)
}

func TestLexDivisionVsPath(t *testing.T) {
	// Nix's grammar is genuinely ambiguous here: a bare identifier run
	// followed by '/' and another path char is a path literal, exactly
	// like "foo/bar" in TestLexBareIdentifierPath. Division therefore
	// requires surrounding whitespace to disambiguate from a path.
	toks := lexAll(t, "a/b", ModeExpr)
	if toks[0].Kind != TokenPathFragment {
		t.Fatalf("expected a/b to lex as a path, got %v", toks[0].Kind)
	}

	toks = lexAll(t, "a / b", ModeExpr)
	assertKinds(t, kinds(toks), TokenIdentifier, TokenSlash, TokenIdentifier, TokenEOF)

	toks = lexAll(t, "./foo", ModeExpr)
	if toks[0].Kind != TokenPathFragment {
		t.Fatalf("expected ./foo to start a path literal, got %v", toks[0].Kind)
	}
}

func TestLexAbsolutePath(t *testing.T) {
	toks := lexAll(t, "/usr/bin", ModeExpr)
	if toks[0].Kind != TokenPathFragment {
		t.Fatalf("expected /usr/bin to start a path literal, got %v", toks[0].Kind)
	}
}

func TestLexUpdateOperatorNotMistakenForPath(t *testing.T) {
	toks := lexAll(t, "a // b", ModeExpr)
	assertKinds(t, kinds(toks), TokenIdentifier, TokenUpdate, TokenIdentifier, TokenEOF)
}

func TestLexBareIdentifierPath(t *testing.T) {
	toks := lexAll(t, "foo/bar", ModeExpr)
	if toks[0].Kind != TokenPathFragment {
		t.Fatalf("expected foo/bar to lex as a path, got %v", toks[0].Kind)
	}
}

func TestLexSPath(t *testing.T) {
	toks := lexAll(t, "<nixpkgs/lib>", ModeExpr)
	assertKinds(t, kinds(toks), TokenSPath, TokenEOF)
}

func TestLexURIAndLambdaColonDisambiguation(t *testing.T) {
	toks := lexAll(t, "http://example.com/x", ModeExpr)
	if toks[0].Kind != TokenURI {
		t.Fatalf("expected URI token, got %v", toks[0].Kind)
	}

	// A space after ':' means this is a lambda, not a URI: colon and
	// identifier lex as separate tokens.
	toks = lexAll(t, "x: y", ModeExpr)
	assertKinds(t, kinds(toks), TokenIdentifier, TokenColon, TokenIdentifier, TokenEOF)
}

func TestLexLineAndBlockComments(t *testing.T) {
	l := New([]byte("# a comment\nx"))
	tok := l.Next(ModeExpr)
	if tok.Kind != TokenIdentifier {
		t.Fatalf("expected identifier after comment, got %v", tok.Kind)
	}
	if len(tok.Leading) != 2 {
		t.Fatalf("expected comment+newline leading trivia, got %v", tok.Leading)
	}
	if tok.Leading[0].Kind != TriviaLineComment {
		t.Fatalf("expected leading line comment, got %v", tok.Leading[0].Kind)
	}
}

func TestLexDocComment(t *testing.T) {
	l := New([]byte("/** doc */\nx"))
	tok := l.Next(ModeExpr)
	if tok.Leading[0].Kind != TriviaDocComment {
		t.Fatalf("expected doc comment trivia, got %v", tok.Leading[0].Kind)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	l := New([]byte("/* never closes"))
	tok := l.Next(ModeExpr)
	if tok.Kind != TokenUnknown {
		t.Fatalf("expected error token for unterminated block comment, got %v", tok.Kind)
	}
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != DiagnosticUnterminatedBlock {
		t.Fatalf("expected unterminated-block-comment diagnostic, got %+v", diags)
	}
}

func TestLexDQuoteStringParts(t *testing.T) {
	src := `"hello ${name}!"`
	l := New([]byte(src))
	open := l.Next(ModeExpr)
	if open.Kind != TokenDQuote {
		t.Fatalf("expected opening dquote, got %v", open.Kind)
	}
	part := l.Next(ModeString)
	if part.Kind != TokenStringPart || string(part.Bytes([]byte(src))) != "hello " {
		t.Fatalf("expected string-part 'hello ', got %v %q", part.Kind, part.Bytes([]byte(src)))
	}
	dollar := l.Next(ModeString)
	if dollar.Kind != TokenDollarCurly {
		t.Fatalf("expected dollar-curly, got %v", dollar.Kind)
	}
	id := l.Next(ModeExpr)
	if id.Kind != TokenIdentifier {
		t.Fatalf("expected identifier inside interpolation, got %v", id.Kind)
	}
	closeBrace := l.Next(ModeExpr)
	if closeBrace.Kind != TokenRBrace {
		t.Fatalf("expected } closing interpolation, got %v", closeBrace.Kind)
	}
	rest := l.Next(ModeString)
	if rest.Kind != TokenStringPart || string(rest.Bytes([]byte(src))) != "!" {
		t.Fatalf("expected trailing string-part '!', got %v %q", rest.Kind, rest.Bytes([]byte(src)))
	}
	closeQuote := l.Next(ModeString)
	if closeQuote.Kind != TokenDQuote {
		t.Fatalf("expected closing dquote, got %v", closeQuote.Kind)
	}
}

func TestLexDQuoteEscapeAndAbsorbedDollar(t *testing.T) {
	src := `"a\"b$$c"`
	l := New([]byte(src))
	l.Next(ModeExpr) // opening quote
	part := l.Next(ModeString)
	if part.Kind != TokenStringPart || string(part.Bytes([]byte(src))) != "a" {
		t.Fatalf("expected part 'a', got %q", part.Bytes([]byte(src)))
	}
	esc := l.Next(ModeString)
	if esc.Kind != TokenStringEscape || string(esc.Bytes([]byte(src))) != `\"` {
		t.Fatalf("expected escape \\\", got %v %q", esc.Kind, esc.Bytes([]byte(src)))
	}
	rest := l.Next(ModeString)
	if rest.Kind != TokenStringPart || string(rest.Bytes([]byte(src))) != "b$$c" {
		t.Fatalf("expected part 'b$$c' with absorbed interpolation escape, got %q", rest.Bytes([]byte(src)))
	}
}

func TestLexIndentedStringEscapes(t *testing.T) {
	src := "'' it'''s ''${escaped} ''"
	l := New([]byte(src))
	open := l.Next(ModeExpr)
	if open.Kind != TokenQuote2 {
		t.Fatalf("expected opening '', got %v", open.Kind)
	}
	part := l.Next(ModeIndString)
	if part.Kind != TokenStringPart {
		t.Fatalf("expected string part, got %v", part.Kind)
	}
	esc := l.Next(ModeIndString)
	if esc.Kind != TokenStringEscape || string(esc.Bytes([]byte(src))) != "'''" {
		t.Fatalf("expected ''' literal-quote escape, got %v %q", esc.Kind, esc.Bytes([]byte(src)))
	}
}

func TestLexPathWithInterpolation(t *testing.T) {
	src := "./foo/${bar}/baz"
	l := New([]byte(src))
	first := l.Next(ModeExpr)
	if first.Kind != TokenPathFragment || string(first.Bytes([]byte(src))) != "./foo/" {
		t.Fatalf("expected first path fragment './foo/', got %v %q", first.Kind, first.Bytes([]byte(src)))
	}
	dollar := l.Next(ModePath)
	if dollar.Kind != TokenDollarCurly {
		t.Fatalf("expected dollar-curly inside path, got %v", dollar.Kind)
	}
	id := l.Next(ModeExpr)
	if id.Kind != TokenIdentifier {
		t.Fatalf("expected identifier, got %v", id.Kind)
	}
	closeBrace := l.Next(ModeExpr)
	if closeBrace.Kind != TokenRBrace {
		t.Fatalf("expected closing brace, got %v", closeBrace.Kind)
	}
	second := l.Next(ModePath)
	if second.Kind != TokenPathFragment || string(second.Bytes([]byte(src))) != "/baz" {
		t.Fatalf("expected trailing path fragment '/baz', got %v %q", second.Kind, second.Bytes([]byte(src)))
	}
	end := l.Next(ModePath)
	if end.Kind != TokenPathEnd {
		t.Fatalf("expected path-end sentinel, got %v", end.Kind)
	}
}

func TestSetCurOnlyRewinds(t *testing.T) {
	l := New([]byte("abc"))
	l.Next(ModeExpr)
	if err := l.SetCur(0); err != nil {
		t.Fatalf("rewind to 0 should succeed: %v", err)
	}
	if err := l.SetCur(100); err == nil {
		t.Fatalf("expected error advancing cursor past current position")
	}
}

func TestInvalidUTF8Byte(t *testing.T) {
	l := New([]byte{0xff, 'x'})
	tok := l.Next(ModeExpr)
	if tok.Kind != TokenUnknown {
		t.Fatalf("expected error token for invalid UTF-8 byte, got %v", tok.Kind)
	}
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != DiagnosticInvalidByte {
		t.Fatalf("expected invalid-byte diagnostic, got %+v", diags)
	}
}
