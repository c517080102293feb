// Package lexer provides a lossless, mode-sensitive token/trivia lexer for
// the Nix expression language.
package lexer

import (
	"fmt"

	"github.com/nix-community/nixd-sub000/internal/text"
)

// TokenKind identifies the syntactic category of a token.
type TokenKind uint16

// TokenKind values used by the Nix lexer.
const (
	TokenUnknown TokenKind = iota
	TokenEOF

	// Keywords.
	TokenKwIf
	TokenKwThen
	TokenKwElse
	TokenKwLet
	TokenKwIn
	TokenKwRec
	TokenKwWith
	TokenKwAssert
	TokenKwInherit
	TokenKwOr

	// Identifiers and numbers.
	TokenIdentifier
	TokenInt
	TokenFloat

	// Interpolable-literal tokens; only produced in String/IndString/Path modes.
	TokenStringPart   // literal text content inside a string/ind-string
	TokenStringEscape // a two-character `\` escape inside a double-quoted string
	TokenDQuote       // opening or closing `"`
	TokenQuote2       // opening or closing `''`
	TokenDollarCurly  // `${` — pushes expr mode for an interpolation
	TokenPathFragment // literal text content of a path
	TokenPathEnd      // sentinel emitted when a path literal ends
	TokenSPath        // `<search/path>` search-path literal
	TokenURI          // unquoted `scheme:host/path` URI literal

	// Punctuation.
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
	TokenSemi
	TokenComma
	TokenDot
	TokenColon
	TokenAt
	TokenQuestion
	TokenEq
	TokenEllipsis

	// Operators.
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenConcat  // ++
	TokenUpdate  // //
	TokenEqEq    // ==
	TokenNotEq   // !=
	TokenLt      // <
	TokenLtEq    // <=
	TokenGt      // >
	TokenGtEq    // >=
	TokenAndAnd  // &&
	TokenOrOr    // ||
	TokenImplies // ->
	TokenNot     // !
)

func (k TokenKind) String() string {
	switch k {
	case TokenUnknown:
		return "unknown"
	case TokenEOF:
		return "eof"
	case TokenKwIf:
		return "if"
	case TokenKwThen:
		return "then"
	case TokenKwElse:
		return "else"
	case TokenKwLet:
		return "let"
	case TokenKwIn:
		return "in"
	case TokenKwRec:
		return "rec"
	case TokenKwWith:
		return "with"
	case TokenKwAssert:
		return "assert"
	case TokenKwInherit:
		return "inherit"
	case TokenKwOr:
		return "or"
	case TokenIdentifier:
		return "id"
	case TokenInt:
		return "int"
	case TokenFloat:
		return "float"
	case TokenStringPart:
		return "string-part"
	case TokenStringEscape:
		return "string-escape"
	case TokenDQuote:
		return "dquote"
	case TokenQuote2:
		return "quote2"
	case TokenDollarCurly:
		return "dollar-curly"
	case TokenPathFragment:
		return "path-fragment"
	case TokenPathEnd:
		return "path-end"
	case TokenSPath:
		return "spath"
	case TokenURI:
		return "uri"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLBracket:
		return "["
	case TokenRBracket:
		return "]"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenSemi:
		return ";"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenColon:
		return ":"
	case TokenAt:
		return "@"
	case TokenQuestion:
		return "?"
	case TokenEq:
		return "="
	case TokenEllipsis:
		return "..."
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenConcat:
		return "++"
	case TokenUpdate:
		return "//"
	case TokenEqEq:
		return "=="
	case TokenNotEq:
		return "!="
	case TokenLt:
		return "<"
	case TokenLtEq:
		return "<="
	case TokenGt:
		return ">"
	case TokenGtEq:
		return ">="
	case TokenAndAnd:
		return "&&"
	case TokenOrOr:
		return "||"
	case TokenImplies:
		return "->"
	case TokenNot:
		return "!"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}

// IsKeyword reports whether k is one of the fixed Nix keywords.
func (k TokenKind) IsKeyword() bool {
	switch k {
	case TokenKwIf, TokenKwThen, TokenKwElse, TokenKwLet, TokenKwIn, TokenKwRec,
		TokenKwWith, TokenKwAssert, TokenKwInherit, TokenKwOr:
		return true
	default:
		return false
	}
}

// TokenFlags carry metadata about the token source or origin.
type TokenFlags uint8

// TokenFlags values describe token provenance or recovery state.
const (
	TokenFlagMalformed TokenFlags = 1 << iota
	TokenFlagSynthesized
	TokenFlagLeadingZeroFloat
)

// Has reports whether all bits in mask are set.
func (f TokenFlags) Has(mask TokenFlags) bool {
	return f&mask == mask
}

// Token is a lexed token with a source span and leading trivia.
type Token struct {
	Kind    TokenKind
	Span    text.Span
	Leading []Trivia
	Flags   TokenFlags
}

// Bytes returns the token bytes referenced by Span or nil if Span is invalid for src.
func (t Token) Bytes(src []byte) []byte {
	return bytesForSpan(src, t.Span)
}

// keywordKinds maps identifier spellings to their reserved keyword token kind.
var keywordKinds = map[string]TokenKind{
	"if":      TokenKwIf,
	"then":    TokenKwThen,
	"else":    TokenKwElse,
	"let":     TokenKwLet,
	"in":      TokenKwIn,
	"rec":     TokenKwRec,
	"with":    TokenKwWith,
	"assert":  TokenKwAssert,
	"inherit": TokenKwInherit,
	"or":      TokenKwOr,
}

func bytesForSpan(src []byte, sp text.Span) []byte {
	if !sp.IsValid() {
		return nil
	}
	if sp.End > text.ByteOffset(len(src)) {
		return nil
	}
	return src[sp.Start:sp.End]
}
