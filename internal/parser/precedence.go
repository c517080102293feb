package parser

import "github.com/nix-community/nixd-sub000/internal/lexer"

// associativity describes how a binary operator at a given precedence
// level nests with itself.
type associativity uint8

const (
	assocLeft associativity = iota
	assocRight
	assocNone // non-associative: chaining is a parse error
)

// Binding power table, per spec.md §4.2 ("Operator precedences"). Lower
// numbers bind more loosely. Unary "!" and unary "-" are handled
// separately in parseUnaryOrApp; they do not appear here.
const (
	precLowest = iota
	precImplies
	precOr
	precAnd
	precEquality
	precCompare
	precUpdate
	precAdditive
	precMultiplicative
	precConcat
	precHasAttr
)

type binOpInfo struct {
	prec  int
	assoc associativity
}

var binOpTable = map[lexer.TokenKind]binOpInfo{
	lexer.TokenImplies: {precImplies, assocRight},
	lexer.TokenOrOr:    {precOr, assocLeft},
	lexer.TokenAndAnd:  {precAnd, assocLeft},
	lexer.TokenEqEq:    {precEquality, assocNone},
	lexer.TokenNotEq:   {precEquality, assocNone},
	lexer.TokenLt:      {precCompare, assocNone},
	lexer.TokenLtEq:    {precCompare, assocNone},
	lexer.TokenGt:      {precCompare, assocNone},
	lexer.TokenGtEq:    {precCompare, assocNone},
	lexer.TokenUpdate:  {precUpdate, assocRight},
	lexer.TokenPlus:    {precAdditive, assocLeft},
	lexer.TokenMinus:   {precAdditive, assocLeft},
	lexer.TokenStar:    {precMultiplicative, assocLeft},
	lexer.TokenSlash:   {precMultiplicative, assocLeft},
	lexer.TokenConcat:  {precConcat, assocRight},
	lexer.TokenQuestion: {precHasAttr, assocNone},
}

// isBinOp reports whether k is a binary-operator token, and returns its
// binding info.
func isBinOp(k lexer.TokenKind) (binOpInfo, bool) {
	info, ok := binOpTable[k]
	return info, ok
}
