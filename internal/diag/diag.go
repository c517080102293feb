// Package diag defines the unified diagnostic model shared by the parser,
// lowering, and variable-lookup passes.
package diag

import (
	"fmt"

	"github.com/nix-community/nixd-sub000/internal/text"
)

// Severity is a diagnostic severity level.
type Severity uint8

// Severity values, ordered from most to least urgent.
const (
	SeverityFatal Severity = iota + 1
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Tag marks rendering hints a client may use (e.g. strikethrough for dead code).
type Tag uint8

// Tag bit values.
const (
	TagFaded Tag = 1 << iota
	TagStriked
)

// Has reports whether all bits in mask are set.
func (t Tag) Has(mask Tag) bool { return t&mask == mask }

// Kind identifies a diagnostic kind. The set of kinds is closed; Registry
// below is the source of truth for each kind's severity and message
// template. Kind doubles as the short "sname" used for diagnostic
// suppression matching (spec.md's diagnostic-suppression set).
type Kind string

// Source identifies which analysis pass produced a diagnostic.
type Source string

// Source values.
const (
	SourceLexer     Source = "lexer"
	SourceParser    Source = "parser"
	SourceSema      Source = "sema"
	SourceVarLookup Source = "varlookup"
)

// kindInfo holds the static severity and printf-style message template for a Kind.
type kindInfo struct {
	Severity Severity
	Template string
}

// Registry maps every closed Kind to its static severity and message template.
var Registry = map[Kind]kindInfo{
	// Lexer-adjacent / parser diagnostics.
	KindUnexpectedText:        {SeverityError, "unexpected text %q"},
	KindMissingSemi:           {SeverityError, "missing ';'"},
	KindMissingRParen:         {SeverityError, "missing ')'"},
	KindMissingRBrace:         {SeverityError, "missing '}'"},
	KindMissingRBracket:       {SeverityError, "missing ']'"},
	KindMissingIn:             {SeverityError, "missing 'in'"},
	KindMissingThen:           {SeverityError, "missing 'then'"},
	KindMissingElse:           {SeverityError, "missing 'else'"},
	KindExtraDotInAttrPath:    {SeverityError, "unexpected extra '.' in attribute path"},
	KindInheritNoNames:        {SeverityWarning, "inherit with no names"},
	KindInheritDynamicName:    {SeverityError, "dynamic attribute name not allowed in inherit"},
	KindOrUsedAsIdentifier:    {SeverityWarning, "'or' used as an identifier"},
	KindParenthesizedAtom:     {SeverityHint, "redundant parentheses around atom"},
	KindUnterminatedString:    {SeverityError, "unterminated string literal"},
	KindUnterminatedIndString: {SeverityError, "unterminated indented string literal"},
	KindUnterminatedPath:      {SeverityError, "unterminated path literal"},
	KindMissingLambdaFormals:  {SeverityError, "missing formals after '@'"},

	// Lowering diagnostics.
	KindDuplicatedAttrName:     {SeverityError, "duplicate attribute %q"},
	KindMergeDiffRec:           {SeverityWarning, "merged attribute sets disagree on 'rec'"},
	KindFormalMisplacedEllipsis: {SeverityError, "'...' must be the last formal"},
	KindFormalExtraEllipsis:    {SeverityError, "duplicate '...' in formals"},
	KindFormalMissingComma:     {SeverityError, "missing ',' between formals"},
	KindEmptyFormal:            {SeverityWarning, "empty formal"},
	KindDuplicatedFormal:       {SeverityError, "duplicate formal %q"},
	KindDuplicatedFormalToArg:  {SeverityError, "'@'-bound identifier %q collides with a formal"},

	// Variable-lookup diagnostics.
	KindUndefinedVariable:  {SeverityError, "undefined variable %q"},
	KindEscapingWith:       {SeverityWarning, "lexical binding %q is shadowed by an enclosing 'with'"},
	KindDefinitionNotUsed:  {SeverityHint, "%q is never used"},
	KindExtraRecursive:     {SeverityHint, "'rec' has no effect here"},
	KindExtraWith:          {SeverityHint, "'with' introduces no used names"},
}

// Kind constants. See Registry for severity and message templates.
const (
	KindUnexpectedText          Kind = "unexpected-text"
	KindMissingSemi             Kind = "missing-semi"
	KindMissingRParen           Kind = "missing-rparen"
	KindMissingRBrace           Kind = "missing-rbrace"
	KindMissingRBracket         Kind = "missing-rbracket"
	KindMissingIn               Kind = "missing-in"
	KindMissingThen             Kind = "missing-then"
	KindMissingElse             Kind = "missing-else"
	KindExtraDotInAttrPath      Kind = "extra-dot-attrpath"
	KindInheritNoNames          Kind = "inherit-no-names"
	KindInheritDynamicName      Kind = "inherit-dynamic-name"
	KindOrUsedAsIdentifier      Kind = "or-used-as-identifier"
	KindParenthesizedAtom       Kind = "parenthesized-atom"
	KindUnterminatedString      Kind = "unterminated-string"
	KindUnterminatedIndString   Kind = "unterminated-ind-string"
	KindUnterminatedPath        Kind = "unterminated-path"
	KindMissingLambdaFormals    Kind = "missing-lambda-formals"
	KindDuplicatedAttrName      Kind = "duplicated-attr-name"
	KindMergeDiffRec            Kind = "merge-diff-rec"
	KindFormalMisplacedEllipsis Kind = "formal-misplaced-ellipsis"
	KindFormalExtraEllipsis     Kind = "formal-extra-ellipsis"
	KindFormalMissingComma      Kind = "formal-missing-comma"
	KindEmptyFormal              Kind = "empty-formal"
	KindDuplicatedFormal         Kind = "duplicated-formal"
	KindDuplicatedFormalToArg    Kind = "duplicated-formal-to-arg"
	KindUndefinedVariable        Kind = "undefined-variable"
	KindEscapingWith             Kind = "escaping-with"
	KindDefinitionNotUsed        Kind = "definition-not-used"
	KindExtraRecursive           Kind = "extra-recursive"
	KindExtraWith                Kind = "extra-with"
)

// SeverityOf returns the static severity for a Kind, or SeverityError if unregistered.
func SeverityOf(k Kind) Severity {
	if info, ok := Registry[k]; ok {
		return info.Severity
	}
	return SeverityError
}

// TextEdit replaces the bytes in OldRange with NewText.
type TextEdit struct {
	OldRange text.Span
	NewText  string
}

// Fix is a human-readable suggestion plus the edits that would apply it.
type Fix struct {
	Message string
	Edits   []TextEdit
}

// Note attaches secondary context to a Diagnostic at another location.
type Note struct {
	Kind Kind
	Span text.Span
	Args []any
}

// Message renders n's template with its Args.
func (n Note) Message() string {
	return render(n.Kind, n.Args)
}

// Diagnostic is a single finding from the lexer/parser/sema/varlookup passes.
type Diagnostic struct {
	Kind   Kind
	Span   text.Span
	Args   []any
	Notes  []Note
	Fixes  []Fix
	Tags   Tag
	Source Source
}

// Severity returns the diagnostic's static severity.
func (d Diagnostic) Severity() Severity { return SeverityOf(d.Kind) }

// Message renders d's template with its Args.
func (d Diagnostic) Message() string {
	return render(d.Kind, d.Args)
}

func render(k Kind, args []any) string {
	info, ok := Registry[k]
	if !ok {
		return string(k)
	}
	if len(args) == 0 {
		return info.Template
	}
	return fmt.Sprintf(info.Template, args...)
}
