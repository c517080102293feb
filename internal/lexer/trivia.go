package lexer

import (
	"fmt"
	"strings"

	"github.com/nix-community/nixd-sub000/internal/text"
)

// TriviaKind identifies non-token source segments attached as leading trivia.
type TriviaKind uint8

// TriviaKind values describe trivia categories.
const (
	TriviaWhitespace TriviaKind = iota
	TriviaNewline
	TriviaLineComment  // `# ...`
	TriviaBlockComment // `/* ... */`
	TriviaDocComment   // `/** ... */`, the nixdoc convention
)

func (k TriviaKind) String() string {
	switch k {
	case TriviaWhitespace:
		return "Whitespace"
	case TriviaNewline:
		return "Newline"
	case TriviaLineComment:
		return "LineComment"
	case TriviaBlockComment:
		return "BlockComment"
	case TriviaDocComment:
		return "DocComment"
	default:
		return fmt.Sprintf("TriviaKind(%d)", k)
	}
}

// Trivia represents a non-token source span (whitespace/comments/newlines).
type Trivia struct {
	Kind TriviaKind
	Span text.Span
}

// Bytes returns the trivia bytes referenced by Span or nil if Span is invalid for src.
func (t Trivia) Bytes(src []byte) []byte {
	return bytesForSpan(src, t.Span)
}

// IsComment reports whether the trivia is one of the comment kinds.
func (t Trivia) IsComment() bool {
	switch t.Kind {
	case TriviaLineComment, TriviaBlockComment, TriviaDocComment:
		return true
	default:
		return false
	}
}

// directiveMarkers are substrings that mark a comment as a tool directive
// rather than prose, per spec.md §3 ("directive comments").
var directiveMarkers = []string{"nixf-ignore:", "nixf-disable:"}

// IsDirective reports whether the comment text contains a recognized
// directive marker such as `nixf-ignore:` or `nixf-disable:`.
func IsDirective(commentText string) bool {
	for _, marker := range directiveMarkers {
		if strings.Contains(commentText, marker) {
			return true
		}
	}
	return false
}
