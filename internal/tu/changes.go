package tu

import (
	"errors"
	"slices"

	itext "github.com/nix-community/nixd-sub000/internal/text"
)

// Change is one content replacement, expressed as a UTF-16 LSP range. A
// nil Range means "replace the whole document", matching the LSP
// convention for a non-incremental TextDocumentContentChangeEvent.
type Change struct {
	Range *itext.UTF16Range
	Text  string
}

// applyChanges folds a batch of LSP content changes over src in order.
//
// Unlike the tree-sitter-backed store this pattern is adapted from, the
// parser here has no incremental-reparse primitive to feed — every
// version is parsed from scratch — so this only needs to produce the
// next source bytes, not a parallel list of byte-range edits.
func applyChanges(src []byte, changes []Change) ([]byte, error) {
	cur := slices.Clone(src)
	for _, ch := range changes {
		if ch.Range == nil {
			cur = []byte(ch.Text)
			continue
		}
		li := itext.NewLineIndex(cur)
		start, end, err := utf16RangeToOffsets(li, *ch.Range)
		if err != nil {
			return nil, err
		}
		next, err := itext.ApplyEdits(cur, []itext.ByteEdit{{
			Span:    itext.Span{Start: start, End: end},
			NewText: []byte(ch.Text),
		}})
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func utf16RangeToOffsets(li *itext.LineIndex, r itext.UTF16Range) (itext.ByteOffset, itext.ByteOffset, error) {
	start, err := li.UTF16PositionToOffset(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := li.UTF16PositionToOffset(r.End)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, errors.New("tu: change range end before start")
	}
	return start, end, nil
}
