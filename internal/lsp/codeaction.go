package lsp

import "context"

// CodeAction handles textDocument/codeAction. It produces two families of
// action, both always a direct single-WorkspaceEdit text change and never
// a command-based action: QuickFix actions built straight from a
// diagnostic's own Fixes, and the structural Refactor actions from
// spec.md §4.8 (see refactor.go), offered whenever the requested range's
// start lands on a qualifying node regardless of any diagnostic.
func (s *Server) CodeAction(ctx context.Context, p CodeActionParams) ([]CodeAction, error) {
	unit, ok := s.Units.Get(p.TextDocument.URI)
	if !ok {
		return nil, errDocumentNotOpen(p.TextDocument.URI)
	}
	li := lineIndexFor(unit.Tree)

	var actions []CodeAction
	for _, d := range unit.Diagnostics {
		for _, fix := range d.Fixes {
			edits := make([]TextEdit, 0, len(fix.Edits))
			for _, e := range fix.Edits {
				rng, err := rangeFromSpan(li, e.OldRange)
				if err != nil {
					continue
				}
				edits = append(edits, TextEdit{Range: rng, NewText: e.NewText})
			}
			if len(edits) == 0 {
				continue
			}
			actions = append(actions, CodeAction{
				Title: fix.Message,
				Kind:  "quickfix",
				Edit:  &WorkspaceEdit{Changes: map[string][]TextEdit{p.TextDocument.URI: edits}},
			})
		}
	}
	actions = append(actions, collectRefactorActions(unit, p.TextDocument.URI, li, p.Range)...)
	return actions, nil
}
