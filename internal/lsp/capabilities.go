package lsp

// DefaultServerCapabilities returns the capability set nixd-sub000 advertises.
func DefaultServerCapabilities() ServerCapabilities {
	return ServerCapabilities{
		TextDocumentSync: TextDocumentSyncOptions{
			OpenClose: true,
			Change:    TextDocumentSyncKindIncremental,
			Save:      true,
		},
		DocumentSymbolProvider:    true,
		FoldingRangeProvider:      true,
		SelectionRangeProvider:    true,
		DefinitionProvider:        true,
		DeclarationProvider:       true,
		ReferencesProvider:        true,
		DocumentHighlightProvider: true,
		DocumentLinkProvider:      true,
		HoverProvider:             true,
		RenameProvider:            &RenameOptions{PrepareProvider: true},
		CompletionProvider:        &CompletionOptions{TriggerCharacters: []string{".", "$"}},
		InlayHintProvider:         true,
		CodeActionProvider: &CodeActionOptions{
			CodeActionKinds: []string{"quickfix", "refactor", "refactor.rewrite"},
		},
	}
}
