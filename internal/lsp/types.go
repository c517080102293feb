// Package lsp implements the nixd-sub000 LSP server and shared protocol
// types: a Content-Length framed JSON-RPC transport, document-lifecycle
// notifications, diagnostic publishing, and the feature handlers spec.md
// §4.8 names (definition, references, rename, hover, completion, inlay
// hints, folding/selection range, document symbol, code actions).
package lsp

import "encoding/json"

// JSONRPCVersion is the supported JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// Request identifies a JSON-RPC request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC/LSP error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CancelParams is the $/cancelRequest notification payload.
type CancelParams struct {
	ID json.RawMessage `json:"id"`
}

// InitializeParams is the subset of the LSP initialize request used here.
type InitializeParams struct {
	ProcessID *int64 `json:"processId,omitempty"`
}

// InitializeResult is the LSP initialize response payload.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities declares supported LSP features.
type ServerCapabilities struct {
	TextDocumentSync          TextDocumentSyncOptions `json:"textDocumentSync"`
	DocumentSymbolProvider    bool                     `json:"documentSymbolProvider,omitempty"`
	FoldingRangeProvider      bool                     `json:"foldingRangeProvider,omitempty"`
	SelectionRangeProvider    bool                     `json:"selectionRangeProvider,omitempty"`
	DefinitionProvider        bool                     `json:"definitionProvider,omitempty"`
	DeclarationProvider       bool                     `json:"declarationProvider,omitempty"`
	ReferencesProvider        bool                     `json:"referencesProvider,omitempty"`
	DocumentHighlightProvider bool                     `json:"documentHighlightProvider,omitempty"`
	DocumentLinkProvider      bool                     `json:"documentLinkProvider,omitempty"`
	HoverProvider             bool                     `json:"hoverProvider,omitempty"`
	RenameProvider            *RenameOptions           `json:"renameProvider,omitempty"`
	CompletionProvider        *CompletionOptions       `json:"completionProvider,omitempty"`
	InlayHintProvider         bool                     `json:"inlayHintProvider,omitempty"`
	CodeActionProvider        *CodeActionOptions        `json:"codeActionProvider,omitempty"`
}

// CodeActionOptions declares the code-action kinds this server produces,
// per spec.md §6.
type CodeActionOptions struct {
	CodeActionKinds []string `json:"codeActionKinds,omitempty"`
}

// RenameOptions declares rename-provider capabilities.
type RenameOptions struct {
	PrepareProvider bool `json:"prepareProvider,omitempty"`
}

// CompletionOptions declares completion-provider capabilities.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

// TextDocumentSyncOptions declares document sync behavior.
type TextDocumentSyncOptions struct {
	OpenClose bool `json:"openClose,omitempty"`
	Change    int  `json:"change,omitempty"`
	Save      bool `json:"save,omitempty"`
}

// TextDocumentSyncKindIncremental is LSP incremental sync mode.
const TextDocumentSyncKindIncremental = 2

// TextDocumentIdentifier identifies an open document.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier identifies an open document version.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

// TextDocumentItem is an LSP didOpen document payload.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId,omitempty"`
	Version    int32  `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentPositionParams identifies a position within a document —
// the shape shared by hover/definition/references/prepareRename/etc.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// DidOpenParams is the didOpen notification payload.
type DidOpenParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// Position is an LSP UTF-16 position.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is an LSP UTF-16 range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a range within a specific document.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// TextDocumentContentChangeEvent is a didChange text edit.
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength *int   `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// DidChangeParams is the didChange notification payload.
type DidChangeParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseParams is the didClose notification payload.
type DidCloseParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// PublishDiagnosticsParams is the LSP publishDiagnostics notification payload.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int32       `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Diagnostic is an LSP diagnostic payload.
type Diagnostic struct {
	Range           Range            `json:"range"`
	Severity        int              `json:"severity,omitempty"`
	Code            string           `json:"code,omitempty"`
	Source          string           `json:"source,omitempty"`
	Message         string           `json:"message"`
	Tags            []int            `json:"tags,omitempty"`
	RelatedInfo     []DiagnosticRelatedInformation `json:"relatedInformation,omitempty"`
}

// DiagnosticRelatedInformation attaches a secondary location to a diagnostic.
type DiagnosticRelatedInformation struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

// DocumentSymbolParams identifies the target document for symbol requests.
type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentSymbol is an LSP document symbol.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Kind           int              `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// FoldingRangeParams identifies the target document for folding requests.
type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FoldingRange is an LSP folding range.
type FoldingRange struct {
	StartLine      int `json:"startLine"`
	EndLine        int `json:"endLine"`
	StartCharacter int `json:"startCharacter,omitempty"`
	EndCharacter   int `json:"endCharacter,omitempty"`
}

// SelectionRangeParams is the LSP selectionRange request payload.
type SelectionRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Positions    []Position             `json:"positions"`
}

// SelectionRange is an LSP selection range result.
type SelectionRange struct {
	Range  Range           `json:"range"`
	Parent *SelectionRange `json:"parent,omitempty"`
}

// ReferenceParams is the textDocument/references request payload.
type ReferenceParams struct {
	TextDocument   TextDocumentIdentifier `json:"textDocument"`
	Position       Position               `json:"position"`
	Context        ReferenceContext       `json:"context"`
}

// ReferenceContext controls whether the declaration itself is included.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// DocumentHighlightParams is the textDocument/documentHighlight request payload.
type DocumentHighlightParams = TextDocumentPositionParams

// DocumentHighlight marks one occurrence of a symbol in a document.
type DocumentHighlight struct {
	Range Range `json:"range"`
	Kind  int   `json:"kind,omitempty"`
}

// DocumentHighlight kinds.
const (
	HighlightKindText  = 1
	HighlightKindRead  = 2
	HighlightKindWrite = 3
)

// HoverParams is the textDocument/hover request payload.
type HoverParams = TextDocumentPositionParams

// Hover is an LSP hover result.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// MarkupContent is LSP markup content.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// PrepareRenameParams is the textDocument/prepareRename request payload.
type PrepareRenameParams = TextDocumentPositionParams

// PrepareRenameResult is the textDocument/prepareRename response payload.
type PrepareRenameResult struct {
	Range       Range  `json:"range"`
	Placeholder string `json:"placeholder"`
}

// RenameParams is the textDocument/rename request payload.
type RenameParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	NewName      string                 `json:"newName"`
}

// WorkspaceEdit describes a set of per-document text edits.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes,omitempty"`
}

// TextEdit is an LSP text edit.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// CompletionParams is the textDocument/completion request payload.
type CompletionParams = TextDocumentPositionParams

// CompletionItem is an LSP completion item.
type CompletionItem struct {
	Label         string `json:"label"`
	Kind          int    `json:"kind,omitempty"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	InsertText    string `json:"insertText,omitempty"`
}

// CompletionList is the textDocument/completion response payload.
// IsIncomplete signals the client that the list was truncated (by
// completionMaxItems) and it should re-request as the user narrows the
// prefix rather than treat Items as exhaustive.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// Completion item kinds (subset of the LSP enum actually produced).
const (
	CompletionKindVariable = 6
	CompletionKindFunction = 3
	CompletionKindKeyword  = 14
	CompletionKindField    = 5
)

// InlayHintParams is the textDocument/inlayHint request payload.
type InlayHintParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

// InlayHint is an LSP inlay hint.
type InlayHint struct {
	Position Position `json:"position"`
	Label    string   `json:"label"`
	Kind     int      `json:"kind,omitempty"`
}

// InlayHint kinds.
const (
	InlayHintKindType      = 1
	InlayHintKindParameter = 2
)

// CodeActionParams is the textDocument/codeAction request payload.
type CodeActionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

// CodeActionContext carries the diagnostics in scope for a code action request.
type CodeActionContext struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// CodeAction is an LSP code action: either a QuickFix derived from a
// diagnostic's Fix, or one of the structural Refactor actions from
// spec.md §4.8. Always a direct single-WorkspaceEdit text change; this
// server never offers a command-based action.
type CodeAction struct {
	Title string         `json:"title"`
	Kind  string          `json:"kind,omitempty"`
	Edit  *WorkspaceEdit `json:"edit,omitempty"`
}
