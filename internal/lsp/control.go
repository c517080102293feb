package lsp

import (
	"context"
	"encoding/json"

	"github.com/nix-community/nixd-sub000/internal/tu"
)

// dispatchControl handles every method that mutates server state or
// controls the session lifecycle, run inline on the read loop in
// arrival order — the one place this server stays as sequential as the
// teacher's.
func (s *Server) dispatchControl(ctx context.Context, req Request) error {
	isRequest := len(req.ID) != 0
	writeResp := func(result any) error {
		if !isRequest {
			return nil
		}
		return s.writeResponse(Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result})
	}
	writeErr := func(code int, msg string) error {
		if !isRequest {
			return nil
		}
		return s.writeErrorResponse(req.ID, code, msg)
	}

	switch req.Method {
	case "initialize":
		var p InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return writeErr(jsonRPCInvalidParams, err.Error())
			}
		}
		return writeResp(InitializeResult{Capabilities: DefaultServerCapabilities()})
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return writeResp(struct{}{})
	case "exit":
		s.mu.Lock()
		s.exitRequested = true
		s.mu.Unlock()
		return ErrShutdownRequested
	case "$/cancelRequest":
		var p CancelParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		s.cancelRequest(p)
		return nil
	case "textDocument/didOpen":
		var p DidOpenParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		unit := s.Units.Open(p.TextDocument.URI, p.TextDocument.Version, []byte(p.TextDocument.Text))
		s.Metrics.RecordDiagnostics(unit.Diagnostics)
		return s.publishDiagnosticsForURI(p.TextDocument.URI)
	case "textDocument/didChange":
		var p DidChangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		changes := make([]tu.Change, 0, len(p.ContentChanges))
		for _, c := range p.ContentChanges {
			changes = append(changes, contentChangeToTU(c))
		}
		unit, err := s.Units.Change(p.TextDocument.URI, p.TextDocument.Version, changes)
		if err != nil {
			return writeErr(jsonRPCCodeFor(wrapTUErr(err, p.TextDocument.URI, p.TextDocument.Version)), err.Error())
		}
		s.Metrics.RecordDiagnostics(unit.Diagnostics)
		return s.publishDiagnosticsForURI(p.TextDocument.URI)
	case "textDocument/didSave":
		// No content accompanies save (Save is advertised without
		// includeText): didChange already keeps the TU current, so
		// there's nothing further to re-analyze here.
		return nil
	case "textDocument/didClose":
		var p DidCloseParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		s.Units.Close(p.TextDocument.URI)
		return s.writeNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
			URI:         p.TextDocument.URI,
			Diagnostics: []Diagnostic{},
		})
	default:
		if _, isQuery := queryMethods[req.Method]; isQuery {
			// A query arriving as a notification (no id) still needs to
			// run, just without a response to send.
			return s.dispatchQuery(ctx, req)
		}
		return writeErr(jsonRPCMethodNotFound, "method not found")
	}
}

func contentChangeToTU(c TextDocumentContentChangeEvent) tu.Change {
	if c.Range == nil {
		return tu.Change{Text: c.Text}
	}
	r := rangeToUTF16(*c.Range)
	return tu.Change{Range: &r, Text: c.Text}
}

func (s *Server) publishDiagnosticsForURI(uri string) error {
	unit, ok := s.Units.Get(uri)
	if !ok {
		return nil
	}
	li := lineIndexFor(unit.Tree)
	diags := unit.Diagnostics
	if s.Suppress != nil {
		diags = s.Suppress.Apply(uri, diags)
	}
	lspDiags, err := diagnosticsToLSP(uri, li, diags)
	if err != nil {
		return err
	}
	// re-check we're still current: a rapid-fire edit may have already
	// superseded the unit we just analyzed.
	latest, ok := s.Units.Get(uri)
	if !ok || latest.Version != unit.Version {
		return nil
	}
	version := unit.Version
	return s.writeNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: lspDiags,
	})
}
