package lsp

import (
	"context"
	"encoding/json"
)

// dispatchQuery routes every read-only textDocument query method. Methods
// in server.go's queryMethods run off the sequential read loop (see
// server.go's dispatch); the others it handles (declaration, documentLink)
// reach it inline through dispatchControl's default case. It never touches
// s.mu/s.shutdown/s.exitRequested.
func (s *Server) dispatchQuery(ctx context.Context, req Request) error {
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
	badParams := func(err error) error { return writeErr(jsonRPCInvalidParams, err.Error()) }

	switch req.Method {
	case "textDocument/hover":
		var p HoverParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.Hover(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/definition":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.Definition(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/declaration":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.Declaration(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/documentLink":
		var p DocumentLinkParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.DocumentLink(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/references":
		var p ReferenceParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.References(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/documentHighlight":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.DocumentHighlight(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/documentSymbol":
		var p DocumentSymbolParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.DocumentSymbol(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/foldingRange":
		var p FoldingRangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.FoldingRange(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/selectionRange":
		var p SelectionRangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.SelectionRange(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/completion":
		var p CompletionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.Completion(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/inlayHint":
		var p InlayHintParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.InlayHint(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/codeAction":
		var p CodeActionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.CodeAction(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/prepareRename":
		var p PrepareRenameParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.PrepareRename(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/rename":
		var p RenameParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return badParams(err)
		}
		res, err := s.Rename(ctx, p)
		if err != nil {
			return writeErr(jsonRPCCodeFor(err), err.Error())
		}
		return writeResp(res)
	default:
		return writeErr(jsonRPCMethodNotFound, "method not found")
	}
}
