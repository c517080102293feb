package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
)

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	t.Parallel()

	var in, out bytes.Buffer
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`1`), Method: "initialize"})
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`2`), Method: "shutdown"})
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, Method: "exit"})

	s := NewServer(Config{})
	if err := s.Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	br := bufio.NewReader(bytes.NewReader(out.Bytes()))
	resp1 := readRespFrame(t, br)
	resp2 := readRespFrame(t, br)
	if _, err := readFramedMessage(br); err == nil {
		t.Fatal("expected exactly two responses")
	}

	var initRes InitializeResult
	marshalRoundtrip(t, resp1.Result, &initRes)
	if !initRes.Capabilities.TextDocumentSync.OpenClose || initRes.Capabilities.TextDocumentSync.Change != TextDocumentSyncKindIncremental {
		t.Fatalf("unexpected textDocumentSync: %+v", initRes.Capabilities.TextDocumentSync)
	}
	if !initRes.Capabilities.HoverProvider || !initRes.Capabilities.DefinitionProvider {
		t.Fatalf("unexpected capabilities: %+v", initRes.Capabilities)
	}
	if !initRes.Capabilities.TextDocumentSync.Save {
		t.Fatalf("expected textDocumentSync.save = true, got %+v", initRes.Capabilities.TextDocumentSync)
	}
	if !initRes.Capabilities.DeclarationProvider || !initRes.Capabilities.DocumentLinkProvider {
		t.Fatalf("expected declarationProvider and documentLinkProvider, got %+v", initRes.Capabilities)
	}
	if initRes.Capabilities.CodeActionProvider == nil {
		t.Fatalf("expected a structured codeActionProvider, got nil")
	}
	wantKinds := []string{"quickfix", "refactor", "refactor.rewrite"}
	gotKinds := initRes.Capabilities.CodeActionProvider.CodeActionKinds
	if len(gotKinds) != len(wantKinds) {
		t.Fatalf("codeActionKinds = %v, want %v", gotKinds, wantKinds)
	}
	for i, k := range wantKinds {
		if gotKinds[i] != k {
			t.Fatalf("codeActionKinds = %v, want %v", gotKinds, wantKinds)
		}
	}
	if resp2.Error != nil || string(resp2.ID) != "2" {
		t.Fatalf("unexpected shutdown response: %+v", resp2)
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	t.Parallel()

	var in, out bytes.Buffer
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`9`), Method: "nix/unknown"})
	if err := NewServer(Config{}).Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp := readRespFrame(t, bufio.NewReader(bytes.NewReader(out.Bytes())))
	if resp.Error == nil || resp.Error.Code != jsonRPCMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
}

func TestOpenChangeClosePublishesDiagnostics(t *testing.T) {
	t.Parallel()

	var in bytes.Buffer
	writeReqFrame(t, &in, Request{
		JSONRPC: JSONRPCVersion,
		Method:  "textDocument/didOpen",
		Params: mustJSON(t, DidOpenParams{TextDocument: TextDocumentItem{
			URI: "file:///a.nix", Version: 1, Text: "let a = 1; in b",
		}}),
	})
	writeReqFrame(t, &in, Request{
		JSONRPC: JSONRPCVersion,
		Method:  "textDocument/didChange",
		Params: mustJSON(t, DidChangeParams{
			TextDocument:   VersionedTextDocumentIdentifier{URI: "file:///a.nix", Version: 2},
			ContentChanges: []TextDocumentContentChangeEvent{{Text: "let a = 1; in a"}},
		}),
	})
	writeReqFrame(t, &in, Request{
		JSONRPC: JSONRPCVersion,
		Method:  "textDocument/didClose",
		Params:  mustJSON(t, DidCloseParams{TextDocument: TextDocumentIdentifier{URI: "file:///a.nix"}}),
	})

	var out bytes.Buffer
	if err := NewServer(Config{}).Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	msgs := readAllFrames(t, out.Bytes())
	notes := collectMethodMessages(t, msgs, "textDocument/publishDiagnostics")
	if len(notes) != 3 {
		t.Fatalf("publishDiagnostics count=%d, want 3", len(notes))
	}

	var first PublishDiagnosticsParams
	marshalRoundtrip(t, notes[0].Params, &first)
	if len(first.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic for `in b` referencing an undefined variable")
	}

	var last PublishDiagnosticsParams
	marshalRoundtrip(t, notes[2].Params, &last)
	if len(last.Diagnostics) != 0 {
		t.Fatalf("expected cleared diagnostics after close, got %+v", last.Diagnostics)
	}
}

func TestHoverRoundTripOverWire(t *testing.T) {
	t.Parallel()

	var in bytes.Buffer
	writeReqFrame(t, &in, Request{
		JSONRPC: JSONRPCVersion,
		Method:  "textDocument/didOpen",
		Params: mustJSON(t, DidOpenParams{TextDocument: TextDocumentItem{
			URI: "file:///h.nix", Version: 1, Text: "let a = 1; in a",
		}}),
	})
	writeReqFrame(t, &in, Request{
		JSONRPC: JSONRPCVersion,
		ID:      json.RawMessage(`5`),
		Method:  "textDocument/hover",
		Params: mustJSON(t, HoverParams{
			TextDocument: TextDocumentIdentifier{URI: "file:///h.nix"},
			Position:     Position{Line: 0, Character: 14}, // the trailing `a`
		}),
	})

	var out bytes.Buffer
	if err := NewServer(Config{}).Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	msgs := readAllFrames(t, out.Bytes())
	resp := responseByID(t, msgs, "5")
	if resp.Error != nil {
		t.Fatalf("hover error: %+v", resp.Error)
	}
	var hover Hover
	marshalRoundtrip(t, resp.Result, &hover)
	if hover.Contents.Value == "" {
		t.Fatal("expected non-empty hover contents")
	}
}

func writeReqFrame(t *testing.T, w *bytes.Buffer, req Request) {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if err := writeFramedMessage(w, b); err != nil {
		t.Fatalf("writeFramedMessage: %v", err)
	}
}

func readRespFrame(t *testing.T, r *bufio.Reader) Response {
	t.Helper()
	b, err := readFramedMessage(r)
	if err != nil {
		t.Fatalf("readFramedMessage: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("json.Unmarshal response: %v", err)
	}
	return resp
}

func marshalRoundtrip(t *testing.T, in any, out any) {
	t.Helper()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal roundtrip: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("json.Unmarshal roundtrip: %v", err)
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal params: %v", err)
	}
	return json.RawMessage(b)
}

type testFrame struct {
	body []byte
	msg  Request
}

func readAllFrames(t *testing.T, raw []byte) []testFrame {
	t.Helper()
	br := bufio.NewReader(bytes.NewReader(raw))
	var out []testFrame
	for {
		body, err := readFramedMessage(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("readFramedMessage: %v", err)
		}
		var msg Request
		if err := json.Unmarshal(body, &msg); err != nil {
			t.Fatalf("json.Unmarshal frame: %v", err)
		}
		out = append(out, testFrame{body: body, msg: msg})
	}
	return out
}

func collectMethodMessages(t *testing.T, msgs []testFrame, method string) []Request {
	t.Helper()
	out := make([]Request, 0, len(msgs))
	for _, msg := range msgs {
		if msg.msg.Method == method {
			out = append(out, msg.msg)
		}
	}
	return out
}

func responseByID(t *testing.T, msgs []testFrame, id string) Response {
	t.Helper()
	for _, f := range msgs {
		if string(f.msg.ID) != id {
			continue
		}
		var resp Response
		if err := json.Unmarshal(f.body, &resp); err != nil {
			t.Fatalf("json.Unmarshal response: %v", err)
		}
		return resp
	}
	t.Fatalf("no response with id %s", id)
	return Response{}
}
