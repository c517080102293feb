package lsp

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/nix-community/nixd-sub000/internal/tu"
)

const (
	jsonRPCParseError     = -32700
	jsonRPCInvalidRequest = -32600
	jsonRPCMethodNotFound = -32601
	jsonRPCInvalidParams  = -32602
	jsonRPCInternalError  = -32603

	// lspErrorContentModified indicates a stale versioned request.
	lspErrorContentModified = -32801
	// lspErrorRequestCancelled indicates cancellation.
	lspErrorRequestCancelled = -32800
)

// oops.Code values used across handlers, stable for tests and for the
// dispatcher's errors.Is-free code mapping below.
const (
	CodeDocumentNotOpen     = "DOCUMENT_NOT_OPEN"
	CodeStaleVersion        = "STALE_VERSION"
	CodePositionOutOfRange  = "POSITION_OUT_OF_RANGE"
	CodeAnalysisUnavailable = "ANALYSIS_UNAVAILABLE"
)

// ErrShutdownRequested is returned internally once the exit notification
// has been handled, unwinding Server.Run cleanly.
var ErrShutdownRequested = errors.New("lsp server exit requested")

// errDocumentNotOpen builds the stable DOCUMENT_NOT_OPEN error for uri.
func errDocumentNotOpen(uri string) error {
	return oops.Code(CodeDocumentNotOpen).With("uri", uri).Errorf("document not open: %s", uri)
}

// errStaleVersion builds the stable STALE_VERSION error.
func errStaleVersion(uri string, version int32) error {
	return oops.Code(CodeStaleVersion).With("uri", uri).With("version", version).Errorf("stale document version for %s", uri)
}

// errPositionOutOfRange builds the stable POSITION_OUT_OF_RANGE error.
func errPositionOutOfRange(uri string, pos Position) error {
	return oops.Code(CodePositionOutOfRange).With("uri", uri).With("position", pos).Errorf("position out of range in %s", uri)
}

// errAnalysisUnavailable builds the stable ANALYSIS_UNAVAILABLE error,
// raised when a handler needs a pass result a degraded parse never produced.
func errAnalysisUnavailable(uri string) error {
	return oops.Code(CodeAnalysisUnavailable).With("uri", uri).Errorf("analysis unavailable for %s", uri)
}

// wrapTUErr translates internal/tu's sentinel errors into this package's
// stable oops codes, at the one boundary where tu's plain errors cross
// into LSP-facing handler code.
func wrapTUErr(err error, uri string, version int32) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tu.ErrDocumentNotOpen):
		return errDocumentNotOpen(uri)
	case errors.Is(err, tu.ErrStaleVersion):
		return errStaleVersion(uri, version)
	default:
		return err
	}
}

// jsonRPCCodeFor maps a handler error to the JSON-RPC/LSP error code the
// response envelope carries. Stable oops codes dispatch directly; a bare
// context cancellation maps to the LSP-specific cancelled code; anything
// else is an internal error.
func jsonRPCCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return lspErrorRequestCancelled
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case CodeStaleVersion:
			return lspErrorContentModified
		case CodeDocumentNotOpen, CodePositionOutOfRange:
			return jsonRPCInvalidParams
		case CodeAnalysisUnavailable:
			return jsonRPCInternalError
		}
	}
	return jsonRPCInternalError
}
