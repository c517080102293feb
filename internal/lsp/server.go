package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/nix-community/nixd-sub000/internal/metrics"
	"github.com/nix-community/nixd-sub000/internal/provider"
	"github.com/nix-community/nixd-sub000/internal/tu"
)

// queryMethods dispatch off the sequential read loop onto the bounded
// worker pool: they only read a translation unit, never mutate server
// state, so running several concurrently is safe. Every other method
// (lifecycle notifications, didOpen/didChange/didClose) runs inline, in
// read-loop order, matching the teacher's fully-sequential model — only
// the read-only query surface gets the concurrency redesign.
var queryMethods = map[string]bool{
	"textDocument/hover":             true,
	"textDocument/definition":        true,
	"textDocument/references":        true,
	"textDocument/documentHighlight": true,
	"textDocument/documentSymbol":    true,
	"textDocument/foldingRange":      true,
	"textDocument/selectionRange":    true,
	"textDocument/completion":        true,
	"textDocument/inlayHint":         true,
	"textDocument/codeAction":        true,
	"textDocument/prepareRename":     true,
	"textDocument/rename":            true,
}

// Server is the nixd-sub000 LSP server: one translation-unit manager, a
// pluggable package-metadata provider, and a bounded pool for read-only
// query handlers.
type Server struct {
	Units    *tu.Manager
	Provider provider.Provider
	Metrics  *metrics.Metrics
	Suppress *tu.Suppressor
	log      *slog.Logger
	pool     *pool
	out      io.Writer

	mu            sync.Mutex
	shutdown      bool
	exitRequested bool

	writeMu sync.Mutex
	wg      sync.WaitGroup

	reqMu            sync.Mutex
	requestCancels   map[string]context.CancelFunc
	pendingCancelled map[string]struct{}
}

// Config configures a new Server.
type Config struct {
	Provider     provider.Provider
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	PoolCapacity int
}

// NewServer creates a server ready to run.
func NewServer(cfg Config) *Server {
	if cfg.Provider == nil {
		cfg.Provider = provider.NullProvider{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		Units:            tu.NewManager(),
		Provider:         cfg.Provider,
		Metrics:          cfg.Metrics,
		log:              cfg.Logger,
		pool:             newPool(cfg.PoolCapacity, cfg.Logger),
		requestCancels:   make(map[string]context.CancelFunc),
		pendingCancelled: make(map[string]struct{}),
	}
}

// Run serves JSON-RPC/LSP messages over in/out using Content-Length framing.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if s == nil {
		return errors.New("nil Server")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	br := bufio.NewReader(in)
	s.out = out

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := readFramedMessage(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.wg.Wait()
				return nil
			}
			s.writeErrorResponse(nil, jsonRPCParseError, err.Error())
			continue
		}
		if len(body) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeErrorResponse(nil, jsonRPCParseError, err.Error())
			continue
		}
		if req.JSONRPC != "" && req.JSONRPC != JSONRPCVersion {
			s.writeErrorResponse(req.ID, jsonRPCInvalidRequest, "unsupported jsonrpc version")
			continue
		}
		if req.Method == "" {
			continue // ignore client responses / unknown envelopes
		}

		if err := s.dispatch(ctx, req); err != nil {
			if errors.Is(err, ErrShutdownRequested) {
				s.wg.Wait()
				return nil
			}
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) error {
	isRequest := len(req.ID) != 0

	if queryMethods[req.Method] && isRequest {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			reqCtx, cancel := s.beginRequestContext(ctx, req.ID)
			defer cancel()
			defer s.endRequestContext(req.ID)
			err := s.pool.run(reqCtx, func(ctx context.Context) error {
				return s.dispatchQuery(ctx, req)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				s.writeErrorResponse(req.ID, jsonRPCCodeFor(err), err.Error())
			}
		}()
		return nil
	}

	var cancel context.CancelFunc
	if isRequest {
		ctx, cancel = s.beginRequestContext(ctx, req.ID)
		defer cancel()
		defer s.endRequestContext(req.ID)
	}
	return s.dispatchControl(ctx, req)
}

func (s *Server) writeResponse(resp Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writeFramedMessage(s.out, body)
}

func (s *Server) writeErrorResponse(id json.RawMessage, code int, msg string) error {
	if len(id) == 0 {
		return nil
	}
	return s.writeResponse(Response{JSONRPC: JSONRPCVersion, ID: id, Error: &ResponseError{Code: code, Message: msg}})
}

func (s *Server) writeNotification(method string, params any) error {
	body, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: JSONRPCVersion, Method: method, Params: params})
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writeFramedMessage(s.out, body)
}

// cancelRequest records or triggers cancellation for a request id.
func (s *Server) cancelRequest(p CancelParams) {
	key := requestIDKey(p.ID)
	if key == "" {
		return
	}
	s.reqMu.Lock()
	cancel := s.requestCancels[key]
	if cancel != nil {
		delete(s.requestCancels, key)
	}
	s.pendingCancelled[key] = struct{}{}
	s.reqMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Server) beginRequestContext(parent context.Context, id json.RawMessage) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	key := requestIDKey(id)
	if key == "" {
		return context.WithCancel(parent)
	}
	ctx, cancel := context.WithCancel(parent)
	s.reqMu.Lock()
	s.requestCancels[key] = cancel
	if _, ok := s.pendingCancelled[key]; ok {
		delete(s.pendingCancelled, key)
		cancel()
	}
	s.reqMu.Unlock()
	return ctx, cancel
}

func (s *Server) endRequestContext(id json.RawMessage) {
	key := requestIDKey(id)
	if key == "" {
		return
	}
	s.reqMu.Lock()
	delete(s.requestCancels, key)
	delete(s.pendingCancelled, key)
	s.reqMu.Unlock()
}

func requestIDKey(id json.RawMessage) string {
	if len(id) == 0 {
		return ""
	}
	return string(id)
}

func readFramedMessage(r *bufio.Reader) ([]byte, error) {
	contentLen := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
			contentLen = n
		}
	}
	if contentLen < 0 {
		return nil, errors.New("missing Content-Length")
	}
	body := make([]byte, contentLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeFramedMessage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
