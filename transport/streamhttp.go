package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/promptforge/promptmcp/protocol"
)

// StreamableHTTP implements the streamable HTTP transport binding:
// clients post JSON-RPC requests to POST /mcp and the response body is
// flushed as soon as it is produced, so a single connection can carry a
// request/response exchange without buffering at the server.
//
// When an OAuthIssuer is attached, /oauth/authorize and /oauth/token are
// mounted and POST /mcp requires a bearer token issued by it.
type StreamableHTTP struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	oauth        *OAuthIssuer
	shutdown     *ShutdownManager

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
}

// StreamableHTTPOption configures a StreamableHTTP transport.
type StreamableHTTPOption func(*StreamableHTTP)

// WithStreamableReadTimeout sets the read timeout for HTTP requests.
func WithStreamableReadTimeout(d time.Duration) StreamableHTTPOption {
	return func(s *StreamableHTTP) {
		s.readTimeout = d
	}
}

// WithStreamableWriteTimeout sets the write timeout for HTTP responses.
func WithStreamableWriteTimeout(d time.Duration) StreamableHTTPOption {
	return func(s *StreamableHTTP) {
		s.writeTimeout = d
	}
}

// WithOAuth attaches a token issuer and turns on bearer enforcement.
func WithOAuth(issuer *OAuthIssuer) StreamableHTTPOption {
	return func(s *StreamableHTTP) {
		s.oauth = issuer
	}
}

// WithStreamableShutdown sets the graceful shutdown manager.
func WithStreamableShutdown(sm *ShutdownManager) StreamableHTTPOption {
	return func(s *StreamableHTTP) {
		s.shutdown = sm
	}
}

// NewStreamableHTTP creates a new streamable HTTP transport listening on addr.
func NewStreamableHTTP(addr string, opts ...StreamableHTTPOption) *StreamableHTTP {
	s := &StreamableHTTP{
		addr:         addr,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the configured address.
func (s *StreamableHTTP) Addr() string {
	return s.addr
}

// ListenAddr returns the actual address the server is listening on.
func (s *StreamableHTTP) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listenAddr
}

// Serve starts the HTTP server and handles requests until ctx is canceled.
func (s *StreamableHTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listenAddr = listener.Addr().String()
	s.server = &http.Server{
		Handler:      s.routes(handler),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		if s.shutdown != nil {
			_ = s.shutdown.Shutdown(context.Background())
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// routes builds the HTTP mux for the streamable binding.
func (s *StreamableHTTP) routes(handler Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		status := "ok"
		code := http.StatusOK
		if s.shutdown != nil && s.shutdown.IsDraining() {
			status = "draining"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleMCP(w, r, handler)
	})

	if s.oauth != nil {
		mux.HandleFunc("/oauth/authorize", s.oauth.HandleAuthorize)
		mux.HandleFunc("/oauth/token", s.oauth.HandleToken)
	}

	return mux
}

// handleMCP dispatches one JSON-RPC request and flushes the response.
func (s *StreamableHTTP) handleMCP(w http.ResponseWriter, r *http.Request, handler Handler) {
	if s.shutdown != nil {
		if !s.shutdown.TrackRequest() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		defer s.shutdown.CompleteRequest()
	}

	w.Header().Set("Content-Type", "application/json")

	if s.oauth != nil {
		if err := s.authorize(r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(protocol.NewErrorResponse(nil, err))
			return
		}
	}

	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp := protocol.NewErrorResponse(nil, protocol.NewParseError("Invalid JSON"))
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	ctx := protocol.ContextWithRequestMeta(r.Context(), headerMeta(r))

	resp, err := handler.HandleRequest(ctx, &req)

	if req.IsNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if err != nil {
		resp = errorResponse(&req, err)
	}

	if resp != nil {
		_ = json.NewEncoder(w).Encode(resp)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// authorize checks the bearer token against the attached issuer.
func (s *StreamableHTTP) authorize(r *http.Request) *protocol.Error {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return protocol.NewUnauthorized("bearer token required")
	}
	if _, err := s.oauth.Verify(token); err != nil {
		return protocol.NewUnauthorized("invalid bearer token")
	}
	return nil
}
