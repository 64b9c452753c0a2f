package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptforge/promptmcp/protocol"
)

// SSE implements the HTTP+SSE transport binding: clients establish a
// long-lived event stream with GET /mcp and post requests to
// POST /messages. Responses are returned synchronously on the POST;
// server-initiated notifications are broadcast on the streams.
type SSE struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	shutdown     *ShutdownManager

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server

	// Streams in connection order. Broadcasts walk the slice so every
	// client observes notifications in the same order it connected.
	clientsMu   sync.RWMutex
	clients     []*sseClient
	clientIndex map[string]*sseClient
}

// sseClient is one connected event stream.
type sseClient struct {
	id string
	ch chan []byte
}

// SSEOption configures an SSE transport.
type SSEOption func(*SSE)

// WithSSEReadTimeout sets the read timeout for HTTP requests.
func WithSSEReadTimeout(d time.Duration) SSEOption {
	return func(s *SSE) {
		s.readTimeout = d
	}
}

// WithSSEWriteTimeout sets the write timeout for HTTP responses. It must
// exceed the longest intended stream lifetime; zero disables it.
func WithSSEWriteTimeout(d time.Duration) SSEOption {
	return func(s *SSE) {
		s.writeTimeout = d
	}
}

// WithSSEShutdown sets the graceful shutdown manager.
func WithSSEShutdown(sm *ShutdownManager) SSEOption {
	return func(s *SSE) {
		s.shutdown = sm
	}
}

// NewSSE creates a new SSE transport listening on addr.
func NewSSE(addr string, opts ...SSEOption) *SSE {
	s := &SSE{
		addr:        addr,
		readTimeout: 30 * time.Second,
		clientIndex: make(map[string]*sseClient),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the configured address.
func (s *SSE) Addr() string {
	return s.addr
}

// ListenAddr returns the actual address the server is listening on.
func (s *SSE) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listenAddr
}

// Clients returns the IDs of connected streams in connection order.
func (s *SSE) Clients() []string {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	ids := make([]string, len(s.clients))
	for i, c := range s.clients {
		ids[i] = c.id
	}
	return ids
}

// Serve starts the HTTP server and handles requests until ctx is canceled.
func (s *SSE) Serve(ctx context.Context, handler Handler) error {
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

// routes builds the HTTP mux for the SSE binding.
func (s *SSE) routes(handler Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleStream(w, r)
	})

	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleMessage(w, r, handler)
	})

	return mux
}

func (s *SSE) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.shutdown != nil && s.shutdown.IsDraining() {
		status = "draining"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// handleStream registers an event stream and forwards broadcast frames
// to it until the client disconnects.
func (s *SSE) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := &sseClient{
		id: uuid.NewString(),
		ch: make(chan []byte, 16),
	}
	s.addClient(client)
	defer s.removeClient(client)

	fmt.Fprintf(w, "event: connected\ndata: {\"clientId\":%q}\n\n", client.id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-client.ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// handleMessage dispatches one JSON-RPC request and answers on the POST.
func (s *SSE) handleMessage(w http.ResponseWriter, r *http.Request, handler Handler) {
	if s.shutdown != nil {
		if !s.shutdown.TrackRequest() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		defer s.shutdown.CompleteRequest()
	}

	w.Header().Set("Content-Type", "application/json")

	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp := protocol.NewErrorResponse(nil, protocol.NewParseError("Invalid JSON"))
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	ctx := ContextWithNotificationSender(r.Context(), s)
	ctx = protocol.ContextWithRequestMeta(ctx, headerMeta(r))

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
	}
}

// SendNotification broadcasts a notification to every connected stream.
func (s *SSE) SendNotification(method string, params any) error {
	data, err := marshalNotification(method, params)
	if err != nil {
		return err
	}
	s.Broadcast(data)
	return nil
}

// Broadcast sends a raw frame to all connected streams in connection
// order. Slow clients with a full buffer are skipped.
func (s *SSE) Broadcast(data []byte) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.ch <- data:
		default:
		}
	}
}

// SendTo sends a raw frame to one stream. It reports whether the frame
// was accepted.
func (s *SSE) SendTo(clientID string, data []byte) bool {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	c, ok := s.clientIndex[clientID]
	if !ok {
		return false
	}
	select {
	case c.ch <- data:
		return true
	default:
		return false
	}
}

func (s *SSE) addClient(c *sseClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	s.clients = append(s.clients, c)
	s.clientIndex[c.id] = c
}

func (s *SSE) removeClient(c *sseClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	delete(s.clientIndex, c.id)
	for i, have := range s.clients {
		if have == c {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			break
		}
	}
	close(c.ch)
}

// headerMeta snapshots request headers as protocol metadata for
// middleware such as authentication.
func headerMeta(r *http.Request) protocol.RequestMeta {
	meta := make(protocol.RequestMeta, len(r.Header))
	for k := range r.Header {
		meta[k] = r.Header.Get(k)
	}
	return meta
}
