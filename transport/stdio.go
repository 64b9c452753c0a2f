package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/promptforge/promptmcp/protocol"
)

// maxLineBytes bounds a single stdin line. Requests larger than this are
// rejected by the scanner rather than buffered indefinitely.
const maxLineBytes = 4 * 1024 * 1024

// Stdio implements MCP transport over stdin/stdout. Each request line is
// dispatched on its own goroutine, so responses may interleave out of
// request order; clients correlate replies by ID. Stdout carries only
// protocol frames, diagnostics go to stderr.
type Stdio struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	mu sync.Mutex
	wg sync.WaitGroup
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.errOut = w
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// Serve reads newline-delimited requests from stdin until EOF or ctx is
// canceled. EOF is a normal session end: in-flight requests are drained
// and Serve returns nil.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			scanErr <- err
		}
		close(lines)
	}()

	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil // EOF
			}
			s.handleLine(ctx, handler, line)
		}
	}
}

// SendNotification sends a JSON-RPC notification to the client.
func (s *Stdio) SendNotification(method string, params any) error {
	data, err := marshalNotification(method, params)
	if err != nil {
		return err
	}
	s.writeFrame(data)
	return nil
}

func (s *Stdio) handleLine(ctx context.Context, handler Handler, line string) {
	var req protocol.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		// A malformed line has no recoverable ID, so the error response
		// carries an explicit null. Written inline, before any later
		// line is dispatched.
		s.writeResponse(protocol.NewErrorResponse(nil, protocol.NewParseError(err.Error())))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatch(ctx, handler, &req)
	}()
}

func (s *Stdio) dispatch(ctx context.Context, handler Handler, req *protocol.Request) {
	ctx = ContextWithNotificationSender(ctx, s)

	resp, err := handler.HandleRequest(ctx, req)

	// Notifications expect no reply, even on failure.
	if req.IsNotification() {
		return
	}

	if err != nil {
		resp = errorResponse(req, err)
	}

	if resp != nil {
		s.writeResponse(resp)
	}
}

func (s *Stdio) writeResponse(resp *protocol.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		fmt.Fprintf(s.errOut, "stdio: dropping unencodable response: %v\n", err)
		return
	}
	s.writeFrame(data)
}

func (s *Stdio) writeFrame(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.out.Write(data)
	_, _ = s.out.Write([]byte("\n"))
}
