package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/promptforge/promptmcp/config"
	"github.com/promptforge/promptmcp/middleware"
	"github.com/promptforge/promptmcp/protocol"
)

type echoInput struct {
	Name string `json:"name" jsonschema:"required"`
}

func newEchoServer() *Server {
	srv := NewServer(ServerInfo{Name: "echo-server", Version: "1.0.0"})
	srv.Tool("echo").
		Description("Echo the name back").
		Handler(func(in echoInput) (string, error) {
			return in.Name, nil
		})
	return srv
}

func send(t *testing.T, h interface {
	HandleRequest(context.Context, *protocol.Request) (*protocol.Response, error)
}, method string, params any) (*protocol.Response, error) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		raw = data
	}
	return h.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  raw,
	})
}

func TestNewRequestHandler(t *testing.T) {
	t.Run("bare handler dispatches requests", func(t *testing.T) {
		h := newRequestHandler(newEchoServer())

		resp, err := send(t, h, protocol.MethodToolsCall, map[string]any{
			"name":      "echo",
			"arguments": map[string]any{"name": "hi"},
		})
		if err != nil {
			t.Fatalf("tools/call failed: %v", err)
		}
		if resp.Result == nil {
			t.Fatal("expected a result")
		}
	})

	t.Run("middleware wraps the dispatcher", func(t *testing.T) {
		var sawID string
		capture := func(next middleware.HandlerFunc) middleware.HandlerFunc {
			return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
				sawID = middleware.RequestIDFromContext(ctx)
				return next(ctx, req)
			}
		}

		h := newRequestHandler(newEchoServer(),
			WithMiddleware(RequestID(), capture))

		if _, err := send(t, h, protocol.MethodPing, nil); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
		if sawID == "" {
			t.Error("request id middleware did not run")
		}
	})

	t.Run("logger installs the default stack", func(t *testing.T) {
		// Recover from the default stack turns panics into errors.
		srv := NewServer(ServerInfo{Name: "s", Version: "1"})
		srv.Tool("boom").Handler(func(echoInput) (string, error) {
			panic("unreachable tool state")
		})
		h := newRequestHandler(srv, WithLogger(middleware.NopLogger{}))

		_, err := send(t, h, protocol.MethodToolsCall, map[string]any{
			"name":      "boom",
			"arguments": map[string]any{"name": "x"},
		})
		if err == nil || !strings.Contains(err.Error(), "panic") {
			t.Errorf("error = %v, want recovered panic", err)
		}
	})
}

func TestStreamableHandlerVersion(t *testing.T) {
	h := newStreamableHandler(newEchoServer())

	resp, err := send(t, h, protocol.MethodInitialize, nil)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	result := resp.Result.(map[string]any)
	if result["protocolVersion"] != protocol.StreamableVersion {
		t.Errorf("protocolVersion = %v, want %q", result["protocolVersion"], protocol.StreamableVersion)
	}
}

func TestServe_RejectsInvalidConfig(t *testing.T) {
	cfg := &config.Config{Transport: "carrier-pigeon", Storage: "memory"}
	err := Serve(context.Background(), cfg, newEchoServer())
	if err == nil || !strings.Contains(err.Error(), "unsupported transport") {
		t.Errorf("error = %v, want unsupported transport", err)
	}
}
