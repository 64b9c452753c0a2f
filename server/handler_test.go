package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/promptforge/promptmcp/protocol"
	"github.com/promptforge/promptmcp/resilience"
)

func newTestHandler(t *testing.T) (*Server, *Handler) {
	t.Helper()
	srv := New(Info{Name: "test-server", Version: "2.0.0"})
	registerEcho(t, srv, "echo")
	srv.Tool("fail").
		Description("always fails").
		Handler(func(nameInput) (string, error) {
			return "", resilience.NewPromptExecution("model refused", nil)
		})
	return srv, NewHandler(srv)
}

func call(t *testing.T, h *Handler, method string, params any) (*protocol.Response, error) {
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
		ID:      json.RawMessage("1"),
		Method:  method,
		Params:  raw,
	})
}

func TestHandler_Initialize(t *testing.T) {
	_, h := newTestHandler(t)

	resp, err := call(t, h, protocol.MethodInitialize, nil)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	result := resp.Result.(map[string]any)
	if result["protocolVersion"] != protocol.Version {
		t.Errorf("protocolVersion = %v, want %q", result["protocolVersion"], protocol.Version)
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != "test-server" || info["version"] != "2.0.0" {
		t.Errorf("serverInfo = %v, want config values", info)
	}
	caps := result["capabilities"].(map[string]any)
	if _, ok := caps["tools"]; !ok {
		t.Error("expected tools capability flag")
	}
}

func TestHandler_ProtocolVersionOverride(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	h := NewHandler(srv, WithProtocolVersion(protocol.StreamableVersion))

	resp, err := call(t, h, protocol.MethodInitialize, nil)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	result := resp.Result.(map[string]any)
	if result["protocolVersion"] != protocol.StreamableVersion {
		t.Errorf("protocolVersion = %v, want the streamable revision", result["protocolVersion"])
	}
}

func TestHandler_UnknownMethod(t *testing.T) {
	_, h := newTestHandler(t)

	_, err := call(t, h, "not/a/method", nil)
	var mcpErr *protocol.Error
	if !errors.As(err, &mcpErr) {
		t.Fatalf("error = %v, want a protocol error", err)
	}
	if mcpErr.Code != protocol.CodeMethodNotFound {
		t.Errorf("code = %d, want %d", mcpErr.Code, protocol.CodeMethodNotFound)
	}
}

func TestHandler_ToolsCall(t *testing.T) {
	t.Run("wraps result as JSON text content", func(t *testing.T) {
		_, h := newTestHandler(t)
		resp, err := call(t, h, protocol.MethodToolsCall, map[string]any{
			"name":      "echo",
			"arguments": map[string]any{"name": "world"},
		})
		if err != nil {
			t.Fatalf("tools/call failed: %v", err)
		}
		result := resp.Result.(map[string]any)
		content := result["content"].([]map[string]any)
		if len(content) != 1 {
			t.Fatalf("got %d content items, want 1", len(content))
		}
		if content[0]["type"] != "text" {
			t.Errorf("content type = %v, want text", content[0]["type"])
		}
		// The handler returned the string "world"; its JSON serialization
		// is the quoted form.
		if content[0]["text"] != `"world"` {
			t.Errorf("text = %v, want JSON-serialized result", content[0]["text"])
		}
	})

	t.Run("unknown tool is an error, not a crash", func(t *testing.T) {
		_, h := newTestHandler(t)
		_, err := call(t, h, protocol.MethodToolsCall, map[string]any{
			"name": "does-not-exist",
		})
		var mcpErr *protocol.Error
		if !errors.As(err, &mcpErr) {
			t.Fatalf("error = %v, want a protocol error", err)
		}
		if mcpErr.Code != protocol.CodeNotFound {
			t.Errorf("code = %d, want %d", mcpErr.Code, protocol.CodeNotFound)
		}
	})

	t.Run("handler failure becomes internal error with details", func(t *testing.T) {
		_, h := newTestHandler(t)
		_, err := call(t, h, protocol.MethodToolsCall, map[string]any{
			"name":      "fail",
			"arguments": map[string]any{"name": "x"},
		})
		var mcpErr *protocol.Error
		if !errors.As(err, &mcpErr) {
			t.Fatalf("error = %v, want a protocol error", err)
		}
		if mcpErr.Code != protocol.CodeInternalError {
			t.Errorf("code = %d, want %d", mcpErr.Code, protocol.CodeInternalError)
		}
		formatted, ok := mcpErr.Data.(resilience.Formatted)
		if !ok {
			t.Fatalf("data = %T, want normalized error details", mcpErr.Data)
		}
		if formatted.Message != "model refused" {
			t.Errorf("details message = %q, want the original failure", formatted.Message)
		}
	})
}

func TestHandler_ResourcesRead(t *testing.T) {
	srv := New(Info{Name: "s", Version: "1"})
	srv.Resource("prompt://saved/{id}").
		Name("Saved prompt").
		Handler(func(_ context.Context, uri string, params map[string]string) (*ResourceContent, error) {
			return &ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     `{"id":"` + params["id"] + `"}`,
			}, nil
		})
	h := NewHandler(srv)

	resp, err := call(t, h, protocol.MethodResourcesRead, map[string]any{
		"uri": "prompt://saved/greeting",
	})
	if err != nil {
		t.Fatalf("resources/read failed: %v", err)
	}
	contents := resp.Result.(map[string]any)["contents"].([]*ResourceContent)
	if len(contents) != 1 || !strings.Contains(contents[0].Text, "greeting") {
		t.Errorf("contents = %+v, want the captured id", contents)
	}
}

func TestHandler_Ping(t *testing.T) {
	_, h := newTestHandler(t)
	resp, err := call(t, h, protocol.MethodPing, nil)
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if resp.Result == nil {
		t.Error("expected empty object result")
	}
}
