package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/promptforge/promptmcp/protocol"
	"github.com/promptforge/promptmcp/server"
)

type greetInput struct {
	Name string `json:"name" jsonschema:"required"`
}

func newGreeter(t *testing.T) *server.Server {
	t.Helper()
	srv := server.New(server.Info{Name: "greeter", Version: "1.0.0"})
	srv.Tool("greet").
		Description("Say hello").
		Handler(func(in greetInput) (string, error) {
			return "Hello, " + in.Name, nil
		})
	srv.Resource("greeting://static").
		Name("Static greeting").
		MimeType("text/plain").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*server.ResourceContent, error) {
			return &server.ResourceContent{URI: uri, MimeType: "text/plain", Text: "hello"}, nil
		})
	return srv
}

func TestTestClient(t *testing.T) {
	tc := NewTestClient(t, newGreeter(t))

	t.Run("lists registered tools", func(t *testing.T) {
		tools, err := tc.ListTools()
		if err != nil {
			t.Fatalf("ListTools failed: %v", err)
		}
		if len(tools) != 1 || tools[0]["name"] != "greet" {
			t.Errorf("tools = %v, want [greet]", tools)
		}
		tc.AssertToolExists("greet")
	})

	t.Run("calls a tool and returns its text", func(t *testing.T) {
		text, err := tc.CallTool("greet", map[string]any{"name": "World"})
		if err != nil {
			t.Fatalf("CallTool failed: %v", err)
		}
		// The wire form is the JSON serialization of the handler result.
		if !strings.Contains(text, "Hello, World") {
			t.Errorf("text = %q, want greeting", text)
		}
	})

	t.Run("surfaces protocol errors", func(t *testing.T) {
		_, err := tc.CallTool("missing", nil)
		mcpErr, ok := err.(*protocol.Error)
		if !ok || mcpErr.Code != protocol.CodeNotFound {
			t.Errorf("error = %v, want not found", err)
		}
	})

	t.Run("reads resources", func(t *testing.T) {
		tc.AssertResourceExists("greeting://static")
		text, err := tc.ReadResource("greeting://static")
		if err != nil {
			t.Fatalf("ReadResource failed: %v", err)
		}
		if text != "hello" {
			t.Errorf("text = %q, want hello", text)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := tc.Ping(); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
