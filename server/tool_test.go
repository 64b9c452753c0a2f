package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/promptforge/promptmcp/protocol"
)

func TestToolBuilder(t *testing.T) {
	t.Run("derives schema from input struct", func(t *testing.T) {
		srv := New(Info{Name: "s", Version: "1"})
		registerEcho(t, srv, "echo")

		tool, ok := srv.GetTool("echo")
		if !ok {
			t.Fatal("tool not registered")
		}
		s := tool.inputSchema
		if s.Type != "object" {
			t.Errorf("schema type = %q, want object", s.Type)
		}
		if s.Properties["name"] == nil || s.Properties["name"].Type != "string" {
			t.Errorf("properties = %v, want name:string", s.Properties)
		}
		if len(s.Required) != 1 || s.Required[0] != "name" {
			t.Errorf("required = %v, want [name]", s.Required)
		}
	})

	t.Run("rejects invalid handler shapes", func(t *testing.T) {
		srv := New(Info{Name: "s", Version: "1"})

		cases := map[string]any{
			"not a function":    42,
			"no params":         func() (string, error) { return "", nil },
			"wrong first param": func(int, nameInput) (string, error) { return "", nil },
			"one return":        func(nameInput) string { return "" },
			"non-error second":  func(nameInput) (string, string) { return "", "" },
		}
		for name, fn := range cases {
			if err := srv.Tool(name).Handler(fn).Err(); err == nil {
				t.Errorf("%s: expected builder error", name)
			}
		}
	})

	t.Run("context-aware handler receives context", func(t *testing.T) {
		srv := New(Info{Name: "s", Version: "1"})
		type key struct{}
		srv.Tool("ctx").Handler(func(ctx context.Context, _ nameInput) (string, error) {
			v, _ := ctx.Value(key{}).(string)
			return v, nil
		})

		tool, _ := srv.GetTool("ctx")
		ctx := context.WithValue(context.Background(), key{}, "threaded")
		result, err := tool.Execute(ctx, json.RawMessage(`{"name":"x"}`))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if result != "threaded" {
			t.Errorf("result = %v, want context value", result)
		}
	})
}

func TestTool_Execute(t *testing.T) {
	t.Run("empty arguments default to an empty object", func(t *testing.T) {
		srv := New(Info{Name: "s", Version: "1"})
		registerEcho(t, srv, "echo")
		tool, _ := srv.GetTool("echo")

		if _, err := tool.Execute(context.Background(), nil); err != nil {
			t.Errorf("Execute with nil args failed: %v", err)
		}
	})

	t.Run("malformed arguments yield invalid params", func(t *testing.T) {
		srv := New(Info{Name: "s", Version: "1"})
		registerEcho(t, srv, "echo")
		tool, _ := srv.GetTool("echo")

		_, err := tool.Execute(context.Background(), json.RawMessage(`{"name":`))
		var mcpErr *protocol.Error
		if !errors.As(err, &mcpErr) || mcpErr.Code != protocol.CodeInvalidParams {
			t.Errorf("error = %v, want invalid params", err)
		}
	})

	t.Run("validation rejects missing required field", func(t *testing.T) {
		srv := New(Info{Name: "s", Version: "1"})
		srv.Tool("strict").
			ValidateInput().
			Handler(func(in nameInput) (string, error) { return in.Name, nil })
		tool, _ := srv.GetTool("strict")

		_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
		var mcpErr *protocol.Error
		if !errors.As(err, &mcpErr) || mcpErr.Code != protocol.CodeInvalidParams {
			t.Errorf("error = %v, want invalid params for missing field", err)
		}
	})
}
