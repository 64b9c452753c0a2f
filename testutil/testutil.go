// Package testutil provides testing utilities for MCP servers.
//
// The TestClient drives a server through the same dispatcher the real
// transports use, without any I/O:
//
//	func TestMyServer(t *testing.T) {
//	    srv := server.New(server.Info{Name: "test", Version: "1.0.0"})
//	    srv.Tool("greet").Handler(func(in GreetInput) (string, error) {
//	        return "Hello, " + in.Name, nil
//	    })
//
//	    tc := testutil.NewTestClient(t, srv)
//	    text, err := tc.CallTool("greet", map[string]any{"name": "World"})
//	    ...
//	}
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/promptforge/promptmcp/protocol"
	"github.com/promptforge/promptmcp/server"
	"github.com/promptforge/promptmcp/transport"
)

// TestClient is an in-memory client for exercising MCP servers in tests.
type TestClient struct {
	t       testing.TB
	handler transport.Handler

	mu    sync.Mutex
	reqID int64
}

// NewTestClient creates a test client for the given server and performs
// the initialize handshake.
func NewTestClient(t testing.TB, srv *server.Server, opts ...server.HandlerOption) *TestClient {
	t.Helper()

	tc := &TestClient{
		t:       t,
		handler: server.NewHandler(srv, opts...),
	}

	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}

	return tc
}

// NewTestClientWithHandler creates a test client around a custom handler.
// This is useful for testing middleware stacks.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: handler,
	}
}

// nextID returns the next request ID.
func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

// SendRequest sends a raw request and returns the response.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsData = data
	}

	return tc.handler.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      tc.nextID(),
		Method:  method,
		Params:  paramsData,
	})
}

// result dispatches a request and normalizes the result to the map form
// it would take on the wire.
func (tc *TestClient) result(method string, params any) (map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(method, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	// The dispatcher returns typed values; round-trip through JSON so
	// assertions see the same shape a remote client would.
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unexpected result shape: %w", err)
	}
	return result, nil
}

// Initialize sends an initialize request to the server.
func (tc *TestClient) Initialize() (map[string]any, error) {
	tc.t.Helper()

	return tc.result(protocol.MethodInitialize, map[string]any{
		"protocolVersion": protocol.Version,
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "1.0.0",
		},
	})
}

// ListTools lists all available tools.
func (tc *TestClient) ListTools() ([]map[string]any, error) {
	tc.t.Helper()

	result, err := tc.result(protocol.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	return itemMaps(result, "tools")
}

// CallTool calls a tool with the given arguments and returns the text of
// the first content item.
func (tc *TestClient) CallTool(name string, args any) (string, error) {
	tc.t.Helper()

	result, err := tc.result(protocol.MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return "", err
	}

	content, err := itemMaps(result, "content")
	if err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", fmt.Errorf("empty content array")
	}
	text, _ := content[0]["text"].(string)
	return text, nil
}

// CallToolRaw calls a tool and returns the raw response.
func (tc *TestClient) CallToolRaw(name string, args any) (*protocol.Response, error) {
	tc.t.Helper()

	return tc.SendRequest(protocol.MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
}

// ListResources lists all available resources.
func (tc *TestClient) ListResources() ([]map[string]any, error) {
	tc.t.Helper()

	result, err := tc.result(protocol.MethodResourcesList, nil)
	if err != nil {
		return nil, err
	}
	return itemMaps(result, "resources")
}

// ReadResource reads a resource by URI and returns its text.
func (tc *TestClient) ReadResource(uri string) (string, error) {
	tc.t.Helper()

	result, err := tc.result(protocol.MethodResourcesRead, map[string]any{
		"uri": uri,
	})
	if err != nil {
		return "", err
	}

	contents, err := itemMaps(result, "contents")
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("empty contents array")
	}
	text, _ := contents[0]["text"].(string)
	return text, nil
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()

	_, err := tc.result(protocol.MethodPing, nil)
	return err
}

// AssertToolExists asserts that a tool with the given name exists.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()

	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("ListTools failed: %v", err)
	}

	for _, tool := range tools {
		if tool["name"] == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}

// AssertResourceExists asserts that a resource with the given URI
// template exists.
func (tc *TestClient) AssertResourceExists(uriTemplate string) {
	tc.t.Helper()

	resources, err := tc.ListResources()
	if err != nil {
		tc.t.Fatalf("ListResources failed: %v", err)
	}

	for _, res := range resources {
		if res["uri"] == uriTemplate {
			return
		}
	}
	tc.t.Errorf("resource %q not found", uriTemplate)
}

// itemMaps extracts a list-of-objects field from a normalized result.
func itemMaps(result map[string]any, key string) ([]map[string]any, error) {
	raw, ok := result[key].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected %s type: %T", key, result[key])
	}
	items := make([]map[string]any, len(raw))
	for i, item := range raw {
		items[i], _ = item.(map[string]any)
	}
	return items, nil
}
