// Package transport provides the MCP transport bindings.
//
// This package implements the communication layer for MCP servers. Three
// bindings cover the protocol revisions in use, plus a WebSocket binding
// for bidirectional streaming deployments.
//
// # Stdio Transport
//
// The stdio transport exchanges newline-delimited JSON-RPC frames over
// stdin/stdout, suitable for local tools and editor integrations. Each
// line is dispatched concurrently, so replies may arrive out of request
// order:
//
//	t := transport.NewStdio()
//	err := t.Serve(ctx, handler)
//
// # SSE Transport
//
// The SSE transport pairs a long-lived event stream with a request
// endpoint:
//   - GET /mcp - establish the Server-Sent Events stream
//   - POST /messages - dispatch a JSON-RPC request
//   - GET /health - health check endpoint
//
// # Streamable HTTP Transport
//
// The streamable transport serves the newer single-endpoint binding:
//   - POST /mcp - dispatch a JSON-RPC request, response flushed immediately
//   - GET /health - health check endpoint
//
// With an OAuthIssuer attached it also mounts /oauth/authorize and
// /oauth/token and requires bearer tokens on /mcp:
//
//	issuer, _ := transport.NewOAuthIssuer()
//	t := transport.NewStreamableHTTP(":8080", transport.WithOAuth(issuer))
//	err := t.Serve(ctx, handler)
//
// # Handler Interface
//
// All transports expect a Handler that processes requests:
//
//	type Handler interface {
//	    HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
//	}
//
// # Usage with mcp Package
//
// Most users should use the mcp package's convenience functions:
//
//	mcp.ServeStdio(ctx, srv)
//	mcp.ServeSSE(ctx, srv, ":8080")
//	mcp.ServeStreamableHTTP(ctx, srv, ":8080")
package transport
