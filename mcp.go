// Package mcp provides a framework for building MCP (Model Context Protocol)
// servers around prompt-engineering tooling.
//
// It wires together typed tool handlers with automatic JSON Schema
// generation, middleware chains, and pluggable transports (stdio,
// HTTP+SSE, streamable HTTP, WebSocket).
//
// Basic usage:
//
//	srv := mcp.NewServer(mcp.ServerInfo{
//	    Name:    "my-server",
//	    Version: "1.0.0",
//	})
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required"`
//	}
//
//	srv.Tool("search").
//	    Description("Search for items").
//	    Handler(func(ctx context.Context, input SearchInput) ([]string, error) {
//	        return []string{"result1", "result2"}, nil
//	    })
//
//	mcp.ServeStdio(ctx, srv)
//
// A configured deployment hands the transport choice to Serve:
//
//	cfg, _ := config.Load()
//	mcp.Serve(ctx, cfg, srv)
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/promptforge/promptmcp/config"
	"github.com/promptforge/promptmcp/middleware"
	"github.com/promptforge/promptmcp/protocol"
	"github.com/promptforge/promptmcp/server"
	"github.com/promptforge/promptmcp/transport"
)

// Re-export core types for convenience.

// ServerInfo contains server metadata exposed to clients.
type ServerInfo = server.Info

// Capabilities declares what features the server supports.
type Capabilities = server.Capabilities

// Server is the MCP server instance.
type Server = server.Server

// Resource types.
type ResourceContent = server.ResourceContent
type ResourceInfo = server.ResourceInfo

// ToolInfo is the catalog entry reported by tools/list.
type ToolInfo = server.ToolInfo

// Middleware types.
type Middleware = middleware.Middleware
type MiddlewareHandlerFunc = middleware.HandlerFunc
type Logger = middleware.Logger
type LogField = middleware.Field

// RateLimit re-exports for convenience.
var (
	RateLimit            = middleware.RateLimit
	RateLimitByMethod    = middleware.RateLimitByMethod
	RateLimitByClient    = middleware.RateLimitByClient
	WithRateLimitKeyFunc = middleware.WithRateLimitKeyFunc
	WithRateLimitLogger  = middleware.WithRateLimitLogger
)

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware  []Middleware
	logger      Logger
	handlerOpts []server.HandlerOption
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger installs the default middleware stack (recover, request ID,
// logging) using the given logger, ahead of any custom middleware.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// WithProtocolVersion overrides the protocol version reported by
// initialize.
func WithProtocolVersion(version string) ServeOption {
	return func(o *serveOptions) {
		o.handlerOpts = append(o.handlerOpts, server.WithProtocolVersion(version))
	}
}

// NewServer creates a new MCP server with the given info.
func NewServer(info ServerInfo) *Server {
	return server.New(info)
}

// Serve runs the server on the transport named by the configuration.
// OAuth and API-key authentication are wired according to cfg.Auth.
// This blocks until the context is canceled or an error occurs.
func Serve(ctx context.Context, cfg *config.Config, srv *Server, opts ...ServeOption) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Auth.Type == config.AuthAPIKey {
		validator := middleware.StaticAPIKeys(map[string]*middleware.Identity{
			cfg.Auth.APIKey: {ID: cfg.Auth.ClientID, Name: "api-key client"},
		})
		opts = append(opts, WithMiddleware(
			middleware.Auth(middleware.APIKeyAuthenticator("X-Api-Key", validator)),
		))
	}

	switch cfg.Transport {
	case config.TransportStdio:
		return ServeStdio(ctx, srv, opts...)
	case config.TransportSSE:
		return ServeSSE(ctx, srv, cfg.Addr(), opts...)
	case config.TransportStreamableHTTP:
		if cfg.Auth.Type == config.AuthOAuth {
			issuer, err := transport.NewOAuthIssuer()
			if err != nil {
				return err
			}
			return ServeStreamableHTTPWithOAuth(ctx, srv, cfg.Addr(), issuer, opts...)
		}
		return ServeStreamableHTTP(ctx, srv, cfg.Addr(), opts...)
	}

	// Validate already rejected everything else.
	return fmt.Errorf("unsupported transport %q", cfg.Transport)
}

// ServeStdio runs the server using stdio transport.
// This blocks until the context is canceled or stdin reaches EOF.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	t := transport.NewStdio()
	return t.Serve(ctx, newRequestHandler(srv, opts...))
}

// ServeSSE runs the server using the HTTP+SSE transport.
// This blocks until the context is canceled or an error occurs.
func ServeSSE(ctx context.Context, srv *Server, addr string, opts ...ServeOption) error {
	t := transport.NewSSE(addr)
	return t.Serve(ctx, newRequestHandler(srv, opts...))
}

// ServeStreamableHTTP runs the server using the streamable HTTP
// transport, which negotiates the newer protocol revision.
func ServeStreamableHTTP(ctx context.Context, srv *Server, addr string, opts ...ServeOption) error {
	t := transport.NewStreamableHTTP(addr)
	return t.Serve(ctx, newStreamableHandler(srv, opts...))
}

// ServeStreamableHTTPWithOAuth runs the streamable HTTP transport with
// bearer enforcement against the given issuer.
func ServeStreamableHTTPWithOAuth(ctx context.Context, srv *Server, addr string, issuer *transport.OAuthIssuer, opts ...ServeOption) error {
	t := transport.NewStreamableHTTP(addr, transport.WithOAuth(issuer))
	return t.Serve(ctx, newStreamableHandler(srv, opts...))
}

// ServeWebSocket runs the server using WebSocket transport.
// This blocks until the context is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, opts ...ServeOption) error {
	t := transport.NewWebSocket(addr)
	return t.Serve(ctx, newRequestHandler(srv, opts...))
}

// Middleware re-exports.

// Chain composes multiple middleware into a single middleware.
func Chain(middlewares ...Middleware) Middleware {
	return middleware.Chain(middlewares...)
}

// Recover returns middleware that catches panics and converts them to internal errors.
func Recover() Middleware {
	return middleware.Recover()
}

// Timeout returns middleware that enforces a request deadline.
func Timeout(d time.Duration) Middleware {
	return middleware.Timeout(d)
}

// RequestID returns middleware that injects a unique request ID into the context.
func RequestID() Middleware {
	return middleware.RequestID()
}

// RequestIDFromContext returns the request ID from the context, or empty string if not set.
func RequestIDFromContext(ctx context.Context) string {
	return middleware.RequestIDFromContext(ctx)
}

// Logging returns middleware that logs request details.
func Logging(logger Logger) Middleware {
	return middleware.Logging(logger)
}

// DefaultMiddleware returns the recommended production middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// DefaultMiddlewareWithTimeout returns the default stack with a timeout middleware.
func DefaultMiddlewareWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStackWithTimeout(logger, timeout)
}

// LogF creates a new log field with the given key and value.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}

// newStreamableHandler builds a request handler that reports the
// streamable protocol revision.
func newStreamableHandler(srv *Server, opts ...ServeOption) transport.Handler {
	opts = append([]ServeOption{WithProtocolVersion(protocol.StreamableVersion)}, opts...)
	return newRequestHandler(srv, opts...)
}

// newRequestHandler builds the dispatcher and wraps it in the configured
// middleware chain.
func newRequestHandler(srv *Server, opts ...ServeOption) transport.Handler {
	options := &serveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	dispatcher := server.NewHandler(srv, options.handlerOpts...)

	stack := options.middleware
	if options.logger != nil {
		stack = append(middleware.DefaultStack(options.logger), stack...)
	}
	if len(stack) == 0 {
		return dispatcher
	}

	handler := middleware.Chain(stack...)(dispatcher.HandleRequest)
	return transport.HandlerFunc(handler)
}
