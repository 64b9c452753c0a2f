package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/promptforge/promptmcp/protocol"
	"github.com/promptforge/promptmcp/resilience"
)

// protocolFunc is the uniform signature every dispatch table entry has.
type protocolFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Handler dispatches protocol requests against a Server. The dispatch
// table is built once at construction.
type Handler struct {
	srv     *Server
	version string
	table   map[string]protocolFunc
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithProtocolVersion overrides the protocol version reported by
// initialize. The streamable-HTTP binding negotiates its own revision.
func WithProtocolVersion(version string) HandlerOption {
	return func(h *Handler) {
		h.version = version
	}
}

// NewHandler creates a dispatcher for the given server.
func NewHandler(srv *Server, opts ...HandlerOption) *Handler {
	h := &Handler{
		srv:     srv,
		version: protocol.Version,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.table = map[string]protocolFunc{
		protocol.MethodInitialize:    h.handleInitialize,
		protocol.MethodToolsList:     h.handleToolsList,
		protocol.MethodToolsCall:     h.handleToolsCall,
		protocol.MethodResourcesList: h.handleResourcesList,
		protocol.MethodResourcesRead: h.handleResourcesRead,
		protocol.MethodPing:          h.handlePing,
	}
	return h
}

// HandleRequest dispatches one request. Unknown methods yield a
// method-not-found error; notifications for unknown methods are
// swallowed by the transports.
func (h *Handler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	fn, ok := h.table[req.Method]
	if !ok {
		return nil, protocol.NewMethodNotFound(req.Method)
	}
	return fn(ctx, req)
}

func (h *Handler) handleInitialize(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	info := h.srv.Info()
	caps := h.srv.Capabilities()

	capabilities := make(map[string]any)
	if caps.Tools {
		capabilities["tools"] = map[string]any{}
	}
	if caps.Resources {
		capabilities["resources"] = map[string]any{}
	}

	result := map[string]any{
		"protocolVersion": h.version,
		"capabilities":    capabilities,
		"serverInfo": map[string]any{
			"name":    info.Name,
			"version": info.Version,
		},
	}
	return protocol.NewResponse(req.ID, result), nil
}

func (h *Handler) handleToolsList(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, map[string]any{
		"tools": h.srv.Tools(),
	}), nil
}

func (h *Handler) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	tool, ok := h.srv.GetTool(params.Name)
	if !ok {
		return nil, protocol.NewNotFound("tool not found: " + params.Name)
	}

	result, err := tool.Execute(ctx, params.Arguments)
	if err != nil {
		return nil, shapeHandlerError(err)
	}

	text, err := json.Marshal(result)
	if err != nil {
		return nil, protocol.NewInternalError("internal error").WithData(err.Error())
	}

	return protocol.NewResponse(req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	}), nil
}

func (h *Handler) handleResourcesList(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, map[string]any{
		"resources": h.srv.Resources(),
	}), nil
}

func (h *Handler) handleResourcesRead(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	resource, ok := h.srv.FindResourceForURI(params.URI)
	if !ok {
		return nil, protocol.NewNotFound("resource not found: " + params.URI)
	}

	content, err := resource.Read(ctx, params.URI)
	if err != nil {
		return nil, shapeHandlerError(err)
	}

	return protocol.NewResponse(req.ID, map[string]any{
		"contents": []*ResourceContent{content},
	}), nil
}

func (h *Handler) handlePing(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, map[string]any{}), nil
}

// shapeHandlerError converts a failed handler execution into a wire
// error. Protocol errors pass through; everything else becomes an
// internal error whose data carries the normalized original failure.
func shapeHandlerError(err error) error {
	var mcpErr *protocol.Error
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	return protocol.NewInternalError("internal error").WithData(resilience.FormatError(err))
}
