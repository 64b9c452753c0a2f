// Package transport provides the MCP transport bindings.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/promptforge/promptmcp/protocol"
)

// Handler processes incoming MCP requests.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// NotificationSender can send JSON-RPC notifications to clients.
type NotificationSender interface {
	SendNotification(method string, params any) error
}

// notificationSenderKey is the context key for the notification sender.
type notificationSenderKey struct{}

// ContextWithNotificationSender returns a context with the notification sender attached.
func ContextWithNotificationSender(ctx context.Context, sender NotificationSender) context.Context {
	return context.WithValue(ctx, notificationSenderKey{}, sender)
}

// NotificationSenderFromContext returns the notification sender from context, or nil if none.
func NotificationSenderFromContext(ctx context.Context) NotificationSender {
	sender, _ := ctx.Value(notificationSenderKey{}).(NotificationSender)
	return sender
}

// marshalNotification encodes a server-initiated notification envelope.
func marshalNotification(method string, params any) ([]byte, error) {
	paramsData, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.Notification{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  method,
		Params:  paramsData,
	})
}

// errorResponse folds a handler failure into an error response for the
// request, preserving protocol error codes when the handler produced one.
func errorResponse(req *protocol.Request, err error) *protocol.Response {
	var mcpErr *protocol.Error
	if errors.As(err, &mcpErr) {
		return protocol.NewErrorResponse(req.ID, mcpErr)
	}
	return protocol.NewErrorResponse(req.ID, protocol.NewInternalError(err.Error()))
}
