package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version carried by every envelope.
const JSONRPCVersion = "2.0"

// Request represents a JSON-RPC 2.0 request or notification.
//
// The ID is kept as raw JSON because the protocol allows string, number,
// or null identifiers and responses must echo the ID byte-for-byte.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this request has no ID and therefore
// expects no reply.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response represents a JSON-RPC 2.0 response. A response carries exactly
// one of Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification represents a server-initiated JSON-RPC notification.
// Notifications carry no ID and expect no reply.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewResponse creates a successful response for the given request ID.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      normalizeID(id),
		Result:  result,
	}
}

// NewErrorResponse creates an error response for the given request ID.
// Pass a nil id for parse errors, where the offending message's ID is
// unknowable; it is encoded as a literal null.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      normalizeID(id),
		Error:   err,
	}
}

// normalizeID maps an absent ID to an explicit null so the id field is
// always present on the wire.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
