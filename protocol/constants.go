package protocol

// Protocol versions. The stdio and SSE bindings report Version; the
// streamable-HTTP binding negotiates its own revision independently.
const (
	Version           = "2024-11-05"
	StreamableVersion = "2025-03-26"
)

// MCP request methods.
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "notifications/initialized"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPing          = "ping"
)

// MCP notification methods.
const (
	MethodProgress = "notifications/progress"
	MethodMessage  = "notifications/message"
)
