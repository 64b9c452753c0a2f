package server

import (
	"sync"

	"github.com/promptforge/promptmcp/schema"
)

// Info contains server metadata exposed to clients during initialize.
type Info struct {
	Name        string
	Version     string
	Description string
}

// Capabilities declares which protocol features the server supports.
type Capabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
}

// ToolInfo is the catalog entry reported by tools/list.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema *schema.Schema `json:"inputSchema"`
}

// ResourceInfo is the catalog entry reported by resources/list.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Server holds the tool and resource catalogs. Registration happens at
// construction time; the catalogs are read-mostly afterwards and list
// order is registration order, stable across calls.
type Server struct {
	mu sync.RWMutex

	info Info

	tools     []*Tool
	toolIndex map[string]*Tool

	resources     []*Resource
	resourceIndex map[string]*Resource
}

// New creates a new server with the given info.
func New(info Info) *Server {
	return &Server{
		info:          info,
		toolIndex:     make(map[string]*Tool),
		resourceIndex: make(map[string]*Resource),
	}
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Capabilities reports support flags based on what is registered.
func (s *Server) Capabilities() Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Capabilities{
		Tools:     len(s.tools) > 0,
		Resources: len(s.resources) > 0,
	}
}

// Tool starts building a new tool with the given name.
func (s *Server) Tool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool:   &Tool{name: name},
		server: s,
	}
}

// Tools returns the tool catalog in registration order.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		result = append(result, ToolInfo{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema,
		})
	}
	return result
}

// GetTool retrieves a tool by name.
func (s *Server) GetTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.toolIndex[name]
	return t, ok
}

// registerTool adds a tool, keeping registration order. Re-registering
// a name replaces the tool in place without disturbing the order.
func (s *Server) registerTool(t *Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.toolIndex[t.name]; ok {
		for i, existing := range s.tools {
			if existing == old {
				s.tools[i] = t
				break
			}
		}
	} else {
		s.tools = append(s.tools, t)
	}
	s.toolIndex[t.name] = t
}

// Resource starts building a new resource with the given URI template.
func (s *Server) Resource(uriTemplate string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: &Resource{uriTemplate: uriTemplate},
		server:   s,
	}
}

// Resources returns the resource catalog in registration order.
func (s *Server) Resources() []ResourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ResourceInfo, 0, len(s.resources))
	for _, r := range s.resources {
		result = append(result, ResourceInfo{
			URI:         r.uriTemplate,
			Name:        r.name,
			Description: r.description,
			MimeType:    r.mimeType,
		})
	}
	return result
}

// FindResourceForURI finds the first registered resource whose template
// matches the given URI.
func (s *Server) FindResourceForURI(uri string) (*Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.resources {
		if _, ok := r.match(uri); ok {
			return r, true
		}
	}
	return nil, false
}

// registerResource adds a resource, keeping registration order.
func (s *Server) registerResource(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.resourceIndex[r.uriTemplate]; ok {
		for i, existing := range s.resources {
			if existing == old {
				s.resources[i] = r
				break
			}
		}
	} else {
		s.resources = append(s.resources, r)
	}
	s.resourceIndex[r.uriTemplate] = r
}
