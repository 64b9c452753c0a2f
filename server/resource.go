package server

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ResourceContent is the payload returned by a resource read.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ResourceHandler produces the content for a resource URI. params holds
// the values captured from the URI template.
type ResourceHandler func(ctx context.Context, uri string, params map[string]string) (*ResourceContent, error)

// Resource is a URI-addressed readable item. Immutable once registered.
type Resource struct {
	uriTemplate string
	name        string
	description string
	mimeType    string
	handler     ResourceHandler

	uriRegex   *regexp.Regexp
	paramNames []string
}

// ResourceBuilder provides a fluent API for registering resources.
type ResourceBuilder struct {
	resource *Resource
	server   *Server
	err      error
}

// Name sets a human-readable name for the resource.
func (b *ResourceBuilder) Name(name string) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	b.resource.name = name
	return b
}

// Description sets the resource description.
func (b *ResourceBuilder) Description(desc string) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	b.resource.description = desc
	return b
}

// MimeType sets the MIME type of the resource content.
func (b *ResourceBuilder) MimeType(mimeType string) *ResourceBuilder {
	if b.err != nil {
		return b
	}
	b.resource.mimeType = mimeType
	return b
}

// Handler sets the resource handler and registers the resource.
func (b *ResourceBuilder) Handler(fn ResourceHandler) *ResourceBuilder {
	if b.err != nil {
		return b
	}

	b.resource.handler = fn
	if err := b.resource.compileTemplate(); err != nil {
		b.err = err
		return b
	}
	b.server.registerResource(b.resource)
	return b
}

// Err returns the first error encountered while building, if any.
func (b *ResourceBuilder) Err() error {
	return b.err
}

var templateParamRegex = regexp.MustCompile(`\{([^}]+)\}`)

// compileTemplate converts the URI template into a matching regex,
// capturing {param} segments.
func (r *Resource) compileTemplate() error {
	matches := templateParamRegex.FindAllStringSubmatch(r.uriTemplate, -1)
	r.paramNames = make([]string, 0, len(matches))
	for _, m := range matches {
		r.paramNames = append(r.paramNames, m[1])
	}

	pattern := regexp.QuoteMeta(r.uriTemplate)
	pattern = strings.ReplaceAll(pattern, `\{`, "{")
	pattern = strings.ReplaceAll(pattern, `\}`, "}")
	pattern = templateParamRegex.ReplaceAllString(pattern, `([^/]+)`)

	var err error
	r.uriRegex, err = regexp.Compile("^" + pattern + "$")
	return err
}

// match matches a URI against the compiled template, extracting params.
func (r *Resource) match(uri string) (map[string]string, bool) {
	if r.uriRegex == nil {
		return nil, r.uriTemplate == uri
	}
	groups := r.uriRegex.FindStringSubmatch(uri)
	if groups == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.paramNames))
	for i, name := range r.paramNames {
		if i+1 < len(groups) {
			params[name] = groups[i+1]
		}
	}
	return params, true
}

// Read executes the resource handler for the given URI.
func (r *Resource) Read(ctx context.Context, uri string) (*ResourceContent, error) {
	params, ok := r.match(uri)
	if !ok {
		return nil, fmt.Errorf("URI %q does not match template %q", uri, r.uriTemplate)
	}
	return r.handler(ctx, uri, params)
}
