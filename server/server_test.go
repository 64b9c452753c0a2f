package server

import (
	"context"
	"testing"
)

type nameInput struct {
	Name string `json:"name" jsonschema:"required"`
}

func registerEcho(t *testing.T, srv *Server, name string) {
	t.Helper()
	b := srv.Tool(name).
		Description("echoes its input").
		Handler(func(in nameInput) (string, error) {
			return in.Name, nil
		})
	if err := b.Err(); err != nil {
		t.Fatalf("registering %q failed: %v", name, err)
	}
}

func TestServer_CatalogOrder(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})

	names := []string{"zeta", "alpha", "mid", "omega"}
	for _, name := range names {
		registerEcho(t, srv, name)
	}

	t.Run("tools list in registration order", func(t *testing.T) {
		tools := srv.Tools()
		if len(tools) != len(names) {
			t.Fatalf("got %d tools, want %d", len(tools), len(names))
		}
		for i, want := range names {
			if tools[i].Name != want {
				t.Errorf("tools[%d] = %q, want %q", i, tools[i].Name, want)
			}
		}
	})

	t.Run("order is stable across calls", func(t *testing.T) {
		first := srv.Tools()
		second := srv.Tools()
		for i := range first {
			if first[i].Name != second[i].Name {
				t.Fatalf("catalog order changed between calls: %v vs %v", first, second)
			}
		}
	})

	t.Run("re-registration keeps position", func(t *testing.T) {
		registerEcho(t, srv, "alpha")
		tools := srv.Tools()
		if tools[1].Name != "alpha" {
			t.Errorf("tools[1] = %q, want alpha to keep its slot", tools[1].Name)
		}
		if len(tools) != len(names) {
			t.Errorf("got %d tools after re-registration, want %d", len(tools), len(names))
		}
	})
}

func TestServer_Resources(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})

	handler := func(_ context.Context, uri string, _ map[string]string) (*ResourceContent, error) {
		return &ResourceContent{URI: uri, MimeType: "text/plain", Text: "body"}, nil
	}

	srv.Resource("prompt://templates/character").
		Name("Character template").
		MimeType("text/plain").
		Handler(handler)
	srv.Resource("prompt://saved/{id}").
		Name("Saved prompt").
		Description("A previously saved prompt chain").
		Handler(handler)

	t.Run("list in registration order", func(t *testing.T) {
		resources := srv.Resources()
		if len(resources) != 2 {
			t.Fatalf("got %d resources, want 2", len(resources))
		}
		if resources[0].URI != "prompt://templates/character" {
			t.Errorf("resources[0] = %q, want the template", resources[0].URI)
		}
		if resources[1].URI != "prompt://saved/{id}" {
			t.Errorf("resources[1] = %q, want the saved prompt template", resources[1].URI)
		}
	})

	t.Run("template matching extracts params", func(t *testing.T) {
		r, ok := srv.FindResourceForURI("prompt://saved/greeting")
		if !ok {
			t.Fatal("expected template to match")
		}
		params, ok := r.match("prompt://saved/greeting")
		if !ok || params["id"] != "greeting" {
			t.Errorf("params = %v, want id=greeting", params)
		}
	})

	t.Run("non-matching URI is not found", func(t *testing.T) {
		if _, ok := srv.FindResourceForURI("prompt://other/x/y"); ok {
			t.Error("expected no match for foreign URI")
		}
	})
}

func TestServer_Capabilities(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})
	caps := srv.Capabilities()
	if caps.Tools || caps.Resources {
		t.Errorf("empty server capabilities = %+v, want none", caps)
	}

	registerEcho(t, srv, "echo")
	if !srv.Capabilities().Tools {
		t.Error("expected tools capability after registration")
	}
}
