package prompts

import (
	"context"
	"errors"
	"time"

	"github.com/promptforge/promptmcp/resilience"
	"github.com/promptforge/promptmcp/server"
	"github.com/promptforge/promptmcp/storage"
)

// storeTimeout bounds every storage call made from a tool handler.
const storeTimeout = 5 * time.Second

// SaveInput persists a prompt chain under an id.
type SaveInput struct {
	ID     string          `json:"id" jsonschema:"required,description=Prompt identifier"`
	Blocks []storage.Block `json:"blocks" jsonschema:"required"`
}

// IDInput addresses a saved prompt by id.
type IDInput struct {
	ID string `json:"id" jsonschema:"required"`
}

// ListInput is the (empty) input of list_prompts.
type ListInput struct{}

// SavedPrompt is the result of load_prompt.
type SavedPrompt struct {
	ID     string          `json:"id"`
	Blocks []storage.Block `json:"blocks"`
}

// Status is the result of save_prompt and delete_prompt.
type Status struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

// Register installs the prompt tools and resources on srv. Tool
// handlers reach the store through the resilience kernel: every call is
// raced against a timeout, and best-effort reads fall back to empty
// results.
func Register(srv *server.Server, store storage.Store) error {
	builders := []*server.ToolBuilder{
		srv.Tool("create_character").
			Description("Scaffold a character sheet as prompt blocks").
			ValidateInput().
			Handler(func(in CharacterInput) ([]storage.Block, error) {
				return characterBlocks(in)
			}),

		srv.Tool("record_emotional_state").
			Description("Record a character's emotional state as a prompt block").
			ValidateInput().
			Handler(func(in EmotionInput) ([]storage.Block, error) {
				return emotionBlocks(in)
			}),

		srv.Tool("build_prompt").
			Description("Assemble ordered blocks into a single prompt document").
			ValidateInput().
			Handler(func(in BuildInput) (BuiltPrompt, error) {
				return buildPrompt(in)
			}),

		srv.Tool("inject_context").
			Description("Splice additional context into an existing prompt").
			ValidateInput().
			Handler(func(in InjectInput) (BuiltPrompt, error) {
				return injectContext(in)
			}),

		srv.Tool("save_prompt").
			Description("Persist a prompt chain under an identifier").
			ValidateInput().
			Handler(func(ctx context.Context, in SaveInput) (Status, error) {
				_, err := resilience.WithTimeout(ctx, storeTimeout, "saving prompt timed out",
					func(ctx context.Context) (struct{}, error) {
						return struct{}{}, store.Save(ctx, in.ID, in.Blocks)
					})
				if err != nil {
					return Status{}, err
				}
				return Status{ID: in.ID, OK: true}, nil
			}),

		srv.Tool("load_prompt").
			Description("Load a previously saved prompt chain").
			ValidateInput().
			Handler(func(ctx context.Context, in IDInput) (SavedPrompt, error) {
				blocks, err := resilience.WithTimeout(ctx, storeTimeout, "loading prompt timed out",
					func(ctx context.Context) ([]storage.Block, error) {
						return store.Load(ctx, in.ID)
					})
				if errors.Is(err, storage.ErrNotFound) {
					return SavedPrompt{}, resilience.NewValidation("no prompt saved under id", map[string]any{"id": in.ID})
				}
				if err != nil {
					return SavedPrompt{}, err
				}
				return SavedPrompt{ID: in.ID, Blocks: blocks}, nil
			}),

		srv.Tool("list_prompts").
			Description("List the identifiers of all saved prompts").
			Handler(func(ctx context.Context, _ ListInput) ([]string, error) {
				// Best-effort read: a failing backend yields an empty
				// catalog rather than a tool error.
				ids := resilience.WithFallback(ctx, []string{},
					func(ctx context.Context) ([]string, error) {
						return store.List(ctx)
					}, nil)
				return ids, nil
			}),

		srv.Tool("delete_prompt").
			Description("Delete a saved prompt chain").
			ValidateInput().
			Handler(func(ctx context.Context, in IDInput) (Status, error) {
				err := store.Delete(ctx, in.ID)
				if errors.Is(err, storage.ErrNotFound) {
					return Status{}, resilience.NewValidation("no prompt saved under id", map[string]any{"id": in.ID})
				}
				if err != nil {
					return Status{}, err
				}
				return Status{ID: in.ID, OK: true}, nil
			}),
	}

	for _, b := range builders {
		if err := b.Err(); err != nil {
			return err
		}
	}

	registerResources(srv, store)
	return nil
}

// registerResources installs the static templates and the saved-prompt
// resource.
func registerResources(srv *server.Server, store storage.Store) {
	srv.Resource("prompt://templates/character").
		Name("Character template").
		Description("Skeleton for a character sheet block").
		MimeType("text/plain").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*server.ResourceContent, error) {
			return &server.ResourceContent{
				URI:      uri,
				MimeType: "text/plain",
				Text:     "Name: <name>\nTraits: <comma-separated traits>\nBackstory: <one paragraph>",
			}, nil
		})

	srv.Resource("prompt://templates/emotional-state").
		Name("Emotional state template").
		Description("Skeleton for an emotional-state block").
		MimeType("text/plain").
		Handler(func(_ context.Context, uri string, _ map[string]string) (*server.ResourceContent, error) {
			return &server.ResourceContent{
				URI:      uri,
				MimeType: "text/plain",
				Text:     "<character> feels <emotion> (intensity <1-10>/10)\nContext: <situation>",
			}, nil
		})

	srv.Resource("prompt://saved/{id}").
		Name("Saved prompt").
		Description("A previously saved prompt chain, rendered as a document").
		MimeType("text/plain").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*server.ResourceContent, error) {
			blocks, err := store.Load(ctx, params["id"])
			if err != nil {
				return nil, err
			}
			built, err := buildPrompt(BuildInput{Blocks: blocks})
			if err != nil {
				return nil, err
			}
			return &server.ResourceContent{
				URI:      uri,
				MimeType: "text/plain",
				Text:     built.Prompt,
			}, nil
		})
}
