// Package prompts supplies the prompt-engineering tools and resources
// registered on the server: character sheets, emotional-state records,
// prompt chain assembly, and persistence through a storage.Store.
package prompts

import (
	"fmt"
	"strings"

	"github.com/promptforge/promptmcp/resilience"
	"github.com/promptforge/promptmcp/storage"
)

// CharacterInput describes a character to scaffold a prompt for.
type CharacterInput struct {
	Name      string   `json:"name" jsonschema:"required,description=Character name"`
	Traits    []string `json:"traits,omitempty" jsonschema:"description=Personality traits"`
	Backstory string   `json:"backstory,omitempty"`
}

// EmotionInput records a character's emotional state.
type EmotionInput struct {
	Character string `json:"character" jsonschema:"required"`
	Emotion   string `json:"emotion" jsonschema:"required"`
	Intensity int    `json:"intensity" jsonschema:"description=Strength from 1 to 10"`
	Context   string `json:"context,omitempty"`
}

// BuildInput assembles a prompt from ordered blocks.
type BuildInput struct {
	Blocks []storage.Block `json:"blocks" jsonschema:"required,description=Ordered prompt segments"`
}

// InjectInput splices additional context into an existing prompt.
type InjectInput struct {
	Prompt  string `json:"prompt" jsonschema:"required"`
	Context string `json:"context" jsonschema:"required"`
}

// BuiltPrompt is the result of building or injecting.
type BuiltPrompt struct {
	Prompt string `json:"prompt"`
	Blocks int    `json:"blocks,omitempty"`
}

// characterBlocks renders a character sheet as prompt blocks.
func characterBlocks(in CharacterInput) ([]storage.Block, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, resilience.NewValidation("character name is required", nil)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s", in.Name)
	if len(in.Traits) > 0 {
		fmt.Fprintf(&sb, "\nTraits: %s", strings.Join(in.Traits, ", "))
	}
	if in.Backstory != "" {
		fmt.Fprintf(&sb, "\nBackstory: %s", in.Backstory)
	}

	return []storage.Block{{Type: "character", Content: sb.String()}}, nil
}

// emotionBlocks renders an emotional-state record as prompt blocks.
func emotionBlocks(in EmotionInput) ([]storage.Block, error) {
	if strings.TrimSpace(in.Character) == "" || strings.TrimSpace(in.Emotion) == "" {
		return nil, resilience.NewValidation("character and emotion are required", nil)
	}
	if in.Intensity < 0 || in.Intensity > 10 {
		return nil, resilience.NewValidation("intensity must be between 0 and 10", map[string]any{
			"intensity": in.Intensity,
		})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s feels %s", in.Character, in.Emotion)
	if in.Intensity > 0 {
		fmt.Fprintf(&sb, " (intensity %d/10)", in.Intensity)
	}
	if in.Context != "" {
		fmt.Fprintf(&sb, "\nContext: %s", in.Context)
	}

	return []storage.Block{{Type: "emotional-state", Content: sb.String()}}, nil
}

// buildPrompt concatenates blocks into one prompt document.
func buildPrompt(in BuildInput) (BuiltPrompt, error) {
	if len(in.Blocks) == 0 {
		return BuiltPrompt{}, resilience.NewPromptConstruction("cannot build a prompt from zero blocks", nil)
	}

	parts := make([]string, 0, len(in.Blocks))
	for i, b := range in.Blocks {
		if b.Content == "" {
			return BuiltPrompt{}, resilience.NewPromptConstruction(
				fmt.Sprintf("block %d has no content", i),
				map[string]any{"index": i},
			)
		}
		kind := b.Type
		if kind == "" {
			kind = "text"
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", strings.ToUpper(kind), b.Content))
	}

	return BuiltPrompt{
		Prompt: strings.Join(parts, "\n\n"),
		Blocks: len(in.Blocks),
	}, nil
}

// injectContext appends a context section to an existing prompt.
func injectContext(in InjectInput) (BuiltPrompt, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return BuiltPrompt{}, resilience.NewValidation("prompt is required", nil)
	}
	if strings.TrimSpace(in.Context) == "" {
		return BuiltPrompt{}, resilience.NewValidation("context is required", nil)
	}

	return BuiltPrompt{
		Prompt: in.Prompt + "\n\n[CONTEXT]\n" + in.Context,
	}, nil
}
