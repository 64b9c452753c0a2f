package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
)

// Dir stores each prompt as one JSON file in a directory. It assumes a
// single writer; concurrent writers may interleave at the filesystem
// level.
type Dir struct {
	root string
}

// NewDir creates a directory-backed store rooted at root, creating the
// directory if needed. An empty root places prompts under the XDG data
// home (e.g. ~/.local/share/promptmcp/prompts).
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = filepath.Join(xdg.DataHome, "promptmcp", "prompts")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory prompts are stored in.
func (d *Dir) Root() string {
	return d.root
}

// Save stores blocks under id, replacing any previous value.
func (d *Dir) Save(_ context.Context, id string, blocks []Block) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompt %q: %w", id, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load returns the blocks saved under id, or ErrNotFound.
func (d *Dir) Load(_ context.Context, id string) ([]Block, error) {
	path, err := d.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("decode prompt %q: %w", id, err)
	}
	return blocks, nil
}

// List returns all saved ids in lexical order.
func (d *Dir) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete removes the prompt saved under id, or returns ErrNotFound.
func (d *Dir) Delete(_ context.Context, id string) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// path maps an id to a file path, rejecting ids that would escape the
// storage directory.
func (d *Dir) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid prompt id %q", id)
	}
	return filepath.Join(d.root, id+".json"), nil
}
