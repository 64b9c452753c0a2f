// Package storage defines the persistence contract consumed by the
// prompt tool handlers, plus the bundled backends.
//
// Backends differ in their concurrency contract and say so in their doc
// comments; the server core only assumes the interface below.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load and Delete when no prompt exists
// under the given id.
var ErrNotFound = errors.New("prompt not found")

// Block is one ordered segment of a saved prompt.
type Block struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Store persists prompt block sequences by id.
type Store interface {
	// Save stores blocks under id, replacing any previous value.
	Save(ctx context.Context, id string, blocks []Block) error

	// Load returns the blocks saved under id, or ErrNotFound.
	Load(ctx context.Context, id string) ([]Block, error)

	// List returns all saved ids in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes the prompt saved under id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
