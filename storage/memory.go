package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use and is
// the default backend for tests and ephemeral servers.
type Memory struct {
	mu      sync.RWMutex
	prompts map[string][]Block
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{prompts: make(map[string][]Block)}
}

// Save stores blocks under id, replacing any previous value.
func (m *Memory) Save(_ context.Context, id string, blocks []Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts[id] = slices.Clone(blocks)
	return nil
}

// Load returns the blocks saved under id, or ErrNotFound.
func (m *Memory) Load(_ context.Context, id string) ([]Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blocks, ok := m.prompts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(blocks), nil
}

// List returns all saved ids in lexical order.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.prompts))
	for id := range m.prompts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete removes the prompt saved under id, or returns ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prompts[id]; !ok {
		return ErrNotFound
	}
	delete(m.prompts, id)
	return nil
}
