package session

import (
	"context"
	"sync"
)

// Store persists player progress.
// Load returns a fresh profile for an unknown player.
type Store interface {
	Load(ctx context.Context, player string) (*Progress, error)
	Save(ctx context.Context, player string, p *Progress) error
}

// MemoryStore keeps progress in process memory
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*Progress
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*Progress)}
}

// Load returns a copy of the stored progress
func (m *MemoryStore) Load(ctx context.Context, player string) (*Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.profiles[player]; ok {
		return p.Clone(), nil
	}
	return NewProgress(player), nil
}

// Save stores a copy of p
func (m *MemoryStore) Save(ctx context.Context, player string, p *Progress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := p.Clone()
	c.Player = player
	m.profiles[player] = c
	return nil
}
