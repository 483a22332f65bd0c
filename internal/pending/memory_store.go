package pending

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	regs map[string]Registration
}

// NewMemoryStore builds an in-memory pending registration store for testing
// and development mode.
func NewMemoryStore() Store {
	return &memoryStore{regs: make(map[string]Registration)}
}

func (s *memoryStore) Put(_ context.Context, token string, reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[token] = reg
	return nil
}

func (s *memoryStore) Get(_ context.Context, token string) (Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regs[token]
	if !ok {
		return Registration{}, ErrNotFound
	}
	return reg, nil
}

func (s *memoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regs, token)
	return nil
}
