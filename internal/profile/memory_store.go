package profile

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	weights  map[string]WeightRecord
}

// NewMemoryStore builds an in-memory profile store for testing and
// development mode.
func NewMemoryStore() Store {
	return &memoryStore{
		profiles: make(map[string]Profile),
		weights:  make(map[string]WeightRecord),
	}
}

func (s *memoryStore) PutProfile(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = time.Now().UTC()
	s.profiles[p.Email] = p
	return nil
}

func (s *memoryStore) GetProfile(_ context.Context, email string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[email]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) PutWeight(_ context.Context, rec WeightRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.RecordedAt = time.Now().UTC()
	s.weights[rec.Key] = rec
	return nil
}

func (s *memoryStore) GetWeight(_ context.Context, key string) (WeightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.weights[key]
	if !ok {
		return WeightRecord{}, ErrNotFound
	}
	return rec, nil
}
