package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps scenarios in an in-process map.
// Intended for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewMemoryStore creates an empty in-memory scenario store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scenarios: make(map[string]Scenario)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &sc, nil
}

func (s *MemoryStore) Put(ctx context.Context, sc *Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(sc)
	s.scenarios[sc.ID] = *sc
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenarios[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.scenarios, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Scenario, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, sc)
	}
	sortScenarios(out)
	return out, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
