package memory

import (
	"context"
	"sync"

	audit "caretrust/pkg/platform/audit"
)

// InMemoryStore keeps audit events per entity. Used in dev mode and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.EntityID] = append(s.events[event.EntityID], event)
	return nil
}

// ListByEntity returns all events recorded for one entity.
func (s *InMemoryStore) ListByEntity(_ context.Context, entityID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[entityID]...), nil
}

// ListAll returns all audit events across all entities (admin-only operation).
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, evs := range s.events {
		all = append(all, evs...)
	}
	return all, nil
}
