package store

import (
	"context"
	"sort"
	"sync"

	"caretrust/internal/entity/models"
	"caretrust/pkg/domain"
	"caretrust/pkg/platform/sentinel"
)

// InMemory holds entities behind a mutex. Used in dev mode and unit tests;
// production uses the Postgres store.
type InMemory struct {
	mu       sync.RWMutex
	entities map[domain.EntityID]*models.Entity
}

func NewInMemory() *InMemory {
	return &InMemory{entities: make(map[domain.EntityID]*models.Entity)}
}

// Put inserts or replaces an entity. The external platform owns entity
// creation; this exists for seeding and tests.
func (s *InMemory) Put(_ context.Context, e *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entities[e.ID] = &cp
	return nil
}

func (s *InMemory) Get(_ context.Context, id domain.EntityID, kind domain.EntityKind) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok || e.Kind != kind {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ListIDs returns all entity IDs of a kind in a stable order.
func (s *InMemory) ListIDs(_ context.Context, kind domain.EntityKind) ([]domain.EntityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []domain.EntityID
	for _, e := range s.entities {
		if e.Kind == kind {
			ids = append(ids, e.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// List returns all entities of a kind.
func (s *InMemory) List(_ context.Context, kind domain.EntityKind) ([]*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entity
	for _, e := range s.entities {
		if e.Kind == kind {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// UpdateVerification persists the three aggregate status fields and nothing else.
func (s *InMemory) UpdateVerification(_ context.Context, id domain.EntityID, update models.VerificationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.IsVerified = update.IsVerified
	e.VerificationStatusReason = update.Reason
	at := update.UpdatedAt
	e.VerificationStatusUpdatedAt = &at
	e.UpdatedAt = update.UpdatedAt
	return nil
}
