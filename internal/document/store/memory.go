package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"caretrust/internal/document/models"
	"caretrust/pkg/domain"
	"caretrust/pkg/platform/sentinel"
)

// InMemory holds documents behind a mutex. Used in dev mode and unit tests.
type InMemory struct {
	mu   sync.RWMutex
	docs map[domain.DocumentID]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[domain.DocumentID]*models.Document)}
}

// Put inserts or replaces a document. Upload belongs to the external
// platform; this exists for seeding and tests.
func (s *InMemory) Put(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.docs[d.ID] = &cp
	return nil
}

// Delete removes a document, mirroring replacement-upload semantics.
func (s *InMemory) Delete(_ context.Context, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *InMemory) Get(_ context.Context, id domain.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ListByEntity returns all documents owned by the entity, oldest first.
func (s *InMemory) ListByEntity(_ context.Context, entityID domain.EntityID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, d := range s.docs {
		if d.EntityID == entityID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sortDocs(out)
	return out, nil
}

// ListByKind returns all documents for all entities of a kind, oldest first.
func (s *InMemory) ListByKind(_ context.Context, kind domain.EntityKind) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, d := range s.docs {
		if d.Kind == kind {
			cp := *d
			out = append(out, &cp)
		}
	}
	sortDocs(out)
	return out, nil
}

// UpdateClassification persists a recomputed expiry classification. The only
// document write this service performs.
func (s *InMemory) UpdateClassification(_ context.Context, id domain.DocumentID, status models.DocStatus, daysUntilExpiry int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.Status = status
	d.DaysUntilExpiry = daysUntilExpiry
	d.UpdatedAt = at
	return nil
}

func sortDocs(docs []*models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID.String() < docs[j].ID.String()
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
