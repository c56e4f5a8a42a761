package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caretrust/internal/document/models"
	"caretrust/pkg/domain"
	"caretrust/pkg/platform/sentinel"
)

type InMemoryDocumentSuite struct {
	suite.Suite

	ctx   context.Context
	store *InMemory
	now   time.Time
}

func TestInMemoryDocumentSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDocumentSuite))
}

func (s *InMemoryDocumentSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryDocumentSuite) newDoc(entityID domain.EntityID, docType string, createdAt time.Time) *models.Document {
	return &models.Document{
		ID:                 domain.NewDocumentID(),
		EntityID:           entityID,
		Kind:               domain.KindDoctor,
		Type:               docType,
		VerificationStatus: models.VerificationPending,
		Status:             models.StatusUploaded,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
}

func (s *InMemoryDocumentSuite) TestPutAndGetRoundtrip() {
	doc := s.newDoc(domain.NewEntityID(), "cv", s.now)

	s.Require().NoError(s.store.Put(s.ctx, doc))

	got, err := s.store.Get(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)
	s.Equal("cv", got.Type)
	s.Equal(models.StatusUploaded, got.Status)
}

func (s *InMemoryDocumentSuite) TestGetReturnsCopies() {
	doc := s.newDoc(domain.NewEntityID(), "cv", s.now)
	s.Require().NoError(s.store.Put(s.ctx, doc))

	got, err := s.store.Get(s.ctx, doc.ID)
	s.Require().NoError(err)
	got.Status = models.StatusExpired

	again, err := s.store.Get(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUploaded, again.Status)
}

func (s *InMemoryDocumentSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, domain.NewDocumentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryDocumentSuite) TestListByEntityScopedAndOrdered() {
	entityID := domain.NewEntityID()
	other := domain.NewEntityID()

	newer := s.newDoc(entityID, "dbs_check", s.now)
	older := s.newDoc(entityID, "cv", s.now.Add(-48*time.Hour))
	s.Require().NoError(s.store.Put(s.ctx, newer))
	s.Require().NoError(s.store.Put(s.ctx, older))
	s.Require().NoError(s.store.Put(s.ctx, s.newDoc(other, "cv", s.now)))

	docs, err := s.store.ListByEntity(s.ctx, entityID)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal("cv", docs[0].Type)
	s.Equal("dbs_check", docs[1].Type)
}

func (s *InMemoryDocumentSuite) TestListByKindSpansEntities() {
	s.Require().NoError(s.store.Put(s.ctx, s.newDoc(domain.NewEntityID(), "cv", s.now)))
	s.Require().NoError(s.store.Put(s.ctx, s.newDoc(domain.NewEntityID(), "cv", s.now)))

	business := s.newDoc(domain.NewEntityID(), "business_license", s.now)
	business.Kind = domain.KindBusiness
	s.Require().NoError(s.store.Put(s.ctx, business))

	doctors, err := s.store.ListByKind(s.ctx, domain.KindDoctor)
	s.Require().NoError(err)
	s.Len(doctors, 2)

	businesses, err := s.store.ListByKind(s.ctx, domain.KindBusiness)
	s.Require().NoError(err)
	s.Len(businesses, 1)
}

func (s *InMemoryDocumentSuite) TestUpdateClassification() {
	doc := s.newDoc(domain.NewEntityID(), "cv", s.now.Add(-time.Hour))
	s.Require().NoError(s.store.Put(s.ctx, doc))

	s.Require().NoError(s.store.UpdateClassification(s.ctx, doc.ID, models.StatusExpiring, 5, s.now))

	got, err := s.store.Get(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusExpiring, got.Status)
	s.Equal(5, got.DaysUntilExpiry)
	s.Equal(s.now, got.UpdatedAt)
}

func (s *InMemoryDocumentSuite) TestUpdateClassificationMissing() {
	err := s.store.UpdateClassification(s.ctx, domain.NewDocumentID(), models.StatusExpired, -1, s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryDocumentSuite) TestDelete() {
	doc := s.newDoc(domain.NewEntityID(), "cv", s.now)
	s.Require().NoError(s.store.Put(s.ctx, doc))

	s.Require().NoError(s.store.Delete(s.ctx, doc.ID))

	_, err := s.store.Get(s.ctx, doc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, doc.ID), sentinel.ErrNotFound)
}
