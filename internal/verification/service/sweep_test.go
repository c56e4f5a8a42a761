package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	docmodels "caretrust/internal/document/models"
	docstore "caretrust/internal/document/store"
	entitymodels "caretrust/internal/entity/models"
	entitystore "caretrust/internal/entity/store"
	"caretrust/internal/registry"
	"caretrust/pkg/domain"
	"caretrust/pkg/requestcontext"
)

type SweepSuite struct {
	suite.Suite

	ctx      context.Context
	now      time.Time
	docs     *docstore.InMemory
	entities *entitystore.InMemory
	registry *registry.Registry
	service  *Service
	sink     *recordingReminderSink
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(SweepSuite))
}

func (s *SweepSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.docs = docstore.NewInMemory()
	s.entities = entitystore.NewInMemory()
	s.registry = registry.New()
	s.sink = &recordingReminderSink{}
	s.service = New(s.docs, s.entities, s.registry, WithReminderSink(s.sink))
}

func (s *SweepSuite) seedVerifiedBusiness() *entitymodels.Entity {
	e := &entitymodels.Entity{
		ID:         domain.NewEntityID(),
		Kind:       domain.KindBusiness,
		Name:       "Clinic",
		Email:      "clinic@example.com",
		IsVerified: true,
	}
	s.Require().NoError(s.entities.Put(s.ctx, e))
	for _, def := range s.registry.Required(domain.KindBusiness) {
		doc := &docmodels.Document{
			ID:                 domain.NewDocumentID(),
			EntityID:           e.ID,
			Kind:               domain.KindBusiness,
			Type:               def.Key,
			VerificationStatus: docmodels.VerificationVerified,
			Status:             docmodels.StatusValid,
		}
		s.Require().NoError(s.docs.Put(s.ctx, doc))
	}
	return e
}

func (s *SweepSuite) setExpiry(entityID domain.EntityID, docType string, expiry time.Time) *docmodels.Document {
	docs, err := s.docs.ListByEntity(s.ctx, entityID)
	s.Require().NoError(err)
	for _, doc := range docs {
		if doc.Type == docType {
			doc.AutoExpiry = true
			doc.ExpiryDate = &expiry
			s.Require().NoError(s.docs.Put(s.ctx, doc))
			return doc
		}
	}
	s.Require().FailNow("document type not seeded", docType)
	return nil
}

func (s *SweepSuite) TestMarksExpiredAndRevokesVerification() {
	e := s.seedVerifiedBusiness()
	expired := s.setExpiry(e.ID, "insurance_certificate", s.now.Add(-24*time.Hour))

	result, err := s.service.SweepExpiry(s.ctx, domain.KindBusiness)
	s.Require().NoError(err)

	s.Equal(1, result.Reclassified)
	s.Equal(1, result.Expired)
	s.Zero(result.Expiring)
	s.Equal(1, result.EntitiesReconciled)
	s.Empty(result.Errors)

	doc, err := s.docs.Get(s.ctx, expired.ID)
	s.Require().NoError(err)
	s.Equal(docmodels.StatusExpired, doc.Status)

	stored, err := s.entities.Get(s.ctx, e.ID, domain.KindBusiness)
	s.Require().NoError(err)
	s.False(stored.IsVerified)
	s.Contains(stored.VerificationStatusReason, "1 expired")
}

func (s *SweepSuite) TestQueuesReminderForExpiringDocument() {
	e := s.seedVerifiedBusiness()
	expiring := s.setExpiry(e.ID, "business_license", s.now.Add(10*24*time.Hour))

	result, err := s.service.SweepExpiry(s.ctx, domain.KindBusiness)
	s.Require().NoError(err)

	s.Equal(1, result.Expiring)
	s.Equal(1, result.RemindersQueued)
	s.Require().Len(s.sink.calls, 1)
	s.Equal(e.ID, s.sink.calls[0].entity.ID)
	s.Equal(expiring.ID, s.sink.calls[0].doc.ID)
	s.Equal(10, s.sink.calls[0].days)

	// expiring alone does not revoke: the document is still verified
	stored, err := s.entities.Get(s.ctx, e.ID, domain.KindBusiness)
	s.Require().NoError(err)
	s.True(stored.IsVerified)
}

func (s *SweepSuite) TestSecondSweepIsANoOp() {
	e := s.seedVerifiedBusiness()
	s.setExpiry(e.ID, "insurance_certificate", s.now.Add(-24*time.Hour))

	first, err := s.service.SweepExpiry(s.ctx, domain.KindBusiness)
	s.Require().NoError(err)
	s.Equal(1, first.Reclassified)

	second, err := s.service.SweepExpiry(s.ctx, domain.KindBusiness)
	s.Require().NoError(err)
	s.Zero(second.Reclassified)
	s.Zero(second.EntitiesReconciled)
}

func (s *SweepSuite) TestReminderFailureDoesNotAbortSweep() {
	e := s.seedVerifiedBusiness()
	s.setExpiry(e.ID, "business_license", s.now.Add(5*24*time.Hour))
	s.sink.fail = true

	result, err := s.service.SweepExpiry(s.ctx, domain.KindBusiness)
	s.Require().NoError(err)

	s.Equal(1, result.Expiring)
	s.Zero(result.RemindersQueued)
	s.Equal(1, result.Reclassified)
}

type reminderCall struct {
	entity *entitymodels.Entity
	doc    *docmodels.Document
	days   int
}

type recordingReminderSink struct {
	calls []reminderCall
	fail  bool
}

func (r *recordingReminderSink) EnqueueExpiry(_ context.Context, entity *entitymodels.Entity, doc *docmodels.Document, days int) error {
	if r.fail {
		return context.DeadlineExceeded
	}
	r.calls = append(r.calls, reminderCall{entity: entity, doc: doc, days: days})
	return nil
}
