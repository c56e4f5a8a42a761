package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	docmodels "caretrust/internal/document/models"
	docstore "caretrust/internal/document/store"
	entitymodels "caretrust/internal/entity/models"
	entitystore "caretrust/internal/entity/store"
	"caretrust/internal/registry"
	"caretrust/internal/verification/evaluator"
	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
	"caretrust/pkg/requestcontext"
)

type ReconcileSuite struct {
	suite.Suite

	ctx      context.Context
	now      time.Time
	docs     *docstore.InMemory
	entities *entitystore.InMemory
	registry *registry.Registry
	service  *Service
}

func TestReconcileSuite(t *testing.T) {
	suite.Run(t, new(ReconcileSuite))
}

func (s *ReconcileSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.docs = docstore.NewInMemory()
	s.entities = entitystore.NewInMemory()
	s.registry = registry.New()
	s.service = New(s.docs, s.entities, s.registry)
}

func (s *ReconcileSuite) seedEntity(kind domain.EntityKind, verified bool) *entitymodels.Entity {
	e := &entitymodels.Entity{
		ID:         domain.NewEntityID(),
		Kind:       kind,
		Name:       "Test " + string(kind),
		Email:      "owner@example.com",
		IsVerified: verified,
		CreatedAt:  s.now.Add(-24 * time.Hour),
		UpdatedAt:  s.now.Add(-24 * time.Hour),
	}
	s.Require().NoError(s.entities.Put(s.ctx, e))
	return e
}

func (s *ReconcileSuite) seedFullDocumentSet(e *entitymodels.Entity, status docmodels.VerificationStatus) {
	for _, def := range s.registry.Required(e.Kind) {
		doc := &docmodels.Document{
			ID:                 domain.NewDocumentID(),
			EntityID:           e.ID,
			Kind:               e.Kind,
			Type:               def.Key,
			VerificationStatus: status,
			Status:             docmodels.CurrentStatus(e.Kind),
			CreatedAt:          s.now.Add(-time.Hour),
			UpdatedAt:          s.now.Add(-time.Hour),
		}
		s.Require().NoError(s.docs.Put(s.ctx, doc))
	}
}

func (s *ReconcileSuite) TestGrantsVerificationWhenAllRequiredVerified() {
	e := s.seedEntity(domain.KindBusiness, false)
	s.seedFullDocumentSet(e, docmodels.VerificationVerified)

	result, err := s.service.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)

	s.True(result.StatusChanged)
	s.True(result.IsVerified)
	s.Equal(evaluator.ReasonAllVerified, result.Reason)

	stored, err := s.entities.Get(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.True(stored.IsVerified)
	s.Equal(evaluator.ReasonAllVerified, stored.VerificationStatusReason)
	s.Require().NotNil(stored.VerificationStatusUpdatedAt)
	s.Equal(s.now, *stored.VerificationStatusUpdatedAt)
}

func (s *ReconcileSuite) TestRevokesVerificationWhenDocumentRejected() {
	e := s.seedEntity(domain.KindBusiness, true)
	s.seedFullDocumentSet(e, docmodels.VerificationVerified)

	docs, err := s.docs.ListByEntity(s.ctx, e.ID)
	s.Require().NoError(err)
	docs[0].VerificationStatus = docmodels.VerificationRejected
	s.Require().NoError(s.docs.Put(s.ctx, docs[0]))

	result, err := s.service.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)

	s.True(result.StatusChanged)
	s.False(result.IsVerified)
	s.Contains(result.Reason, "1 rejected")

	stored, err := s.entities.Get(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.False(stored.IsVerified)
}

func (s *ReconcileSuite) TestIdempotentWhenNothingChanged() {
	e := s.seedEntity(domain.KindDoctor, false)
	s.seedFullDocumentSet(e, docmodels.VerificationVerified)

	first, err := s.service.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.True(first.StatusChanged)

	afterFirst, err := s.entities.Get(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)

	second, err := s.service.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.False(second.StatusChanged)
	s.Equal(first.Reason, second.Reason)

	afterSecond, err := s.entities.Get(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.Equal(afterFirst.VerificationStatusUpdatedAt, afterSecond.VerificationStatusUpdatedAt)
}

func (s *ReconcileSuite) TestNoWriteWhenStatusAlreadyCorrect() {
	e := s.seedEntity(domain.KindDoctor, false)
	// no documents at all

	result, err := s.service.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)

	s.False(result.StatusChanged)
	s.False(result.IsVerified)
	s.Equal(evaluator.ReasonNoDocuments, result.Reason)

	stored, err := s.entities.Get(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.Empty(stored.VerificationStatusReason)
}

func (s *ReconcileSuite) TestEntityNotFound() {
	_, err := s.service.Reconcile(s.ctx, domain.NewEntityID(), domain.KindDoctor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ReconcileSuite) TestRejectsInvalidInput() {
	s.Run("nil entity id", func() {
		_, err := s.service.Reconcile(s.ctx, domain.EntityID{}, domain.KindDoctor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown kind", func() {
		_, err := s.service.Reconcile(s.ctx, domain.NewEntityID(), domain.EntityKind("clinic"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ReconcileSuite) TestAuditEmittedOnStatusChange() {
	ctrl := gomock.NewController(s.T())
	publisher := NewMockAuditPublisher(ctrl)
	svc := New(s.docs, s.entities, s.registry, WithAuditPublisher(publisher))

	e := s.seedEntity(domain.KindBusiness, false)
	s.seedFullDocumentSet(e, docmodels.VerificationVerified)

	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	result, err := svc.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.True(result.StatusChanged)
}

func (s *ReconcileSuite) TestAuditFailureDoesNotBlockStatusWrite() {
	ctrl := gomock.NewController(s.T())
	publisher := NewMockAuditPublisher(ctrl)
	svc := New(s.docs, s.entities, s.registry, WithAuditPublisher(publisher))

	e := s.seedEntity(domain.KindBusiness, false)
	s.seedFullDocumentSet(e, docmodels.VerificationVerified)

	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeInternal, "broker unavailable")).
		Times(1)

	result, err := svc.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.True(result.StatusChanged)

	stored, err := s.entities.Get(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.True(stored.IsVerified)
}

func (s *ReconcileSuite) TestNoAuditWhenUnchanged() {
	ctrl := gomock.NewController(s.T())
	publisher := NewMockAuditPublisher(ctrl)
	svc := New(s.docs, s.entities, s.registry, WithAuditPublisher(publisher))

	e := s.seedEntity(domain.KindDoctor, false)

	result, err := svc.Reconcile(s.ctx, e.ID, e.Kind)
	s.Require().NoError(err)
	s.False(result.StatusChanged)
}
